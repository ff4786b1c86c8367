package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/repository"
)

type childKey struct {
	productID int
	childID   int
}

// childStore keeps entities owned by a product, unique per (product id, child id).
type childStore[T any] struct {
	mu      sync.RWMutex
	items   map[childKey]T
	key     func(T) childKey
	version func(*T) *int
}

func (s *childStore[T]) find(productID int) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]childKey, 0)
	for k := range s.items {
		if k.productID == productID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].childID < keys[j].childID })
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.items[k])
	}
	return out
}

func (s *childStore[T]) save(item *T) repository.SaveOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(*item)
	if _, exists := s.items[k]; exists {
		return repository.SaveDuplicateKey
	}
	*s.version(item) = 0
	s.items[k] = *item
	return repository.SaveOK
}

func (s *childStore[T]) update(item *T) repository.SaveOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(*item)
	current, exists := s.items[k]
	if !exists || *s.version(&current) != *s.version(item) {
		return repository.SaveLockConflict
	}
	*s.version(item)++
	s.items[k] = *item
	return repository.SaveOK
}

func (s *childStore[T]) deleteAll(productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.items {
		if k.productID == productID {
			delete(s.items, k)
		}
	}
}

type RecommendationStore struct {
	store childStore[domain.Recommendation]
}

func NewRecommendationStore() *RecommendationStore {
	return &RecommendationStore{store: childStore[domain.Recommendation]{
		items: make(map[childKey]domain.Recommendation),
		key: func(r domain.Recommendation) childKey {
			return childKey{productID: r.ProductID, childID: r.RecommendationID}
		},
		version: func(r *domain.Recommendation) *int { return &r.Version },
	}}
}

func (s *RecommendationStore) FindByProductID(_ context.Context, productID int) ([]domain.Recommendation, error) {
	return s.store.find(productID), nil
}

func (s *RecommendationStore) Save(_ context.Context, r *domain.Recommendation) (repository.SaveOutcome, error) {
	if r == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	r.ServiceAddress = ""
	return s.store.save(r), nil
}

func (s *RecommendationStore) Update(_ context.Context, r *domain.Recommendation) (repository.SaveOutcome, error) {
	if r == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	r.ServiceAddress = ""
	return s.store.update(r), nil
}

func (s *RecommendationStore) DeleteByProductID(_ context.Context, productID int) error {
	s.store.deleteAll(productID)
	return nil
}

type ReviewStore struct {
	store childStore[domain.Review]
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{store: childStore[domain.Review]{
		items: make(map[childKey]domain.Review),
		key: func(r domain.Review) childKey {
			return childKey{productID: r.ProductID, childID: r.ReviewID}
		},
		version: func(r *domain.Review) *int { return &r.Version },
	}}
}

func (s *ReviewStore) FindByProductID(_ context.Context, productID int) ([]domain.Review, error) {
	return s.store.find(productID), nil
}

func (s *ReviewStore) Save(_ context.Context, r *domain.Review) (repository.SaveOutcome, error) {
	if r == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	r.ServiceAddress = ""
	return s.store.save(r), nil
}

func (s *ReviewStore) Update(_ context.Context, r *domain.Review) (repository.SaveOutcome, error) {
	if r == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	r.ServiceAddress = ""
	return s.store.update(r), nil
}

func (s *ReviewStore) DeleteByProductID(_ context.Context, productID int) error {
	s.store.deleteAll(productID)
	return nil
}

var (
	_ repository.RecommendationRepository = (*RecommendationStore)(nil)
	_ repository.ReviewRepository         = (*ReviewStore)(nil)
)
