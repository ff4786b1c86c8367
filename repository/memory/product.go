// Package memory holds map-backed stores used by tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/repository"
)

type ProductStore struct {
	mu    sync.RWMutex
	items map[int]domain.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{items: make(map[int]domain.Product)}
}

func (s *ProductStore) FindByProductID(_ context.Context, productID int) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (s *ProductStore) Save(_ context.Context, product *domain.Product) (repository.SaveOutcome, error) {
	if product == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[product.ProductID]; exists {
		return repository.SaveDuplicateKey, nil
	}
	stored := *product
	stored.ServiceAddress = ""
	stored.Version = 0
	s.items[product.ProductID] = stored
	product.Version = 0
	return repository.SaveOK, nil
}

func (s *ProductStore) Update(_ context.Context, product *domain.Product) (repository.SaveOutcome, error) {
	if product == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.items[product.ProductID]
	if !exists || current.Version != product.Version {
		return repository.SaveLockConflict, nil
	}
	stored := *product
	stored.ServiceAddress = ""
	stored.Version++
	s.items[product.ProductID] = stored
	product.Version = stored.Version
	return repository.SaveOK, nil
}

func (s *ProductStore) DeleteByProductID(_ context.Context, productID int) error {
	s.mu.Lock()
	delete(s.items, productID)
	s.mu.Unlock()
	return nil
}

var _ repository.ProductRepository = (*ProductStore)(nil)
