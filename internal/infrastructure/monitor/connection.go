package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
)

// Probe checks one dependency. Details, when set, adds facts to the report.
type Probe struct {
	Name    string
	Check   func(ctx context.Context) error
	Details func() map[string]any
}

// Monitor refreshes every probe on an interval and serves the last result.
type Monitor struct {
	probes  []Probe
	timeout time.Duration

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(probes []Probe, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		timeout:  3 * time.Second,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Overall() == domain.HealthUp
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe concurrently and stores the outcome.
func (m *Monitor) Refresh(ctx context.Context) Status {
	components := make(map[string]Component, len(m.probes))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, probe := range m.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			c := m.check(ctx, p)
			mu.Lock()
			components[p.Name] = c
			mu.Unlock()
		}(probe)
	}
	wg.Wait()

	status := Status{Components: components, LastCheck: time.Now()}
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) check(ctx context.Context, p Probe) Component {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	c := Component{Status: domain.HealthUp}
	if p.Check != nil {
		if err := p.Check(ctx); err != nil {
			m.logger.Warn("health probe failed", zap.String("component", p.Name), zap.Error(err))
			c.Status = domain.HealthDown
			c.Error = err.Error()
		}
	}
	if p.Details != nil {
		c.Details = p.Details()
	}
	return c
}
