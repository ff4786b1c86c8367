package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/composite/domain"
)

func TestRefreshAggregatesProbes(t *testing.T) {
	m := New([]Probe{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
		{Name: "deadletter", Details: func() map[string]any { return map[string]any{"size": 2} }},
	}, time.Minute, nil)

	assert.False(t, m.IsOnline(), "no check ran yet")

	status := m.Refresh(context.Background())
	assert.Equal(t, domain.HealthUp, status.Overall())
	assert.True(t, m.IsOnline())
	assert.Equal(t, 2, status.Components["deadletter"].Details["size"])
}

func TestRefreshReportsDownComponents(t *testing.T) {
	m := New([]Probe{
		{Name: "product", Check: func(context.Context) error { return nil }},
		{Name: "review", Check: func(context.Context) error { return errors.New("review service is down") }},
	}, time.Minute, nil)

	status := m.Refresh(context.Background())
	require.Len(t, status.Components, 2)
	assert.Equal(t, domain.HealthDown, status.Overall())
	assert.Equal(t, domain.HealthDown, status.Components["review"].Status)
	assert.Equal(t, "review service is down", status.Components["review"].Error)
	assert.Equal(t, domain.HealthUp, status.Components["product"].Status)
}

func TestStartStop(t *testing.T) {
	m := New([]Probe{{Name: "redis"}}, 5*time.Millisecond, nil)
	m.Start()
	require.Eventually(t, m.IsOnline, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()
}
