package monitor

import (
	"time"

	"github.com/fastygo/composite/domain"
)

// Component is the last observed state of one probe.
type Component struct {
	Status  domain.HealthStatus `json:"status"`
	Error   string              `json:"error,omitempty"`
	Details map[string]any      `json:"details,omitempty"`
}

type Status struct {
	Components map[string]Component `json:"components"`
	LastCheck  time.Time            `json:"last_check"`
}

// Overall is UP only when at least one check ran and every component is UP.
func (s Status) Overall() domain.HealthStatus {
	if s.LastCheck.IsZero() {
		return domain.HealthDown
	}
	for _, c := range s.Components {
		if c.Status != domain.HealthUp {
			return domain.HealthDown
		}
	}
	return domain.HealthUp
}
