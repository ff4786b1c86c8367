package domain

// HealthStatus is the coarse state reported by /actuator/health.
type HealthStatus string

const (
	HealthUp   HealthStatus = "UP"
	HealthDown HealthStatus = "DOWN"
)
