package domain

// CheckStatus is the outcome of one health check.
type CheckStatus string

// Health check outcomes.
const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// HealthCheck is the result of checking one dependency.
type HealthCheck struct {
	Name   string
	Status CheckStatus
	Detail string
}

// HealthReport collects the checks run by `doctor`.
type HealthReport struct {
	Checks []HealthCheck
}

// Healthy returns true when no check failed. Warnings do not count.
func (r HealthReport) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == CheckFail {
			return false
		}
	}
	return true
}
