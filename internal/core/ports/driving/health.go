package driving

import (
	"context"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// HealthService checks that configured dependencies are usable.
type HealthService interface {
	// Check runs every check and reports each one. It never fails as a
	// whole; failures are reported per check.
	Check(ctx context.Context) domain.HealthReport
}
