package providers

import (
	"context"

	"github.com/optimed-health/backend/internal/domain/entities"
)

// WaitEstimator produces wait and position estimates for queue joins. There
// is no real scheduling authority behind these numbers; the interface exists
// so a staff-driven or queueing-model assignment can replace the current
// estimators without touching call sites.
type WaitEstimator interface {
	// EstimateWait returns the estimated wait in minutes for joining the
	// queue at the given hospital. hospital may be nil when resolution
	// failed; implementations fall back to a default.
	EstimateWait(ctx context.Context, hospital *entities.Hospital) int

	// EstimatePosition returns the estimated queue position given the
	// number of entries currently waiting at the hospital.
	EstimatePosition(ctx context.Context, hospitalID string, waitingCount int) int
}
