package estimation

import (
	"context"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
)

// BaselineEstimator estimates waits from the hospital's baseline wait time
// and positions from the count of entries already waiting. Estimates are
// best-effort; nothing arbitrates them across clients.
type BaselineEstimator struct {
	defaultWaitMinutes int
}

// NewBaselineEstimator creates a baseline estimator. defaultWaitMinutes is
// used when the hospital is unknown or carries no baseline.
func NewBaselineEstimator(defaultWaitMinutes int) providers.WaitEstimator {
	if defaultWaitMinutes <= 0 {
		defaultWaitMinutes = 30
	}
	return &BaselineEstimator{defaultWaitMinutes: defaultWaitMinutes}
}

// EstimateWait returns the hospital's baseline wait, or the default when the
// hospital is unresolved or has no baseline recorded.
func (e *BaselineEstimator) EstimateWait(ctx context.Context, hospital *entities.Hospital) int {
	if hospital == nil || hospital.BaselineWaitMin <= 0 {
		return e.defaultWaitMinutes
	}
	return hospital.BaselineWaitMin
}

// EstimatePosition returns waitingCount + 1.
func (e *BaselineEstimator) EstimatePosition(ctx context.Context, hospitalID string, waitingCount int) int {
	if waitingCount < 0 {
		waitingCount = 0
	}
	return waitingCount + 1
}
