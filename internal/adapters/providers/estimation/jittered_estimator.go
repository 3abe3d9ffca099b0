package estimation

import (
	"context"
	"math/rand"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
)

// JitteredEstimator wraps another estimator and spreads its wait estimates by
// up to +/- jitterMinutes for display variety. The jitter carries no semantic
// guarantee and never drives correctness.
type JitteredEstimator struct {
	inner         providers.WaitEstimator
	jitterMinutes int
}

// NewJitteredEstimator creates a jittered estimator around inner.
func NewJitteredEstimator(inner providers.WaitEstimator, jitterMinutes int) providers.WaitEstimator {
	if jitterMinutes <= 0 {
		return inner
	}
	return &JitteredEstimator{inner: inner, jitterMinutes: jitterMinutes}
}

// EstimateWait returns the inner estimate shifted by a random offset in
// [-jitter, +jitter], floored at one minute.
func (e *JitteredEstimator) EstimateWait(ctx context.Context, hospital *entities.Hospital) int {
	base := e.inner.EstimateWait(ctx, hospital)
	offset := rand.Intn(2*e.jitterMinutes+1) - e.jitterMinutes
	estimate := base + offset
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

// EstimatePosition delegates to the inner estimator.
func (e *JitteredEstimator) EstimatePosition(ctx context.Context, hospitalID string, waitingCount int) int {
	return e.inner.EstimatePosition(ctx, hospitalID, waitingCount)
}
