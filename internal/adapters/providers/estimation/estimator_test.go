package estimation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimed-health/backend/internal/domain/entities"
)

func TestBaselineEstimator_EstimateWait(t *testing.T) {
	est := NewBaselineEstimator(30)
	ctx := context.Background()

	assert.Equal(t, 45, est.EstimateWait(ctx, &entities.Hospital{BaselineWaitMin: 45}))
	assert.Equal(t, 30, est.EstimateWait(ctx, &entities.Hospital{}))
	assert.Equal(t, 30, est.EstimateWait(ctx, nil))
}

func TestBaselineEstimator_EstimatePosition(t *testing.T) {
	est := NewBaselineEstimator(30)
	ctx := context.Background()

	assert.Equal(t, 1, est.EstimatePosition(ctx, "h1", 0))
	assert.Equal(t, 7, est.EstimatePosition(ctx, "h1", 6))
	assert.Equal(t, 1, est.EstimatePosition(ctx, "h1", -3))
}

func TestJitteredEstimator_StaysWithinBounds(t *testing.T) {
	est := NewJitteredEstimator(NewBaselineEstimator(30), 10)
	ctx := context.Background()
	hospital := &entities.Hospital{BaselineWaitMin: 45}

	for i := 0; i < 200; i++ {
		wait := est.EstimateWait(ctx, hospital)
		assert.GreaterOrEqual(t, wait, 35)
		assert.LessOrEqual(t, wait, 55)
	}
}

func TestJitteredEstimator_ZeroJitterReturnsInner(t *testing.T) {
	inner := NewBaselineEstimator(30)
	assert.Equal(t, inner, NewJitteredEstimator(inner, 0))
}
