package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimed-health/backend/internal/domain/entities"
)

const fullAssessmentMessage = `Thank you for the details. Based on what you've described:

ASSESSMENT:
Severity: 3
Urgency: moderate
Action: Visit an emergency room within the next few hours
Wait Time: 45

Please head to your nearest hospital.`

func TestAssessmentExtractor_Extract(t *testing.T) {
	extractor := NewAssessmentExtractor()

	t.Run("complete block yields all four fields", func(t *testing.T) {
		assessment := extractor.Extract(fullAssessmentMessage)

		require.NotNil(t, assessment)
		assert.Equal(t, 3, assessment.Severity)
		assert.Equal(t, entities.UrgencyModerate, assessment.Urgency)
		assert.Equal(t, "Visit an emergency room within the next few hours", assessment.RecommendedAction)
		assert.Equal(t, 45, assessment.EstimatedWaitTime)
	})

	t.Run("no marker means no extraction even with matching fields", func(t *testing.T) {
		message := "Your pain sounds like Severity: 3 with Urgency: moderate. " +
			"Action: rest at home. Wait Time: 10 minutes is typical."

		assert.Nil(t, extractor.Extract(message))
	})

	t.Run("marker without all fields yields nil, never a partial", func(t *testing.T) {
		message := "ASSESSMENT:\nSeverity: 4\nUrgency: urgent\nAction: Go to the ER now"

		assert.Nil(t, extractor.Extract(message))
	})

	t.Run("severity captures a single digit", func(t *testing.T) {
		message := "ASSESSMENT:\nSeverity: 15\nUrgency: urgent\nAction: Go now\nWait Time: 20"

		assessment := extractor.Extract(message)
		require.NotNil(t, assessment)
		assert.Equal(t, 1, assessment.Severity)
	})

	t.Run("unknown urgency band is carried through", func(t *testing.T) {
		message := "ASSESSMENT:\nSeverity: 2\nUrgency: critical\nAction: Seek care\nWait Time: 30"

		assessment := extractor.Extract(message)
		require.NotNil(t, assessment)
		assert.Equal(t, entities.Urgency("critical"), assessment.Urgency)
		assert.False(t, assessment.IsKnownUrgency())
	})

	t.Run("urgency token is lowercased", func(t *testing.T) {
		message := "ASSESSMENT:\nSeverity: 5\nUrgency: EMERGENCY\nAction: Call 911\nWait Time: 0"

		assessment := extractor.Extract(message)
		require.NotNil(t, assessment)
		assert.Equal(t, entities.UrgencyEmergency, assessment.Urgency)
	})

	t.Run("action stops at the newline", func(t *testing.T) {
		message := "ASSESSMENT:\nSeverity: 2\nUrgency: low\nAction: Rest and ice the ankle\nWait Time: 15\nExtra trailing text"

		assessment := extractor.Extract(message)
		require.NotNil(t, assessment)
		assert.Equal(t, "Rest and ice the ankle", assessment.RecommendedAction)
	})

	t.Run("fields may appear in any order after the marker", func(t *testing.T) {
		message := "ASSESSMENT:\nWait Time: 60\nAction: See a doctor today\nSeverity: 4\nUrgency: urgent"

		assessment := extractor.Extract(message)
		require.NotNil(t, assessment)
		assert.Equal(t, 4, assessment.Severity)
		assert.Equal(t, 60, assessment.EstimatedWaitTime)
	})
}

func TestAssessmentExtractor_HasAssessment(t *testing.T) {
	extractor := NewAssessmentExtractor()

	assert.True(t, extractor.HasAssessment("Here it is.\nASSESSMENT:\nSeverity: 1"))
	assert.False(t, extractor.HasAssessment("Can you tell me more about your symptoms?"))
}
