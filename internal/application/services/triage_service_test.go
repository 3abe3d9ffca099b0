package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

type MockTriageProvider struct {
	mock.Mock
}

func (m *MockTriageProvider) StreamCompletion(ctx context.Context, messages []entities.ChatMessage, onDelta func(delta string) error) (string, error) {
	args := m.Called(ctx, messages, onDelta)
	reply := args.String(0)

	if onDelta != nil && args.Error(1) == nil {
		// Stream the reply in two halves to exercise delta handling
		mid := len(reply) / 2
		_ = onDelta(reply[:mid])
		_ = onDelta(reply[mid:])
	}

	return reply, args.Error(1)
}

func userTurn(content string) []entities.ChatMessage {
	return []entities.ChatMessage{{Role: entities.ChatRoleUser, Content: content}}
}

func TestTriageService_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("follow-up question yields no assessment", func(t *testing.T) {
		provider := new(MockTriageProvider)
		service := services.NewTriageService(provider, services.NewAssessmentExtractor(), nil)

		provider.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
			Return("How long ago did the injury happen?", nil)

		var streamed strings.Builder
		turn, err := service.Chat(ctx, userTurn("I hurt my ankle"), func(delta string) error {
			streamed.WriteString(delta)
			return nil
		})

		require.NoError(t, err)
		assert.Nil(t, turn.Assessment)
		assert.False(t, turn.Complete)
		assert.Equal(t, "How long ago did the injury happen?", turn.Message)
		assert.Equal(t, turn.Message, streamed.String())
	})

	t.Run("assessment block is parsed from the completed turn", func(t *testing.T) {
		provider := new(MockTriageProvider)
		service := services.NewTriageService(provider, services.NewAssessmentExtractor(), nil)

		reply := "Based on your answers:\n\nASSESSMENT:\nSeverity: 4\nUrgency: urgent\nAction: Go to the nearest ER\nWait Time: 30"
		provider.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).Return(reply, nil)

		turn, err := service.Chat(ctx, userTurn("My chest hurts when I breathe"), nil)

		require.NoError(t, err)
		assert.True(t, turn.Complete)
		require.NotNil(t, turn.Assessment)
		assert.Equal(t, 4, turn.Assessment.Severity)
		assert.Equal(t, entities.UrgencyUrgent, turn.Assessment.Urgency)
		assert.Equal(t, "Go to the nearest ER", turn.Assessment.RecommendedAction)
		assert.Equal(t, 30, turn.Assessment.EstimatedWaitTime)
	})

	t.Run("malformed assessment block still marks the turn complete", func(t *testing.T) {
		provider := new(MockTriageProvider)
		service := services.NewTriageService(provider, services.NewAssessmentExtractor(), nil)

		reply := "ASSESSMENT:\nSeverity: 4\nUrgency: urgent\nAction: Go to the nearest ER"
		provider.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).Return(reply, nil)

		turn, err := service.Chat(ctx, userTurn("My chest hurts when I breathe"), nil)

		require.NoError(t, err)
		assert.True(t, turn.Complete)
		assert.Nil(t, turn.Assessment)
	})

	t.Run("rejects empty conversation", func(t *testing.T) {
		service := services.NewTriageService(new(MockTriageProvider), services.NewAssessmentExtractor(), nil)

		_, err := service.Chat(ctx, nil, nil)

		errType, ok := apperrors.TypeOf(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, errType)
	})

	t.Run("rejects conversation with no user turn", func(t *testing.T) {
		service := services.NewTriageService(new(MockTriageProvider), services.NewAssessmentExtractor(), nil)

		_, err := service.Chat(ctx, []entities.ChatMessage{
			{Role: entities.ChatRoleAssistant, Content: "Hello, what happened?"},
		}, nil)

		errType, _ := apperrors.TypeOf(err)
		assert.Equal(t, apperrors.ErrorTypeValidation, errType)
	})

	t.Run("maps provider auth failure to unauthorized", func(t *testing.T) {
		provider := new(MockTriageProvider)
		service := services.NewTriageService(provider, services.NewAssessmentExtractor(), nil)

		provider.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
			Return("", providers.ErrTriageUnauthorized)

		_, err := service.Chat(ctx, userTurn("hi"), nil)

		errType, _ := apperrors.TypeOf(err)
		assert.Equal(t, apperrors.ErrorTypeUnauthorized, errType)
	})

	t.Run("maps quota exhaustion to external error", func(t *testing.T) {
		provider := new(MockTriageProvider)
		service := services.NewTriageService(provider, services.NewAssessmentExtractor(), nil)

		provider.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
			Return("", providers.ErrTriageQuotaExceeded)

		_, err := service.Chat(ctx, userTurn("hi"), nil)

		errType, _ := apperrors.TypeOf(err)
		assert.Equal(t, apperrors.ErrorTypeExternal, errType)
	})
}
