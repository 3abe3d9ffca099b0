package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
	"github.com/optimed-health/backend/internal/infrastructure/observability"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

const maxConversationTurns = 40

// TriageTurn is the outcome of one assistant turn: the full reply text and,
// once the assistant has gathered enough detail, the structured assessment.
// Complete tracks the assessment marker rather than the parsed fields, so a
// malformed assessment block still ends the intake flow on the client.
type TriageTurn struct {
	Message    string                     `json:"message"`
	Assessment *entities.InjuryAssessment `json:"assessment,omitempty"`
	Complete   bool                       `json:"complete"`
}

// TriageService runs the injury intake conversation. It owns no conversation
// state; clients resend the full history each turn, and the service layers
// assessment extraction on top of the completion provider.
type TriageService struct {
	provider  providers.TriageProvider
	extractor *AssessmentExtractor
	metrics   *observability.Metrics
}

// NewTriageService creates a new triage service
func NewTriageService(provider providers.TriageProvider, extractor *AssessmentExtractor, metrics *observability.Metrics) *TriageService {
	return &TriageService{
		provider:  provider,
		extractor: extractor,
		metrics:   metrics,
	}
}

// Chat generates the next assistant turn for the conversation, streaming
// fragments through onDelta as they arrive. The returned turn carries the
// parsed assessment when the reply contains a complete assessment block.
func (s *TriageService) Chat(ctx context.Context, messages []entities.ChatMessage, onDelta func(delta string) error) (*TriageTurn, error) {
	if err := validateConversation(messages); err != nil {
		return nil, err
	}

	reply, err := s.provider.StreamCompletion(ctx, messages, onDelta)
	if err != nil {
		switch {
		case errors.Is(err, providers.ErrTriageUnauthorized):
			return nil, apperrors.NewUnauthorizedError("triage assistant credentials rejected")
		case errors.Is(err, providers.ErrTriageQuotaExceeded):
			return nil, apperrors.NewExternalError("triage assistant is temporarily unavailable", err)
		default:
			return nil, apperrors.NewExternalError("triage assistant request failed", err)
		}
	}

	turn := &TriageTurn{Message: reply, Complete: s.extractor.HasAssessment(reply)}
	if assessment := s.extractor.Extract(reply); assessment != nil {
		turn.Assessment = assessment
		log.Info().Int("severity", assessment.Severity).Str("urgency", string(assessment.Urgency)).
			Msg("Triage conversation produced assessment")
	}

	if s.metrics != nil {
		s.metrics.TriageTurnCount.Add(ctx, 1)
	}

	return turn, nil
}

func validateConversation(messages []entities.ChatMessage) error {
	if len(messages) == 0 {
		return apperrors.NewValidationError("conversation must contain at least one message")
	}
	if len(messages) > maxConversationTurns {
		return apperrors.NewValidationError("conversation is too long")
	}

	hasUserTurn := false
	for _, msg := range messages {
		if msg.Role == entities.ChatRoleUser && strings.TrimSpace(msg.Content) != "" {
			hasUserTurn = true
			break
		}
	}
	if !hasUserTurn {
		return apperrors.NewValidationError("conversation must contain a user message")
	}

	return nil
}
