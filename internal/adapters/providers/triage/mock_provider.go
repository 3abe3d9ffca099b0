package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/providers"
)

// MockTriageProvider implements a canned triage assistant for development and
// testing when no completion backend is configured.
type MockTriageProvider struct{}

// NewMockTriageProvider creates a new mock triage provider
func NewMockTriageProvider() providers.TriageProvider {
	return &MockTriageProvider{}
}

// StreamCompletion asks one follow-up question on the first user turn, then
// emits a full assessment block derived from crude keyword matching.
func (m *MockTriageProvider) StreamCompletion(ctx context.Context, messages []entities.ChatMessage, onDelta func(delta string) error) (string, error) {
	userTurns := 0
	var lastUser string
	for _, msg := range messages {
		if msg.Role == entities.ChatRoleUser {
			userTurns++
			lastUser = msg.Content
		}
	}

	var reply string
	if userTurns <= 1 {
		reply = "I'm sorry to hear that. When did this happen, and how would you rate the pain on a scale of 1-10?"
	} else {
		severity, urgency, action, wait := classify(lastUser)
		reply = fmt.Sprintf(
			"Thank you for the details. Based on what you've described, here is my guidance.\n\nASSESSMENT:\nSeverity: %d\nUrgency: %s\nAction: %s\nWait Time: %d\n\nThis is guidance only, not a diagnosis.",
			severity, urgency, action, wait,
		)
	}

	// Stream in small chunks so callers exercise the delta path
	const chunkSize = 24
	for i := 0; i < len(reply); i += chunkSize {
		end := i + chunkSize
		if end > len(reply) {
			end = len(reply)
		}
		if onDelta != nil {
			if err := onDelta(reply[i:end]); err != nil {
				return "", err
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
	}

	return reply, nil
}

func classify(text string) (severity int, urgency entities.Urgency, action string, waitMinutes int) {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "chest pain"), strings.Contains(lower, "breathing"),
		strings.Contains(lower, "unconscious"), strings.Contains(lower, "severe bleeding"):
		return 5, entities.UrgencyEmergency, "Call 911 immediately", 0
	case strings.Contains(lower, "fracture"), strings.Contains(lower, "broken"),
		strings.Contains(lower, "high fever"), strings.Contains(lower, "severe"):
		return 4, entities.UrgencyUrgent, "Go to the nearest emergency room within 2 hours", 45
	case strings.Contains(lower, "sprain"), strings.Contains(lower, "fever"),
		strings.Contains(lower, "cut"):
		return 2, entities.UrgencyModerate, "Visit a walk-in clinic", 30
	default:
		return 1, entities.UrgencyLow, "Monitor at home and see your family doctor if it persists", 15
	}
}
