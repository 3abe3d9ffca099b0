package providers

import (
	"context"
	"errors"

	"github.com/optimed-health/backend/internal/domain/entities"
)

// ErrTriageUnauthorized is returned when the completion backend rejects the
// configured credentials.
var ErrTriageUnauthorized = errors.New("triage provider unauthorized")

// ErrTriageQuotaExceeded is returned when the completion backend reports an
// exhausted quota.
var ErrTriageQuotaExceeded = errors.New("triage provider quota exceeded")

// TriageProvider produces assistant replies for a triage conversation.
type TriageProvider interface {
	// StreamCompletion generates the next assistant turn for the given
	// conversation, invoking onDelta for each incremental text fragment.
	// It returns the fully-assembled message text once the turn completes.
	StreamCompletion(ctx context.Context, messages []entities.ChatMessage, onDelta func(delta string) error) (string, error)
}
