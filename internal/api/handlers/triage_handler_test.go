package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimed-health/backend/internal/api/handlers"
	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/entities"
)

type stubTriageProvider struct {
	reply string
	err   error
}

func (s *stubTriageProvider) StreamCompletion(ctx context.Context, messages []entities.ChatMessage, onDelta func(delta string) error) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if onDelta != nil {
		for _, chunk := range strings.SplitAfter(s.reply, " ") {
			if err := onDelta(chunk); err != nil {
				return "", err
			}
		}
	}
	return s.reply, nil
}

func newTriageHandler(provider *stubTriageProvider) *handlers.TriageHandler {
	return handlers.NewTriageHandler(
		services.NewTriageService(provider, services.NewAssessmentExtractor(), nil),
	)
}

func TestTriageHandler_Chat(t *testing.T) {
	t.Run("streams deltas and a final turn event", func(t *testing.T) {
		handler := newTriageHandler(&stubTriageProvider{reply: "How did the injury happen?"})

		body := `{"messages":[{"role":"user","content":"I hurt my wrist"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/triage/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Chat(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

		out := rec.Body.String()
		assert.Contains(t, out, "event: delta")
		assert.Contains(t, out, "event: turn")
		assert.Contains(t, out, "How did the injury happen?")
		assert.NotContains(t, out, `"assessment"`)
	})

	t.Run("final turn carries the assessment when present", func(t *testing.T) {
		reply := "ASSESSMENT:\nSeverity: 4\nUrgency: urgent\nAction: Go to the ER now\nWait Time: 30"
		handler := newTriageHandler(&stubTriageProvider{reply: reply})

		body := `{"messages":[{"role":"user","content":"crushing chest pain"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/triage/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Chat(rec, req)

		out := rec.Body.String()
		assert.Contains(t, out, "event: turn")
		assert.Contains(t, out, `"severity":4`)
		assert.Contains(t, out, `"urgency":"urgent"`)
	})

	t.Run("malformed body is a plain 400", func(t *testing.T) {
		handler := newTriageHandler(&stubTriageProvider{reply: "unused"})

		req := httptest.NewRequest(http.MethodPost, "/api/triage/chat", strings.NewReader("{bad"))
		rec := httptest.NewRecorder()

		handler.Chat(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure is delivered in-stream", func(t *testing.T) {
		handler := newTriageHandler(&stubTriageProvider{err: context.DeadlineExceeded})

		body := `{"messages":[{"role":"user","content":"hello"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/triage/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Chat(rec, req)

		assert.Contains(t, rec.Body.String(), "event: error")
	})
}
