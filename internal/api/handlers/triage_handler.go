package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/entities"
)

// TriageHandler handles the triage chat endpoint
type TriageHandler struct {
	triageService *services.TriageService
}

// NewTriageHandler creates a new triage handler
func NewTriageHandler(triageService *services.TriageService) *TriageHandler {
	return &TriageHandler{
		triageService: triageService,
	}
}

type triageChatRequest struct {
	Messages []entities.ChatMessage `json:"messages"`
}

// Chat handles POST /api/triage/chat. The assistant's reply streams to the
// client as SSE delta events; when the turn completes, a final turn event
// carries the full message and, if present, the parsed assessment.
func (h *TriageHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req triageChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	turn, err := h.triageService.Chat(r.Context(), req.Messages, func(delta string) error {
		writeSSEEvent(w, "delta", map[string]string{"content": delta})
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers are already out; deliver the failure in-stream
		writeSSEEvent(w, "error", map[string]string{"error": err.Error()})
		flusher.Flush()
		log.Warn().Err(err).Msg("Triage chat turn failed")
		return
	}

	writeSSEEvent(w, "turn", turn)
	flusher.Flush()
}

// writeSSEEvent writes a single Server-Sent Event to the response
func writeSSEEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to marshal SSE event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
