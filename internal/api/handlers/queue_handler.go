package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/entities"
)

// QueueHandler handles queue lifecycle HTTP requests
type QueueHandler struct {
	queueService     *services.QueueService
	countdownService *services.CountdownService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queueService *services.QueueService, countdownService *services.CountdownService) *QueueHandler {
	return &QueueHandler{
		queueService:     queueService,
		countdownService: countdownService,
	}
}

// queueEntryResponse wraps an entry with its derived countdown so clients
// never compute deadline math themselves.
type queueEntryResponse struct {
	Entry         *entities.QueueEntry `json:"entry"`
	Countdown     entities.Countdown   `json:"countdown"`
	TimeRemaining string               `json:"time_remaining"`
}

func (h *QueueHandler) entryResponse(entry *entities.QueueEntry) queueEntryResponse {
	countdown := h.queueService.CountdownFor(entry)
	return queueEntryResponse{
		Entry:         entry,
		Countdown:     countdown,
		TimeRemaining: entities.FormatTimeRemaining(countdown.TimeToDeadline),
	}
}

// JoinQueue handles POST /api/queue
func (h *QueueHandler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	var req services.JoinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.queueService.JoinQueue(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, h.entryResponse(entry))
}

// GetEntry handles GET /api/queue/{id}
func (h *QueueHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "entry ID is required")
		return
	}

	entry, err := h.queueService.GetEntry(r.Context(), entryID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.entryResponse(entry))
}

// ListActive handles GET /api/queue?user_id=...
func (h *QueueHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	entries, err := h.queueService.ListActive(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	responses := make([]queueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, h.entryResponse(entry))
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"entries": responses,
		"count":   len(responses),
	})
}

// CheckIn handles POST /api/queue/{id}/check-in
func (h *QueueHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.queueService.CheckIn(r.Context(), entryID, req.Code)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.entryResponse(entry))
}

// Cancel handles POST /api/queue/{id}/cancel
func (h *QueueHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "entry ID is required")
		return
	}

	entry, err := h.queueService.Cancel(r.Context(), entryID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.entryResponse(entry))
}

// UpdateStatus handles PATCH /api/queue/{id}/status. Only the staff-driven
// called transition goes through here; check-in and cancellation have their
// own endpoints with their own gating.
func (h *QueueHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	if entryID == "" {
		respondWithError(w, http.StatusBadRequest, "entry ID is required")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if entities.QueueStatus(req.Status) != entities.QueueStatusCalled {
		respondWithError(w, http.StatusBadRequest, "status must be called")
		return
	}

	entry, err := h.queueService.MarkCalled(r.Context(), entryID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.entryResponse(entry))
}
