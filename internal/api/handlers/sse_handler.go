package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/providers"
)

const heartbeatInterval = 30 * time.Second

// SSEHandler handles Server-Sent Events for real-time queue updates
type SSEHandler struct {
	eventBus         providers.EventBus
	countdownService *services.CountdownService
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, countdownService *services.CountdownService) *SSEHandler {
	return &SSEHandler{
		eventBus:         eventBus,
		countdownService: countdownService,
	}
}

// StreamUserQueue handles GET /api/stream/queue?user_id=...
// The stream interleaves two sources: lifecycle events from the bus (status
// transitions, possibly made by hospital staff elsewhere) and periodic
// countdown snapshots derived from the clock.
func (h *SSEHandler) StreamUserQueue(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setSSEHeaders(w)

	channel := providers.GetUserChannel(userID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to user channel")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	countdownChan := h.countdownService.Watch(r.Context(), userID)

	writeSSEEvent(w, "connected", map[string]interface{}{
		"user_id":   userID,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("user_id", userID).Msg("Client disconnected from queue stream")
			return
		case <-heartbeat.C:
			writeSSEEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now()})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			writeSSEEvent(w, string(event.EventType), event)
			flusher.Flush()
		case snapshot, ok := <-countdownChan:
			if !ok {
				return
			}
			writeSSEEvent(w, "countdown", map[string]interface{}{
				"entries":   snapshot,
				"timestamp": time.Now(),
			})
			flusher.Flush()
		}
	}
}

// StreamHospitalUpdates handles GET /api/stream/hospitals/{id}
func (h *SSEHandler) StreamHospitalUpdates(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.PathValue("id")
	if hospitalID == "" {
		respondWithError(w, http.StatusBadRequest, "hospital ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setSSEHeaders(w)

	channel := providers.GetHospitalChannel(hospitalID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to hospital channel")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	writeSSEEvent(w, "connected", map[string]interface{}{
		"hospital_id": hospitalID,
		"timestamp":   time.Now(),
	})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("hospital_id", hospitalID).Msg("Client disconnected from hospital stream")
			return
		case <-heartbeat.C:
			writeSSEEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now()})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			writeSSEEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}
