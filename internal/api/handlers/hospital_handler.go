package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/repositories"
	apperrors "github.com/optimed-health/backend/pkg/errors"
)

// HospitalHandler handles hospital-related HTTP requests
type HospitalHandler struct {
	hospitalService *services.HospitalService
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(hospitalService *services.HospitalService) *HospitalHandler {
	return &HospitalHandler{
		hospitalService: hospitalService,
	}
}

// ListHospitals handles GET /api/hospitals
func (h *HospitalHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	filter := repositories.HospitalFilter{
		Specialty: r.URL.Query().Get("specialty"),
		Limit:     parseIntParam(r, "limit", 30),
		Offset:    parseIntParam(r, "offset", 0),
	}

	hospitals, err := h.hospitalService.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list hospitals")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}

// GetHospital handles GET /api/hospitals/{id}
func (h *HospitalHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.PathValue("id")
	if hospitalID == "" {
		respondWithError(w, http.StatusBadRequest, "hospital ID is required")
		return
	}

	hospital, err := h.hospitalService.Get(r.Context(), hospitalID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, hospital)
}

// SearchHospitals handles GET /api/hospitals/search
func (h *HospitalHandler) SearchHospitals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	hospitals, err := h.hospitalService.Search(r.Context(), query, parseIntParam(r, "limit", 10))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}

// SuggestHospitals handles GET /api/hospitals/suggest
func (h *HospitalHandler) SuggestHospitals(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")

	suggestions, err := h.hospitalService.Suggest(r.Context(), prefix, parseIntParam(r, "limit", 5))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch suggestions")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

// UpdateWaitTime handles PATCH /api/hospitals/{id}/wait
func (h *HospitalHandler) UpdateWaitTime(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.PathValue("id")
	if hospitalID == "" {
		respondWithError(w, http.StatusBadRequest, "hospital ID is required")
		return
	}

	var req struct {
		WaitMinutes  int `json:"wait_minutes"`
		CurrentQueue int `json:"current_queue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hospital, err := h.hospitalService.UpdateWaitTime(r.Context(), hospitalID, req.WaitMinutes, req.CurrentQueue)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, hospital)
}

// Helper functions

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps application error types to HTTP status codes.
// Unknown errors collapse to a generic 500 without leaking internals.
func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		case apperrors.ErrorTypeUnauthorized:
			respondWithError(w, http.StatusUnauthorized, appErr.Message)
		case apperrors.ErrorTypeResolution:
			respondWithError(w, http.StatusUnprocessableEntity, appErr.Message)
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
