package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"storyweek/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}
	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondServiceError maps service sentinel errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
	case errors.Is(err, service.ErrCycleAlreadyActive):
		respondWithError(w, http.StatusConflict, "An active cycle already exists for this child", "", nil)
	case errors.Is(err, service.ErrNoPriorCycle):
		respondWithError(w, http.StatusConflict, "This child has no prior cycle to continue from", "", nil)
	case errors.Is(err, service.ErrReflectionNotOpen):
		respondWithError(w, http.StatusConflict, "The weekly reflection is not open yet", "", nil)
	case errors.Is(err, service.ErrCycleNotActive):
		respondWithError(w, http.StatusConflict, "This cycle is no longer active", "", nil)
	case errors.Is(err, service.ErrContentInvalid):
		respondWithError(w, http.StatusBadGateway, "Generated content failed validation, please retry", "Content validation failed", err)
	case errors.Is(err, service.ErrGenerationFailed):
		respondWithError(w, http.StatusBadGateway, "Week generation failed, please retry", "Generation failed", err)
	case errors.Is(err, service.ErrPartialWrite):
		respondWithError(w, http.StatusConflict, "Cycle documents are inconsistent, run reconcile", "Inconsistent cycle", err)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Unhandled service error", err)
	}
}
