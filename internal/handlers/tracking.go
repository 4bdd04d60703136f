package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"educonnect-tracking/internal/models"
	"educonnect-tracking/internal/services"
)

const serviceVersion = "1.0.0"

// lessonProvider is the read-only lesson-content lookup used to enrich
// current-lesson responses. A nil provider disables enrichment.
type lessonProvider interface {
	FetchLessonDetails(ctx context.Context, serieID, lessonID string) (*models.LessonDetails, error)
}

type TrackingHandler struct {
	tracking *services.TrackingService
	lessons  lessonProvider
}

func NewTrackingHandler(tracking *services.TrackingService, lessons lessonProvider) *TrackingHandler {
	return &TrackingHandler{tracking: tracking, lessons: lessons}
}

func (h *TrackingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tracking-service",
		"version": serviceVersion,
	})
}

func (h *TrackingHandler) EnterLesson(w http.ResponseWriter, r *http.Request) {
	var req models.EnterLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	res, err := h.tracking.EnterLesson(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Current lesson set successfully",
		"data": map[string]interface{}{
			"user_id":           req.UserID,
			"lesson_id":         res.Entry.LessonID,
			"serie_id":          res.Entry.SerieID,
			"lesson_title":      res.Entry.LessonTitle,
			"tab_id":            res.Entry.TabID,
			"total_active_tabs": res.TotalTabs,
		},
	})
}

func (h *TrackingHandler) ExitLesson(w http.ResponseWriter, r *http.Request) {
	var req models.ExitLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	res, err := h.tracking.ExitLesson(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var message string
	remaining := 0
	switch {
	case res.NothingToClear:
		message = "No active lessons to clear"
	case res.AllCleared:
		message = "All lessons cleared"
	default:
		remaining = res.RemainingTabs
		message = fmt.Sprintf("Lesson exited. %d active tab(s) remaining", remaining)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"data": map[string]interface{}{
			"user_id":           req.UserID,
			"total_active_tabs": remaining,
		},
	})
}

func (h *TrackingHandler) UpdateFocus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateFocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	res, err := h.tracking.UpdateFocus(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Focus updated successfully",
		"data": map[string]interface{}{
			"user_id":           req.UserID,
			"lesson_id":         res.Entry.LessonID,
			"serie_id":          res.Entry.SerieID,
			"lesson_title":      res.Entry.LessonTitle,
			"tab_id":            res.Entry.TabID,
			"total_active_tabs": res.TotalTabs,
		},
	})
}

func (h *TrackingHandler) GetCurrentLesson(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	record, err := h.tracking.GetCurrent(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if record == nil {
		writeJSON(w, http.StatusOK, models.CurrentLessonResponse{
			UserID:        userID,
			IsInLesson:    false,
			ActiveLessons: []models.ActiveLesson{},
		})
		return
	}

	focused := record.CurrentLesson
	lastUpdated := record.LastUpdated
	resp := models.CurrentLessonResponse{
		UserID:          record.UserID,
		LessonID:        focused.LessonID,
		SerieID:         focused.SerieID,
		LessonTitle:     focused.LessonTitle,
		LastUpdated:     &lastUpdated,
		IsInLesson:      true,
		ActiveLessons:   record.ActiveLessons,
		TotalActiveTabs: len(record.ActiveLessons),
	}
	resp.LessonDetails = h.fetchLessonDetails(r.Context(), focused.SerieID, focused.LessonID)

	writeJSON(w, http.StatusOK, resp)
}

// fetchLessonDetails is best-effort enrichment: a missing provider, a miss,
// or a lookup failure all leave the response without details.
func (h *TrackingHandler) fetchLessonDetails(ctx context.Context, serieID, lessonID string) *models.LessonDetails {
	if h.lessons == nil {
		return nil
	}
	details, err := h.lessons.FetchLessonDetails(ctx, serieID, lessonID)
	if err != nil {
		log.Printf("Lesson details lookup failed for %s/%s: %v", serieID, lessonID, err)
		return nil
	}
	return details
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.StoreError:
		log.Printf("Store error: %v", e)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
