package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"storyweek/internal/models"
	"storyweek/internal/repository"
	"storyweek/internal/service"
)

// CycleHandler exposes the weekly cycle lifecycle over the JSON API
type CycleHandler struct {
	cycles    *service.CycleService
	progress  *service.ProgressService
	exports   *service.ExportService
	children  *repository.ChildRepository
	parents   service.CycleStore
	workbooks service.WorkbookStore
}

// NewCycleHandler creates a new cycle handler
func NewCycleHandler(cycles *service.CycleService, progress *service.ProgressService, exports *service.ExportService, children *repository.ChildRepository, parents service.CycleStore, workbooks service.WorkbookStore) *CycleHandler {
	return &CycleHandler{cycles: cycles, progress: progress, exports: exports, children: children, parents: parents, workbooks: workbooks}
}

// ownsParentWorkbook checks the parent workbook belongs to the caller's family
func (h *CycleHandler) ownsParentWorkbook(w http.ResponseWriter, r *http.Request, workbookID string) bool {
	claims := ClaimsFromContext(r.Context())
	workbook, err := h.parents.GetByID(workbookID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to load workbook", err)
		return false
	}
	if workbook == nil || claims == nil || workbook.FamilyID != claims.FamilyID {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
		return false
	}
	return true
}

// ownsChildWorkbook checks the child workbook belongs to the caller's family
func (h *CycleHandler) ownsChildWorkbook(w http.ResponseWriter, r *http.Request, workbookID string) bool {
	claims := ClaimsFromContext(r.Context())
	workbook, err := h.workbooks.GetByID(workbookID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to load workbook", err)
		return false
	}
	if workbook == nil || claims == nil || workbook.FamilyID != claims.FamilyID {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
		return false
	}
	return true
}

// ownsCycle checks the cycle's parent workbook belongs to the caller's
// family without loading the whole pair
func (h *CycleHandler) ownsCycle(w http.ResponseWriter, r *http.Request, cycleID string) bool {
	claims := ClaimsFromContext(r.Context())
	workbook, err := h.parents.GetByCycleID(cycleID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to load cycle", err)
		return false
	}
	if workbook == nil || claims == nil || workbook.FamilyID != claims.FamilyID {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
		return false
	}
	return true
}

// ownsChild checks the child belongs to the caller's family
func (h *CycleHandler) ownsChild(w http.ResponseWriter, r *http.Request, childID string) bool {
	claims := ClaimsFromContext(r.Context())
	child, err := h.children.GetChild(childID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to load child", err)
		return false
	}
	if child == nil || claims == nil || child.FamilyID != claims.FamilyID {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
		return false
	}
	return true
}

// CreateCycle handles POST /api/children/{childId}/cycles
func (h *CycleHandler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")
	if !h.ownsChild(w, r, childID) {
		return
	}

	claims := ClaimsFromContext(r.Context())
	pair, err := h.cycles.CreateCycle(r.Context(), childID, claims.Subject)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pair)
}

// StartNextCycle handles POST /api/children/{childId}/cycles/next
func (h *CycleHandler) StartNextCycle(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")
	if !h.ownsChild(w, r, childID) {
		return
	}

	claims := ClaimsFromContext(r.Context())
	pair, err := h.cycles.StartNextCycle(r.Context(), childID, claims.Subject)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pair)
}

// GetActiveCycle handles GET /api/children/{childId}/cycles/active
func (h *CycleHandler) GetActiveCycle(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")
	if !h.ownsChild(w, r, childID) {
		return
	}

	pair, err := h.cycles.GetActiveCycle(childID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

// History handles GET /api/children/{childId}/cycles
func (h *CycleHandler) History(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")
	if !h.ownsChild(w, r, childID) {
		return
	}

	workbooks, err := h.cycles.History(childID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if workbooks == nil {
		workbooks = []models.ParentWorkbook{}
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(workbooks) {
		workbooks = workbooks[:limit]
	}
	respondJSON(w, http.StatusOK, workbooks)
}

// GetCycle handles GET /api/cycles/{cycleId}
func (h *CycleHandler) GetCycle(w http.ResponseWriter, r *http.Request) {
	pair, err := h.cycles.GetCycle(r.PathValue("cycleId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	claims := ClaimsFromContext(r.Context())
	if claims == nil || pair.Parent.FamilyID != claims.FamilyID {
		respondWithError(w, http.StatusNotFound, "Not found", "", nil)
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

// Reconcile handles POST /api/cycles/{cycleId}/reconcile
func (h *CycleHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if !h.ownsCycle(w, r, r.PathValue("cycleId")) {
		return
	}

	repaired, err := h.cycles.Reconcile(r.PathValue("cycleId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, repaired)
}

// ReflectionGate handles GET /api/workbooks/parent/{workbookId}/reflection-gate
func (h *CycleHandler) ReflectionGate(w http.ResponseWriter, r *http.Request) {
	if !h.ownsParentWorkbook(w, r, r.PathValue("workbookId")) {
		return
	}
	gate, err := h.cycles.ReflectionGate(r.PathValue("workbookId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, gate)
}

// SaveReflection handles POST /api/workbooks/parent/{workbookId}/reflection
func (h *CycleHandler) SaveReflection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WhatWorkedWell         string `json:"whatWorkedWell"`
		WhatWasChallenging     string `json:"whatWasChallenging"`
		InsightsLearned        string `json:"insightsLearned"`
		AdjustmentsForNextWeek string `json:"adjustmentsForNextWeek"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}
	if !h.ownsParentWorkbook(w, r, r.PathValue("workbookId")) {
		return
	}

	claims := ClaimsFromContext(r.Context())
	parent, err := h.cycles.SaveReflection(r.Context(), r.PathValue("workbookId"), models.WeeklyReflection{
		WhatWorkedWell:         req.WhatWorkedWell,
		WhatWasChallenging:     req.WhatWasChallenging,
		InsightsLearned:        req.InsightsLearned,
		AdjustmentsForNextWeek: req.AdjustmentsForNextWeek,
		CompletedBy:            claims.Subject,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}

// LogGoalCompletion handles POST /api/workbooks/parent/{workbookId}/goals/{goalId}/log
func (h *CycleHandler) LogGoalCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}
	if !h.ownsParentWorkbook(w, r, r.PathValue("workbookId")) {
		return
	}

	claims := ClaimsFromContext(r.Context())
	parent, err := h.progress.LogGoalCompletion(r.PathValue("workbookId"), r.PathValue("goalId"), req.Completed, claims.Subject)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}

// LogDailyStrategy handles POST /api/workbooks/parent/{workbookId}/strategies/{day}/log
func (h *CycleHandler) LogDailyStrategy(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid day number", "", nil)
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}
	if !h.ownsParentWorkbook(w, r, r.PathValue("workbookId")) {
		return
	}

	claims := ClaimsFromContext(r.Context())
	parent, err := h.progress.LogDailyStrategy(r.PathValue("workbookId"), day, req.Completed, claims.Subject)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, parent)
}

// CompleteActivity handles POST /api/workbooks/child/{workbookId}/activities/{activityId}/complete
func (h *CycleHandler) CompleteActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChildResponse string `json:"childResponse"`
		ParentNotes   string `json:"parentNotes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}
	if !h.ownsChildWorkbook(w, r, r.PathValue("workbookId")) {
		return
	}

	claims := ClaimsFromContext(r.Context())
	child, err := h.progress.CompleteActivity(r.PathValue("workbookId"), r.PathValue("activityId"), req.ChildResponse, req.ParentNotes, claims.Role)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, child)
}

// MarkStoryDayRead handles POST /api/workbooks/child/{workbookId}/story/{day}/read
func (h *CycleHandler) MarkStoryDayRead(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid day number", "", nil)
		return
	}
	if !h.ownsChildWorkbook(w, r, r.PathValue("workbookId")) {
		return
	}

	child, err := h.progress.MarkStoryDayRead(r.PathValue("workbookId"), day)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, child)
}

// ExportChild handles GET /api/children/{childId}/export
func (h *CycleHandler) ExportChild(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")
	if !h.ownsChild(w, r, childID) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=storyweek-export.json")
	if err := h.exports.ExportChild(childID, w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Export failed", err)
	}
}
