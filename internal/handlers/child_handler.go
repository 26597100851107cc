package handlers

import (
	"encoding/json"
	"net/http"

	"storyweek/internal/auth"
	"storyweek/internal/repository"
)

// ChildHandler exposes read access to child profiles and the child-device
// unlock. Profile data itself is seeded out of band (cmd/seed) and is a
// read-only input to weekly generation.
type ChildHandler struct {
	children *repository.ChildRepository
	tokens   *auth.Tokens
}

// NewChildHandler creates a new child handler
func NewChildHandler(children *repository.ChildRepository, tokens *auth.Tokens) *ChildHandler {
	return &ChildHandler{children: children, tokens: tokens}
}

// ownedChild loads the child and checks it belongs to the caller's family
func (h *ChildHandler) ownedChild(w http.ResponseWriter, r *http.Request, childID string) bool {
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

// ListChildren handles GET /api/children
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	children, err := h.children.ListChildren(claims.FamilyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to list children", err)
		return
	}
	for i := range children {
		children[i].DevicePINHash = ""
	}
	respondJSON(w, http.StatusOK, children)
}

// GetChild handles GET /api/children/{childId}
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")
	if !h.ownedChild(w, r, childID) {
		return
	}
	child, err := h.children.GetChild(childID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to load child", err)
		return
	}
	child.DevicePINHash = ""
	respondJSON(w, http.StatusOK, child)
}

// IssueChildToken handles POST /api/children/{childId}/token. It is the
// only unauthenticated route: the child device unlocks with its PIN.
func (h *ChildHandler) IssueChildToken(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}

	child, err := h.children.GetChild(childID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to load child", err)
		return
	}
	if child == nil || child.DevicePINHash == "" {
		respondWithError(w, http.StatusUnauthorized, "Invalid child or PIN", "", nil)
		return
	}
	if err := auth.VerifyPIN(child.DevicePINHash, req.PIN); err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid child or PIN", "", nil)
		return
	}

	token, err := h.tokens.IssueChild(child.ID, child.FamilyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "Failed to issue token", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
