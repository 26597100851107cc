package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyweek/internal/auth"
	"storyweek/internal/database"
	"storyweek/internal/models"
)

// stubCycleStore serves only cycle-id lookups; everything else is unused by
// the ownership checks under test.
type stubCycleStore struct {
	byCycleID map[string]*models.ParentWorkbook
}

func (s *stubCycleStore) Insert(q database.DBTX, w *models.ParentWorkbook) error { return nil }
func (s *stubCycleStore) Update(q database.DBTX, w *models.ParentWorkbook) error { return nil }
func (s *stubCycleStore) ActiveExists(q database.DBTX, childID string) (bool, error) {
	return false, nil
}
func (s *stubCycleStore) GetByID(id string) (*models.ParentWorkbook, error) { return nil, nil }
func (s *stubCycleStore) GetForUpdate(q database.DBTX, id string) (*models.ParentWorkbook, error) {
	return nil, nil
}
func (s *stubCycleStore) GetByCycleID(cycleID string) (*models.ParentWorkbook, error) {
	return s.byCycleID[cycleID], nil
}
func (s *stubCycleStore) GetActiveByChild(childID string) (*models.ParentWorkbook, error) {
	return nil, nil
}
func (s *stubCycleStore) GetLatestByChild(childID string) (*models.ParentWorkbook, error) {
	return nil, nil
}
func (s *stubCycleStore) ListByChild(childID string) ([]models.ParentWorkbook, error) {
	return nil, nil
}

func TestReconcileOwnership(t *testing.T) {
	store := &stubCycleStore{byCycleID: map[string]*models.ParentWorkbook{
		"cycle-1": {ID: "pw-1", CycleID: "cycle-1", FamilyID: "family-1"},
	}}
	h := NewCycleHandler(nil, nil, nil, nil, store, nil)

	tests := []struct {
		name    string
		cycleID string
		claims  *auth.Claims
	}{
		{"other family", "cycle-1", &auth.Claims{FamilyID: "family-2", Role: auth.RoleParent}},
		{"no claims", "cycle-1", nil},
		{"unknown cycle", "cycle-9", &auth.Claims{FamilyID: "family-1", Role: auth.RoleParent}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/cycles/"+tt.cycleID+"/reconcile", nil)
			r.SetPathValue("cycleId", tt.cycleID)
			if tt.claims != nil {
				r = r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, tt.claims))
			}
			w := httptest.NewRecorder()

			h.Reconcile(w, r)
			if w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
			}
		})
	}
}
