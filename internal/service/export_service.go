package service

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"storyweek/internal/models"
)

// ExportService writes a child's full cycle history as JSON, for backup
// or moving a family to another instance
type ExportService struct {
	children  ProfileStore
	cycles    CycleStore
	workbooks WorkbookStore
}

// NewExportService creates a new export service
func NewExportService(children ProfileStore, cycles CycleStore, workbooks WorkbookStore) *ExportService {
	return &ExportService{children: children, cycles: cycles, workbooks: workbooks}
}

// Export is the serialized shape of a child's history
type Export struct {
	ExportedAt time.Time    `json:"exportedAt"`
	Child      models.Child `json:"child"`
	Cycles     []CyclePair  `json:"cycles"`
}

// ExportChild writes the child's profile and every cycle, oldest first
func (s *ExportService) ExportChild(childID string, w io.Writer) error {
	child, err := s.children.GetChild(childID)
	if err != nil {
		return fmt.Errorf("failed to load child: %w", err)
	}
	if child == nil {
		return ErrNotFound
	}
	// The PIN hash stays inside the instance
	child.DevicePINHash = ""

	parents, err := s.cycles.ListByChild(childID)
	if err != nil {
		return fmt.Errorf("failed to load cycles: %w", err)
	}

	export := Export{
		ExportedAt: time.Now().UTC(),
		Child:      *child,
	}
	// ListByChild returns newest first; exports read better oldest first
	for i := len(parents) - 1; i >= 0; i-- {
		parent := parents[i]
		childBook, err := s.workbooks.GetByCycleID(parent.CycleID)
		if err != nil {
			return fmt.Errorf("failed to load child workbook for cycle %s: %w", parent.CycleID, err)
		}
		export.Cycles = append(export.Cycles, CyclePair{Parent: &parent, Child: childBook})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
