package repository

import (
	"database/sql"
	"fmt"
	"time"

	"storyweek/internal/database"
	"storyweek/internal/models"
)

// CycleRepository handles database operations for parent workbooks, the
// caregiver-facing half of each weekly cycle
type CycleRepository struct {
	db *database.DB
}

// NewCycleRepository creates a new cycle repository
func NewCycleRepository(db *database.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

const parentWorkbookColumns = `
	id, cycle_id, family_id, child_id, child_name, week_number,
	start_date, end_date, goals, daily_strategies, weekly_reflection,
	child_progress, child_workbook_id, status, created_at, updated_at, last_edited_by
`

// Insert writes a new parent workbook. Callers creating a cycle pass the
// transaction that also inserts the child workbook.
func (r *CycleRepository) Insert(q database.DBTX, w *models.ParentWorkbook) error {
	goals, err := marshalColumn(w.Goals)
	if err != nil {
		return err
	}
	strategies, err := marshalColumn(w.DailyStrategies)
	if err != nil {
		return err
	}
	progress, err := marshalColumn(w.ChildProgress)
	if err != nil {
		return err
	}
	reflection := sql.NullString{}
	if w.WeeklyReflection != nil {
		encoded, err := marshalColumn(w.WeeklyReflection)
		if err != nil {
			return err
		}
		reflection = sql.NullString{String: encoded, Valid: true}
	}

	query := `
		INSERT INTO parent_workbooks (` + parentWorkbookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.Exec(query,
		w.ID, w.CycleID, w.FamilyID, w.ChildID, w.ChildName, w.WeekNumber,
		w.StartDate, w.EndDate, goals, strategies, reflection,
		progress, w.ChildWorkbookID, w.Status, w.CreatedAt, w.UpdatedAt, w.LastEditedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert parent workbook: %w", err)
	}
	return nil
}

// Update rewrites a parent workbook's mutable state
func (r *CycleRepository) Update(q database.DBTX, w *models.ParentWorkbook) error {
	goals, err := marshalColumn(w.Goals)
	if err != nil {
		return err
	}
	strategies, err := marshalColumn(w.DailyStrategies)
	if err != nil {
		return err
	}
	progress, err := marshalColumn(w.ChildProgress)
	if err != nil {
		return err
	}
	reflection := sql.NullString{}
	if w.WeeklyReflection != nil {
		encoded, err := marshalColumn(w.WeeklyReflection)
		if err != nil {
			return err
		}
		reflection = sql.NullString{String: encoded, Valid: true}
	}

	w.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE parent_workbooks
		SET goals = ?, daily_strategies = ?, weekly_reflection = ?,
			child_progress = ?, status = ?, updated_at = ?, last_edited_by = ?
		WHERE id = ?
	`
	result, err := q.Exec(query,
		goals, strategies, reflection, progress, w.Status, w.UpdatedAt, w.LastEditedBy, w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update parent workbook: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("parent workbook not found: %s", w.ID)
	}
	return nil
}

// ActiveExists reports whether the child already has an active cycle. Run it
// inside the creating transaction so two concurrent initiations cannot both
// pass the check.
func (r *CycleRepository) ActiveExists(q database.DBTX, childID string) (bool, error) {
	query := "SELECT id FROM parent_workbooks WHERE child_id = ? AND status = 'active' LIMIT 1" +
		q.GetDialect().LockingClause()
	var id string
	err := q.QueryRow(query, childID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check active cycle: %w", err)
	}
	return true, nil
}

// GetByID retrieves a parent workbook by ID
func (r *CycleRepository) GetByID(id string) (*models.ParentWorkbook, error) {
	return r.getOne(r.db, "SELECT "+parentWorkbookColumns+" FROM parent_workbooks WHERE id = ?", id)
}

// GetForUpdate retrieves a parent workbook by ID with a row lock where the
// engine supports one
func (r *CycleRepository) GetForUpdate(q database.DBTX, id string) (*models.ParentWorkbook, error) {
	query := "SELECT " + parentWorkbookColumns + " FROM parent_workbooks WHERE id = ?" +
		q.GetDialect().LockingClause()
	return r.getOne(q, query, id)
}

// GetByCycleID retrieves the parent workbook for a cycle
func (r *CycleRepository) GetByCycleID(cycleID string) (*models.ParentWorkbook, error) {
	return r.getOne(r.db, "SELECT "+parentWorkbookColumns+" FROM parent_workbooks WHERE cycle_id = ?", cycleID)
}

// GetActiveByChild retrieves the child's active parent workbook, if any
func (r *CycleRepository) GetActiveByChild(childID string) (*models.ParentWorkbook, error) {
	query := "SELECT " + parentWorkbookColumns + " FROM parent_workbooks WHERE child_id = ? AND status = 'active' LIMIT 1"
	return r.getOne(r.db, query, childID)
}

// GetLatestByChild retrieves the child's most recent parent workbook
func (r *CycleRepository) GetLatestByChild(childID string) (*models.ParentWorkbook, error) {
	query := "SELECT " + parentWorkbookColumns + " FROM parent_workbooks WHERE child_id = ? ORDER BY week_number DESC LIMIT 1"
	return r.getOne(r.db, query, childID)
}

// ListByChild retrieves a child's parent workbooks, newest first
func (r *CycleRepository) ListByChild(childID string) ([]models.ParentWorkbook, error) {
	query := "SELECT " + parentWorkbookColumns + " FROM parent_workbooks WHERE child_id = ? ORDER BY week_number DESC"
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parent workbooks: %w", err)
	}
	defer rows.Close()

	var workbooks []models.ParentWorkbook
	for rows.Next() {
		w, err := scanParentWorkbook(rows)
		if err != nil {
			return nil, err
		}
		workbooks = append(workbooks, *w)
	}
	return workbooks, rows.Err()
}

func (r *CycleRepository) getOne(q database.DBTX, query string, args ...interface{}) (*models.ParentWorkbook, error) {
	w, err := scanParentWorkbook(q.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanParentWorkbook(row rowScanner) (*models.ParentWorkbook, error) {
	w := &models.ParentWorkbook{}
	var goals, strategies, progress string
	var reflection sql.NullString

	err := row.Scan(
		&w.ID, &w.CycleID, &w.FamilyID, &w.ChildID, &w.ChildName, &w.WeekNumber,
		&w.StartDate, &w.EndDate, &goals, &strategies, &reflection,
		&progress, &w.ChildWorkbookID, &w.Status, &w.CreatedAt, &w.UpdatedAt, &w.LastEditedBy,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan parent workbook: %w", err)
	}

	if err := unmarshalColumn(goals, &w.Goals); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(strategies, &w.DailyStrategies); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(progress, &w.ChildProgress); err != nil {
		return nil, err
	}
	if reflection.Valid {
		w.WeeklyReflection = &models.WeeklyReflection{}
		if err := unmarshalColumn(reflection.String, w.WeeklyReflection); err != nil {
			return nil, err
		}
	}
	return w, nil
}
