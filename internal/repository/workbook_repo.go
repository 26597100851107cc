package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storyweek/internal/database"
	"storyweek/internal/models"
)

// WorkbookRepository handles database operations for child workbooks, the
// child-facing half of each weekly cycle
type WorkbookRepository struct {
	db *database.DB
}

// NewWorkbookRepository creates a new workbook repository
func NewWorkbookRepository(db *database.DB) *WorkbookRepository {
	return &WorkbookRepository{db: db}
}

const childWorkbookColumns = `
	id, cycle_id, family_id, child_id, child_name, child_age, week_number,
	start_date, end_date, story, activities, progress,
	parent_workbook_id, status, created_at, updated_at, last_active_at
`

// Insert writes a new child workbook, normally inside the same transaction
// as its parent workbook
func (r *WorkbookRepository) Insert(q database.DBTX, w *models.ChildWorkbook) error {
	story, err := marshalColumn(w.Story)
	if err != nil {
		return err
	}
	activities, err := marshalColumn(w.Activities)
	if err != nil {
		return err
	}
	progress, err := marshalColumn(w.Progress)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO child_workbooks (` + childWorkbookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.Exec(query,
		w.ID, w.CycleID, w.FamilyID, w.ChildID, w.ChildName, w.ChildAge, w.WeekNumber,
		w.StartDate, w.EndDate, story, activities, progress,
		w.ParentWorkbookID, w.Status, w.CreatedAt, w.UpdatedAt, nullableTime(w.LastActiveAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert child workbook: %w", err)
	}
	return nil
}

// Update rewrites a child workbook's mutable state
func (r *WorkbookRepository) Update(q database.DBTX, w *models.ChildWorkbook) error {
	story, err := marshalColumn(w.Story)
	if err != nil {
		return err
	}
	activities, err := marshalColumn(w.Activities)
	if err != nil {
		return err
	}
	progress, err := marshalColumn(w.Progress)
	if err != nil {
		return err
	}

	w.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE child_workbooks
		SET story = ?, activities = ?, progress = ?, status = ?,
			updated_at = ?, last_active_at = ?
		WHERE id = ?
	`
	result, err := q.Exec(query,
		story, activities, progress, w.Status, w.UpdatedAt, nullableTime(w.LastActiveAt), w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update child workbook: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("child workbook not found: %s", w.ID)
	}
	return nil
}

// GetByID retrieves a child workbook by ID
func (r *WorkbookRepository) GetByID(id string) (*models.ChildWorkbook, error) {
	return r.getOne(r.db, "SELECT "+childWorkbookColumns+" FROM child_workbooks WHERE id = ?", id)
}

// GetForUpdate retrieves a child workbook by ID with a row lock where the
// engine supports one
func (r *WorkbookRepository) GetForUpdate(q database.DBTX, id string) (*models.ChildWorkbook, error) {
	query := "SELECT " + childWorkbookColumns + " FROM child_workbooks WHERE id = ?" +
		q.GetDialect().LockingClause()
	return r.getOne(q, query, id)
}

// GetByCycleID retrieves the child workbook for a cycle
func (r *WorkbookRepository) GetByCycleID(cycleID string) (*models.ChildWorkbook, error) {
	return r.getOne(r.db, "SELECT "+childWorkbookColumns+" FROM child_workbooks WHERE cycle_id = ?", cycleID)
}

// GetActiveByChild retrieves the child's active workbook, if any
func (r *WorkbookRepository) GetActiveByChild(childID string) (*models.ChildWorkbook, error) {
	query := "SELECT " + childWorkbookColumns + " FROM child_workbooks WHERE child_id = ? AND status = 'active' LIMIT 1"
	return r.getOne(r.db, query, childID)
}

// GetStoryFragments returns the fragments of a workbook's story. Part of the
// illustration pipeline's store interface.
func (r *WorkbookRepository) GetStoryFragments(ctx context.Context, childWorkbookID string) ([]models.StoryFragment, error) {
	w, err := r.GetByID(childWorkbookID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("child workbook not found: %s", childWorkbookID)
	}
	return w.Story.DailyFragments, nil
}

// UpdateFragmentIllustration patches one fragment's illustration state
// without touching the rest of the story. The read and write run in a
// transaction so concurrent per-fragment patches cannot clobber each other.
func (r *WorkbookRepository) UpdateFragmentIllustration(ctx context.Context, childWorkbookID string, dayNumber int, status models.IllustrationStatus, imageURL string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	w, err := r.GetForUpdate(tx, childWorkbookID)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("child workbook not found: %s", childWorkbookID)
	}

	fragment := w.FragmentForDay(dayNumber)
	if fragment == nil {
		return fmt.Errorf("no fragment for day %d in workbook %s", dayNumber, childWorkbookID)
	}
	fragment.IllustrationStatus = status
	if imageURL != "" {
		fragment.IllustrationURL = imageURL
	}

	story, err := marshalColumn(w.Story)
	if err != nil {
		return err
	}
	query := "UPDATE child_workbooks SET story = ?, updated_at = ? WHERE id = ?"
	if _, err := tx.Exec(query, story, time.Now().UTC(), childWorkbookID); err != nil {
		return fmt.Errorf("failed to patch fragment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *WorkbookRepository) getOne(q database.DBTX, query string, args ...interface{}) (*models.ChildWorkbook, error) {
	w, err := scanChildWorkbook(q.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func scanChildWorkbook(row rowScanner) (*models.ChildWorkbook, error) {
	w := &models.ChildWorkbook{}
	var story, activities, progress string
	var lastActive sql.NullTime

	err := row.Scan(
		&w.ID, &w.CycleID, &w.FamilyID, &w.ChildID, &w.ChildName, &w.ChildAge, &w.WeekNumber,
		&w.StartDate, &w.EndDate, &story, &activities, &progress,
		&w.ParentWorkbookID, &w.Status, &w.CreatedAt, &w.UpdatedAt, &lastActive,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan child workbook: %w", err)
	}

	if err := unmarshalColumn(story, &w.Story); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(activities, &w.Activities); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(progress, &w.Progress); err != nil {
		return nil, err
	}
	if lastActive.Valid {
		t := lastActive.Time
		w.LastActiveAt = &t
	}
	return w, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
