package service

import (
	"fmt"
	"time"

	"storyweek/internal/database"
	"storyweek/internal/models"
)

// ProgressService records completion against an active cycle: caregiver
// goals and strategies on the parent side, reading and activities on the
// child side. The child workbook is authoritative for child progress; the
// parent-side summary is recomputed from it after every child mutation.
type ProgressService struct {
	db        database.Beginner
	cycles    CycleStore
	workbooks WorkbookStore
	nowFunc   func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(db database.Beginner, cycles CycleStore, workbooks WorkbookStore) *ProgressService {
	return &ProgressService{
		db:        db,
		cycles:    cycles,
		workbooks: workbooks,
		nowFunc:   func() time.Time { return time.Now().UTC() },
	}
}

// LogGoalCompletion appends a completion entry to the goal's history. The
// log is append-only: marking a goal not-completed appends a false entry
// rather than removing anything, and repeated marks on the same day stack,
// with the latest entry deciding that day's state.
func (s *ProgressService) LogGoalCompletion(parentWorkbookID, goalID string, completed bool, addedBy string) (*models.ParentWorkbook, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	parent, err := s.cycles.GetForUpdate(tx, parentWorkbookID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	if parent.Status != models.StatusActive {
		return nil, ErrCycleNotActive
	}

	goal := parent.GoalByID(goalID)
	if goal == nil {
		return nil, fmt.Errorf("%w: goal %s", ErrNotFound, goalID)
	}
	goal.CompletionLog = append(goal.CompletionLog, models.GoalCompletion{
		Date:      s.nowFunc(),
		Completed: completed,
		AddedBy:   addedBy,
	})
	parent.LastEditedBy = addedBy

	if err := s.cycles.Update(tx, parent); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return parent, nil
}

// LogDailyStrategy marks the strategy for a story day completed or not.
// Strategies carry a plain flag, not a history.
func (s *ProgressService) LogDailyStrategy(parentWorkbookID string, dayNumber int, completed bool, addedBy string) (*models.ParentWorkbook, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	parent, err := s.cycles.GetForUpdate(tx, parentWorkbookID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	if parent.Status != models.StatusActive {
		return nil, ErrCycleNotActive
	}

	strategy := parent.StrategyForDay(dayNumber)
	if strategy == nil {
		return nil, fmt.Errorf("%w: no strategy for day %d", ErrNotFound, dayNumber)
	}
	strategy.Completed = completed
	if completed {
		now := s.nowFunc()
		strategy.CompletedAt = &now
	} else {
		strategy.CompletedAt = nil
	}
	parent.LastEditedBy = addedBy

	if err := s.cycles.Update(tx, parent); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return parent, nil
}

// CompleteActivity records a child activity as done, marks its paired story
// day read, and refreshes the parent-side progress summary.
func (s *ProgressService) CompleteActivity(childWorkbookID, activityID, childResponse, parentNotes, recordedBy string) (*models.ChildWorkbook, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	child, err := s.workbooks.GetForUpdate(tx, childWorkbookID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrNotFound
	}
	if child.Status != models.StatusActive {
		return nil, ErrCycleNotActive
	}

	activity := child.ActivityByID(activityID)
	if activity == nil {
		return nil, fmt.Errorf("%w: activity %s", ErrNotFound, activityID)
	}

	now := s.nowFunc()
	activity.Completed = true
	activity.CompletedAt = &now
	activity.RecordedBy = recordedBy
	if childResponse != "" {
		activity.ChildResponse = childResponse
	}
	if parentNotes != "" {
		activity.ParentNotes = parentNotes
	}

	if fragment := child.FragmentForActivity(activityID); fragment != nil {
		child.Progress.MarkDayRead(fragment.DayNumber, now)
	}
	child.Progress.RecordActivity(activityID)
	child.LastActiveAt = &now

	if err := s.workbooks.Update(tx, child); err != nil {
		return nil, err
	}
	if err := s.syncParentSummary(tx, child); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return child, nil
}

// MarkStoryDayRead records that the child read a story day without
// completing its activity
func (s *ProgressService) MarkStoryDayRead(childWorkbookID string, dayNumber int) (*models.ChildWorkbook, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	child, err := s.workbooks.GetForUpdate(tx, childWorkbookID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrNotFound
	}
	if child.Status != models.StatusActive {
		return nil, ErrCycleNotActive
	}
	if child.FragmentForDay(dayNumber) == nil {
		return nil, fmt.Errorf("%w: no fragment for day %d", ErrNotFound, dayNumber)
	}

	now := s.nowFunc()
	child.Progress.MarkDayRead(dayNumber, now)
	child.LastActiveAt = &now

	if err := s.workbooks.Update(tx, child); err != nil {
		return nil, err
	}
	if err := s.syncParentSummary(tx, child); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return child, nil
}

// syncParentSummary rebuilds the parent workbook's cached progress summary
// from the child workbook
func (s *ProgressService) syncParentSummary(tx database.DBTX, child *models.ChildWorkbook) error {
	parent, err := s.cycles.GetForUpdate(tx, child.ParentWorkbookID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("%w: cycle %s has no parent workbook", ErrPartialWrite, child.CycleID)
	}
	parent.ChildProgress = child.Summary()
	return s.cycles.Update(tx, parent)
}
