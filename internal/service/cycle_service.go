package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyweek/internal/database"
	"storyweek/internal/generation"
	"storyweek/internal/models"
)

// CycleStore is the parent-workbook storage the cycle service needs
type CycleStore interface {
	Insert(q database.DBTX, w *models.ParentWorkbook) error
	Update(q database.DBTX, w *models.ParentWorkbook) error
	ActiveExists(q database.DBTX, childID string) (bool, error)
	GetByID(id string) (*models.ParentWorkbook, error)
	GetForUpdate(q database.DBTX, id string) (*models.ParentWorkbook, error)
	GetByCycleID(cycleID string) (*models.ParentWorkbook, error)
	GetActiveByChild(childID string) (*models.ParentWorkbook, error)
	GetLatestByChild(childID string) (*models.ParentWorkbook, error)
	ListByChild(childID string) ([]models.ParentWorkbook, error)
}

// WorkbookStore is the child-workbook storage the cycle service needs
type WorkbookStore interface {
	Insert(q database.DBTX, w *models.ChildWorkbook) error
	Update(q database.DBTX, w *models.ChildWorkbook) error
	GetByID(id string) (*models.ChildWorkbook, error)
	GetForUpdate(q database.DBTX, id string) (*models.ChildWorkbook, error)
	GetByCycleID(cycleID string) (*models.ChildWorkbook, error)
	GetActiveByChild(childID string) (*models.ChildWorkbook, error)
}

// Enricher starts asynchronous illustration rendering for a child workbook
type Enricher interface {
	Enrich(childWorkbookID string)
}

// Notifier sends lifecycle notifications to the caregiver
type Notifier interface {
	NotifyNewWeek(ctx context.Context, childName string, weekNumber int)
	NotifyWeekComplete(ctx context.Context, childName string, weekNumber int)
}

// CyclePair is the two documents of one weekly cycle
type CyclePair struct {
	Parent *models.ParentWorkbook `json:"parentWorkbook"`
	Child  *models.ChildWorkbook  `json:"childWorkbook"`
}

// GateStatus reports whether the end-of-week reflection may be offered
type GateStatus struct {
	DaysElapsed    int  `json:"daysElapsed"`
	CycleLength    int  `json:"cycleLength"`
	ReflectionOpen bool `json:"reflectionOpen"`
}

// CycleService owns the weekly cycle lifecycle: generation, completion
// through reflection, and next-cycle initiation
type CycleService struct {
	db          database.Beginner
	cycles      CycleStore
	workbooks   WorkbookStore
	contexts    *ContextService
	oracle      generation.Oracle
	enricher    Enricher
	notifier    Notifier
	cycleLength int
	now         func() time.Time
}

// NewCycleService creates a new cycle service. enricher and notifier may be
// nil when those features are unconfigured.
func NewCycleService(db database.Beginner, cycles CycleStore, workbooks WorkbookStore, contexts *ContextService, oracle generation.Oracle, enricher Enricher, notifier Notifier, cycleLength int) *CycleService {
	if cycleLength <= 0 {
		cycleLength = models.StoryDays
	}
	return &CycleService{
		db:          db,
		cycles:      cycles,
		workbooks:   workbooks,
		contexts:    contexts,
		oracle:      oracle,
		enricher:    enricher,
		notifier:    notifier,
		cycleLength: cycleLength,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateCycle generates and stores a new weekly cycle for the child: one
// parent workbook and one child workbook sharing a cycle ID. Illustration
// rendering is kicked off after the documents are saved and never blocks
// or fails the creation.
func (s *CycleService) CreateCycle(ctx context.Context, childID, initiatedBy string) (*CyclePair, error) {
	// Cheap precheck; the authoritative check runs inside the insert
	// transaction below.
	active, err := s.cycles.GetActiveByChild(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active cycle: %w", err)
	}
	if active != nil {
		return nil, ErrCycleAlreadyActive
	}

	profile, err := s.contexts.Build(childID)
	if err != nil {
		return nil, err
	}

	week, err := s.oracle.GenerateWeek(ctx, *profile)
	if err != nil {
		if errors.Is(err, generation.ErrInvalidContent) {
			return nil, fmt.Errorf("%w: %v", ErrContentInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	pair := s.buildPair(profile, week, initiatedBy)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.cycles.ActiveExists(tx, childID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCycleAlreadyActive
	}

	if err := s.cycles.Insert(tx, pair.Parent); err != nil {
		return nil, err
	}
	if err := s.workbooks.Insert(tx, pair.Child); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Cycle created: cycle=%s child=%s week=%d", pair.Parent.CycleID, childID, pair.Parent.WeekNumber)

	if s.enricher != nil {
		s.enricher.Enrich(pair.Child.ID)
	}
	if s.notifier != nil {
		s.notifier.NotifyNewWeek(ctx, pair.Parent.ChildName, pair.Parent.WeekNumber)
	}
	return pair, nil
}

// StartNextCycle initiates the week after a completed cycle. The prior
// week's reflection is folded into the new generation context; the child
// must have had at least one cycle, and none may still be active.
func (s *CycleService) StartNextCycle(ctx context.Context, childID, initiatedBy string) (*CyclePair, error) {
	latest, err := s.cycles.GetLatestByChild(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest cycle: %w", err)
	}
	if latest == nil {
		return nil, ErrNoPriorCycle
	}
	if latest.Status == models.StatusActive {
		return nil, ErrCycleAlreadyActive
	}
	return s.CreateCycle(ctx, childID, initiatedBy)
}

// GetCycle returns both documents of a cycle
func (s *CycleService) GetCycle(cycleID string) (*CyclePair, error) {
	parent, err := s.cycles.GetByCycleID(cycleID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	child, err := s.workbooks.GetByCycleID(cycleID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, fmt.Errorf("%w: cycle %s has no child workbook", ErrPartialWrite, cycleID)
	}
	return &CyclePair{Parent: parent, Child: child}, nil
}

// GetActiveCycle returns the child's active cycle, or ErrNotFound
func (s *CycleService) GetActiveCycle(childID string) (*CyclePair, error) {
	parent, err := s.cycles.GetActiveByChild(childID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	return s.GetCycle(parent.CycleID)
}

// History returns the child's parent workbooks, newest first
func (s *CycleService) History(childID string) ([]models.ParentWorkbook, error) {
	return s.cycles.ListByChild(childID)
}

// ReflectionGate reports whether the reflection for the parent workbook may
// be offered. The gate is purely time-based.
func (s *CycleService) ReflectionGate(parentWorkbookID string) (*GateStatus, error) {
	parent, err := s.cycles.GetByID(parentWorkbookID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	now := s.now()
	return &GateStatus{
		DaysElapsed:    parent.DaysElapsed(now, s.cycleLength),
		CycleLength:    s.cycleLength,
		ReflectionOpen: parent.ReflectionOpen(now, s.cycleLength),
	}, nil
}

// SaveReflection records the caregiver's end-of-week reflection and
// completes the cycle: both documents move to completed in one transaction.
func (s *CycleService) SaveReflection(ctx context.Context, parentWorkbookID string, reflection models.WeeklyReflection) (*models.ParentWorkbook, error) {
	// Blank answers are allowed; presence of the reflection object is what
	// completes the cycle.
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

	now := s.now()
	if !parent.ReflectionOpen(now, s.cycleLength) {
		return nil, ErrReflectionNotOpen
	}

	reflection.CompletedAt = now
	parent.WeeklyReflection = &reflection
	parent.Status = models.StatusCompleted
	parent.LastEditedBy = reflection.CompletedBy

	child, err := s.workbooks.GetForUpdate(tx, parent.ChildWorkbookID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, fmt.Errorf("%w: cycle %s has no child workbook", ErrPartialWrite, parent.CycleID)
	}
	child.Status = models.StatusCompleted

	if err := s.cycles.Update(tx, parent); err != nil {
		return nil, err
	}
	if err := s.workbooks.Update(tx, child); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Cycle completed: cycle=%s week=%d", parent.CycleID, parent.WeekNumber)

	if s.notifier != nil {
		s.notifier.NotifyWeekComplete(ctx, parent.ChildName, parent.WeekNumber)
	}
	return parent, nil
}

// Reconcile repairs a cycle whose two documents have drifted apart. The
// parent workbook's reflection is authoritative: a cycle with a reflection
// is completed on both sides, a cycle without one is active on both.
func (s *CycleService) Reconcile(cycleID string) (*CyclePair, error) {
	pair, err := s.GetCycle(cycleID)
	if err != nil {
		return nil, err
	}

	want := models.StatusActive
	if pair.Parent.WeeklyReflection != nil {
		want = models.StatusCompleted
	}
	if pair.Parent.Status == want && pair.Child.Status == want {
		return pair, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	parent, err := s.cycles.GetForUpdate(tx, pair.Parent.ID)
	if err != nil {
		return nil, err
	}
	child, err := s.workbooks.GetForUpdate(tx, pair.Child.ID)
	if err != nil {
		return nil, err
	}
	if parent == nil || child == nil {
		return nil, ErrNotFound
	}

	if parent.Status != want {
		parent.Status = want
		if err := s.cycles.Update(tx, parent); err != nil {
			return nil, err
		}
	}
	if child.Status != want {
		child.Status = want
		if err := s.workbooks.Update(tx, child); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Cycle reconciled: cycle=%s status=%s", cycleID, want)
	return &CyclePair{Parent: parent, Child: child}, nil
}

// buildPair assembles both workbook documents from the oracle's output
func (s *CycleService) buildPair(profile *models.ProfileContext, week *generation.GeneratedWeek, initiatedBy string) *CyclePair {
	now := s.now()
	cycleID := uuid.NewString()
	parentID := uuid.NewString()
	childWorkbookID := uuid.NewString()
	endDate := now.AddDate(0, 0, s.cycleLength)
	band := generation.BandForAge(profile.Child.Age)

	parent := &models.ParentWorkbook{
		ID:              parentID,
		CycleID:         cycleID,
		FamilyID:        profile.Child.FamilyID,
		ChildID:         profile.Child.ID,
		ChildName:       profile.Child.Name,
		WeekNumber:      profile.WeekNumber,
		StartDate:       now,
		EndDate:         endDate,
		ChildWorkbookID: childWorkbookID,
		Status:          models.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastEditedBy:    initiatedBy,
	}
	for _, goal := range week.ParentGoals {
		parent.Goals = append(parent.Goals, models.BehaviorGoal{
			ID:              uuid.NewString(),
			Description:     goal.Description,
			TargetFrequency: goal.TargetFrequency,
			CompletionLog:   []models.GoalCompletion{},
		})
	}
	for _, strategy := range week.DailyStrategies {
		parent.DailyStrategies = append(parent.DailyStrategies, models.DailyStrategy{
			Day:                 generation.DayName(strategy.DayNumber),
			DayNumber:           strategy.DayNumber,
			StrategyTitle:       strategy.StrategyTitle,
			StrategyDescription: strategy.StrategyDescription,
			ConnectionToStory:   strategy.ConnectionToStory,
			PracticalTips:       strategy.PracticalTips,
		})
	}

	child := &models.ChildWorkbook{
		ID:               childWorkbookID,
		CycleID:          cycleID,
		FamilyID:         profile.Child.FamilyID,
		ChildID:          profile.Child.ID,
		ChildName:        profile.Child.Name,
		ChildAge:         profile.Child.Age,
		WeekNumber:       profile.WeekNumber,
		StartDate:        now,
		EndDate:          endDate,
		ParentWorkbookID: parentID,
		Status:           models.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	activityByDay := make(map[int]string, len(week.DailyActivities))
	for _, activity := range week.DailyActivities {
		id := uuid.NewString()
		activityByDay[activity.DayNumber] = id
		child.Activities = append(child.Activities, models.DailyActivity{
			ID:          id,
			Type:        activity.Type,
			Title:       activity.Title,
			Description: activity.Description,
		})
	}

	child.Story = models.WeeklyStory{
		Title:                week.Story.Title,
		CharacterName:        week.Story.CharacterName,
		CharacterDescription: week.Story.CharacterDescription,
		CharacterAge:         week.Story.CharacterAge,
		Theme:                week.Story.Theme,
		AgeLevel:             band.Label,
		ReadingLevel:         band.Level,
	}
	totalWords := 0
	for _, fragment := range week.Story.DailyFragments {
		words := len(strings.Fields(fragment.FragmentText))
		totalWords += words
		child.Story.DailyFragments = append(child.Story.DailyFragments, models.StoryFragment{
			Day:                generation.DayName(fragment.DayNumber),
			DayNumber:          fragment.DayNumber,
			FragmentText:       fragment.FragmentText,
			WordCount:          words,
			EstimatedReadTime:  generation.EstimateReadMinutes(words),
			IllustrationPrompt: fragment.IllustrationPrompt,
			IllustrationStatus: models.IllustrationGenerating,
			PairedActivityID:   activityByDay[fragment.DayNumber],
		})
	}
	child.Story.EstimatedReadTime = generation.EstimateReadMinutes(totalWords)
	for _, question := range week.Story.ReflectionQuestions {
		child.Story.ReflectionQuestions = append(child.Story.ReflectionQuestions, models.ReflectionQuestion{
			ID:           uuid.NewString(),
			QuestionText: question.QuestionText,
			Category:     question.Category,
			PurposeNote:  question.PurposeNote,
		})
	}
	child.Progress = models.NewStoryProgress(len(child.Activities))
	parent.ChildProgress = child.Summary()

	return &CyclePair{Parent: parent, Child: child}
}
