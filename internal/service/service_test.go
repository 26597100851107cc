package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"storyweek/internal/database"
	"storyweek/internal/generation"
	"storyweek/internal/models"
)

// Shared in-memory fakes for the service tests. Stores hand out deep
// copies so a mutation only lands when Update is called, mirroring how
// the real repositories behave.

type fakeTx struct{}

func (t *fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (t *fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(query string, args ...interface{}) *sql.Row        { return nil }
func (t *fakeTx) GetDialect() database.Dialect                               { return database.NewSQLiteDialect() }
func (t *fakeTx) Commit() error                                              { return nil }
func (t *fakeTx) Rollback() error                                            { return nil }

type fakeDB struct{}

func (db *fakeDB) Begin() (database.TxHandle, error) { return &fakeTx{}, nil }

func deepCopy[T any](t *testing.T, v *T) *T {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatal(err)
	}
	return out
}

type fakeCycleStore struct {
	t    *testing.T
	mu   sync.Mutex
	byID map[string]*models.ParentWorkbook
}

func newFakeCycleStore(t *testing.T) *fakeCycleStore {
	return &fakeCycleStore{t: t, byID: make(map[string]*models.ParentWorkbook)}
}

func (s *fakeCycleStore) Insert(q database.DBTX, w *models.ParentWorkbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[w.ID] = deepCopy(s.t, w)
	return nil
}

func (s *fakeCycleStore) Update(q database.DBTX, w *models.ParentWorkbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[w.ID]; !ok {
		return fmt.Errorf("parent workbook not found: %s", w.ID)
	}
	s.byID[w.ID] = deepCopy(s.t, w)
	return nil
}

func (s *fakeCycleStore) ActiveExists(q database.DBTX, childID string) (bool, error) {
	w, err := s.GetActiveByChild(childID)
	return w != nil, err
}

func (s *fakeCycleStore) GetByID(id string) (*models.ParentWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return deepCopy(s.t, w), nil
}

func (s *fakeCycleStore) GetForUpdate(q database.DBTX, id string) (*models.ParentWorkbook, error) {
	return s.GetByID(id)
}

func (s *fakeCycleStore) GetByCycleID(cycleID string) (*models.ParentWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.byID {
		if w.CycleID == cycleID {
			return deepCopy(s.t, w), nil
		}
	}
	return nil, nil
}

func (s *fakeCycleStore) GetActiveByChild(childID string) (*models.ParentWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.byID {
		if w.ChildID == childID && w.Status == models.StatusActive {
			return deepCopy(s.t, w), nil
		}
	}
	return nil, nil
}

func (s *fakeCycleStore) GetLatestByChild(childID string) (*models.ParentWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.ParentWorkbook
	for _, w := range s.byID {
		if w.ChildID != childID {
			continue
		}
		if latest == nil || w.WeekNumber > latest.WeekNumber {
			latest = w
		}
	}
	if latest == nil {
		return nil, nil
	}
	return deepCopy(s.t, latest), nil
}

func (s *fakeCycleStore) ListByChild(childID string) ([]models.ParentWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ParentWorkbook
	for _, w := range s.byID {
		if w.ChildID == childID {
			out = append(out, *deepCopy(s.t, w))
		}
	}
	return out, nil
}

type fakeWorkbookStore struct {
	t    *testing.T
	mu   sync.Mutex
	byID map[string]*models.ChildWorkbook
}

func newFakeWorkbookStore(t *testing.T) *fakeWorkbookStore {
	return &fakeWorkbookStore{t: t, byID: make(map[string]*models.ChildWorkbook)}
}

func (s *fakeWorkbookStore) Insert(q database.DBTX, w *models.ChildWorkbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[w.ID] = deepCopy(s.t, w)
	return nil
}

func (s *fakeWorkbookStore) Update(q database.DBTX, w *models.ChildWorkbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[w.ID]; !ok {
		return fmt.Errorf("child workbook not found: %s", w.ID)
	}
	s.byID[w.ID] = deepCopy(s.t, w)
	return nil
}

func (s *fakeWorkbookStore) GetByID(id string) (*models.ChildWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return deepCopy(s.t, w), nil
}

func (s *fakeWorkbookStore) GetForUpdate(q database.DBTX, id string) (*models.ChildWorkbook, error) {
	return s.GetByID(id)
}

func (s *fakeWorkbookStore) GetByCycleID(cycleID string) (*models.ChildWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.byID {
		if w.CycleID == cycleID {
			return deepCopy(s.t, w), nil
		}
	}
	return nil, nil
}

func (s *fakeWorkbookStore) GetActiveByChild(childID string) (*models.ChildWorkbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.byID {
		if w.ChildID == childID && w.Status == models.StatusActive {
			return deepCopy(s.t, w), nil
		}
	}
	return nil, nil
}

type fakeProfileStore struct {
	child      *models.Child
	triggers   []models.Trigger
	strategies []models.Strategy
	boundaries []models.Boundary
}

func (s *fakeProfileStore) GetChild(childID string) (*models.Child, error) {
	if s.child != nil && s.child.ID == childID {
		c := *s.child
		return &c, nil
	}
	return nil, nil
}

func (s *fakeProfileStore) GetTriggers(childID string) ([]models.Trigger, error) {
	return s.triggers, nil
}

func (s *fakeProfileStore) GetStrategies(childID string) ([]models.Strategy, error) {
	return s.strategies, nil
}

func (s *fakeProfileStore) GetBoundaries(childID string) ([]models.Boundary, error) {
	return s.boundaries, nil
}

type fakeOracle struct {
	week        *generation.GeneratedWeek
	err         error
	calls       int
	lastProfile models.ProfileContext
}

func (o *fakeOracle) GenerateWeek(ctx context.Context, profile models.ProfileContext) (*generation.GeneratedWeek, error) {
	o.calls++
	o.lastProfile = profile
	if o.err != nil {
		return nil, o.err
	}
	return o.week, nil
}

type fakeEnricher struct {
	mu          sync.Mutex
	workbookIDs []string
}

func (e *fakeEnricher) Enrich(childWorkbookID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workbookIDs = append(e.workbookIDs, childWorkbookID)
}

type fakeNotifier struct {
	newWeeks  []int
	completed []int
}

func (n *fakeNotifier) NotifyNewWeek(ctx context.Context, childName string, weekNumber int) {
	n.newWeeks = append(n.newWeeks, weekNumber)
}

func (n *fakeNotifier) NotifyWeekComplete(ctx context.Context, childName string, weekNumber int) {
	n.completed = append(n.completed, weekNumber)
}

func generatedWeek() *generation.GeneratedWeek {
	week := &generation.GeneratedWeek{
		ParentGoals: []generation.GeneratedGoal{
			{Description: "Give a 5-minute warning before transitions", TargetFrequency: "Daily"},
			{Description: "Name the feeling out loud", TargetFrequency: "Twice daily"},
		},
		Story: generation.GeneratedStory{
			Title:         "Milo and the Morning Mountain",
			CharacterName: "Milo",
			CharacterAge:  7,
			Theme:         "morning routines",
		},
	}
	for day := 1; day <= models.StoryDays; day++ {
		week.Story.DailyFragments = append(week.Story.DailyFragments, generation.GeneratedFragment{
			DayNumber:          day,
			FragmentText:       fmt.Sprintf("Milo climbed a little higher on day %d.", day),
			IllustrationPrompt: fmt.Sprintf("A marmot climbing, day %d", day),
		})
		week.DailyActivities = append(week.DailyActivities, generation.GeneratedActivity{
			DayNumber:   day,
			Type:        "discussion",
			Title:       fmt.Sprintf("Day %d talk", day),
			Description: "Talk about the fragment together",
		})
		week.DailyStrategies = append(week.DailyStrategies, generation.GeneratedStrategy{
			DayNumber:           day,
			StrategyTitle:       fmt.Sprintf("Day %d focus", day),
			StrategyDescription: "Practice the morning handoff",
			ConnectionToStory:   "Mirrors Milo's climb",
			PracticalTips:       []string{"keep it short"},
		})
	}
	week.Story.ReflectionQuestions = []generation.GeneratedQuestion{
		{QuestionText: "What helped Milo keep going?", Category: "emotional-awareness"},
		{QuestionText: "When did you feel like Milo this week?", Category: "connection"},
		{QuestionText: "What was the bravest thing Milo did?", Category: "courage"},
		{QuestionText: "What would you tell Milo before the climb?", Category: "strategy"},
		{QuestionText: "How did Milo help a friend?", Category: "compassion"},
	}
	return week
}

type cycleFixture struct {
	service   *CycleService
	cycles    *fakeCycleStore
	workbooks *fakeWorkbookStore
	oracle    *fakeOracle
	enricher  *fakeEnricher
	notifier  *fakeNotifier
	profiles  *fakeProfileStore
}

func newCycleFixture(t *testing.T) *cycleFixture {
	cycles := newFakeCycleStore(t)
	workbooks := newFakeWorkbookStore(t)
	profiles := &fakeProfileStore{
		child: &models.Child{ID: "child-1", FamilyID: "family-1", Name: "Alex", Age: 7},
		triggers: []models.Trigger{
			{ID: "t1", ChildID: "child-1", Description: "rushed mornings", Severity: "high"},
		},
		strategies: []models.Strategy{
			{ID: "s1", ChildID: "child-1", Description: "countdown timer", Effective: true},
			{ID: "s2", ChildID: "child-1", Description: "raising voice", Effective: false},
		},
	}
	oracle := &fakeOracle{week: generatedWeek()}
	enricher := &fakeEnricher{}
	notifier := &fakeNotifier{}
	contexts := NewContextService(profiles, cycles)
	svc := NewCycleService(&fakeDB{}, cycles, workbooks, contexts, oracle, enricher, notifier, 7)
	return &cycleFixture{
		service:   svc,
		cycles:    cycles,
		workbooks: workbooks,
		oracle:    oracle,
		enricher:  enricher,
		notifier:  notifier,
		profiles:  profiles,
	}
}

// advance shifts the fixture clock so the given number of days has elapsed
func (f *cycleFixture) setNow(t time.Time) {
	f.service.now = func() time.Time { return t }
}
