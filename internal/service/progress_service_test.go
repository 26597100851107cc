package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyweek/internal/models"
)

type progressFixture struct {
	*cycleFixture
	progress *ProgressService
	pair     *CyclePair
	start    time.Time
}

func newProgressFixture(t *testing.T) *progressFixture {
	f := newCycleFixture(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f.setNow(start)

	pair, err := f.service.CreateCycle(context.Background(), "child-1", "user-1")
	if err != nil {
		t.Fatal(err)
	}

	progress := NewProgressService(&fakeDB{}, f.cycles, f.workbooks)
	progress.nowFunc = func() time.Time { return start.Add(26 * time.Hour) }
	return &progressFixture{cycleFixture: f, progress: progress, pair: pair, start: start}
}

func TestLogGoalCompletion(t *testing.T) {
	f := newProgressFixture(t)
	goalID := f.pair.Parent.Goals[0].ID

	parent, err := f.progress.LogGoalCompletion(f.pair.Parent.ID, goalID, true, "user-1")
	if err != nil {
		t.Fatalf("LogGoalCompletion() error = %v", err)
	}

	goal := parent.GoalByID(goalID)
	if len(goal.CompletionLog) != 1 {
		t.Fatalf("log length = %d, want 1", len(goal.CompletionLog))
	}
	today := f.progress.nowFunc()
	if !goal.CompletedOn(today) {
		t.Error("goal should read completed today")
	}

	// Marking again the same day appends rather than replacing
	parent, err = f.progress.LogGoalCompletion(f.pair.Parent.ID, goalID, true, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	goal = parent.GoalByID(goalID)
	if len(goal.CompletionLog) != 2 {
		t.Errorf("log length = %d, want 2 after repeated mark", len(goal.CompletionLog))
	}
	if !goal.CompletedOn(today) {
		t.Error("goal should still read completed")
	}

	// Toggling off appends a false entry; the latest entry wins
	parent, err = f.progress.LogGoalCompletion(f.pair.Parent.ID, goalID, false, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	goal = parent.GoalByID(goalID)
	if len(goal.CompletionLog) != 3 {
		t.Errorf("log length = %d, want 3 after toggle off", len(goal.CompletionLog))
	}
	if goal.CompletedOn(today) {
		t.Error("goal should read not completed after toggle off")
	}
}

func TestLogGoalCompletionUnknownGoal(t *testing.T) {
	f := newProgressFixture(t)
	_, err := f.progress.LogGoalCompletion(f.pair.Parent.ID, "no-such-goal", true, "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LogGoalCompletion() error = %v, want ErrNotFound", err)
	}
}

func TestLogDailyStrategy(t *testing.T) {
	f := newProgressFixture(t)

	parent, err := f.progress.LogDailyStrategy(f.pair.Parent.ID, 3, true, "user-1")
	if err != nil {
		t.Fatalf("LogDailyStrategy() error = %v", err)
	}
	strategy := parent.StrategyForDay(3)
	if !strategy.Completed || strategy.CompletedAt == nil {
		t.Error("strategy should be completed with a timestamp")
	}

	parent, err = f.progress.LogDailyStrategy(f.pair.Parent.ID, 3, false, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	strategy = parent.StrategyForDay(3)
	if strategy.Completed || strategy.CompletedAt != nil {
		t.Error("strategy flag should clear cleanly")
	}
}

func TestCompleteActivity(t *testing.T) {
	f := newProgressFixture(t)
	fragment := f.pair.Child.FragmentForDay(1)
	activityID := fragment.PairedActivityID

	child, err := f.progress.CompleteActivity(f.pair.Child.ID, activityID, "I liked the mountain", "we talked about the climb", "parent")
	if err != nil {
		t.Fatalf("CompleteActivity() error = %v", err)
	}

	activity := child.ActivityByID(activityID)
	if !activity.Completed || activity.CompletedAt == nil {
		t.Error("activity should be completed with a timestamp")
	}
	if activity.ChildResponse != "I liked the mountain" {
		t.Errorf("child response = %q", activity.ChildResponse)
	}
	if activity.ParentNotes != "we talked about the climb" {
		t.Errorf("parent notes = %q", activity.ParentNotes)
	}
	if !child.Progress.DaysRead[0] {
		t.Error("paired story day should be marked read")
	}
	if child.Progress.CurrentDay != 2 {
		t.Errorf("current day = %d, want 2", child.Progress.CurrentDay)
	}
	if len(child.Progress.ActivitiesCompleted) != 1 {
		t.Errorf("activities completed = %d, want 1", len(child.Progress.ActivitiesCompleted))
	}
	if child.LastActiveAt == nil {
		t.Error("last active timestamp should be set")
	}

	// Parent summary is recomputed from the child side
	parent, _ := f.cycles.GetByID(f.pair.Parent.ID)
	if parent.ChildProgress.StoriesRead != 1 || parent.ChildProgress.ActivitiesCompleted != 1 {
		t.Errorf("parent summary = %+v", parent.ChildProgress)
	}
	if parent.ChildProgress.StoryCompletionPercent != 100/models.StoryDays {
		t.Errorf("completion percent = %d", parent.ChildProgress.StoryCompletionPercent)
	}

	// Completing the same activity twice does not double count, and blank
	// inputs leave the stored response and notes alone
	child, err = f.progress.CompleteActivity(f.pair.Child.ID, activityID, "", "", "parent")
	if err != nil {
		t.Fatal(err)
	}
	if len(child.Progress.ActivitiesCompleted) != 1 {
		t.Error("repeated completion should not duplicate the activity")
	}
	activity = child.ActivityByID(activityID)
	if activity.ChildResponse != "I liked the mountain" || activity.ParentNotes != "we talked about the climb" {
		t.Error("blank inputs should not erase earlier response or notes")
	}
}

func TestMarkStoryDayRead(t *testing.T) {
	f := newProgressFixture(t)

	// Reading out of order: day 3 first
	child, err := f.progress.MarkStoryDayRead(f.pair.Child.ID, 3)
	if err != nil {
		t.Fatalf("MarkStoryDayRead() error = %v", err)
	}
	if !child.Progress.DaysRead[2] {
		t.Error("day 3 should be marked read")
	}
	if child.Progress.CurrentDay != 1 {
		t.Errorf("current day = %d, want 1 (the first unread day)", child.Progress.CurrentDay)
	}

	if _, err := f.progress.MarkStoryDayRead(f.pair.Child.ID, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("out-of-range day error = %v, want ErrNotFound", err)
	}
}

func TestProgressRejectsCompletedCycle(t *testing.T) {
	f := newProgressFixture(t)
	f.setNow(f.start.Add(7 * 24 * time.Hour))
	if _, err := f.service.SaveReflection(context.Background(), f.pair.Parent.ID, models.WeeklyReflection{
		WhatWorkedWell: "everything",
	}); err != nil {
		t.Fatal(err)
	}

	goalID := f.pair.Parent.Goals[0].ID
	if _, err := f.progress.LogGoalCompletion(f.pair.Parent.ID, goalID, true, "user-1"); !errors.Is(err, ErrCycleNotActive) {
		t.Errorf("LogGoalCompletion() on completed cycle error = %v, want ErrCycleNotActive", err)
	}

	fragment := f.pair.Child.FragmentForDay(1)
	if _, err := f.progress.CompleteActivity(f.pair.Child.ID, fragment.PairedActivityID, "", "", "parent"); !errors.Is(err, ErrCycleNotActive) {
		t.Errorf("CompleteActivity() on completed cycle error = %v, want ErrCycleNotActive", err)
	}
}

func TestContextServiceBuild(t *testing.T) {
	f := newCycleFixture(t)
	contexts := NewContextService(f.profiles, f.cycles)

	profile, err := contexts.Build("child-1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if profile.WeekNumber != 1 {
		t.Errorf("week number = %d, want 1", profile.WeekNumber)
	}
	if len(profile.EffectiveStrategies) != 1 || len(profile.IneffectiveStrategies) != 1 {
		t.Errorf("strategy split = %d/%d, want 1/1",
			len(profile.EffectiveStrategies), len(profile.IneffectiveStrategies))
	}
	if len(profile.Triggers) != 1 {
		t.Errorf("triggers = %d, want 1", len(profile.Triggers))
	}
	if profile.PriorReflection != nil {
		t.Error("first week has no prior reflection")
	}

	if _, err := contexts.Build("no-such-child"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Build() for unknown child error = %v, want ErrNotFound", err)
	}
}
