package models

import (
	"math"
	"time"
)

// CycleStatus is the lifecycle state shared by both workbooks of a cycle
type CycleStatus string

const (
	StatusActive    CycleStatus = "active"
	StatusCompleted CycleStatus = "completed"
)

// ParentWorkbook is the caregiver-facing document for one weekly cycle.
// It is paired with exactly one ChildWorkbook through CycleID.
type ParentWorkbook struct {
	ID       string `json:"workbookId"`
	CycleID  string `json:"cycleId"`
	FamilyID string `json:"familyId"`
	ChildID  string `json:"childId"`
	// Denormalized for display
	ChildName string `json:"childName"`

	WeekNumber int       `json:"weekNumber"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`

	Goals           []BehaviorGoal  `json:"behaviorGoals"`
	DailyStrategies []DailyStrategy `json:"dailyStrategies"`

	// Present only once the week has been reflected on; its presence is
	// the completion signal for the whole cycle
	WeeklyReflection *WeeklyReflection `json:"weeklyReflection,omitempty"`

	// Cached mirror of the child workbook's progress; recomputed from the
	// child side after every mutation, never incremented independently
	ChildProgress ChildProgressSummary `json:"childProgressSummary"`

	ChildWorkbookID string      `json:"childWorkbookId"`
	Status          CycleStatus `json:"status"`

	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastEditedBy string    `json:"lastEditedBy,omitempty"`
}

// BehaviorGoal is a caregiver behavior goal with an append-only completion log
type BehaviorGoal struct {
	ID              string           `json:"id"`
	Description     string           `json:"description"`
	TargetFrequency string           `json:"targetFrequency"`
	CompletionLog   []GoalCompletion `json:"completionLog"`
}

// GoalCompletion is one row of a goal's history. Rows are never removed;
// toggling a goal off appends a completed=false row.
type GoalCompletion struct {
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	AddedBy   string    `json:"addedBy,omitempty"`
}

// DailyStrategy is the caregiver's practice focus for one story day.
// Unlike goals it carries a plain flag: only "done this week" matters.
type DailyStrategy struct {
	Day                 string     `json:"day"`
	DayNumber           int        `json:"dayNumber"`
	StrategyTitle       string     `json:"strategyTitle"`
	StrategyDescription string     `json:"strategyDescription"`
	ConnectionToStory   string     `json:"connectionToStory"`
	PracticalTips       []string   `json:"practicalTips"`
	Completed           bool       `json:"completed"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
}

// WeeklyReflection is the caregiver's end-of-week retrospective
type WeeklyReflection struct {
	WhatWorkedWell         string    `json:"whatWorkedWell"`
	WhatWasChallenging     string    `json:"whatWasChallenging"`
	InsightsLearned        string    `json:"insightsLearned"`
	AdjustmentsForNextWeek string    `json:"adjustmentsForNextWeek"`
	CompletedAt            time.Time `json:"completedAt"`
	CompletedBy            string    `json:"completedBy"`
}

// ChildProgressSummary mirrors the child workbook's progress for the
// caregiver dashboard
type ChildProgressSummary struct {
	StoriesRead            int        `json:"storiesRead"`
	ActivitiesCompleted    int        `json:"activitiesCompleted"`
	StoryCompletionPercent int        `json:"storyCompletionPercent"`
	LastActiveDate         *time.Time `json:"lastActiveDate,omitempty"`
}

// CompletedOn reports whether the goal counts as completed on the given
// calendar day. The log is append-only, so the latest entry for that day
// wins when the goal was toggled more than once.
func (g *BehaviorGoal) CompletedOn(day time.Time) bool {
	completed := false
	for _, entry := range g.CompletionLog {
		if SameCalendarDay(entry.Date, day) {
			completed = entry.Completed
		}
	}
	return completed
}

// DaysElapsed returns how many days of the cycle have passed at the given
// instant, clamped to [0, cycleLength]
func (w *ParentWorkbook) DaysElapsed(now time.Time, cycleLength int) int {
	elapsed := now.Sub(w.StartDate)
	days := int(math.Ceil(elapsed.Hours() / 24))
	if days < 0 {
		return 0
	}
	if days > cycleLength {
		return cycleLength
	}
	return days
}

// ReflectionOpen reports whether the end-of-week reflection may be offered.
// The gate is strictly time-based: finishing every goal early does not
// open it, and reaching day 7 with unfinished goals does not hold it shut.
func (w *ParentWorkbook) ReflectionOpen(now time.Time, cycleLength int) bool {
	return w.DaysElapsed(now, cycleLength) >= cycleLength
}

// GoalByID returns the goal with the given id, or nil
func (w *ParentWorkbook) GoalByID(goalID string) *BehaviorGoal {
	for i := range w.Goals {
		if w.Goals[i].ID == goalID {
			return &w.Goals[i]
		}
	}
	return nil
}

// StrategyForDay returns the daily strategy for dayNumber (1-7), or nil
func (w *ParentWorkbook) StrategyForDay(dayNumber int) *DailyStrategy {
	for i := range w.DailyStrategies {
		if w.DailyStrategies[i].DayNumber == dayNumber {
			return &w.DailyStrategies[i]
		}
	}
	return nil
}

// SameCalendarDay reports whether two instants fall on the same calendar date
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
