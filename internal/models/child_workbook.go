package models

import "time"

// IllustrationStatus tracks one fragment's render lifecycle
type IllustrationStatus string

const (
	IllustrationPending    IllustrationStatus = "pending"
	IllustrationGenerating IllustrationStatus = "generating"
	IllustrationComplete   IllustrationStatus = "complete"
	IllustrationFailed     IllustrationStatus = "failed"
)

// StoryDays is the fixed number of daily fragments in a weekly story
const StoryDays = 7

// ChildWorkbook is the child-facing document for one weekly cycle: a
// serialized 7-day story with one paired activity per day.
type ChildWorkbook struct {
	ID        string `json:"workbookId"`
	CycleID   string `json:"cycleId"`
	FamilyID  string `json:"familyId"`
	ChildID   string `json:"childId"`
	ChildName string `json:"childName"`
	ChildAge  int    `json:"childAge"`

	WeekNumber int       `json:"weekNumber"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`

	Story      WeeklyStory     `json:"weeklyStory"`
	Activities []DailyActivity `json:"dailyActivities"`
	Progress   StoryProgress   `json:"storyProgress"`

	ParentWorkbookID string      `json:"parentWorkbookId"`
	Status           CycleStatus `json:"status"`

	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastActiveAt *time.Time `json:"lastActiveAt,omitempty"`
}

// WeeklyStory is the generated narrative and its metadata
type WeeklyStory struct {
	Title                string               `json:"title"`
	CharacterName        string               `json:"characterName"`
	CharacterDescription string               `json:"characterDescription"`
	CharacterAge         int                  `json:"characterAge"`
	Theme                string               `json:"storyTheme"`
	DailyFragments       []StoryFragment      `json:"dailyFragments"`
	ReflectionQuestions  []ReflectionQuestion `json:"reflectionQuestions"`
	AgeLevel             string               `json:"ageAppropriateLevel"`
	ReadingLevel         string               `json:"readingLevel"`
	EstimatedReadTime    int                  `json:"estimatedReadTime"`
}

// StoryFragment is one day's story segment, paired 1:1 with an activity
type StoryFragment struct {
	Day                string             `json:"day"`
	DayNumber          int                `json:"dayNumber"`
	FragmentText       string             `json:"fragmentText"`
	WordCount          int                `json:"wordCount"`
	EstimatedReadTime  int                `json:"estimatedReadTime"`
	IllustrationPrompt string             `json:"illustrationPrompt"`
	IllustrationURL    string             `json:"illustrationUrl,omitempty"`
	IllustrationStatus IllustrationStatus `json:"illustrationStatus"`
	PairedActivityID   string             `json:"pairedActivityId"`
}

// ReflectionQuestion is a discussion prompt attached to the weekly story
type ReflectionQuestion struct {
	ID           string `json:"id"`
	QuestionText string `json:"questionText"`
	Category     string `json:"category"`
	PurposeNote  string `json:"purposeNote,omitempty"`
}

// DailyActivity is the child-facing activity paired with one story day
type DailyActivity struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Completed     bool       `json:"completed"`
	ChildResponse string     `json:"childResponse,omitempty"`
	ParentNotes   string     `json:"parentNotes,omitempty"`
	RecordedBy    string     `json:"recordedBy,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// StoryProgress tracks how far through the week's story the child is
type StoryProgress struct {
	CurrentDay          int        `json:"currentDay"`
	DaysRead            []bool     `json:"daysRead"`
	ActivitiesCompleted []string   `json:"activitiesCompleted"`
	TotalActivities     int        `json:"totalActivities"`
	LastReadAt          *time.Time `json:"lastReadAt,omitempty"`
}

// NewStoryProgress returns zeroed progress for a fresh workbook
func NewStoryProgress(totalActivities int) StoryProgress {
	return StoryProgress{
		CurrentDay:          1,
		DaysRead:            make([]bool, StoryDays),
		ActivitiesCompleted: []string{},
		TotalActivities:     totalActivities,
	}
}

// ActivityByID returns the activity with the given id, or nil
func (w *ChildWorkbook) ActivityByID(activityID string) *DailyActivity {
	for i := range w.Activities {
		if w.Activities[i].ID == activityID {
			return &w.Activities[i]
		}
	}
	return nil
}

// FragmentForActivity returns the story fragment paired with the activity, or nil
func (w *ChildWorkbook) FragmentForActivity(activityID string) *StoryFragment {
	for i := range w.Story.DailyFragments {
		if w.Story.DailyFragments[i].PairedActivityID == activityID {
			return &w.Story.DailyFragments[i]
		}
	}
	return nil
}

// FragmentForDay returns the fragment for dayNumber (1-7), or nil
func (w *ChildWorkbook) FragmentForDay(dayNumber int) *StoryFragment {
	for i := range w.Story.DailyFragments {
		if w.Story.DailyFragments[i].DayNumber == dayNumber {
			return &w.Story.DailyFragments[i]
		}
	}
	return nil
}

// MarkDayRead records that the story day was read and advances CurrentDay
// to the next unread day
func (p *StoryProgress) MarkDayRead(dayNumber int, now time.Time) {
	if dayNumber < 1 || dayNumber > len(p.DaysRead) {
		return
	}
	p.DaysRead[dayNumber-1] = true
	p.LastReadAt = &now
	p.CurrentDay = p.NextUnreadDay()
}

// NextUnreadDay returns the first unread day, or the final day when the
// whole story has been read
func (p *StoryProgress) NextUnreadDay() int {
	for i, read := range p.DaysRead {
		if !read {
			return i + 1
		}
	}
	return len(p.DaysRead)
}

// RecordActivity adds the activity id to the completed set, once
func (p *StoryProgress) RecordActivity(activityID string) {
	for _, id := range p.ActivitiesCompleted {
		if id == activityID {
			return
		}
	}
	p.ActivitiesCompleted = append(p.ActivitiesCompleted, activityID)
}

// Summary derives the caregiver-side progress summary. The child workbook
// is the source of truth; the parent-side cache is always rebuilt from
// here rather than incremented.
func (w *ChildWorkbook) Summary() ChildProgressSummary {
	read := 0
	for _, r := range w.Progress.DaysRead {
		if r {
			read++
		}
	}

	percent := 0
	if len(w.Progress.DaysRead) > 0 {
		percent = read * 100 / len(w.Progress.DaysRead)
	}

	return ChildProgressSummary{
		StoriesRead:            read,
		ActivitiesCompleted:    len(w.Progress.ActivitiesCompleted),
		StoryCompletionPercent: percent,
		LastActiveDate:         w.LastActiveAt,
	}
}
