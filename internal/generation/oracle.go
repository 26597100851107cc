package generation

import (
	"context"
	"errors"
	"fmt"

	"storyweek/internal/models"
)

// ErrInvalidContent marks oracle output that does not satisfy the weekly
// content contract (7 fragments, aligned strategies/activities, goals).
// Callers distinguish it from transport failures with errors.Is.
var ErrInvalidContent = errors.New("generated content is invalid")

// Oracle produces structured weekly content from accumulated profile
// context. Implementations may call a remote model; the engine treats the
// call as opaque and all-or-nothing (no partial output).
type Oracle interface {
	GenerateWeek(ctx context.Context, profile models.ProfileContext) (*GeneratedWeek, error)
}

// GeneratedWeek is the oracle's complete output for one cycle
type GeneratedWeek struct {
	ParentGoals     []GeneratedGoal     `json:"parentGoals"`
	DailyStrategies []GeneratedStrategy `json:"dailyStrategies"`
	DailyActivities []GeneratedActivity `json:"dailyActivities"`
	Story           GeneratedStory      `json:"weeklyStory"`
}

// GeneratedGoal is one caregiver behavior goal
type GeneratedGoal struct {
	Description     string `json:"description"`
	TargetFrequency string `json:"targetFrequency"`
}

// GeneratedStrategy is the caregiver practice focus for one story day
type GeneratedStrategy struct {
	DayNumber           int      `json:"dayNumber"`
	StrategyTitle       string   `json:"strategyTitle"`
	StrategyDescription string   `json:"strategyDescription"`
	ConnectionToStory   string   `json:"connectionToStory"`
	PracticalTips       []string `json:"practicalTips"`
}

// GeneratedActivity is the child activity paired with one story day
type GeneratedActivity struct {
	DayNumber   int    `json:"dayNumber"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GeneratedStory is the 7-day narrative
type GeneratedStory struct {
	Title                string               `json:"title"`
	CharacterName        string               `json:"characterName"`
	CharacterDescription string               `json:"characterDescription"`
	CharacterAge         int                  `json:"characterAge"`
	Theme                string               `json:"storyTheme"`
	DailyFragments       []GeneratedFragment  `json:"dailyFragments"`
	ReflectionQuestions  []GeneratedQuestion  `json:"reflectionQuestions"`
}

// GeneratedFragment is one day's story text plus its illustration prompt
type GeneratedFragment struct {
	DayNumber          int    `json:"dayNumber"`
	FragmentText       string `json:"fragmentText"`
	IllustrationPrompt string `json:"illustrationPrompt"`
}

// A weekly story carries between MinReflectionQuestions and
// MaxReflectionQuestions discussion prompts.
const (
	MinReflectionQuestions = 5
	MaxReflectionQuestions = 7
)

// GeneratedQuestion is a story discussion prompt
type GeneratedQuestion struct {
	QuestionText string `json:"questionText"`
	Category     string `json:"category"`
	PurposeNote  string `json:"purposeNote"`
}

// Validate checks a generated week against the content contract. Anything
// that fails here is fatal to cycle creation; nothing gets persisted.
func Validate(week *GeneratedWeek) error {
	if week == nil {
		return fmt.Errorf("%w: empty output", ErrInvalidContent)
	}

	if len(week.ParentGoals) == 0 {
		return fmt.Errorf("%w: no parent goals", ErrInvalidContent)
	}
	for i, goal := range week.ParentGoals {
		if goal.Description == "" {
			return fmt.Errorf("%w: goal %d has no description", ErrInvalidContent, i+1)
		}
	}

	if len(week.Story.DailyFragments) != models.StoryDays {
		return fmt.Errorf("%w: expected %d daily fragments, got %d",
			ErrInvalidContent, models.StoryDays, len(week.Story.DailyFragments))
	}
	if err := checkDayNumbers("fragment", fragmentDays(week.Story.DailyFragments)); err != nil {
		return err
	}
	for _, fragment := range week.Story.DailyFragments {
		if fragment.FragmentText == "" {
			return fmt.Errorf("%w: fragment for day %d has no text", ErrInvalidContent, fragment.DayNumber)
		}
	}

	if n := len(week.Story.ReflectionQuestions); n < MinReflectionQuestions || n > MaxReflectionQuestions {
		return fmt.Errorf("%w: expected %d-%d reflection questions, got %d",
			ErrInvalidContent, MinReflectionQuestions, MaxReflectionQuestions, n)
	}
	for i, question := range week.Story.ReflectionQuestions {
		if question.QuestionText == "" {
			return fmt.Errorf("%w: reflection question %d has no text", ErrInvalidContent, i+1)
		}
	}

	if len(week.DailyActivities) != models.StoryDays {
		return fmt.Errorf("%w: expected %d daily activities, got %d",
			ErrInvalidContent, models.StoryDays, len(week.DailyActivities))
	}
	if err := checkDayNumbers("activity", activityDays(week.DailyActivities)); err != nil {
		return err
	}

	if len(week.DailyStrategies) != models.StoryDays {
		return fmt.Errorf("%w: expected %d daily strategies, got %d",
			ErrInvalidContent, models.StoryDays, len(week.DailyStrategies))
	}
	if err := checkDayNumbers("strategy", strategyDays(week.DailyStrategies)); err != nil {
		return err
	}

	return nil
}

// checkDayNumbers verifies a set of day numbers is exactly {1..7}
func checkDayNumbers(kind string, days []int) error {
	seen := make(map[int]bool, len(days))
	for _, day := range days {
		if day < 1 || day > models.StoryDays {
			return fmt.Errorf("%w: %s day %d out of range", ErrInvalidContent, kind, day)
		}
		if seen[day] {
			return fmt.Errorf("%w: duplicate %s day %d", ErrInvalidContent, kind, day)
		}
		seen[day] = true
	}
	return nil
}

func fragmentDays(fragments []GeneratedFragment) []int {
	days := make([]int, len(fragments))
	for i, f := range fragments {
		days[i] = f.DayNumber
	}
	return days
}

func activityDays(activities []GeneratedActivity) []int {
	days := make([]int, len(activities))
	for i, a := range activities {
		days[i] = a.DayNumber
	}
	return days
}

func strategyDays(strategies []GeneratedStrategy) []int {
	days := make([]int, len(strategies))
	for i, s := range strategies {
		days[i] = s.DayNumber
	}
	return days
}

// DayName maps a 1-based story day to its weekday name (weeks run
// Monday through Sunday)
func DayName(dayNumber int) string {
	names := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	if dayNumber < 1 || dayNumber > len(names) {
		return ""
	}
	return names[dayNumber-1]
}
