package generation

import (
	"fmt"
	"strings"

	"storyweek/internal/models"
)

const systemPrompt = `You are a supportive parenting coach and children's storyteller creating paired weekly plans.

Your role:
- Generate practical, achievable weekly behavior goals for the PARENT (not the child)
- Focus on what the parent can control: their responses, patience, presence
- Write a gentle 7-day story for the child whose main character faces the same situations the child does
- Pair each story day with one small child activity and one parent practice focus
- Never blame, shame, or set perfectionistic expectations

Key principles:
- 3-5 parent behavior goals per week
- Exactly 7 story fragments, one per day, numbered 1 (monday) through 7 (sunday)
- Exactly 7 daily activities and exactly 7 daily parent strategies, each tied to a story day
- Each daily strategy's connectionToStory must reference what happens in that day's fragment
- Use strategies from the profile that have worked before; plan around known triggers
- Respect the stated family boundaries

Output format: JSON only, no markdown.`

// BuildSystemPrompt returns the fixed oracle system instruction
func BuildSystemPrompt() string {
	return systemPrompt
}

// BuildWeekPrompt assembles the user prompt for one cycle's generation
// from the accumulated profile context
func BuildWeekPrompt(profile models.ProfileContext) string {
	band := BandForAge(profile.Child.Age)

	var b strings.Builder

	fmt.Fprintf(&b, "Generate week %d's paired workbooks for %s, age %d.\n\n",
		profile.WeekNumber, profile.Child.Name, profile.Child.Age)

	fmt.Fprintf(&b, "## Reading level\n%s (%s): each story fragment %d-%d words.\n\n",
		band.Level, band.Label, band.MinWordsPerDay, band.MaxWordsPerDay)

	b.WriteString("## Known triggers\n")
	if len(profile.Triggers) == 0 {
		b.WriteString("No triggers recorded yet\n")
	}
	for _, trigger := range profile.Triggers {
		fmt.Fprintf(&b, "- %s (severity: %s)\n", trigger.Description, trigger.Severity)
	}

	b.WriteString("\n## What works\n")
	if len(profile.EffectiveStrategies) == 0 {
		b.WriteString("No strategies recorded yet\n")
	}
	for _, strategy := range profile.EffectiveStrategies {
		fmt.Fprintf(&b, "- %s\n", strategy.Description)
	}

	b.WriteString("\n## What doesn't work\n")
	if len(profile.IneffectiveStrategies) == 0 {
		b.WriteString("None recorded\n")
	}
	for _, strategy := range profile.IneffectiveStrategies {
		fmt.Fprintf(&b, "- %s\n", strategy.Description)
	}

	b.WriteString("\n## Boundaries\n")
	if len(profile.Boundaries) == 0 {
		b.WriteString("None recorded\n")
	}
	for _, boundary := range profile.Boundaries {
		fmt.Fprintf(&b, "- %s\n", boundary.Description)
	}

	if profile.PriorReflection != nil {
		b.WriteString("\n## Last week's reflection\n")
		if profile.PriorReflection.WhatWorkedWell != "" {
			fmt.Fprintf(&b, "What worked well: %s\n", profile.PriorReflection.WhatWorkedWell)
		}
		if profile.PriorReflection.WhatWasChallenging != "" {
			fmt.Fprintf(&b, "What was challenging: %s\n", profile.PriorReflection.WhatWasChallenging)
		}
		if profile.PriorReflection.InsightsLearned != "" {
			fmt.Fprintf(&b, "Insights: %s\n", profile.PriorReflection.InsightsLearned)
		}
		if profile.PriorReflection.AdjustmentsForNextWeek != "" {
			fmt.Fprintf(&b, "Adjustments to bias this week toward: %s\n", profile.PriorReflection.AdjustmentsForNextWeek)
		}
	}

	fmt.Fprintf(&b, `
## Generate JSON with this structure:
{
  "parentGoals": [
    {"description": "Specific parent behavior to practice", "targetFrequency": "Daily" or "3x per week"}
  ],
  "dailyStrategies": [
    {"dayNumber": 1, "strategyTitle": "Short title", "strategyDescription": "What to practice today", "connectionToStory": "How this mirrors today's fragment", "practicalTips": ["tip 1", "tip 2"]}
  ],
  "dailyActivities": [
    {"dayNumber": 1, "type": "discussion", "title": "Short title", "description": "What to do together"}
  ],
  "weeklyStory": {
    "title": "Story title",
    "characterName": "Character name",
    "characterDescription": "a brave young fox",
    "characterAge": %d,
    "storyTheme": "one of: courage, transitions, friendship, problem-solving, emotions, boundaries, growth, self-compassion",
    "dailyFragments": [
      {"dayNumber": 1, "fragmentText": "The story text for this day", "illustrationPrompt": "A visual description of this day's scene for an illustrator"}
    ],
    "reflectionQuestions": [
      {"questionText": "What was hard for the character?", "category": "one of: challenge, courage, strategy, connection, compassion", "purposeNote": "For the parent: what this question surfaces"}
    ]
  }
}

Requirements:
- 3-5 parentGoals
- exactly 7 dailyStrategies, 7 dailyActivities and 7 dailyFragments with dayNumber 1-7
- 5-7 reflectionQuestions
- each fragment %d-%d words, warm and age-appropriate
- the character faces the child's real situations but never names the child`,
		profile.Child.Age, band.MinWordsPerDay, band.MaxWordsPerDay)

	return b.String()
}
