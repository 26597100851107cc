package models

import "time"

// Child represents a dependent profile in the system
type Child struct {
	ID       string `json:"id"`
	FamilyID string `json:"familyId"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	// bcrypt hash of the device PIN used to mint child-device tokens
	DevicePINHash string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasDevicePIN reports whether a device PIN has been set
func (c *Child) HasDevicePIN() bool {
	return c.DevicePINHash != ""
}

// Trigger is a recorded behavioral trigger for a child
type Trigger struct {
	ID          string    `json:"id"`
	ChildID     string    `json:"childId"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"` // low, medium, high
	CreatedAt   time.Time `json:"createdAt"`
}

// Strategy is a recorded caregiver strategy; Effective distinguishes
// "what works" from "what doesn't work"
type Strategy struct {
	ID          string    `json:"id"`
	ChildID     string    `json:"childId"`
	Description string    `json:"description"`
	Effective   bool      `json:"effective"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Boundary is a recorded family boundary relevant to generation
type Boundary struct {
	ID          string    `json:"id"`
	ChildID     string    `json:"childId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProfileContext is the accumulated profile data that seeds weekly
// generation. Every field is optional: absence degrades specificity,
// never fails generation.
type ProfileContext struct {
	Child                 Child
	Triggers              []Trigger
	EffectiveStrategies   []Strategy
	IneffectiveStrategies []Strategy
	Boundaries            []Boundary
	// The most recent completed cycle's reflection, if any
	PriorReflection *WeeklyReflection
	// Week number the new cycle should carry
	WeekNumber int
}
