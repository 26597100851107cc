package service

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrCycleAlreadyActive is returned when a new cycle is requested for a
	// child that still has an active one
	ErrCycleAlreadyActive = errors.New("child already has an active cycle")

	// ErrGenerationFailed is returned when the content oracle could not be
	// reached or returned an error
	ErrGenerationFailed = errors.New("week generation failed")

	// ErrContentInvalid is returned when the oracle answered but its output
	// failed structural validation
	ErrContentInvalid = errors.New("generated content failed validation")

	// ErrReflectionNotOpen is returned when a reflection is submitted before
	// the cycle's time gate has opened
	ErrReflectionNotOpen = errors.New("reflection is not open yet")

	// ErrCycleNotActive is returned when a mutation targets a completed cycle
	ErrCycleNotActive = errors.New("cycle is not active")

	// ErrNoPriorCycle is returned when a next cycle is requested for a child
	// that has never had one
	ErrNoPriorCycle = errors.New("child has no prior cycle")

	// ErrPartialWrite is returned when the two documents of a cycle are found
	// in inconsistent states; Reconcile repairs it
	ErrPartialWrite = errors.New("cycle documents are inconsistent")
)
