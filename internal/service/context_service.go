package service

import (
	"fmt"

	"storyweek/internal/models"
)

// ProfileStore is the profile data the context builder reads
type ProfileStore interface {
	GetChild(childID string) (*models.Child, error)
	GetTriggers(childID string) ([]models.Trigger, error)
	GetStrategies(childID string) ([]models.Strategy, error)
	GetBoundaries(childID string) ([]models.Boundary, error)
}

// ContextService assembles the profile context that seeds weekly generation
type ContextService struct {
	profiles ProfileStore
	cycles   CycleStore
}

// NewContextService creates a new context service
func NewContextService(profiles ProfileStore, cycles CycleStore) *ContextService {
	return &ContextService{profiles: profiles, cycles: cycles}
}

// Build gathers everything known about the child: profile data, plus the
// most recent cycle's reflection when one exists. Missing profile data
// degrades specificity but never fails the build.
func (s *ContextService) Build(childID string) (*models.ProfileContext, error) {
	child, err := s.profiles.GetChild(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load child: %w", err)
	}
	if child == nil {
		return nil, ErrNotFound
	}

	profile := &models.ProfileContext{
		Child:      *child,
		WeekNumber: 1,
	}

	if profile.Triggers, err = s.profiles.GetTriggers(childID); err != nil {
		return nil, fmt.Errorf("failed to load triggers: %w", err)
	}

	strategies, err := s.profiles.GetStrategies(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategies: %w", err)
	}
	for _, strategy := range strategies {
		if strategy.Effective {
			profile.EffectiveStrategies = append(profile.EffectiveStrategies, strategy)
		} else {
			profile.IneffectiveStrategies = append(profile.IneffectiveStrategies, strategy)
		}
	}

	if profile.Boundaries, err = s.profiles.GetBoundaries(childID); err != nil {
		return nil, fmt.Errorf("failed to load boundaries: %w", err)
	}

	latest, err := s.cycles.GetLatestByChild(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest cycle: %w", err)
	}
	if latest != nil {
		profile.WeekNumber = latest.WeekNumber + 1
		profile.PriorReflection = latest.WeeklyReflection
	}

	return profile, nil
}
