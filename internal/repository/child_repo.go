package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storyweek/internal/database"
	"storyweek/internal/models"
)

// ChildRepository handles database operations for child profiles and the
// profile data that seeds weekly generation
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild creates a new child profile
func (r *ChildRepository) CreateChild(familyID, name string, age int) (*models.Child, error) {
	child := &models.Child{
		ID:        uuid.NewString(),
		FamilyID:  familyID,
		Name:      name,
		Age:       age,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO children (id, family_id, name, age, device_pin_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)
	`
	_, err := r.db.Exec(query, child.ID, child.FamilyID, child.Name, child.Age, child.CreatedAt, child.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}
	return child, nil
}

// GetChild retrieves a child profile by ID
func (r *ChildRepository) GetChild(childID string) (*models.Child, error) {
	query := `
		SELECT id, family_id, name, age, device_pin_hash, created_at, updated_at
		FROM children WHERE id = ?
	`
	child := &models.Child{}
	err := r.db.QueryRow(query, childID).Scan(
		&child.ID,
		&child.FamilyID,
		&child.Name,
		&child.Age,
		&child.DevicePINHash,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// ListChildren retrieves all child profiles in a family
func (r *ChildRepository) ListChildren(familyID string) ([]models.Child, error) {
	query := `
		SELECT id, family_id, name, age, device_pin_hash, created_at, updated_at
		FROM children WHERE family_id = ? ORDER BY created_at
	`
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var child models.Child
		if err := rows.Scan(
			&child.ID,
			&child.FamilyID,
			&child.Name,
			&child.Age,
			&child.DevicePINHash,
			&child.CreatedAt,
			&child.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

// SetDevicePIN stores the bcrypt hash of a child's device PIN
func (r *ChildRepository) SetDevicePIN(childID, pinHash string) error {
	query := "UPDATE children SET device_pin_hash = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.Exec(query, pinHash, time.Now().UTC(), childID)
	if err != nil {
		return fmt.Errorf("failed to set device PIN: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("child not found: %s", childID)
	}
	return nil
}

// GetTriggers retrieves a child's recorded behavioral triggers
func (r *ChildRepository) GetTriggers(childID string) ([]models.Trigger, error) {
	query := `
		SELECT id, child_id, description, severity, created_at
		FROM triggers WHERE child_id = ? ORDER BY created_at
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query triggers: %w", err)
	}
	defer rows.Close()

	var triggers []models.Trigger
	for rows.Next() {
		var t models.Trigger
		if err := rows.Scan(&t.ID, &t.ChildID, &t.Description, &t.Severity, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

// GetStrategies retrieves a child's recorded strategies, effective and not
func (r *ChildRepository) GetStrategies(childID string) ([]models.Strategy, error) {
	query := `
		SELECT id, child_id, description, effective, created_at
		FROM strategies WHERE child_id = ? ORDER BY created_at
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	var strategies []models.Strategy
	for rows.Next() {
		var s models.Strategy
		if err := rows.Scan(&s.ID, &s.ChildID, &s.Description, &s.Effective, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		strategies = append(strategies, s)
	}
	return strategies, rows.Err()
}

// GetBoundaries retrieves a child's recorded family boundaries
func (r *ChildRepository) GetBoundaries(childID string) ([]models.Boundary, error) {
	query := `
		SELECT id, child_id, description, created_at
		FROM boundaries WHERE child_id = ? ORDER BY created_at
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boundaries: %w", err)
	}
	defer rows.Close()

	var boundaries []models.Boundary
	for rows.Next() {
		var b models.Boundary
		if err := rows.Scan(&b.ID, &b.ChildID, &b.Description, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan boundary: %w", err)
		}
		boundaries = append(boundaries, b)
	}
	return boundaries, rows.Err()
}

// AddTrigger records a behavioral trigger for a child
func (r *ChildRepository) AddTrigger(childID, description, severity string) (*models.Trigger, error) {
	t := &models.Trigger{
		ID:          uuid.NewString(),
		ChildID:     childID,
		Description: description,
		Severity:    severity,
		CreatedAt:   time.Now().UTC(),
	}
	query := "INSERT INTO triggers (id, child_id, description, severity, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query, t.ID, t.ChildID, t.Description, t.Severity, t.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to add trigger: %w", err)
	}
	return t, nil
}

// AddStrategy records a caregiver strategy for a child
func (r *ChildRepository) AddStrategy(childID, description string, effective bool) (*models.Strategy, error) {
	s := &models.Strategy{
		ID:          uuid.NewString(),
		ChildID:     childID,
		Description: description,
		Effective:   effective,
		CreatedAt:   time.Now().UTC(),
	}
	query := "INSERT INTO strategies (id, child_id, description, effective, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query, s.ID, s.ChildID, s.Description, s.Effective, s.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to add strategy: %w", err)
	}
	return s, nil
}

// AddBoundary records a family boundary for a child
func (r *ChildRepository) AddBoundary(childID, description string) (*models.Boundary, error) {
	b := &models.Boundary{
		ID:          uuid.NewString(),
		ChildID:     childID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	query := "INSERT INTO boundaries (id, child_id, description, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, b.ID, b.ChildID, b.Description, b.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to add boundary: %w", err)
	}
	return b, nil
}
