package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidPIN   = errors.New("invalid device PIN")
)

const (
	RoleParent = "parent"
	RoleChild  = "child"
)

type Claims struct {
	jwt.RegisteredClaims
	FamilyID string `json:"familyId"`
	Role     string `json:"role"`
}

// Tokens issues and validates the bearer tokens both app surfaces use:
// parent sessions and child device sessions unlocked by PIN.
type Tokens struct {
	secret   []byte
	duration time.Duration
}

func NewTokens(secret string, duration time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: token secret is required")
	}
	if duration == 0 {
		duration = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), duration: duration}, nil
}

// IssueParent mints a token for a caregiver session.
func (t *Tokens) IssueParent(userID, familyID string) (string, error) {
	return t.issue(userID, familyID, RoleParent)
}

// IssueChild mints a token for a child device after PIN verification.
func (t *Tokens) IssueChild(childID, familyID string) (string, error) {
	return t.issue(childID, familyID, RoleChild)
}

func (t *Tokens) issue(subject, familyID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
		},
		FamilyID: familyID,
		Role:     role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	claims := &Claims{}

	parsed, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.FamilyID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleParent && claims.Role != RoleChild {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPIN hashes a child device PIN for storage.
func HashPIN(pin string) (string, error) {
	if len(pin) < 4 {
		return "", fmt.Errorf("auth: PIN must be at least 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash PIN: %w", err)
	}
	return string(hash), nil
}

// VerifyPIN checks a PIN attempt against the stored hash.
func VerifyPIN(hash, pin string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}
