// Package auth provides token issuing and verification behind a small
// TokenVerifier interface, so the HTTP layer does not care whether
// identity comes from the built-in issuer or an external Casdoor
// deployment.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/quizcraze/quiz-service/internal/config"
	"github.com/quizcraze/quiz-service/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Actor is the authenticated principal attached to each request.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  models.UserRole
}

// TokenVerifier turns a bearer token into an Actor.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Actor, error)
}

// NewVerifier builds the verifier selected by AUTH_MODE.
func NewVerifier(cfg config.AuthConfig) (TokenVerifier, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalVerifier(cfg.JWTSecret), nil
	case "casdoor":
		return NewCasdoorVerifier(cfg), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
