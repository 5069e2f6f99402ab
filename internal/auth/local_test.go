package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizcraze/quiz-service/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Name:  "Ada",
		Email: "ada@example.edu",
		Role:  models.RoleStudent,
	}
}

func TestLocalTokens(t *testing.T) {
	ctx := context.Background()
	issuer := NewLocalIssuer("secret", 15*time.Minute, 24*time.Hour)
	verifier := NewLocalVerifier("secret")

	t.Run("access token round trip", func(t *testing.T) {
		token, err := issuer.IssueAccessToken(testUser())
		require.NoError(t, err)

		actor, err := verifier.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", actor.ID)
		assert.Equal(t, "Ada", actor.Name)
		assert.Equal(t, "ada@example.edu", actor.Email)
		assert.Equal(t, models.RoleStudent, actor.Role)
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		token, err := issuer.IssueRefreshToken(testUser())
		require.NoError(t, err)

		subject, err := verifier.VerifyRefresh(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", subject)
	})

	t.Run("refresh token rejected for authentication", func(t *testing.T) {
		token, err := issuer.IssueRefreshToken(testUser())
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token rejected as refresh", func(t *testing.T) {
		token, err := issuer.IssueAccessToken(testUser())
		require.NoError(t, err)

		_, err = verifier.VerifyRefresh(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewLocalIssuer("secret", -time.Minute, -time.Minute)
		token, err := expired.IssueAccessToken(testUser())
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := issuer.IssueAccessToken(testUser())
		require.NoError(t, err)

		_, err = NewLocalVerifier("other-secret").Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role in claims", func(t *testing.T) {
		user := testUser()
		user.Role = models.UserRole("admin")
		token, err := issuer.IssueAccessToken(user)
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
