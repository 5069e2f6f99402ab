package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories"
)

func storedQuiz(t *testing.T, repo *Repository) *models.Quiz {
	t.Helper()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	quiz := &models.Quiz{
		Title:       "Quiz",
		TeacherID:   "teacher-1",
		TimeLimit:   30,
		WindowStart: start,
		WindowEnd:   start.Add(2 * time.Hour),
		ClassIDs:    []uint{1},
	}
	require.NoError(t, repo.Quiz().Create(context.Background(), quiz))
	return quiz
}

func TestQuizSaveVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	quiz := storedQuiz(t, repo)
	require.Equal(t, 1, quiz.Version)

	t.Run("save bumps the version", func(t *testing.T) {
		loaded, err := repo.Quiz().GetByID(ctx, quiz.ID)
		require.NoError(t, err)

		loaded.Title = "Renamed"
		require.NoError(t, repo.Quiz().Save(ctx, loaded))

		reloaded, err := repo.Quiz().GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", reloaded.Title)
		assert.Equal(t, 2, reloaded.Version)
	})

	t.Run("stale version is refused", func(t *testing.T) {
		stale, err := repo.Quiz().GetByID(ctx, quiz.ID)
		require.NoError(t, err)

		fresh, err := repo.Quiz().GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		require.NoError(t, repo.Quiz().Save(ctx, fresh))

		err = repo.Quiz().Save(ctx, stale)
		assert.True(t, repositories.IsConflictError(err))
	})

	t.Run("save of a missing quiz", func(t *testing.T) {
		missing := &models.Quiz{Version: 1}
		missing.ID = 999
		err := repo.Quiz().Save(ctx, missing)
		assert.True(t, repositories.IsNotFoundError(err))
	})
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	quiz := storedQuiz(t, repo)

	loaded, err := repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	loaded.Title = "Mutated"

	reloaded, err := repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quiz", reloaded.Title)
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	prn := "202600000001"
	user := &models.User{
		ID:           "u1",
		Name:         "Ada",
		Email:        "ada@example.edu",
		PasswordHash: "hash",
		Role:         models.RoleStudent,
		PRN:          &prn,
	}
	require.NoError(t, repo.User().Create(ctx, user))

	dupEmail := &models.User{ID: "u2", Name: "Other", Email: "ada@example.edu", Role: models.RoleStudent}
	assert.True(t, repositories.IsDuplicateKeyError(repo.User().Create(ctx, dupEmail)))

	dupPRN := &models.User{ID: "u3", Name: "Other", Email: "other@example.edu", Role: models.RoleStudent, PRN: &prn}
	assert.True(t, repositories.IsDuplicateKeyError(repo.User().Create(ctx, dupPRN)))

	// The hash survives a read, unlike a JSON round-trip would allow.
	stored, err := repo.User().GetByEmail(ctx, "ada@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "hash", stored.PasswordHash)
}
