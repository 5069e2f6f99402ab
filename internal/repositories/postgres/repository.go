package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/quizcraze/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db    *gorm.DB
	quiz  repositories.QuizRepository
	class repositories.ClassRepository
	user  repositories.UserRepository
}

// NewRepository creates the PostgreSQL-backed repository bundle.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:    db,
		quiz:  NewQuizPostgreSQL(db),
		class: NewClassPostgreSQL(db),
		user:  NewUserPostgreSQL(db),
	}
}

func (r *repository) Quiz() repositories.QuizRepository   { return r.quiz }
func (r *repository) Class() repositories.ClassRepository { return r.class }
func (r *repository) User() repositories.UserRepository   { return r.user }

func (r *repository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// translateError maps driver errors onto the repository sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicateKey
	case strings.Contains(err.Error(), "duplicate key"):
		return repositories.ErrDuplicateKey
	default:
		return err
	}
}

// jsonContains builds a jsonb containment argument for a single value,
// e.g. quizzes whose class_ids array contains the given id.
func jsonContains(value interface{}) string {
	encoded, err := json.Marshal([]interface{}{value})
	if err != nil {
		return "[]"
	}
	return string(encoded)
}
