package repositories

import (
	"context"
	"errors"

	"github.com/quizcraze/quiz-service/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by QuizRepository.Save when the
	// stored aggregate version no longer matches the loaded one. Callers
	// reload and re-evaluate their preconditions before retrying.
	ErrVersionConflict = errors.New("aggregate version conflict")

	// ErrDuplicateKey is returned when a uniqueness constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Repository bundles the per-entity repositories. WithTx runs fn against
// a transactional view; the transaction commits iff fn returns nil.
type Repository interface {
	Quiz() QuizRepository
	Class() ClassRepository
	User() UserRepository

	WithTx(ctx context.Context, fn func(Repository) error) error
}

// QuizRepository stores the Quiz aggregate (questions and attempts
// embedded). Save is a compare-and-swap on the aggregate's version.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)

	// Save persists the whole aggregate iff the stored version equals
	// quiz.Version, bumping the version on success. Returns
	// ErrVersionConflict when a concurrent writer got there first.
	Save(ctx context.Context, quiz *models.Quiz) error

	GetByTeacher(ctx context.Context, teacherID string) ([]*models.Quiz, error)
	GetByClasses(ctx context.Context, classIDs []uint) ([]*models.Quiz, error)
}

type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id uint) (*models.Class, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Class, error)
	GetByEnrollmentKey(ctx context.Context, key string) (*models.Class, error)
	GetByTeacher(ctx context.Context, teacherID string) ([]*models.Class, error)
	GetByStudent(ctx context.Context, studentID string) ([]*models.Class, error)
	Update(ctx context.Context, class *models.Class) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPRN(ctx context.Context, prn string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// IsNotFoundError reports whether err means the record is absent.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsConflictError reports a lost compare-and-swap.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsDuplicateKeyError reports a violated uniqueness constraint.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey)
}
