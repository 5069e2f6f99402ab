package postgres

import (
	"context"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// QuizPostgreSQL persists quizzes as single jsonb-heavy rows. Each quiz row
// carries its questions and attempts, so a load returns the whole aggregate
// and Save replaces it atomically under an optimistic version check.
type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) *QuizPostgreSQL {
	return &QuizPostgreSQL{db: db}
}

func (r *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	if err := r.db.WithContext(ctx).Create(quiz).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &quiz, nil
}

// Save writes the aggregate back using compare-and-swap on the version
// column. Callers must reload and retry on ErrVersionConflict.
func (r *QuizPostgreSQL) Save(ctx context.Context, quiz *models.Quiz) error {
	current := quiz.Version
	quiz.Version = current + 1

	result := r.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ? AND version = ?", quiz.ID, current).
		Select("*").
		Omit("id", "created_at").
		Updates(quiz)
	if result.Error != nil {
		quiz.Version = current
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		quiz.Version = current
		return repositories.ErrVersionConflict
	}
	return nil
}

func (r *QuizPostgreSQL) GetByTeacher(ctx context.Context, teacherID string) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("window_start ASC").
		Find(&quizzes).Error
	if err != nil {
		return nil, translateError(err)
	}
	return quizzes, nil
}

// GetByClasses returns quizzes assigned to any of the given classes, using
// jsonb containment on the class_ids column.
func (r *QuizPostgreSQL) GetByClasses(ctx context.Context, classIDs []uint) ([]*models.Quiz, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Quiz{})
	condition := r.db.Where("class_ids @> ?", jsonContains(classIDs[0]))
	for _, id := range classIDs[1:] {
		condition = condition.Or("class_ids @> ?", jsonContains(id))
	}

	var quizzes []*models.Quiz
	if err := query.Where(condition).Order("window_start ASC").Find(&quizzes).Error; err != nil {
		return nil, translateError(err)
	}
	return quizzes, nil
}
