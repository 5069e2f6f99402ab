package postgres

import (
	"context"

	"github.com/quizcraze/quiz-service/internal/models"
	"gorm.io/gorm"
)

type ClassPostgreSQL struct {
	db *gorm.DB
}

func NewClassPostgreSQL(db *gorm.DB) *ClassPostgreSQL {
	return &ClassPostgreSQL{db: db}
}

func (r *ClassPostgreSQL) Create(ctx context.Context, class *models.Class) error {
	if err := r.db.WithContext(ctx).Create(class).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *ClassPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &class, nil
}

func (r *ClassPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Class, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var classes []*models.Class
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&classes).Error; err != nil {
		return nil, translateError(err)
	}
	return classes, nil
}

func (r *ClassPostgreSQL) GetByEnrollmentKey(ctx context.Context, key string) (*models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Where("enrollment_key = ?", key).First(&class).Error; err != nil {
		return nil, translateError(err)
	}
	return &class, nil
}

func (r *ClassPostgreSQL) GetByTeacher(ctx context.Context, teacherID string) ([]*models.Class, error) {
	var classes []*models.Class
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classes).Error
	if err != nil {
		return nil, translateError(err)
	}
	return classes, nil
}

// GetByStudent returns classes where the student is on the roster and not
// blocked, via jsonb containment on the id arrays.
func (r *ClassPostgreSQL) GetByStudent(ctx context.Context, studentID string) ([]*models.Class, error) {
	member := jsonContains(studentID)
	var classes []*models.Class
	err := r.db.WithContext(ctx).
		Where("student_ids @> ?", member).
		Where("NOT blocked_ids @> ?", member).
		Find(&classes).Error
	if err != nil {
		return nil, translateError(err)
	}
	return classes, nil
}

func (r *ClassPostgreSQL) Update(ctx context.Context, class *models.Class) error {
	if err := r.db.WithContext(ctx).Save(class).Error; err != nil {
		return translateError(err)
	}
	return nil
}
