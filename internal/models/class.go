package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Class is the enrollment unit: students join with the enrollment key and
// quizzes target one or more classes of the same teacher. The engine only
// ever reads it as an enrollment/authorization oracle.
type Class struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Name          string `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	TeacherID     string `json:"teacher_id" gorm:"not null;size:255;index"`
	EnrollmentKey string `json:"enrollment_key" gorm:"uniqueIndex;not null;size:64" validate:"required,min=4,max=64"`

	StudentIDs datatypes.JSONSlice[string] `json:"student_ids" gorm:"type:jsonb"`
	BlockedIDs datatypes.JSONSlice[string] `json:"blocked_ids" gorm:"type:jsonb"`
	QuizIDs    datatypes.JSONSlice[uint]   `json:"quiz_ids" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Class) TableName() string {
	return "classes"
}

func (c *Class) StudentCount() int {
	return len(c.StudentIDs)
}

func (c *Class) HasStudent(studentID string) bool {
	return slices.Contains(c.StudentIDs, studentID)
}

func (c *Class) IsBlocked(studentID string) bool {
	return slices.Contains(c.BlockedIDs, studentID)
}

// Enrolled reports active, non-blocked membership.
func (c *Class) Enrolled(studentID string) bool {
	return c.HasStudent(studentID) && !c.IsBlocked(studentID)
}

func (c *Class) AddStudent(studentID string) {
	if !c.HasStudent(studentID) {
		c.StudentIDs = append(c.StudentIDs, studentID)
	}
}

// Block removes the student from the roster and records the block.
func (c *Class) Block(studentID string) {
	c.StudentIDs = slices.DeleteFunc(c.StudentIDs, func(id string) bool {
		return id == studentID
	})
	if !c.IsBlocked(studentID) {
		c.BlockedIDs = append(c.BlockedIDs, studentID)
	}
}

// Unblock lifts the block and restores the student to the roster.
func (c *Class) Unblock(studentID string) {
	c.BlockedIDs = slices.DeleteFunc(c.BlockedIDs, func(id string) bool {
		return id == studentID
	})
	c.AddStudent(studentID)
}

func (c *Class) AddQuiz(quizID uint) {
	if !slices.Contains(c.QuizIDs, quizID) {
		c.QuizIDs = append(c.QuizIDs, quizID)
	}
}
