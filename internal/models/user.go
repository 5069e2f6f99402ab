package models

import (
	"time"
)

type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:255"`
	Name         string   `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Phone        string   `json:"phone" gorm:"not null;size:20" validate:"required,min=7,max=20"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;index" validate:"required,user_role"`

	// Student-only fields. PRN is the 12-digit registration number.
	Department *string `json:"department,omitempty" gorm:"size:100"`
	PRN        *string `json:"prn,omitempty" gorm:"uniqueIndex;size:12"`

	IsVerified  bool       `json:"is_verified" gorm:"default:false"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
