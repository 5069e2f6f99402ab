package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of notification events
type EventType string

const (
	// Account events
	EventOTPRequested EventType = "account.otp_requested"

	// Quiz events
	EventQuizPublished EventType = "quiz.published"

	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventTimeExtended     EventType = "attempt.time_extended"
)

// NotificationEvent is the base event structure for all notification
// events. Delivery (email, SMS) is the notification service's concern;
// this service only publishes.
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// OTPRequestedEvent asks the notification service to deliver a one-time
// code by email and, when a phone number is present, by SMS.
type OTPRequestedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type QuizPublishedEvent struct {
	QuizID      uint      `json:"quiz_id"`
	QuizTitle   string    `json:"quiz_title"`
	TeacherID   string    `json:"teacher_id"`
	ClassIDs    []uint    `json:"class_ids"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	TimeLimit   int       `json:"time_limit"` // minutes
}

type AttemptStartedEvent struct {
	QuizID    uint      `json:"quiz_id"`
	QuizTitle string    `json:"quiz_title"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
	EndTime   time.Time `json:"end_time"`
}

type AttemptSubmittedEvent struct {
	QuizID         uint      `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	StudentID      string    `json:"student_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
}

type TimeExtendedEvent struct {
	QuizID       uint      `json:"quiz_id"`
	QuizTitle    string    `json:"quiz_title"`
	StudentID    string    `json:"student_id"`
	ExtraMinutes int       `json:"extra_minutes"`
	NewEndTime   time.Time `json:"new_end_time"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data:      data,
	}
}

func NewOTPRequestedEvent(userID, email, phone, code string, expiresAt time.Time) *NotificationEvent {
	return newEvent(EventOTPRequested, OTPRequestedEvent{
		UserID:    userID,
		Email:     email,
		Phone:     phone,
		Code:      code,
		ExpiresAt: expiresAt,
	})
}

func NewQuizPublishedEvent(quizID uint, title, teacherID string, classIDs []uint, windowStart, windowEnd time.Time, timeLimit int) *NotificationEvent {
	return newEvent(EventQuizPublished, QuizPublishedEvent{
		QuizID:      quizID,
		QuizTitle:   title,
		TeacherID:   teacherID,
		ClassIDs:    classIDs,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		TimeLimit:   timeLimit,
	})
}

func NewAttemptStartedEvent(quizID uint, title, studentID string, startedAt, endTime time.Time) *NotificationEvent {
	return newEvent(EventAttemptStarted, AttemptStartedEvent{
		QuizID:    quizID,
		QuizTitle: title,
		StudentID: studentID,
		StartedAt: startedAt,
		EndTime:   endTime,
	})
}

func NewAttemptSubmittedEvent(quizID uint, title, studentID string, submittedAt time.Time, score, totalQuestions int) *NotificationEvent {
	return newEvent(EventAttemptSubmitted, AttemptSubmittedEvent{
		QuizID:         quizID,
		QuizTitle:      title,
		StudentID:      studentID,
		SubmittedAt:    submittedAt,
		Score:          score,
		TotalQuestions: totalQuestions,
	})
}

func NewTimeExtendedEvent(quizID uint, title, studentID string, extraMinutes int, newEndTime time.Time) *NotificationEvent {
	return newEvent(EventTimeExtended, TimeExtendedEvent{
		QuizID:       quizID,
		QuizTitle:    title,
		StudentID:    studentID,
		ExtraMinutes: extraMinutes,
		NewEndTime:   newEndTime,
	})
}
