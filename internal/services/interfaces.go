package services

import (
	"context"
	"time"

	"github.com/quizcraze/quiz-service/internal/models"
)

// ===== QUIZ =====

type CreateQuizRequest struct {
	Title       string            `json:"title" validate:"required,min=3,max=255"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	ClassIDs    []uint            `json:"class_ids" validate:"required,min=1,dive,gt=0"`
	Questions   []models.Question `json:"questions" validate:"required"`
	TimeLimit   int               `json:"time_limit" validate:"required,gt=0"`
	WindowStart time.Time         `json:"window_start" validate:"required"`
	WindowEnd   time.Time         `json:"window_end" validate:"required"`
}

// QuizSummary is the listing row shared by both roles.
type QuizSummary struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Description   *string           `json:"description,omitempty"`
	Status        models.QuizStatus `json:"status"`
	TimeLimit     int               `json:"time_limit"`
	WindowStart   time.Time         `json:"window_start"`
	WindowEnd     time.Time         `json:"window_end"`
	QuestionCount int               `json:"question_count"`
	ClassIDs      []uint            `json:"class_ids"`
}

// QuizTeacherView includes the full question set with correctness flags
// and every attempt, submission-ordered. Teacher eyes only.
type QuizTeacherView struct {
	QuizSummary
	Questions      []models.Question `json:"questions"`
	Attempts       []*models.Attempt `json:"attempts"`
	AttemptCount   int               `json:"attempt_count"`
	SubmittedCount int               `json:"submitted_count"`
}

// AttemptView is the student's own attempt detail. Answers and score
// appear only once the attempt is submitted.
type AttemptView struct {
	StartedAt    time.Time              `json:"started_at"`
	EndTime      time.Time              `json:"end_time"`
	Answers      []models.AttemptAnswer `json:"answers,omitempty"`
	Score        *int                   `json:"score,omitempty"`
	SubmittedAt  *time.Time             `json:"submitted_at,omitempty"`
	TimeExtended bool                   `json:"time_extended"`
	ExtendedTime int                    `json:"extended_time"`
}

// QuizStudentView never carries correctness flags. While the quiz is
// active and unattempted it includes the stripped question view; once an
// attempt exists it carries that attempt instead.
type QuizStudentView struct {
	QuizSummary
	Questions   []models.StudentQuestion `json:"questions,omitempty"`
	Attempted   bool                     `json:"attempted"`
	Submitted   bool                     `json:"submitted"`
	Score       *int                     `json:"score,omitempty"`
	SubmittedAt *time.Time               `json:"submitted_at,omitempty"`
	Attempt     *AttemptView             `json:"attempt,omitempty"`
}

type QuizListing struct {
	Upcoming []QuizSummary `json:"upcoming"`
	Past     []QuizSummary `json:"past"`
}

// StudentQuizSummary is a listing row annotated with the student's own
// attempt state.
type StudentQuizSummary struct {
	QuizSummary
	Attempted   bool       `json:"attempted"`
	Submitted   bool       `json:"submitted"`
	Score       *int       `json:"score,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// StudentQuizListing splits quizzes into upcoming (still attemptable by
// this student) and past (window closed or already attempted).
type StudentQuizListing struct {
	Upcoming []StudentQuizSummary `json:"upcoming"`
	Past     []StudentQuizSummary `json:"past"`
}

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, teacherID string) (*QuizTeacherView, error)
	GetForTeacher(ctx context.Context, quizID uint, teacherID string) (*QuizTeacherView, error)
	GetForStudent(ctx context.Context, quizID uint, studentID string) (*QuizStudentView, error)
	ListForTeacher(ctx context.Context, teacherID string) (*QuizListing, error)
	ListForStudent(ctx context.Context, studentID string) (*StudentQuizListing, error)
}

// ===== ATTEMPT =====

type StartAttemptResponse struct {
	QuizID    uint                     `json:"quiz_id"`
	Title     string                   `json:"title"`
	TimeLimit int                      `json:"time_limit"`
	StartedAt time.Time                `json:"started_at"`
	EndTime   time.Time                `json:"end_time"`
	Questions []models.StudentQuestion `json:"questions"`
}

// SubmitAttemptRequest carries one selection set per question, in
// question order. A question may be left unanswered with an empty set.
// The length check against the question count happens in the service.
type SubmitAttemptRequest struct {
	Answers [][]int `json:"answers"`
}

type SubmitAttemptResponse struct {
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ExtendTimeRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	ExtraMinutes int    `json:"extra_minutes" validate:"required,gt=0"`
}

type ExtendTimeResponse struct {
	StudentID    string    `json:"student_id"`
	EndTime      time.Time `json:"end_time"`
	TimeExtended bool      `json:"time_extended"`
	ExtendedTime int       `json:"extended_time"`
}

type AttemptService interface {
	Start(ctx context.Context, quizID uint, studentID string) (*StartAttemptResponse, error)
	Submit(ctx context.Context, quizID uint, studentID string, req *SubmitAttemptRequest) (*SubmitAttemptResponse, error)
	ExtendTime(ctx context.Context, quizID uint, teacherID string, req *ExtendTimeRequest) (*ExtendTimeResponse, error)
}

// ===== CLASS =====

type CreateClassRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

type JoinClassRequest struct {
	EnrollmentKey string `json:"enrollment_key" validate:"required"`
}

type BlockStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// ClassView hides the enrollment key from students.
type ClassView struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	TeacherID     string `json:"teacher_id"`
	EnrollmentKey string `json:"enrollment_key,omitempty"`
	StudentCount  int    `json:"student_count"`
	QuizIDs       []uint `json:"quiz_ids"`
}

type ClassMember struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	PRN        *string `json:"prn,omitempty"`
	Department *string `json:"department,omitempty"`
	Blocked    bool    `json:"blocked"`
}

type LeaderboardRow struct {
	StudentID    string  `json:"student_id"`
	Name         string  `json:"name"`
	PRN          *string `json:"prn,omitempty"`
	TotalScore   int     `json:"total_score"`
	QuizzesTaken int     `json:"quizzes_taken"`
}

// ClassCollaborator is the enrollment and ownership oracle the quiz and
// attempt services consult. Implemented by the class service.
type ClassCollaborator interface {
	IsEnrolledAndUnblocked(ctx context.Context, studentID string, classIDs []uint) (bool, error)
	OwnsAll(ctx context.Context, teacherID string, classIDs []uint) (bool, error)
}

type ClassService interface {
	ClassCollaborator

	Create(ctx context.Context, req *CreateClassRequest, teacherID string) (*ClassView, error)
	Get(ctx context.Context, classID uint, actorID string, isTeacher bool) (*ClassView, error)
	Join(ctx context.Context, req *JoinClassRequest, studentID string) (*ClassView, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]ClassView, error)
	ListForStudent(ctx context.Context, studentID string) ([]ClassView, error)
	Members(ctx context.Context, classID uint, teacherID string) ([]ClassMember, error)
	BlockStudent(ctx context.Context, classID uint, teacherID, studentID string) error
	UnblockStudent(ctx context.Context, classID uint, teacherID, studentID string) error
	Leaderboard(ctx context.Context, classID uint, actorID string, isTeacher bool) ([]LeaderboardRow, error)
}

// ===== AUTH =====

type RegisterRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=255"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone" validate:"omitempty,e164"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	Role       string  `json:"role" validate:"required,user_role"`
	Department *string `json:"department,omitempty"`
	PRN        *string `json:"prn,omitempty" validate:"omitempty,prn"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	Department *string         `json:"department,omitempty"`
	PRN        *string         `json:"prn,omitempty"`
	IsVerified bool            `json:"is_verified"`
}

type AuthResponse struct {
	User   UserView  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*UserView, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, req *LogoutRequest) error
	RequestOTP(ctx context.Context, req *RequestOTPRequest) error
	VerifyOTP(ctx context.Context, req *VerifyOTPRequest) error
}

// ===== REPORT =====

// QuizReport is a rendered XLSX workbook ready to stream to the caller.
type QuizReport struct {
	FileName string
	Content  []byte
}

type ReportService interface {
	Generate(ctx context.Context, quizID uint, teacherID string) (*QuizReport, error)
}
