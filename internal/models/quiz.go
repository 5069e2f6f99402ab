package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type QuizStatus string

const (
	QuizScheduled QuizStatus = "scheduled"
	QuizActive    QuizStatus = "active"
	QuizCompleted QuizStatus = "completed"
)

const (
	MinQuestionsPerQuiz   = 1
	MaxQuestionsPerQuiz   = 50
	MinOptionsPerQuestion = 2
)

type Option struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	Text    string   `json:"text" validate:"required"`
	Options []Option `json:"options" validate:"required,min=2,dive"`
}

// AttemptAnswer records one graded answer. SelectedOptions holds option
// positions within the question's options slice, not option ids.
type AttemptAnswer struct {
	QuestionIndex   int   `json:"question_index"`
	SelectedOptions []int `json:"selected_options"`
	IsCorrect       bool  `json:"is_correct"`
}

// Attempt is one student's single permitted interaction with a quiz.
// A non-nil SubmittedAt makes the attempt terminal.
type Attempt struct {
	StudentID    string          `json:"student_id"`
	StartedAt    time.Time       `json:"started_at"`
	EndTime      time.Time       `json:"end_time"`
	Answers      []AttemptAnswer `json:"answers,omitempty"`
	Score        int             `json:"score"`
	SubmittedAt  *time.Time      `json:"submitted_at"`
	TimeExtended bool            `json:"time_extended"`
	ExtendedTime int             `json:"extended_time"` // cumulative minutes
}

func (a *Attempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}

// ExpiredAt reports whether the attempt's time budget has run out. Expiry
// is never persisted; it is recomputed against the clock at every decision.
func (a *Attempt) ExpiredAt(now time.Time) bool {
	return now.After(a.EndTime)
}

// Quiz is the aggregate root: questions and attempts are embedded jsonb
// documents loaded and saved atomically with the row. Version backs the
// optimistic compare-and-swap in the repository.
type Quiz struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	TeacherID   string     `json:"teacher_id" gorm:"not null;size:255;index"`
	TimeLimit   int        `json:"time_limit" gorm:"not null" validate:"required,min=1,max=300"` // minutes per attempt
	WindowStart time.Time  `json:"window_start" gorm:"not null;index"`
	WindowEnd   time.Time  `json:"window_end" gorm:"not null"`
	Status      QuizStatus `json:"status" gorm:"default:scheduled;index"` // cached, see StatusAt

	ClassIDs  datatypes.JSONSlice[uint]               `json:"class_ids" gorm:"type:jsonb"`
	Questions datatypes.JSONSlice[Question]           `json:"questions" gorm:"type:jsonb"`
	Attempts  datatypes.JSONType[map[string]*Attempt] `json:"attempts" gorm:"type:jsonb"`

	Version   int       `json:"version" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// StatusAt derives the quiz status purely from the clock. The persisted
// Status field is a cache refreshed on mutation; authorization decisions
// must always go through this function with a fresh timestamp.
func (q *Quiz) StatusAt(now time.Time) QuizStatus {
	switch {
	case now.Before(q.WindowStart):
		return QuizScheduled
	case now.After(q.WindowEnd):
		return QuizCompleted
	default:
		return QuizActive
	}
}

// RefreshStatus re-caches the derived status. Called on every mutation path.
func (q *Quiz) RefreshStatus(now time.Time) {
	q.Status = q.StatusAt(now)
}

func (q *Quiz) QuestionCount() int {
	return len(q.Questions)
}

// MaxScore is one point per question.
func (q *Quiz) MaxScore() int {
	return len(q.Questions)
}

// AttemptFor returns the student's attempt, or nil. At most one attempt
// exists per student; the map key is the uniqueness guarantee.
func (q *Quiz) AttemptFor(studentID string) *Attempt {
	return q.Attempts.Data()[studentID]
}

// PutAttempt stores the attempt under its student id, replacing any
// previous value for the same student.
func (q *Quiz) PutAttempt(a *Attempt) {
	attempts := q.Attempts.Data()
	if attempts == nil {
		attempts = make(map[string]*Attempt)
	}
	attempts[a.StudentID] = a
	q.Attempts = datatypes.NewJSONType(attempts)
}

// AllAttempts returns the embedded attempts ordered for reporting:
// submitted attempts first by submission time, then in-progress ones by
// start time.
func (q *Quiz) AllAttempts() []*Attempt {
	attempts := make([]*Attempt, 0, len(q.Attempts.Data()))
	for _, a := range q.Attempts.Data() {
		attempts = append(attempts, a)
	}
	sortAttempts(attempts)
	return attempts
}

func sortAttempts(attempts []*Attempt) {
	slices.SortFunc(attempts, func(a, b *Attempt) int {
		switch {
		case a.IsSubmitted() && !b.IsSubmitted():
			return -1
		case !a.IsSubmitted() && b.IsSubmitted():
			return 1
		case a.IsSubmitted() && b.IsSubmitted():
			return a.SubmittedAt.Compare(*b.SubmittedAt)
		default:
			return a.StartedAt.Compare(b.StartedAt)
		}
	})
}

// StudentQuestion is the attemptable view of a question: text only,
// correctness flags stripped.
type StudentQuestion struct {
	Text    string          `json:"text"`
	Options []StudentOption `json:"options"`
}

type StudentOption struct {
	Text string `json:"text"`
}

// StudentQuestions strips correctness flags for delivery to students.
func (q *Quiz) StudentQuestions() []StudentQuestion {
	questions := make([]StudentQuestion, len(q.Questions))
	for i, question := range q.Questions {
		options := make([]StudentOption, len(question.Options))
		for j, option := range question.Options {
			options[j] = StudentOption{Text: option.Text}
		}
		questions[i] = StudentQuestion{Text: question.Text, Options: options}
	}
	return questions
}

// IsCorrectSelection grades one question: the selection must be exactly
// the set of option indices flagged correct. Missing a correct option or
// selecting any extra one fails the question. Duplicate indices never help.
func (qn Question) IsCorrectSelection(selected []int) bool {
	correct := make(map[int]struct{})
	for i, option := range qn.Options {
		if option.IsCorrect {
			correct[i] = struct{}{}
		}
	}

	seen := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		if _, ok := correct[idx]; !ok {
			return false
		}
		seen[idx] = struct{}{}
	}
	return len(seen) == len(correct)
}

// Grade scores a full answer sheet against the quiz's questions. The
// caller guarantees len(selections) == len(q.Questions).
func (q *Quiz) Grade(selections [][]int) ([]AttemptAnswer, int) {
	answers := make([]AttemptAnswer, len(selections))
	score := 0
	for i, selected := range selections {
		ok := q.Questions[i].IsCorrectSelection(selected)
		if ok {
			score++
		}
		answers[i] = AttemptAnswer{
			QuestionIndex:   i,
			SelectedOptions: selected,
			IsCorrect:       ok,
		}
	}
	return answers, score
}
