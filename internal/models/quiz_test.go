package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz() *Quiz {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &Quiz{
		ID:          1,
		Title:       "Data Structures Midterm",
		TeacherID:   "teacher-1",
		TimeLimit:   30,
		WindowStart: start,
		WindowEnd:   start.Add(2 * time.Hour),
		Questions: []Question{
			{
				Text: "Which structure is LIFO?",
				Options: []Option{
					{Text: "Queue"},
					{Text: "Heap"},
					{Text: "Stack", IsCorrect: true},
					{Text: "Graph"},
				},
			},
			{
				Text: "Which of these are self-balancing trees?",
				Options: []Option{
					{Text: "AVL tree", IsCorrect: true},
					{Text: "Linked list"},
					{Text: "Array"},
					{Text: "Red-black tree", IsCorrect: true},
				},
			},
			{
				Text: "Which traversal visits the root between subtrees?",
				Options: []Option{
					{Text: "Pre-order"},
					{Text: "In-order", IsCorrect: true},
					{Text: "Post-order"},
					{Text: "Level-order"},
				},
			},
		},
	}
}

func TestStatusAt(t *testing.T) {
	quiz := sampleQuiz()

	tests := []struct {
		name string
		now  time.Time
		want QuizStatus
	}{
		{"before window", quiz.WindowStart.Add(-time.Minute), QuizScheduled},
		{"exactly at start", quiz.WindowStart, QuizActive},
		{"inside window", quiz.WindowStart.Add(time.Hour), QuizActive},
		{"exactly at end", quiz.WindowEnd, QuizActive},
		{"after window", quiz.WindowEnd.Add(time.Second), QuizCompleted},
		{"far future", quiz.WindowEnd.Add(365 * 24 * time.Hour), QuizCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quiz.StatusAt(tt.now))
		})
	}
}

func TestStatusAtIgnoresCachedStatus(t *testing.T) {
	quiz := sampleQuiz()
	quiz.Status = QuizCompleted

	// A stale cached value must not leak into the derivation.
	assert.Equal(t, QuizActive, quiz.StatusAt(quiz.WindowStart.Add(time.Minute)))
}

func TestGradeScoringExamples(t *testing.T) {
	quiz := sampleQuiz()

	tests := []struct {
		name       string
		selections [][]int
		wantScore  int
	}{
		{"all correct", [][]int{{2}, {0, 3}, {1}}, 3},
		{"missing one required option", [][]int{{2}, {0}, {1}}, 2},
		{"extra wrong selection", [][]int{{2}, {0, 3, 1}, {1}}, 2},
		{"all empty", [][]int{{}, {}, {}}, 0},
		{"order does not matter", [][]int{{2}, {3, 0}, {1}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers, score := quiz.Grade(tt.selections)
			assert.Equal(t, tt.wantScore, score)
			require.Len(t, answers, 3)
			for i, answer := range answers {
				assert.Equal(t, i, answer.QuestionIndex)
				assert.Equal(t, tt.selections[i], answer.SelectedOptions)
			}
		})
	}
}

func TestIsCorrectSelection(t *testing.T) {
	question := Question{
		Text: "multi-select",
		Options: []Option{
			{Text: "a", IsCorrect: true},
			{Text: "b"},
			{Text: "c", IsCorrect: true},
		},
	}

	assert.True(t, question.IsCorrectSelection([]int{0, 2}))
	assert.True(t, question.IsCorrectSelection([]int{2, 0}))
	assert.False(t, question.IsCorrectSelection([]int{0}))
	assert.False(t, question.IsCorrectSelection([]int{0, 1, 2}))
	assert.False(t, question.IsCorrectSelection(nil))

	// Duplicates of a correct index must not substitute for the missing one.
	assert.False(t, question.IsCorrectSelection([]int{0, 0}))

	// Out-of-range indices are simply wrong selections.
	assert.False(t, question.IsCorrectSelection([]int{0, 2, 7}))
}

func TestStudentQuestionsStripCorrectness(t *testing.T) {
	quiz := sampleQuiz()
	stripped := quiz.StudentQuestions()

	require.Len(t, stripped, len(quiz.Questions))
	for i, question := range stripped {
		assert.Equal(t, quiz.Questions[i].Text, question.Text)
		require.Len(t, question.Options, len(quiz.Questions[i].Options))
		for j, option := range question.Options {
			assert.Equal(t, quiz.Questions[i].Options[j].Text, option.Text)
		}
	}
}

func TestPutAttemptAndAttemptFor(t *testing.T) {
	quiz := sampleQuiz()
	assert.Nil(t, quiz.AttemptFor("s1"))

	started := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	quiz.PutAttempt(&Attempt{StudentID: "s1", StartedAt: started, EndTime: started.Add(30 * time.Minute)})

	attempt := quiz.AttemptFor("s1")
	require.NotNil(t, attempt)
	assert.Equal(t, started, attempt.StartedAt)
	assert.False(t, attempt.IsSubmitted())

	// Replacing keeps the map keyed by student.
	quiz.PutAttempt(&Attempt{StudentID: "s1", StartedAt: started, EndTime: started.Add(40 * time.Minute)})
	assert.Len(t, quiz.AllAttempts(), 1)
	assert.Equal(t, started.Add(40*time.Minute), quiz.AttemptFor("s1").EndTime)
}

func TestAllAttemptsOrdering(t *testing.T) {
	quiz := sampleQuiz()
	base := quiz.WindowStart

	sub1 := base.Add(40 * time.Minute)
	sub2 := base.Add(20 * time.Minute)
	quiz.PutAttempt(&Attempt{StudentID: "late-submit", StartedAt: base.Add(10 * time.Minute), SubmittedAt: &sub1})
	quiz.PutAttempt(&Attempt{StudentID: "early-submit", StartedAt: base.Add(15 * time.Minute), SubmittedAt: &sub2})
	quiz.PutAttempt(&Attempt{StudentID: "in-progress-b", StartedAt: base.Add(30 * time.Minute)})
	quiz.PutAttempt(&Attempt{StudentID: "in-progress-a", StartedAt: base.Add(5 * time.Minute)})

	attempts := quiz.AllAttempts()
	require.Len(t, attempts, 4)
	assert.Equal(t, "early-submit", attempts[0].StudentID)
	assert.Equal(t, "late-submit", attempts[1].StudentID)
	assert.Equal(t, "in-progress-a", attempts[2].StudentID)
	assert.Equal(t, "in-progress-b", attempts[3].StudentID)
}

func TestAttemptExpiredAt(t *testing.T) {
	end := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	attempt := &Attempt{EndTime: end}

	assert.False(t, attempt.ExpiredAt(end.Add(-time.Second)))
	assert.False(t, attempt.ExpiredAt(end))
	assert.True(t, attempt.ExpiredAt(end.Add(time.Second)))
}
