package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizcraze/quiz-service/internal/errors"
	"github.com/quizcraze/quiz-service/internal/models"
)

type registrationFields struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,user_role"`
	PRN   string `json:"prn" validate:"omitempty,prn"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	t.Run("accepts both roles", func(t *testing.T) {
		for _, role := range []string{"teacher", "student"} {
			assert.NoError(t, v.Validate(&registrationFields{Email: "a@b.edu", Role: role}))
		}
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		err := v.Validate(&registrationFields{Email: "a@b.edu", Role: "admin"})
		var validationErrors errors.ValidationErrors
		require.ErrorAs(t, err, &validationErrors)
		require.Len(t, validationErrors, 1)
		assert.Equal(t, "role", validationErrors[0].Field)
		assert.Equal(t, "user_role", validationErrors[0].Rule)
	})

	t.Run("prn must be twelve digits", func(t *testing.T) {
		assert.NoError(t, v.Validate(&registrationFields{Email: "a@b.edu", Role: "student", PRN: "202600000001"}))

		for _, bad := range []string{"12345", "2026000000011", "20260000000a"} {
			err := v.Validate(&registrationFields{Email: "a@b.edu", Role: "student", PRN: bad})
			var validationErrors errors.ValidationErrors
			require.ErrorAs(t, err, &validationErrors, "prn %q", bad)
			assert.Equal(t, "prn", validationErrors[0].Field)
		}
	})

	t.Run("field names come from json tags", func(t *testing.T) {
		err := v.Validate(&registrationFields{Email: "not-an-email", Role: "student"})
		var validationErrors errors.ValidationErrors
		require.ErrorAs(t, err, &validationErrors)
		assert.Equal(t, "email", validationErrors[0].Field)
	})
}

func TestValidateWindow(t *testing.T) {
	v := NewQuizValidator()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	t.Run("valid window", func(t *testing.T) {
		assert.NoError(t, v.ValidateWindow(now.Add(time.Hour), now.Add(2*time.Hour), now))
	})

	t.Run("start must be strictly future", func(t *testing.T) {
		for _, start := range []time.Time{now, now.Add(-time.Minute)} {
			err := v.ValidateWindow(start, now.Add(time.Hour), now)
			var validationError *errors.ValidationError
			require.ErrorAs(t, err, &validationError)
			assert.Equal(t, "window_start", validationError.Field)
		}
	})

	t.Run("end must be strictly after start", func(t *testing.T) {
		start := now.Add(time.Hour)
		for _, end := range []time.Time{start, start.Add(-time.Second)} {
			err := v.ValidateWindow(start, end, now)
			var validationError *errors.ValidationError
			require.ErrorAs(t, err, &validationError)
			assert.Equal(t, "window_end", validationError.Field)
		}
	})
}

func TestValidateQuestions(t *testing.T) {
	v := NewQuizValidator()

	valid := func() models.Question {
		return models.Question{Text: "q", Options: []models.Option{
			{Text: "a", IsCorrect: true}, {Text: "b"},
		}}
	}

	t.Run("valid set", func(t *testing.T) {
		assert.NoError(t, v.ValidateQuestions([]models.Question{valid()}))
	})

	t.Run("empty set", func(t *testing.T) {
		err := v.ValidateQuestions(nil)
		var validationError *errors.ValidationError
		require.ErrorAs(t, err, &validationError)
		assert.Equal(t, "questions", validationError.Field)
	})

	t.Run("over the question cap", func(t *testing.T) {
		questions := make([]models.Question, models.MaxQuestionsPerQuiz+1)
		for i := range questions {
			questions[i] = valid()
		}
		assert.Error(t, v.ValidateQuestions(questions))

		assert.NoError(t, v.ValidateQuestions(questions[:models.MaxQuestionsPerQuiz]))
	})

	t.Run("question text required", func(t *testing.T) {
		q := valid()
		q.Text = ""
		err := v.ValidateQuestions([]models.Question{q})
		var validationError *errors.ValidationError
		require.ErrorAs(t, err, &validationError)
		assert.Equal(t, "questions[0].text", validationError.Field)
	})

	t.Run("at least two options", func(t *testing.T) {
		q := valid()
		q.Options = q.Options[:1]
		assert.Error(t, v.ValidateQuestions([]models.Question{q}))
	})

	t.Run("option text required", func(t *testing.T) {
		q := valid()
		q.Options[1].Text = ""
		err := v.ValidateQuestions([]models.Question{q})
		var validationError *errors.ValidationError
		require.ErrorAs(t, err, &validationError)
		assert.Equal(t, "questions[0].options[1].text", validationError.Field)
	})

	t.Run("at least one correct option", func(t *testing.T) {
		q := valid()
		q.Options[0].IsCorrect = false
		err := v.ValidateQuestions([]models.Question{valid(), q})
		var validationError *errors.ValidationError
		require.ErrorAs(t, err, &validationError)
		assert.Equal(t, "questions[1].options", validationError.Field)
	})
}
