package validator

import (
	"fmt"
	"time"

	"github.com/quizcraze/quiz-service/internal/errors"
	"github.com/quizcraze/quiz-service/internal/models"
)

// QuizValidator enforces the quiz business rules that struct tags cannot
// express: the scheduling window and the shape of the question set.
type QuizValidator struct{}

// NewQuizValidator creates a new quiz validator
func NewQuizValidator() *QuizValidator {
	return &QuizValidator{}
}

// ValidateWindow checks the scheduling window at creation time: the start
// must be strictly in the future and the end strictly after the start.
func (v *QuizValidator) ValidateWindow(windowStart, windowEnd, now time.Time) error {
	if !windowStart.After(now) {
		return errors.NewValidationError("window_start", "must be in the future", windowStart)
	}
	if !windowEnd.After(windowStart) {
		return errors.NewValidationError("window_end", "must be after window_start", windowEnd)
	}
	return nil
}

// ValidateQuestions checks the question set invariants: 1-50 questions,
// each with at least two options and at least one flagged correct.
func (v *QuizValidator) ValidateQuestions(questions []models.Question) error {
	if len(questions) < models.MinQuestionsPerQuiz {
		return errors.NewValidationError("questions", "must contain at least one question", len(questions))
	}
	if len(questions) > models.MaxQuestionsPerQuiz {
		return errors.NewValidationError("questions",
			fmt.Sprintf("must contain at most %d questions", models.MaxQuestionsPerQuiz), len(questions))
	}

	for i, question := range questions {
		if question.Text == "" {
			return errors.NewValidationError(
				fmt.Sprintf("questions[%d].text", i), "is required", nil)
		}
		if len(question.Options) < models.MinOptionsPerQuestion {
			return errors.NewValidationError(
				fmt.Sprintf("questions[%d].options", i), "must contain at least two options", len(question.Options))
		}

		hasCorrect := false
		for j, option := range question.Options {
			if option.Text == "" {
				return errors.NewValidationError(
					fmt.Sprintf("questions[%d].options[%d].text", i, j), "is required", nil)
			}
			if option.IsCorrect {
				hasCorrect = true
			}
		}
		if !hasCorrect {
			return errors.NewValidationError(
				fmt.Sprintf("questions[%d].options", i), "must flag at least one correct option", nil)
		}
	}

	return nil
}
