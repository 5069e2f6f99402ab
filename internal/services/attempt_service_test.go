package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizcraze/quiz-service/internal/events"
	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories/memory"
	"github.com/quizcraze/quiz-service/internal/validator"
)

var windowStart = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type attemptEnv struct {
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	classes   ClassService
	attempts  *attemptService
}

func newAttemptEnv(t *testing.T, now time.Time) *attemptEnv {
	t.Helper()

	repo := memory.NewRepository()
	logger := slog.New(slog.DiscardHandler)
	publisher := events.NewMockEventPublisher(logger)
	v := validator.New()

	classes := NewClassService(repo, logger, v)
	attempts := NewAttemptService(repo, classes, logger, v, publisher).(*attemptService)
	attempts.now = func() time.Time { return now }

	return &attemptEnv{
		repo:      repo,
		publisher: publisher,
		classes:   classes,
		attempts:  attempts,
	}
}

func (e *attemptEnv) setNow(now time.Time) {
	e.attempts.now = func() time.Time { return now }
}

// seedQuiz stores a three-question quiz assigned to one class with the
// given students enrolled.
func (e *attemptEnv) seedQuiz(t *testing.T, students ...string) *models.Quiz {
	t.Helper()
	ctx := context.Background()

	class := &models.Class{Name: "CS-A", TeacherID: "teacher-1", EnrollmentKey: "KEY1"}
	for _, s := range students {
		class.AddStudent(s)
	}
	require.NoError(t, e.repo.Class().Create(ctx, class))

	quiz := &models.Quiz{
		Title:       "Midterm",
		TeacherID:   "teacher-1",
		TimeLimit:   30,
		WindowStart: windowStart,
		WindowEnd:   windowStart.Add(2 * time.Hour),
		Status:      models.QuizScheduled,
		ClassIDs:    []uint{class.ID},
		Questions: []models.Question{
			{Text: "q1", Options: []models.Option{
				{Text: "a"}, {Text: "b"}, {Text: "c", IsCorrect: true}, {Text: "d"},
			}},
			{Text: "q2", Options: []models.Option{
				{Text: "a", IsCorrect: true}, {Text: "b"}, {Text: "c"}, {Text: "d", IsCorrect: true},
			}},
			{Text: "q3", Options: []models.Option{
				{Text: "a"}, {Text: "b", IsCorrect: true}, {Text: "c"}, {Text: "d"},
			}},
		},
	}
	require.NoError(t, e.repo.Quiz().Create(ctx, quiz))

	class.AddQuiz(quiz.ID)
	require.NoError(t, e.repo.Class().Update(ctx, class))
	return quiz
}

func TestStartAttempt(t *testing.T) {
	ctx := context.Background()
	now := windowStart.Add(10 * time.Minute)

	t.Run("success returns stripped questions", func(t *testing.T) {
		env := newAttemptEnv(t, now)
		quiz := env.seedQuiz(t, "s1")

		resp, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)

		assert.Equal(t, quiz.ID, resp.QuizID)
		assert.Equal(t, now, resp.StartedAt)
		assert.Equal(t, now.Add(30*time.Minute), resp.EndTime)
		require.Len(t, resp.Questions, 3)
		for _, q := range resp.Questions {
			assert.NotEmpty(t, q.Text)
			assert.Len(t, q.Options, 4)
		}

		stored, err := env.repo.Quiz().GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.AttemptFor("s1"))

		published := env.publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventAttemptStarted, published[0].Type)
	})

	t.Run("not enrolled", func(t *testing.T) {
		env := newAttemptEnv(t, now)
		quiz := env.seedQuiz(t, "s1")

		_, err := env.attempts.Start(ctx, quiz.ID, "stranger")
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("blocked student", func(t *testing.T) {
		env := newAttemptEnv(t, now)
		quiz := env.seedQuiz(t, "s1")

		class, err := env.repo.Class().GetByID(ctx, quiz.ClassIDs[0])
		require.NoError(t, err)
		class.Block("s1")
		require.NoError(t, env.repo.Class().Update(ctx, class))

		_, err = env.attempts.Start(ctx, quiz.ID, "s1")
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("before window", func(t *testing.T) {
		env := newAttemptEnv(t, windowStart.Add(-time.Minute))
		quiz := env.seedQuiz(t, "s1")

		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		assert.ErrorIs(t, err, ErrQuizNotActive)
	})

	t.Run("after window", func(t *testing.T) {
		env := newAttemptEnv(t, windowStart.Add(3*time.Hour))
		quiz := env.seedQuiz(t, "s1")

		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		assert.ErrorIs(t, err, ErrQuizNotActive)
	})

	t.Run("insufficient window time", func(t *testing.T) {
		// 5 minutes left, time limit 30: refuse rather than shorten.
		env := newAttemptEnv(t, windowStart.Add(2*time.Hour).Add(-5*time.Minute))
		quiz := env.seedQuiz(t, "s1")

		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		assert.ErrorIs(t, err, ErrInsufficientWindowTime)
	})

	t.Run("exactly enough window time", func(t *testing.T) {
		env := newAttemptEnv(t, windowStart.Add(2*time.Hour).Add(-30*time.Minute))
		quiz := env.seedQuiz(t, "s1")

		resp, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, quiz.WindowEnd, resp.EndTime)
	})

	t.Run("second start conflicts", func(t *testing.T) {
		env := newAttemptEnv(t, now)
		quiz := env.seedQuiz(t, "s1")

		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)

		_, err = env.attempts.Start(ctx, quiz.ID, "s1")
		assert.ErrorIs(t, err, ErrAlreadyAttempted)
	})

	t.Run("quiz not found", func(t *testing.T) {
		env := newAttemptEnv(t, now)
		env.seedQuiz(t, "s1")

		_, err := env.attempts.Start(ctx, 999, "s1")
		assert.ErrorIs(t, err, ErrQuizNotFound)
	})
}

func TestStartAttemptConcurrentOneWins(t *testing.T) {
	ctx := context.Background()
	env := newAttemptEnv(t, windowStart.Add(10*time.Minute))
	quiz := env.seedQuiz(t, "s1")

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.attempts.Start(ctx, quiz.ID, "s1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyAttempted)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestSubmitAttempt(t *testing.T) {
	ctx := context.Background()
	started := windowStart.Add(10 * time.Minute)

	start := func(t *testing.T, env *attemptEnv, quizID uint) {
		t.Helper()
		_, err := env.attempts.Start(ctx, quizID, "s1")
		require.NoError(t, err)
	}

	t.Run("grades and finalizes", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		start(t, env, quiz.ID)

		submitTime := started.Add(20 * time.Minute)
		env.setNow(submitTime)

		resp, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0, 3}, {1}},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Score)
		assert.Equal(t, 3, resp.TotalQuestions)
		assert.Equal(t, submitTime, resp.SubmittedAt)

		stored, err := env.repo.Quiz().GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		attempt := stored.AttemptFor("s1")
		require.NotNil(t, attempt)
		assert.True(t, attempt.IsSubmitted())
		assert.Equal(t, 3, attempt.Score)
	})

	t.Run("partial credit per question", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		start(t, env, quiz.ID)

		resp, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0}, {1}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Score)
	})

	t.Run("extra selection fails question", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		start(t, env, quiz.ID)

		resp, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0, 3, 1}, {1}},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Score)
	})

	t.Run("double submit rejected regardless of payload", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		start(t, env, quiz.ID)

		_, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0, 3}, {1}},
		})
		require.NoError(t, err)

		_, err = env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{0}, {1}, {2}},
		})
		assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
	})

	t.Run("lazy expiry", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		start(t, env, quiz.ID)

		env.setNow(started.Add(31 * time.Minute))
		_, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0, 3}, {1}},
		})
		assert.ErrorIs(t, err, ErrAttemptTimeExpired)

		// Rejection must leave no partial mutation behind.
		stored, err := env.repo.Quiz().GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		attempt := stored.AttemptFor("s1")
		require.NotNil(t, attempt)
		assert.False(t, attempt.IsSubmitted())
		assert.Empty(t, attempt.Answers)
	})

	t.Run("answer count mismatch", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		start(t, env, quiz.ID)

		_, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0, 3}},
		})
		assert.ErrorIs(t, err, ErrAnswerCountMismatch)
	})

	t.Run("empty answers report count mismatch", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		start(t, env, quiz.ID)

		_, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{})
		assert.ErrorIs(t, err, ErrAnswerCountMismatch)
	})

	t.Run("no attempt", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")

		_, err := env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0, 3}, {1}},
		})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})
}

func TestExtendAttemptTime(t *testing.T) {
	ctx := context.Background()
	started := windowStart.Add(10 * time.Minute)

	t.Run("cumulative extensions", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)
		originalEnd := started.Add(30 * time.Minute)

		first, err := env.attempts.ExtendTime(ctx, quiz.ID, "teacher-1", &ExtendTimeRequest{
			StudentID: "s1", ExtraMinutes: 10,
		})
		require.NoError(t, err)
		assert.True(t, first.TimeExtended)
		assert.Equal(t, 10, first.ExtendedTime)
		assert.Equal(t, originalEnd.Add(10*time.Minute), first.EndTime)

		second, err := env.attempts.ExtendTime(ctx, quiz.ID, "teacher-1", &ExtendTimeRequest{
			StudentID: "s1", ExtraMinutes: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 20, second.ExtendedTime)
		assert.Equal(t, originalEnd.Add(20*time.Minute), second.EndTime)
	})

	t.Run("extension past window rejected", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)

		// endTime is windowStart+40min; window closes at +2h.
		_, err = env.attempts.ExtendTime(ctx, quiz.ID, "teacher-1", &ExtendTimeRequest{
			StudentID: "s1", ExtraMinutes: 90,
		})
		assert.ErrorIs(t, err, ErrExtensionPastWindow)
	})

	t.Run("submitted attempt cannot be extended", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)
		_, err = env.attempts.Submit(ctx, quiz.ID, "s1", &SubmitAttemptRequest{
			Answers: [][]int{{2}, {0, 3}, {1}},
		})
		require.NoError(t, err)

		_, err = env.attempts.ExtendTime(ctx, quiz.ID, "teacher-1", &ExtendTimeRequest{
			StudentID: "s1", ExtraMinutes: 10,
		})
		assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
	})

	t.Run("foreign teacher denied", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)

		_, err = env.attempts.ExtendTime(ctx, quiz.ID, "teacher-2", &ExtendTimeRequest{
			StudentID: "s1", ExtraMinutes: 10,
		})
		var permission *PermissionError
		assert.ErrorAs(t, err, &permission)
	})

	t.Run("missing attempt", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")

		_, err := env.attempts.ExtendTime(ctx, quiz.ID, "teacher-1", &ExtendTimeRequest{
			StudentID: "s1", ExtraMinutes: 10,
		})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("non-positive minutes rejected", func(t *testing.T) {
		env := newAttemptEnv(t, started)
		quiz := env.seedQuiz(t, "s1")
		_, err := env.attempts.Start(ctx, quiz.ID, "s1")
		require.NoError(t, err)

		_, err = env.attempts.ExtendTime(ctx, quiz.ID, "teacher-1", &ExtendTimeRequest{
			StudentID: "s1", ExtraMinutes: 0,
		})
		var validationErrors ValidationErrors
		assert.ErrorAs(t, err, &validationErrors)
	})
}
