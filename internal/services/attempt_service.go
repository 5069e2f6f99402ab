package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizcraze/quiz-service/internal/events"
	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories"
	"github.com/quizcraze/quiz-service/internal/validator"
)

// maxSaveRetries bounds the compare-and-swap retry loop. Conflicts are
// rare (two actors touching the same quiz row at once), so a handful of
// retries is plenty.
const maxSaveRetries = 3

type attemptService struct {
	repo      repositories.Repository
	classes   ClassCollaborator
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	classes ClassCollaborator,
	logger *slog.Logger,
	v *validator.Validator,
	publisher events.EventPublisher,
) AttemptService {
	return &attemptService{
		repo:      repo,
		classes:   classes,
		logger:    logger,
		validator: v,
		publisher: publisher,
		now:       time.Now,
	}
}

// mutateQuiz runs fn against a freshly loaded quiz and saves it under the
// version check, retrying on conflict. Preconditions inside fn are
// re-evaluated on every iteration, so of two racing starts exactly one
// sees the other's attempt and fails.
func (s *attemptService) mutateQuiz(ctx context.Context, quizID uint, fn func(*models.Quiz) error) (*models.Quiz, error) {
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuizNotFound
			}
			return nil, fmt.Errorf("get quiz: %w", err)
		}

		if err := fn(quiz); err != nil {
			return nil, err
		}

		quiz.RefreshStatus(s.now())
		err = s.repo.Quiz().Save(ctx, quiz)
		if err == nil {
			return quiz, nil
		}
		if !repositories.IsConflictError(err) {
			return nil, fmt.Errorf("save quiz: %w", err)
		}

		s.logger.DebugContext(ctx, "quiz save conflict, retrying",
			"quiz_id", quizID, "retry", attempt+1)
	}
	return nil, ErrConflict
}

func (s *attemptService) Start(ctx context.Context, quizID uint, studentID string) (*StartAttemptResponse, error) {
	s.logger.InfoContext(ctx, "starting attempt", "quiz_id", quizID, "student_id", studentID)

	var started *models.Attempt
	quiz, err := s.mutateQuiz(ctx, quizID, func(quiz *models.Quiz) error {
		enrolled, err := s.classes.IsEnrolledAndUnblocked(ctx, studentID, quiz.ClassIDs)
		if err != nil {
			return err
		}
		if !enrolled {
			return ErrNotEnrolled
		}

		now := s.now()
		if quiz.StatusAt(now) != models.QuizActive {
			return ErrQuizNotActive
		}
		if quiz.AttemptFor(studentID) != nil {
			return ErrAlreadyAttempted
		}

		endTime := now.Add(time.Duration(quiz.TimeLimit) * time.Minute)
		if endTime.After(quiz.WindowEnd) {
			// Refuse rather than silently shorten, so every student gets
			// the full time limit or nothing.
			return ErrInsufficientWindowTime
		}

		started = &models.Attempt{
			StudentID: studentID,
			StartedAt: now,
			EndTime:   endTime,
		}
		quiz.PutAttempt(started)
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewAttemptStartedEvent(quiz.ID, quiz.Title, studentID, started.StartedAt, started.EndTime)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish attempt started event",
			"quiz_id", quiz.ID, "error", err)
	}

	return &StartAttemptResponse{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		TimeLimit: quiz.TimeLimit,
		StartedAt: started.StartedAt,
		EndTime:   started.EndTime,
		Questions: quiz.StudentQuestions(),
	}, nil
}

func (s *attemptService) Submit(ctx context.Context, quizID uint, studentID string, req *SubmitAttemptRequest) (*SubmitAttemptResponse, error) {
	s.logger.InfoContext(ctx, "submitting attempt", "quiz_id", quizID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var submitted *models.Attempt
	quiz, err := s.mutateQuiz(ctx, quizID, func(quiz *models.Quiz) error {
		attempt := quiz.AttemptFor(studentID)
		if attempt == nil {
			return ErrAttemptNotFound
		}
		if attempt.IsSubmitted() {
			return ErrAttemptAlreadySubmitted
		}

		// Expiry is never persisted; it is detected here, lazily, against
		// a fresh clock reading.
		now := s.now()
		if attempt.ExpiredAt(now) {
			return ErrAttemptTimeExpired
		}
		if len(req.Answers) != quiz.QuestionCount() {
			return ErrAnswerCountMismatch
		}

		answers, score := quiz.Grade(req.Answers)
		attempt.Answers = answers
		attempt.Score = score
		attempt.SubmittedAt = &now
		quiz.PutAttempt(attempt)
		submitted = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewAttemptSubmittedEvent(quiz.ID, quiz.Title, studentID,
		*submitted.SubmittedAt, submitted.Score, quiz.QuestionCount())
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish attempt submitted event",
			"quiz_id", quiz.ID, "error", err)
	}

	return &SubmitAttemptResponse{
		Score:          submitted.Score,
		TotalQuestions: quiz.QuestionCount(),
		SubmittedAt:    *submitted.SubmittedAt,
	}, nil
}

func (s *attemptService) ExtendTime(ctx context.Context, quizID uint, teacherID string, req *ExtendTimeRequest) (*ExtendTimeResponse, error) {
	s.logger.InfoContext(ctx, "extending attempt time",
		"quiz_id", quizID, "teacher_id", teacherID,
		"student_id", req.StudentID, "extra_minutes", req.ExtraMinutes)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var extended *models.Attempt
	quiz, err := s.mutateQuiz(ctx, quizID, func(quiz *models.Quiz) error {
		if quiz.TeacherID != teacherID {
			return NewPermissionError(teacherID, quiz.ID, "quiz", "extend time", "quiz belongs to another teacher")
		}

		attempt := quiz.AttemptFor(req.StudentID)
		if attempt == nil {
			return ErrAttemptNotFound
		}
		if attempt.IsSubmitted() {
			return ErrAttemptAlreadySubmitted
		}

		extra := time.Duration(req.ExtraMinutes) * time.Minute
		newEnd := attempt.EndTime.Add(extra)
		if newEnd.After(quiz.WindowEnd) {
			return ErrExtensionPastWindow
		}

		attempt.EndTime = newEnd
		attempt.TimeExtended = true
		attempt.ExtendedTime += req.ExtraMinutes
		quiz.PutAttempt(attempt)
		extended = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewTimeExtendedEvent(quiz.ID, quiz.Title, req.StudentID, req.ExtraMinutes, extended.EndTime)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish time extended event",
			"quiz_id", quiz.ID, "error", err)
	}

	return &ExtendTimeResponse{
		StudentID:    req.StudentID,
		EndTime:      extended.EndTime,
		TimeExtended: extended.TimeExtended,
		ExtendedTime: extended.ExtendedTime,
	}, nil
}
