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

type quizService struct {
	repo      repositories.Repository
	classes   ClassCollaborator
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewQuizService(
	repo repositories.Repository,
	classes ClassCollaborator,
	logger *slog.Logger,
	v *validator.Validator,
	publisher events.EventPublisher,
) QuizService {
	return &quizService{
		repo:      repo,
		classes:   classes,
		logger:    logger,
		validator: v,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, teacherID string) (*QuizTeacherView, error) {
	s.logger.InfoContext(ctx, "creating quiz",
		"teacher_id", teacherID,
		"title", req.Title,
		"classes", len(req.ClassIDs))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.validator.Quiz().ValidateWindow(req.WindowStart, req.WindowEnd, now); err != nil {
		return nil, err
	}
	if err := s.validator.Quiz().ValidateQuestions(req.Questions); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		TeacherID:   teacherID,
		TimeLimit:   req.TimeLimit,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		Status:      models.QuizScheduled,
		ClassIDs:    req.ClassIDs,
		Questions:   req.Questions,
		Version:     1,
	}

	// Class ownership is verified and the quiz id pushed onto each class
	// inside one transaction, so the class bookkeeping can never point at
	// a quiz that failed to persist.
	err := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		classes, err := tx.Class().GetByIDs(ctx, req.ClassIDs)
		if err != nil {
			return fmt.Errorf("load classes: %w", err)
		}
		if len(classes) != len(req.ClassIDs) {
			return ErrClassQuizMissing
		}
		for _, class := range classes {
			if class.TeacherID != teacherID {
				return NewPermissionError(teacherID, class.ID, "class", "assign quiz", "class belongs to another teacher")
			}
		}

		if err := tx.Quiz().Create(ctx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}

		for _, class := range classes {
			class.AddQuiz(quiz.ID)
			if err := tx.Class().Update(ctx, class); err != nil {
				return fmt.Errorf("update class %d: %w", class.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewQuizPublishedEvent(quiz.ID, quiz.Title, quiz.TeacherID,
		quiz.ClassIDs, quiz.WindowStart, quiz.WindowEnd, quiz.TimeLimit)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish quiz published event",
			"quiz_id", quiz.ID, "error", err)
	}

	return s.teacherView(quiz, now), nil
}

func (s *quizService) GetForTeacher(ctx context.Context, quizID uint, teacherID string) (*QuizTeacherView, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, quizID, "quiz", "view", "quiz belongs to another teacher")
	}
	return s.teacherView(quiz, s.now()), nil
}

func (s *quizService) GetForStudent(ctx context.Context, quizID uint, studentID string) (*QuizStudentView, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.classes.IsEnrolledAndUnblocked(ctx, studentID, quiz.ClassIDs)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	now := s.now()
	view := &QuizStudentView{QuizSummary: summarize(quiz, now)}
	attempt := quiz.AttemptFor(studentID)
	switch {
	case attempt != nil:
		view.Attempted = true
		view.Attempt = attemptView(attempt)
		if attempt.IsSubmitted() {
			view.Submitted = true
			score := attempt.Score
			view.Score = &score
			view.SubmittedAt = attempt.SubmittedAt
		}
	case quiz.StatusAt(now) == models.QuizActive:
		// Attemptable right now, so ship the stripped questions.
		view.Questions = quiz.StudentQuestions()
	}
	return view, nil
}

func (s *quizService) ListForTeacher(ctx context.Context, teacherID string) (*QuizListing, error) {
	quizzes, err := s.repo.Quiz().GetByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return s.split(quizzes), nil
}

func (s *quizService) ListForStudent(ctx context.Context, studentID string) (*StudentQuizListing, error) {
	classes, err := s.repo.Class().GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	classIDs := make([]uint, 0, len(classes))
	for _, class := range classes {
		classIDs = append(classIDs, class.ID)
	}

	quizzes, err := s.repo.Quiz().GetByClasses(ctx, classIDs)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return s.splitForStudent(quizzes, studentID), nil
}

func (s *quizService) getQuiz(ctx context.Context, quizID uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

// split partitions quizzes into those still attemptable at some point
// (scheduled or active) and those whose window has closed.
func (s *quizService) split(quizzes []*models.Quiz) *QuizListing {
	now := s.now()
	listing := &QuizListing{
		Upcoming: []QuizSummary{},
		Past:     []QuizSummary{},
	}
	for _, quiz := range quizzes {
		summary := summarize(quiz, now)
		if summary.Status == models.QuizCompleted {
			listing.Past = append(listing.Past, summary)
		} else {
			listing.Upcoming = append(listing.Upcoming, summary)
		}
	}
	return listing
}

// splitForStudent partitions like split but folds in the student's own
// attempt. A quiz the student has already attempted is no longer
// attemptable, so it lands in past even while the window is open.
func (s *quizService) splitForStudent(quizzes []*models.Quiz, studentID string) *StudentQuizListing {
	now := s.now()
	listing := &StudentQuizListing{
		Upcoming: []StudentQuizSummary{},
		Past:     []StudentQuizSummary{},
	}
	for _, quiz := range quizzes {
		row := StudentQuizSummary{QuizSummary: summarize(quiz, now)}
		if attempt := quiz.AttemptFor(studentID); attempt != nil {
			row.Attempted = true
			if attempt.IsSubmitted() {
				row.Submitted = true
				score := attempt.Score
				row.Score = &score
				row.SubmittedAt = attempt.SubmittedAt
			}
		}
		if row.Attempted || row.Status == models.QuizCompleted {
			listing.Past = append(listing.Past, row)
		} else {
			listing.Upcoming = append(listing.Upcoming, row)
		}
	}
	return listing
}

func attemptView(attempt *models.Attempt) *AttemptView {
	view := &AttemptView{
		StartedAt:    attempt.StartedAt,
		EndTime:      attempt.EndTime,
		TimeExtended: attempt.TimeExtended,
		ExtendedTime: attempt.ExtendedTime,
	}
	if attempt.IsSubmitted() {
		view.Answers = attempt.Answers
		score := attempt.Score
		view.Score = &score
		view.SubmittedAt = attempt.SubmittedAt
	}
	return view
}

func summarize(quiz *models.Quiz, now time.Time) QuizSummary {
	return QuizSummary{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		Status:        quiz.StatusAt(now),
		TimeLimit:     quiz.TimeLimit,
		WindowStart:   quiz.WindowStart,
		WindowEnd:     quiz.WindowEnd,
		QuestionCount: quiz.QuestionCount(),
		ClassIDs:      quiz.ClassIDs,
	}
}

func (s *quizService) teacherView(quiz *models.Quiz, now time.Time) *QuizTeacherView {
	attempts := quiz.AllAttempts()
	submitted := 0
	for _, attempt := range attempts {
		if attempt.IsSubmitted() {
			submitted++
		}
	}
	return &QuizTeacherView{
		QuizSummary:    summarize(quiz, now),
		Questions:      quiz.Questions,
		Attempts:       attempts,
		AttemptCount:   len(attempts),
		SubmittedCount: submitted,
	}
}
