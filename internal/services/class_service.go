package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories"
	"github.com/quizcraze/quiz-service/internal/validator"
)

// enrollmentKeyRetries bounds regeneration when a generated key collides
// with an existing one.
const enrollmentKeyRetries = 3

type classService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewClassService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ClassService {
	return &classService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *classService) Create(ctx context.Context, req *CreateClassRequest, teacherID string) (*ClassView, error) {
	s.logger.InfoContext(ctx, "creating class", "teacher_id", teacherID, "name", req.Name)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:      req.Name,
		TeacherID: teacherID,
	}

	var err error
	for i := 0; i < enrollmentKeyRetries; i++ {
		class.EnrollmentKey = newEnrollmentKey()
		err = s.repo.Class().Create(ctx, class)
		if err == nil {
			view := classView(class, true)
			return &view, nil
		}
		if !repositories.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create class: %w", err)
		}
	}
	return nil, fmt.Errorf("create class: %w", err)
}

func (s *classService) Get(ctx context.Context, classID uint, actorID string, isTeacher bool) (*ClassView, error) {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	if isTeacher {
		if class.TeacherID != actorID {
			return nil, NewPermissionError(actorID, classID, "class", "view", "class belongs to another teacher")
		}
		view := classView(class, true)
		return &view, nil
	}

	if !class.Enrolled(actorID) {
		return nil, ErrClassAccessDenied
	}
	view := classView(class, false)
	return &view, nil
}

func (s *classService) Join(ctx context.Context, req *JoinClassRequest, studentID string) (*ClassView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	class, err := s.repo.Class().GetByEnrollmentKey(ctx, req.EnrollmentKey)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidEnrollKey
		}
		return nil, fmt.Errorf("lookup enrollment key: %w", err)
	}

	if class.IsBlocked(studentID) {
		return nil, ErrStudentBlocked
	}
	if class.HasStudent(studentID) {
		return nil, ErrAlreadyEnrolled
	}

	class.AddStudent(studentID)
	if err := s.repo.Class().Update(ctx, class); err != nil {
		return nil, fmt.Errorf("update class: %w", err)
	}

	s.logger.InfoContext(ctx, "student joined class",
		"class_id", class.ID, "student_id", studentID)

	view := classView(class, false)
	return &view, nil
}

func (s *classService) ListForTeacher(ctx context.Context, teacherID string) ([]ClassView, error) {
	classes, err := s.repo.Class().GetByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	views := make([]ClassView, 0, len(classes))
	for _, class := range classes {
		views = append(views, classView(class, true))
	}
	return views, nil
}

func (s *classService) ListForStudent(ctx context.Context, studentID string) ([]ClassView, error) {
	classes, err := s.repo.Class().GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	views := make([]ClassView, 0, len(classes))
	for _, class := range classes {
		views = append(views, classView(class, false))
	}
	return views, nil
}

func (s *classService) Members(ctx context.Context, classID uint, teacherID string) ([]ClassMember, error) {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, classID, "class", "list members", "class belongs to another teacher")
	}

	ids := make([]string, 0, len(class.StudentIDs)+len(class.BlockedIDs))
	ids = append(ids, class.StudentIDs...)
	ids = append(ids, class.BlockedIDs...)

	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	members := make([]ClassMember, 0, len(users))
	for _, user := range users {
		members = append(members, ClassMember{
			ID:         user.ID,
			Name:       user.Name,
			PRN:        user.PRN,
			Department: user.Department,
			Blocked:    class.IsBlocked(user.ID),
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (s *classService) BlockStudent(ctx context.Context, classID uint, teacherID, studentID string) error {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.TeacherID != teacherID {
		return NewPermissionError(teacherID, classID, "class", "block student", "class belongs to another teacher")
	}
	if !class.HasStudent(studentID) {
		return ErrStudentNotInClass
	}

	class.Block(studentID)
	if err := s.repo.Class().Update(ctx, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}

	s.logger.InfoContext(ctx, "student blocked",
		"class_id", classID, "student_id", studentID, "teacher_id", teacherID)
	return nil
}

func (s *classService) UnblockStudent(ctx context.Context, classID uint, teacherID, studentID string) error {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.TeacherID != teacherID {
		return NewPermissionError(teacherID, classID, "class", "unblock student", "class belongs to another teacher")
	}
	if !class.IsBlocked(studentID) {
		return ErrStudentNotBlocked
	}

	class.Unblock(studentID)
	if err := s.repo.Class().Update(ctx, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}

	s.logger.InfoContext(ctx, "student unblocked",
		"class_id", classID, "student_id", studentID, "teacher_id", teacherID)
	return nil
}

// Leaderboard sums submitted scores across the class's quizzes. Visible
// to the owning teacher and to enrolled students.
func (s *classService) Leaderboard(ctx context.Context, classID uint, actorID string, isTeacher bool) ([]LeaderboardRow, error) {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if isTeacher {
		if class.TeacherID != actorID {
			return nil, NewPermissionError(actorID, classID, "class", "view leaderboard", "class belongs to another teacher")
		}
	} else if !class.Enrolled(actorID) {
		return nil, ErrClassAccessDenied
	}

	quizzes, err := s.repo.Quiz().GetByClasses(ctx, []uint{classID})
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}

	totals := make(map[string]*LeaderboardRow)
	for _, quiz := range quizzes {
		for _, attempt := range quiz.AllAttempts() {
			if !attempt.IsSubmitted() || !class.Enrolled(attempt.StudentID) {
				continue
			}
			row, ok := totals[attempt.StudentID]
			if !ok {
				row = &LeaderboardRow{StudentID: attempt.StudentID}
				totals[attempt.StudentID] = row
			}
			row.TotalScore += attempt.Score
			row.QuizzesTaken++
		}
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	for _, user := range users {
		if row, ok := totals[user.ID]; ok {
			row.Name = user.Name
			row.PRN = user.PRN
		}
	}

	rows := make([]LeaderboardRow, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// IsEnrolledAndUnblocked answers the enrollment oracle question for the
// attempt path: is the student an active, unblocked member of at least
// one of the given classes.
func (s *classService) IsEnrolledAndUnblocked(ctx context.Context, studentID string, classIDs []uint) (bool, error) {
	classes, err := s.repo.Class().GetByIDs(ctx, classIDs)
	if err != nil {
		return false, fmt.Errorf("load classes: %w", err)
	}
	for _, class := range classes {
		if class.Enrolled(studentID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *classService) OwnsAll(ctx context.Context, teacherID string, classIDs []uint) (bool, error) {
	classes, err := s.repo.Class().GetByIDs(ctx, classIDs)
	if err != nil {
		return false, fmt.Errorf("load classes: %w", err)
	}
	if len(classes) != len(classIDs) {
		return false, nil
	}
	for _, class := range classes {
		if class.TeacherID != teacherID {
			return false, nil
		}
	}
	return true, nil
}

func (s *classService) getClass(ctx context.Context, classID uint) (*models.Class, error) {
	class, err := s.repo.Class().GetByID(ctx, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	return class, nil
}

func classView(class *models.Class, includeKey bool) ClassView {
	view := ClassView{
		ID:           class.ID,
		Name:         class.Name,
		TeacherID:    class.TeacherID,
		StudentCount: class.StudentCount(),
		QuizIDs:      class.QuizIDs,
	}
	if includeKey {
		view.EnrollmentKey = class.EnrollmentKey
	}
	return view
}

// newEnrollmentKey derives a short join code from a UUID. Eight hex
// characters keeps it typeable while the uniqueness constraint catches
// the rare collision.
func newEnrollmentKey() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
