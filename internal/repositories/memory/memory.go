// Package memory provides an in-memory Repository used by service tests.
// It mirrors the PostgreSQL implementation's semantics, including the
// compare-and-swap on quiz versions, so concurrency behavior can be
// exercised without a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories"
)

type Repository struct {
	mu sync.Mutex

	quizzes map[uint]*models.Quiz
	classes map[uint]*models.Class
	users   map[string]*models.User

	nextQuizID  uint
	nextClassID uint
}

func NewRepository() *Repository {
	return &Repository{
		quizzes:     make(map[uint]*models.Quiz),
		classes:     make(map[uint]*models.Class),
		users:       make(map[string]*models.User),
		nextQuizID:  1,
		nextClassID: 1,
	}
}

func (r *Repository) Quiz() repositories.QuizRepository   { return (*quizStore)(r) }
func (r *Repository) Class() repositories.ClassRepository { return (*classStore)(r) }
func (r *Repository) User() repositories.UserRepository   { return (*userStore)(r) }

// WithTx just runs fn against the same store. Tests that need rollback
// behavior should use a real database.
func (r *Repository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

// clone deep-copies a record through JSON so callers never share memory
// with the store, matching how a database round-trip behaves.
func clone[T any](in *T) *T {
	raw, err := json.Marshal(in)
	if err != nil {
		panic(fmt.Sprintf("memory repository: marshal: %v", err))
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		panic(fmt.Sprintf("memory repository: unmarshal: %v", err))
	}
	return out
}

// cloneUser copies by value. Users hold no shared mutable state, and a
// JSON round-trip would lose the password hash (tagged json:"-").
func cloneUser(in *models.User) *models.User {
	out := *in
	return &out
}

type quizStore Repository

func (s *quizStore) Create(ctx context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quiz.ID == 0 {
		quiz.ID = s.nextQuizID
		s.nextQuizID++
	}
	if quiz.Version == 0 {
		quiz.Version = 1
	}
	s.quizzes[quiz.ID] = clone(quiz)
	return nil
}

func (s *quizStore) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(quiz), nil
}

func (s *quizStore) Save(ctx context.Context, quiz *models.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.quizzes[quiz.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.Version != quiz.Version {
		return repositories.ErrVersionConflict
	}
	quiz.Version++
	s.quizzes[quiz.ID] = clone(quiz)
	return nil
}

func (s *quizStore) GetByTeacher(ctx context.Context, teacherID string) ([]*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Quiz
	for _, quiz := range s.quizzes {
		if quiz.TeacherID == teacherID {
			out = append(out, clone(quiz))
		}
	}
	sortQuizzes(out)
	return out, nil
}

func (s *quizStore) GetByClasses(ctx context.Context, classIDs []uint) ([]*models.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Quiz
	for _, quiz := range s.quizzes {
		for _, id := range classIDs {
			if slices.Contains(quiz.ClassIDs, id) {
				out = append(out, clone(quiz))
				break
			}
		}
	}
	sortQuizzes(out)
	return out, nil
}

func sortQuizzes(quizzes []*models.Quiz) {
	sort.Slice(quizzes, func(i, j int) bool {
		if quizzes[i].WindowStart.Equal(quizzes[j].WindowStart) {
			return quizzes[i].ID < quizzes[j].ID
		}
		return quizzes[i].WindowStart.Before(quizzes[j].WindowStart)
	})
}

type classStore Repository

func (s *classStore) Create(ctx context.Context, class *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.classes {
		if existing.EnrollmentKey == class.EnrollmentKey {
			return repositories.ErrDuplicateKey
		}
	}
	if class.ID == 0 {
		class.ID = s.nextClassID
		s.nextClassID++
	}
	s.classes[class.ID] = clone(class)
	return nil
}

func (s *classStore) GetByID(ctx context.Context, id uint) (*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	class, ok := s.classes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(class), nil
}

func (s *classStore) GetByIDs(ctx context.Context, ids []uint) ([]*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Class
	for _, id := range ids {
		if class, ok := s.classes[id]; ok {
			out = append(out, clone(class))
		}
	}
	return out, nil
}

func (s *classStore) GetByEnrollmentKey(ctx context.Context, key string) (*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, class := range s.classes {
		if class.EnrollmentKey == key {
			return clone(class), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *classStore) GetByTeacher(ctx context.Context, teacherID string) ([]*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Class
	for _, class := range s.classes {
		if class.TeacherID == teacherID {
			out = append(out, clone(class))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *classStore) GetByStudent(ctx context.Context, studentID string) ([]*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Class
	for _, class := range s.classes {
		if class.HasStudent(studentID) && !class.IsBlocked(studentID) {
			out = append(out, clone(class))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *classStore) Update(ctx context.Context, class *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classes[class.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.classes[class.ID] = clone(class)
	return nil
}

type userStore Repository

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrDuplicateKey
		}
		if user.PRN != nil && existing.PRN != nil && *existing.PRN == *user.PRN {
			return repositories.ErrDuplicateKey
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *userStore) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.User
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			out = append(out, cloneUser(user))
		}
	}
	return out, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *userStore) GetByPRN(ctx context.Context, prn string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.PRN != nil && *user.PRN == prn {
			return cloneUser(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *userStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}
