package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/quizcraze/quiz-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		logger: logger,
	}
}

// Generate renders the quiz's attempt results as an XLSX workbook, one
// row per attempt. Submitted attempts come first in submission order;
// unsubmitted ones follow in start order.
func (s *reportService) Generate(ctx context.Context, quizID uint, teacherID string) (*QuizReport, error) {
	s.logger.InfoContext(ctx, "generating quiz report", "quiz_id", quizID, "teacher_id", teacherID)

	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, quizID, "quiz", "export report", "quiz belongs to another teacher")
	}

	attempts := quiz.AllAttempts()

	studentIDs := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		studentIDs = append(studentIDs, attempt.StudentID)
	}
	users, err := s.repo.User().GetByIDs(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	byID := make(map[string]int, len(users))
	for i, user := range users {
		byID[user.ID] = i
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Student Name", "PRN", "Department", "Score",
		"Submitted At", "Time Extended", "Extended Time (minutes)",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		name, prn, department := "", "", ""
		if i, ok := byID[attempt.StudentID]; ok {
			user := users[i]
			name = user.Name
			if user.PRN != nil {
				prn = *user.PRN
			}
			if user.Department != nil {
				department = *user.Department
			}
		}

		submittedAt := ""
		score := interface{}(nil)
		if attempt.IsSubmitted() {
			submittedAt = attempt.SubmittedAt.Format(time.RFC3339)
			score = attempt.Score
		}

		row := []interface{}{
			name, prn, department, score,
			submittedAt, attempt.TimeExtended, attempt.ExtendedTime,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &QuizReport{
		FileName: reportFileName(quiz.Title),
		Content:  buf.Bytes(),
	}, nil
}

func reportFileName(title string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
	if slug == "" {
		slug = "quiz"
	}
	return slug + "-results.xlsx"
}
