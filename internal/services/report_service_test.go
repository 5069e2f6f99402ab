package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories/memory"
)

func TestGenerateReport(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	svc := NewReportService(repo, slog.New(slog.DiscardHandler))

	seedStudent(t, repo, "s1", "Ada", "202600000001")
	seedStudent(t, repo, "s2", "Bea", "202600000002")
	seedStudent(t, repo, "s3", "Cal", "202600000003")

	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	quiz := &models.Quiz{
		Title:       "Midterm Review!",
		TeacherID:   "teacher-1",
		TimeLimit:   30,
		WindowStart: started,
		WindowEnd:   started.Add(2 * time.Hour),
		ClassIDs:    []uint{1},
		Questions:   validQuestions(),
	}

	early := started.Add(10 * time.Minute)
	late := started.Add(25 * time.Minute)
	quiz.PutAttempt(&models.Attempt{
		StudentID:   "s2",
		StartedAt:   started,
		EndTime:     started.Add(30 * time.Minute),
		Score:       1,
		SubmittedAt: &late,
	})
	quiz.PutAttempt(&models.Attempt{
		StudentID:    "s1",
		StartedAt:    started.Add(5 * time.Minute),
		EndTime:      started.Add(45 * time.Minute),
		Score:        2,
		SubmittedAt:  &early,
		TimeExtended: true,
		ExtendedTime: 10,
	})
	// Never submitted, trails the submitted rows.
	quiz.PutAttempt(&models.Attempt{
		StudentID: "s3",
		StartedAt: started.Add(1 * time.Minute),
		EndTime:   started.Add(31 * time.Minute),
	})
	require.NoError(t, repo.Quiz().Create(ctx, quiz))

	t.Run("workbook rows follow submission order", func(t *testing.T) {
		report, err := svc.Generate(ctx, quiz.ID, "teacher-1")
		require.NoError(t, err)
		assert.Equal(t, "midterm-review-results.xlsx", report.FileName)

		f, err := excelize.OpenReader(bytes.NewReader(report.Content))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Results")
		require.NoError(t, err)
		require.Len(t, rows, 4)

		assert.Equal(t, []string{
			"Student Name", "PRN", "Department", "Score",
			"Submitted At", "Time Extended", "Extended Time (minutes)",
		}, rows[0])

		// Ada submitted first, then Bea, then Cal's open attempt.
		assert.Equal(t, "Ada", rows[1][0])
		assert.Equal(t, "202600000001", rows[1][1])
		assert.Equal(t, "2", rows[1][3])
		assert.Equal(t, "TRUE", rows[1][5])
		assert.Equal(t, "10", rows[1][6])

		assert.Equal(t, "Bea", rows[2][0])
		assert.Equal(t, "1", rows[2][3])

		assert.Equal(t, "Cal", rows[3][0])
		// No score cell for an unsubmitted attempt.
		assert.Empty(t, rows[3][3])
	})

	t.Run("foreign teacher denied", func(t *testing.T) {
		_, err := svc.Generate(ctx, quiz.ID, "teacher-2")
		var permission *PermissionError
		assert.ErrorAs(t, err, &permission)
	})

	t.Run("unknown quiz", func(t *testing.T) {
		_, err := svc.Generate(ctx, 999, "teacher-1")
		assert.ErrorIs(t, err, ErrQuizNotFound)
	})
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "weekly-quiz-3-results.xlsx", reportFileName("Weekly Quiz 3"))
	assert.Equal(t, "quiz-results.xlsx", reportFileName("!!!"))
	assert.Equal(t, "algos-results.xlsx", reportFileName("Algos"))
}
