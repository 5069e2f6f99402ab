package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/services"
	"github.com/quizcraze/quiz-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService    services.QuizService
	attemptService services.AttemptService
	reportService  services.ReportService
}

func NewQuizHandler(
	quizService services.QuizService,
	attemptService services.AttemptService,
	reportService services.ReportService,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:    NewBaseHandler(logger),
		quizService:    quizService,
		attemptService: attemptService,
		reportService:  reportService,
	}
}

// CreateQuiz creates a quiz assigned to the calling teacher's classes.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req, actor.ID)
	if err != nil {
		h.LogError(c, err, "failed to create quiz")
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Quiz created",
		Data:    quiz,
	})
}

// ListQuizzes returns upcoming and past quizzes for the caller's role.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var (
		listing interface{}
		err     error
	)
	if actor.Role == models.RoleTeacher {
		listing, err = h.quizService.ListForTeacher(c.Request.Context(), actor.ID)
	} else {
		listing, err = h.quizService.ListForStudent(c.Request.Context(), actor.ID)
	}
	if err != nil {
		h.LogError(c, err, "failed to list quizzes")
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: listing})
}

// GetQuiz returns the role-appropriate view: full questions for the
// owning teacher, a correctness-stripped summary for students.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	quizID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var (
		view interface{}
		err  error
	)
	if actor.Role == models.RoleTeacher {
		view, err = h.quizService.GetForTeacher(c.Request.Context(), quizID, actor.ID)
	} else {
		view, err = h.quizService.GetForStudent(c.Request.Context(), quizID, actor.ID)
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// StartAttempt opens the calling student's single attempt on the quiz.
func (h *QuizHandler) StartAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	quizID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.attemptService.Start(c.Request.Context(), quizID, actor.ID)
	if err != nil {
		h.LogError(c, err, "failed to start attempt", "quiz_id", quizID)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Attempt started",
		Data:    resp,
	})
}

// SubmitAttempt grades and finalizes the calling student's attempt.
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	quizID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.attemptService.Submit(c.Request.Context(), quizID, actor.ID, &req)
	if err != nil {
		h.LogError(c, err, "failed to submit attempt", "quiz_id", quizID)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt submitted",
		Data:    resp,
	})
}

// ExtendAttemptTime grants a student extra minutes on an open attempt.
func (h *QuizHandler) ExtendAttemptTime(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	quizID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.ExtendTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.attemptService.ExtendTime(c.Request.Context(), quizID, actor.ID, &req)
	if err != nil {
		h.LogError(c, err, "failed to extend attempt time", "quiz_id", quizID)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt time extended",
		Data:    resp,
	})
}

// DownloadReport streams the quiz results workbook to the owning teacher.
func (h *QuizHandler) DownloadReport(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	quizID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	report, err := h.reportService.Generate(c.Request.Context(), quizID, actor.ID)
	if err != nil {
		h.LogError(c, err, "failed to generate report", "quiz_id", quizID)
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report.Content)
}
