package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/services"
	"github.com/quizcraze/quiz-service/internal/utils"
)

type ClassHandler struct {
	BaseHandler
	classService services.ClassService
}

func NewClassHandler(classService services.ClassService, logger utils.Logger) *ClassHandler {
	return &ClassHandler{
		BaseHandler:  NewBaseHandler(logger),
		classService: classService,
	}
}

// CreateClass creates a class owned by the calling teacher.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	class, err := h.classService.Create(c.Request.Context(), &req, actor.ID)
	if err != nil {
		h.LogError(c, err, "failed to create class")
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Class created",
		Data:    class,
	})
}

// ListClasses returns the caller's classes: owned ones for teachers,
// enrolled ones for students.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var (
		classes []services.ClassView
		err     error
	)
	if actor.Role == models.RoleTeacher {
		classes, err = h.classService.ListForTeacher(c.Request.Context(), actor.ID)
	} else {
		classes, err = h.classService.ListForStudent(c.Request.Context(), actor.ID)
	}
	if err != nil {
		h.LogError(c, err, "failed to list classes")
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: classes})
}

func (h *ClassHandler) GetClass(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	class, err := h.classService.Get(c.Request.Context(), classID, actor.ID, actor.Role == models.RoleTeacher)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: class})
}

// JoinClass enrolls the calling student via an enrollment key.
func (h *ClassHandler) JoinClass(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.JoinClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	class, err := h.classService.Join(c.Request.Context(), &req, actor.ID)
	if err != nil {
		h.LogError(c, err, "failed to join class")
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Joined class",
		Data:    class,
	})
}

func (h *ClassHandler) ListMembers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	members, err := h.classService.Members(c.Request.Context(), classID, actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: members})
}

func (h *ClassHandler) BlockStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.BlockStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.classService.BlockStudent(c.Request.Context(), classID, actor.ID, req.StudentID); err != nil {
		h.LogError(c, err, "failed to block student")
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student blocked"})
}

func (h *ClassHandler) UnblockStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.BlockStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.classService.UnblockStudent(c.Request.Context(), classID, actor.ID, req.StudentID); err != nil {
		h.LogError(c, err, "failed to unblock student")
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student unblocked"})
}

func (h *ClassHandler) Leaderboard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	classID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	rows, err := h.classService.Leaderboard(c.Request.Context(), classID, actor.ID, actor.Role == models.RoleTeacher)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: rows})
}
