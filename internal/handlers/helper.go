package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quizcraze/quiz-service/internal/auth"
	"github.com/quizcraze/quiz-service/internal/services"
)

// parseUintParam reads a numeric path parameter, responding 400 itself
// on failure. Callers must return when ok is false.
func parseUintParam(c *gin.Context, param string) (uint, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// requireActor fetches the authenticated actor, responding 401 itself
// when the middleware did not run.
func requireActor(c *gin.Context) (*auth.Actor, bool) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return nil, false
	}
	return actor, true
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: services.ValidationErrors{*validationError},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrNotEnrolled),
		errors.Is(err, services.ErrClassAccessDenied),
		errors.Is(err, services.ErrStudentBlocked),
		errors.Is(err, services.ErrNotVerified):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})

	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrQuizNotActive),
		errors.Is(err, services.ErrInsufficientWindowTime),
		errors.Is(err, services.ErrAttemptTimeExpired),
		errors.Is(err, services.ErrExtensionPastWindow),
		errors.Is(err, services.ErrAnswerCountMismatch),
		errors.Is(err, services.ErrStudentNotInClass),
		errors.Is(err, services.ErrStudentNotBlocked):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrOTPThrottled):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrInvalidEnrollKey),
		errors.Is(err, services.ErrClassQuizMissing):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
