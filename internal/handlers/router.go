package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizcraze/quiz-service/internal/auth"
	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/services"
	"github.com/quizcraze/quiz-service/internal/utils"
)

type HandlerManager struct {
	authHandler  *AuthHandler
	classHandler *ClassHandler
	quizHandler  *QuizHandler
	verifier     auth.TokenVerifier
	logger       utils.Logger
}

func NewHandlerManager(
	authService services.AuthService,
	classService services.ClassService,
	quizService services.QuizService,
	attemptService services.AttemptService,
	reportService services.ReportService,
	verifier auth.TokenVerifier,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:  NewAuthHandler(authService, logger),
		classHandler: NewClassHandler(classService, logger),
		quizHandler:  NewQuizHandler(quizService, attemptService, reportService, logger),
		verifier:     verifier,
		logger:       logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")

	// Auth routes need no token
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", hm.authHandler.Register)
		authGroup.POST("/login", hm.authHandler.Login)
		authGroup.POST("/refresh", hm.authHandler.Refresh)
		authGroup.POST("/logout", hm.authHandler.Logout)
		authGroup.POST("/otp/request", hm.authHandler.RequestOTP)
		authGroup.POST("/otp/verify", hm.authHandler.VerifyOTP)
	}

	authed := v1.Group("")
	authed.Use(auth.RequireAuth(hm.verifier, hm.logger))
	{
		classes := authed.Group("/classes")
		{
			classes.POST("", auth.RequireRole(models.RoleTeacher), hm.classHandler.CreateClass)
			classes.GET("", hm.classHandler.ListClasses)
			classes.GET("/:id", hm.classHandler.GetClass)
			classes.POST("/join", auth.RequireRole(models.RoleStudent), hm.classHandler.JoinClass)
			classes.GET("/:id/members", auth.RequireRole(models.RoleTeacher), hm.classHandler.ListMembers)
			classes.POST("/:id/block", auth.RequireRole(models.RoleTeacher), hm.classHandler.BlockStudent)
			classes.POST("/:id/unblock", auth.RequireRole(models.RoleTeacher), hm.classHandler.UnblockStudent)
			classes.GET("/:id/leaderboard", hm.classHandler.Leaderboard)
		}

		quizzes := authed.Group("/quizzes")
		{
			quizzes.POST("", auth.RequireRole(models.RoleTeacher), hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.POST("/:id/start", auth.RequireRole(models.RoleStudent), hm.quizHandler.StartAttempt)
			quizzes.POST("/:id/submit", auth.RequireRole(models.RoleStudent), hm.quizHandler.SubmitAttempt)
			quizzes.POST("/:id/extend", auth.RequireRole(models.RoleTeacher), hm.quizHandler.ExtendAttemptTime)
			quizzes.GET("/:id/report", auth.RequireRole(models.RoleTeacher), hm.quizHandler.DownloadReport)
		}
	}
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "quiz-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
