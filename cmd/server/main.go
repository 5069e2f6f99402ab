package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizcraze/quiz-service/internal/auth"
	"github.com/quizcraze/quiz-service/internal/cache"
	"github.com/quizcraze/quiz-service/internal/config"
	"github.com/quizcraze/quiz-service/internal/handlers"
	"github.com/quizcraze/quiz-service/internal/repositories/postgres"
	"github.com/quizcraze/quiz-service/internal/services"
	"github.com/quizcraze/quiz-service/internal/utils"
	"github.com/quizcraze/quiz-service/internal/validator"
	"github.com/quizcraze/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var appLogger utils.Logger
	if cfg.Environment == "production" {
		appLogger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		appLogger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(appLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		appLogger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		appLogger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		appLogger.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		appLogger.Error("event publisher init failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		appLogger.Error("auth init failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)
	v := validator.New()

	issuer := auth.NewLocalIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	localVerifier := auth.NewLocalVerifier(cfg.Auth.JWTSecret)
	otpStore := cache.NewOTPStore(redisClient, cfg.OTP.TTL, cfg.OTP.ResendCooldown, cfg.OTP.MaxAttempts)
	revocations := cache.NewRevocationStore(redisClient)

	classService := services.NewClassService(repo, slogger, v)
	quizService := services.NewQuizService(repo, classService, slogger, v, publisher)
	attemptService := services.NewAttemptService(repo, classService, slogger, v, publisher)
	authService := services.NewAuthService(repo, slogger, v, issuer, localVerifier, otpStore, revocations,
		publisher, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	reportService := services.NewReportService(repo, slogger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(appLogger))

	manager := handlers.NewHandlerManager(
		authService, classService, quizService, attemptService, reportService,
		verifier, appLogger,
	)
	manager.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", "error", err)
	}
}
