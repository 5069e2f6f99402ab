package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizcraze/quiz-service/internal/auth"
	"github.com/quizcraze/quiz-service/internal/cache"
	apperrors "github.com/quizcraze/quiz-service/internal/errors"
	"github.com/quizcraze/quiz-service/internal/events"
	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/repositories"
	"github.com/quizcraze/quiz-service/internal/validator"
)

type authService struct {
	repo        repositories.Repository
	logger      *slog.Logger
	validator   *validator.Validator
	issuer      *auth.LocalIssuer
	verifier    *auth.LocalVerifier
	otp         cache.OTPStore
	revocations cache.RevocationStore
	publisher   events.EventPublisher
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewAuthService(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	issuer *auth.LocalIssuer,
	verifier *auth.LocalVerifier,
	otp cache.OTPStore,
	revocations cache.RevocationStore,
	publisher events.EventPublisher,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		repo:        repo,
		logger:      logger,
		validator:   v,
		issuer:      issuer,
		verifier:    verifier,
		otp:         otp,
		revocations: revocations,
		publisher:   publisher,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*UserView, error) {
	s.logger.InfoContext(ctx, "registering user", "email", req.Email, "role", req.Role)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	role := models.UserRole(req.Role)
	if role == models.RoleStudent {
		if req.PRN == nil || *req.PRN == "" {
			return nil, apperrors.NewValidationError("prn", "prn is required for students", nil)
		}
		if req.Department == nil || *req.Department == "" {
			return nil, apperrors.NewValidationError("department", "department is required for students", nil)
		}
	}

	if _, err := s.repo.User().GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if req.PRN != nil && *req.PRN != "" {
		if _, err := s.repo.User().GetByPRN(ctx, *req.PRN); err == nil {
			return nil, ErrPRNTaken
		} else if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("check prn: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         role,
		Department:   req.Department,
		PRN:          req.PRN,
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	view := userView(user)
	return &view, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Burn a comparison anyway so lookups and mismatches take
			// comparable time.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.repo.User().Update(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to record login time", "user_id", user.ID, "error", err)
	}

	return &AuthResponse{User: userView(user), Tokens: *tokens}, nil
}

func (s *authService) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPair, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	userID, err := s.verifier.VerifyRefresh(req.RefreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	revoked, err := s.revocations.IsRevoked(ctx, req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthorized
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueTokens(user)
}

// Logout revokes the refresh token for its full remaining lifetime. The
// current access token stays valid until it ages out on its short TTL.
func (s *authService) Logout(ctx context.Context, req *LogoutRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	userID, err := s.verifier.VerifyRefresh(req.RefreshToken)
	if err != nil {
		return ErrUnauthorized
	}

	if err := s.revocations.Revoke(ctx, req.RefreshToken, s.refreshTTL); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "logged out", "user_id", userID)
	return nil
}

// RequestOTP issues a verification code and hands it to the notification
// pipeline. The service never sends email or SMS itself.
func (s *authService) RequestOTP(ctx context.Context, req *RequestOTPRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	code, expiresAt, err := s.otp.Issue(ctx, user.ID)
	if err != nil {
		if errors.Is(err, cache.ErrOTPThrottled) {
			return ErrOTPThrottled
		}
		return err
	}

	event := events.NewOTPRequestedEvent(user.ID, user.Email, user.Phone, code, expiresAt)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		return fmt.Errorf("publish otp event: %w", err)
	}

	s.logger.InfoContext(ctx, "otp requested", "user_id", user.ID)
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := s.otp.Verify(ctx, user.ID, req.Code); err != nil {
		if errors.Is(err, cache.ErrOTPNotFound) ||
			errors.Is(err, cache.ErrOTPMismatch) ||
			errors.Is(err, cache.ErrOTPTooManyAttempts) {
			return ErrInvalidOTP
		}
		return err
	}

	if !user.IsVerified {
		user.IsVerified = true
		if err := s.repo.User().Update(ctx, user); err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "account verified", "user_id", user.ID)
	return nil
}

func (s *authService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func userView(user *models.User) UserView {
	return UserView{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		PRN:        user.PRN,
		IsVerified: user.IsVerified,
	}
}
