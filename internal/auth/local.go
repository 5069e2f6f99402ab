package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/quizcraze/quiz-service/internal/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type localClaims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// LocalIssuer signs HS256 access and refresh tokens with a shared secret.
type LocalIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewLocalIssuer(secret string, accessTTL, refreshTTL time.Duration) *LocalIssuer {
	return &LocalIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (i *LocalIssuer) IssueAccessToken(user *models.User) (string, error) {
	return i.issue(user, tokenTypeAccess, i.accessTTL)
}

func (i *LocalIssuer) IssueRefreshToken(user *models.User) (string, error) {
	return i.issue(user, tokenTypeRefresh, i.refreshTTL)
}

func (i *LocalIssuer) issue(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := localClaims{
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "quiz-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// LocalVerifier validates tokens minted by LocalIssuer. Only access
// tokens authenticate requests; refresh tokens are checked separately
// by VerifyRefresh.
type LocalVerifier struct {
	secret []byte
}

func NewLocalVerifier(secret string) *LocalVerifier {
	return &LocalVerifier{secret: []byte(secret)}
}

func (v *LocalVerifier) Verify(ctx context.Context, token string) (*Actor, error) {
	claims, err := v.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return actorFromClaims(claims)
}

// VerifyRefresh validates a refresh token and returns the subject id.
func (v *LocalVerifier) VerifyRefresh(token string) (string, error) {
	claims, err := v.parse(token)
	if err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (v *LocalVerifier) parse(token string) (*localClaims, error) {
	claims := &localClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func actorFromClaims(claims *localClaims) (*Actor, error) {
	role := models.UserRole(claims.Role)
	if role != models.RoleTeacher && role != models.RoleStudent {
		return nil, ErrInvalidToken
	}
	return &Actor{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  role,
	}, nil
}
