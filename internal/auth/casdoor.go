package auth

import (
	"context"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/quizcraze/quiz-service/internal/config"
	"github.com/quizcraze/quiz-service/internal/models"
)

// CasdoorVerifier validates tokens minted by an external Casdoor
// deployment. The user's role is read from the Casdoor user tag and
// defaults to student when absent.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.AuthConfig) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, token string) (*Actor, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role := models.RoleStudent
	if models.UserRole(claims.User.Tag) == models.RoleTeacher {
		role = models.RoleTeacher
	}

	return &Actor{
		ID:    claims.User.Id,
		Name:  claims.User.DisplayName,
		Email: claims.User.Email,
		Role:  role,
	}, nil
}
