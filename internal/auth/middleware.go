package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/utils"
)

const actorContextKey = "auth_actor"

// RequireAuth validates the bearer token and stores the Actor on the
// request context. Requests without a valid token get 401.
func RequireAuth(verifier TokenVerifier, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		actor, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "token rejected",
				"path", c.Request.URL.Path,
				"error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(actorContextKey, actor)
		c.Set("user_id", actor.ID)
		c.Next()
	}
}

// RequireRole rejects requests whose actor does not hold the given role.
// Must run after RequireAuth.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		if actor.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "insufficient role"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor set by RequireAuth.
func ActorFrom(c *gin.Context) (*Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return nil, false
	}
	actor, ok := value.(*Actor)
	return actor, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
