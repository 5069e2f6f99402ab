package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizcraze/quiz-service/internal/models"
	"github.com/quizcraze/quiz-service/internal/utils"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier := NewStaticVerifier(map[string]Actor{
		"teacher-token": {ID: "t1", Name: "Prof", Role: models.RoleTeacher},
		"student-token": {ID: "s1", Name: "Ada", Role: models.RoleStudent},
	})
	logger := utils.NewSlogLogger(slog.New(slog.DiscardHandler))

	router := gin.New()
	authed := router.Group("/", RequireAuth(verifier, logger))
	authed.GET("/whoami", func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID})
	})
	authed.GET("/teachers-only", RequireRole(models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func doRequest(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	router := newAuthRouter(t)

	t.Run("valid bearer token", func(t *testing.T) {
		w := doRequest(router, "/whoami", "Bearer student-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"s1"}`, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(router, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		w := doRequest(router, "/whoami", "Bearer bogus")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed scheme", func(t *testing.T) {
		w := doRequest(router, "/whoami", "Basic student-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	router := newAuthRouter(t)

	t.Run("matching role passes", func(t *testing.T) {
		w := doRequest(router, "/teachers-only", "Bearer teacher-token")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("wrong role forbidden", func(t *testing.T) {
		w := doRequest(router, "/teachers-only", "Bearer student-token")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
