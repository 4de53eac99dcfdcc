package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmbarbier/blueprint/internal/config"
	"github.com/jmbarbier/blueprint/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) *services.AuthService {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc, err := services.NewAuthService(config.AuthConfig{
		Enabled:     true,
		Secret:      "test-secret-key",
		ExpiryHours: 1,
	}, logger)
	require.NoError(t, err)
	return svc
}

func protectedRouter(auth *services.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(NewAuthMiddleware(auth).RequireAuth())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": c.GetString("client_id")})
	})
	return router
}

func TestRequireAuth(t *testing.T) {
	auth := newTestAuthService(t)
	router := protectedRouter(auth)

	t.Run("valid token passes and sets client identity", func(t *testing.T) {
		token, _, err := auth.IssueToken("reporting")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "reporting")
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header is required")
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic something")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Bearer")
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		other, err := services.NewAuthService(config.AuthConfig{
			Enabled:     true,
			Secret:      "a-different-secret",
			ExpiryHours: 1,
		}, logger)
		require.NoError(t, err)

		token, _, err := other.IssueToken("reporting")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
