package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/pkg/auth"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	gin.SetMode(gin.TestMode)

	jwtService, err := auth.NewJWTService("test-secret-key", 1)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", NewAuthMiddleware(jwtService).RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return router, jwtService
}

// ============================================================================
// RequireAuth
// ============================================================================

func TestRequireAuth_ValidBearerToken(t *testing.T) {
	router, jwtService := setupAuthRouter(t)

	token, err := jwtService.GenerateToken(42, "+77001234567")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestRequireAuth_TokenInQueryForWebsocket(t *testing.T) {
	router, jwtService := setupAuthRouter(t)

	token, err := jwtService.GenerateToken(7, "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_missing")
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	router, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abcdef")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_format")
}

func TestRequireAuth_TokenSignedWithOtherKey(t *testing.T) {
	router, _ := setupAuthRouter(t)

	otherService, err := auth.NewJWTService("another-secret", 1)
	require.NoError(t, err)
	token, err := otherService.GenerateToken(42, "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_invalid")
}

// ============================================================================
// TrackActivity
// ============================================================================

type recordingTracker struct {
	touched []uint
}

func (r *recordingTracker) TouchDaily(userID uint) {
	r.touched = append(r.touched, userID)
}

func TestTrackActivity_TouchesAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tracker := &recordingTracker{}
	router := gin.New()
	router.GET("/x", func(c *gin.Context) { c.Set("user_id", uint(11)) }, TrackActivity(tracker), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, []uint{11}, tracker.touched)
}

func TestTrackActivity_SkipsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tracker := &recordingTracker{}
	router := gin.New()
	router.GET("/x", TrackActivity(tracker), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Empty(t, tracker.touched)
}
