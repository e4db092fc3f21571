package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authEngine(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuthMiddleware(AuthConfig{Secret: testSecret})

	engine := gin.New()
	group := engine.Group("/", auth.Authenticate())
	if len(roles) > 0 {
		group.Use(auth.RequireRole(roles...))
	}
	group.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(ContextUserID)})
	})
	return engine
}

func doAuthed(engine *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	kind, _ := body["error"].(string)
	return kind
}

func TestAuthenticate(t *testing.T) {
	engine := authEngine()

	w := doAuthed(engine, signToken(t, testSecret, "scheduler"))
	require.Equal(t, http.StatusOK, w.Code)

	// The error kind must match the status, not default to BadRequest.
	w = doAuthed(engine, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", errorKind(t, w))

	w = doAuthed(engine, signToken(t, "wrong-secret", "scheduler"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", errorKind(t, w))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorKind(t, rec))
}

func TestRequireRole(t *testing.T) {
	engine := authEngine("admin")

	w := doAuthed(engine, signToken(t, testSecret, "admin"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doAuthed(engine, signToken(t, testSecret, "viewer"))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", errorKind(t, w))
}
