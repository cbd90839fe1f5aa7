package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"spechub/pkg/utils"
)

func testTokens() TokenService {
	return TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "spechub-test",
		Duration: time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ts := testTokens()

	token, exp, err := ts.Sign("admin")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "spechub-test", claims.Issuer)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	ts := testTokens()
	token, _, err := ts.Sign("admin")
	require.NoError(t, err)

	other := TokenService{Secret: []byte("other-secret"), Issuer: ts.Issuer, Duration: ts.Duration}
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func newLoginRouter(t *testing.T, password string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := utils.AuthConfig{
		AdminUser:         "admin",
		AdminPasswordHash: string(hash),
	}
	h := NewHandler(testTokens(), cfg)

	router := gin.New()
	h.RegisterRoutes(router.Group("/auth"))
	return router
}

func TestLogin(t *testing.T) {
	router := newLoginRouter(t, "hunter2")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"admin","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := newLoginRouter(t, "hunter2")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := testTokens()

	router := gin.New()
	protected := router.Group("/admin")
	protected.Use(AuthMiddleware(ts))
	protected.GET("/ping", func(c *gin.Context) {
		claims := MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user": claims.Username})
	})

	// no token
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// valid token
	token, _, err := ts.Sign("admin")
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin")
}
