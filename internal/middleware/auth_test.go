package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManishBastola/bank-app/internal/middleware"
	"github.com/ManishBastola/bank-app/pkg/authtoken"
)

func setupRouter(codec *authtoken.Codec) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.IdentityFilter(codec))

	r.GET("/open", func(c *gin.Context) {
		_, ok := middleware.ClaimFromCtx(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	r.GET("/protected", func(c *gin.Context) {
		claim, ok := middleware.RequireIdentity(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"userID": claim.UserID, "role": claim.Role})
	})
	return r
}

func TestIdentityFilter_AnonymousPassesThrough(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-key"))
	r := setupRouter(codec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated": false}`, w.Body.String())
}

func TestIdentityFilter_AnonymousRejectedOnProtected(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-key"))
	r := setupRouter(codec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityFilter_ValidTokenAttachesClaim(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-key"))
	r := setupRouter(codec)

	token, err := codec.Issue("alice", 42, "CUSTOMER", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID": 42, "role": "CUSTOMER"}`, w.Body.String())
}

func TestIdentityFilter_BadFormatRejected(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-key"))
	r := setupRouter(codec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityFilter_ExpiredTokenRejected(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-key"))
	r := setupRouter(codec)

	token, err := codec.Issue("alice", 42, "CUSTOMER", -time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestIdentityFilter_TamperedTokenRejected(t *testing.T) {
	codec := authtoken.NewCodec("bank-app", []byte("test-key"))
	other := authtoken.NewCodec("bank-app", []byte("other-key"))
	r := setupRouter(codec)

	token, err := other.Issue("alice", 42, "CUSTOMER", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
