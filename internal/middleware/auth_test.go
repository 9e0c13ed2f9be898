package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-storefront/pkg/apperror"
	"go-storefront/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth struct {
	tokens *jwt.Manager
	denied map[string]bool
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*jwt.Claims, error) {
	claims, err := f.tokens.ParseToken(token)
	if err != nil || f.denied[claims.ID] {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func newRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	r := gin.New()
	r.GET("/public", Auth(auth, log, false), func(c *gin.Context) {
		id, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
	})
	r.GET("/private", Auth(auth, log, false), RequireLogin(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(KeyUsername))
	})
	r.GET("/admin", Auth(auth, log, true), RequireRole(log, "staff", "admin"), func(c *gin.Context) {
		c.String(http.StatusOK, "welcome")
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour, "test")
	auth := &fakeAuth{tokens: tokens, denied: map[string]bool{}}
	r := newRouter(auth)

	userToken, _, err := tokens.GenerateToken(7, "ana", "user")
	require.NoError(t, err)
	staffToken, staffClaims, err := tokens.GenerateToken(8, "ben", "staff")
	require.NoError(t, err)

	w := get(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"ok":false}`, w.Body.String())

	w = get(r, "/public", userToken)
	assert.JSONEq(t, `{"id":7,"ok":true}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/public", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "").Code)
	assert.Equal(t, "ana", get(r, "/private", userToken).Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", userToken).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", staffToken).Code)

	auth.denied[staffClaims.ID] = true
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", staffToken).Code)
}

func TestMalformedHeader(t *testing.T) {
	r := newRouter(&fakeAuth{tokens: jwt.NewManager("secret", time.Hour, "test")})
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
