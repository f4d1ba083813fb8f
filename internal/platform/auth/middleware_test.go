package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func protectedRouter(secret []byte, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{RequireAuth(secret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserIDKey),
			"role":    c.GetString(CtxRoleKey),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func get(r *gin.Engine, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	secret := []byte("test-secret")
	r := protectedRouter(secret)

	token := signToken(t, secret, jwt.MapClaims{
		"sub":  "alice",
		"role": "staff",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"user_id":"alice"`)
	assert.Contains(t, w.Body.String(), `"role":"staff"`)
}

func TestRequireAuthRejectsBadRequests(t *testing.T) {
	secret := []byte("test-secret")
	r := protectedRouter(secret)

	// ヘッダなし / 形式不正 / 空トークン
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer ").Code)

	// 別の鍵で署名されたトークン
	forged := signToken(t, []byte("other-secret"), jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+forged).Code)

	// 期限切れ
	expired := signToken(t, secret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+expired).Code)

	// sub なし
	noSub := signToken(t, secret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+noSub).Code)
}

func TestRequireRole(t *testing.T) {
	secret := []byte("test-secret")
	r := protectedRouter(secret, RequireRole("admin"))

	staff := signToken(t, secret, jwt.MapClaims{
		"sub":  "bob",
		"role": "staff",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusForbidden, get(r, "Bearer "+staff).Code)

	admin := signToken(t, secret, jwt.MapClaims{
		"sub":  "carol",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+admin).Code)
}
