package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supercore/supercore-api/internal/api/middleware"
	"github.com/supercore/supercore-api/internal/auth"
	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/utils"
)

const testSecret = "guard-test-secret"

type fakeProfileRepo struct {
	profiles map[string]*models.Profile
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return p, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func mintToken(t *testing.T, subject string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func guardedRouter(secret string, profiles *fakeProfileRepo, hit *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	resolver := auth.NewResolver(secret, "", "authenticated")
	r.GET("/admin", middleware.AdminAuth(resolver, profiles, quietLogger()), func(c *gin.Context) {
		*hit = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doReq(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errPayload(t *testing.T, w *httptest.ResponseRecorder) (code, msg string) {
	t.Helper()
	var body struct {
		Code          string `json:"code"`
		StatusMessage string `json:"statusMessage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code, body.StatusMessage
}

func TestAdminAuthNoToken(t *testing.T) {
	var hit bool
	r := guardedRouter(testSecret, &fakeProfileRepo{}, &hit)

	w := doReq(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	code, msg := errPayload(t, w)
	assert.Equal(t, "UNAUTHORIZED", code)
	assert.Equal(t, "未授权：请先登录", msg)
	assert.False(t, hit, "handler must not run")
}

func TestAdminAuthNonAdmin(t *testing.T) {
	sub := uuid.NewString()
	profiles := &fakeProfileRepo{profiles: map[string]*models.Profile{
		sub: {ID: sub, Email: "user@example.com", Role: "user"},
	}}

	var hit bool
	r := guardedRouter(testSecret, profiles, &hit)

	w := doReq(r, mintToken(t, sub))
	assert.Equal(t, http.StatusForbidden, w.Code)
	code, msg := errPayload(t, w)
	assert.Equal(t, "FORBIDDEN", code)
	assert.Equal(t, "禁止访问：需要管理员权限", msg)
	assert.False(t, hit)
}

func TestAdminAuthUnknownProfile(t *testing.T) {
	var hit bool
	r := guardedRouter(testSecret, &fakeProfileRepo{}, &hit)

	w := doReq(r, mintToken(t, uuid.NewString()))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, hit)
}

func TestAdminAuthAdminPasses(t *testing.T) {
	sub := uuid.NewString()
	profiles := &fakeProfileRepo{profiles: map[string]*models.Profile{
		sub: {ID: sub, Email: "admin@example.com", Role: "admin"},
	}}

	var hit bool
	r := guardedRouter(testSecret, profiles, &hit)

	w := doReq(r, mintToken(t, sub))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hit)
}

func TestAdminAuthMissingSecret(t *testing.T) {
	var hit bool
	r := guardedRouter("", &fakeProfileRepo{}, &hit)

	w := doReq(r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	code, _ := errPayload(t, w)
	assert.Equal(t, "INTERNAL", code)
	assert.False(t, hit)
}
