package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"toolkithub/internal/config"
	"toolkithub/internal/models"
	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

const testSecret = "middleware-secret"

func newAuthenticator(t *testing.T) (*Authenticator, services.AdminService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := services.NewAdminService(&config.Config{
		AdminID:           "root",
		AdminPasswordHash: string(hash),
		JWTSecret:         testSecret,
	}, nil)
	return NewAuthenticator(testSecret, admin), admin
}

// echoIdentity echoes the identities found in the request context.
func echoIdentity(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.UserIDFromContext(r.Context())
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":  userID.Hex(),
		"admin": utils.IsAdmin(r.Context()),
	})
}

func adminLogin(t *testing.T, admin services.AdminService) string {
	t.Helper()
	session, err := admin.Login(context.Background(), models.AdminLoginRequestBody{ID: "root", Password: "pw"}, "test")
	require.NoError(t, err)
	return session.Token
}

func TestAuthMiddleware(t *testing.T) {
	auth, admin := newAuthenticator(t)
	handler := auth.AuthMiddleware(http.HandlerFunc(echoIdentity))

	userID := primitive.NewObjectID()
	userToken, err := utils.GenerateJWT([]byte(testSecret), userID)
	require.NoError(t, err)

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), userID.Hex())
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: UserTokenCookie, Value: userToken})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		forged, err := utils.GenerateJWT([]byte("other"), userID)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin token is not a user token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+adminLogin(t, admin))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired user token with admin session", func(t *testing.T) {
		stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &utils.Claims{
			ID: userID.Hex(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: UserTokenCookie, Value: stale})
		req.Header.Set(AdminTokenHeader, adminLogin(t, admin))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"admin":true`)
		assert.NotContains(t, rec.Body.String(), userID.Hex())

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: UserTokenCookie, Value: stale})
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin session alone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(AdminTokenHeader, adminLogin(t, admin))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"admin":true`)
	})
}

func TestOptionalAuth(t *testing.T) {
	auth, _ := newAuthenticator(t)
	handler := auth.OptionalAuth(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"admin":false`)
}

func TestAdminMiddleware(t *testing.T) {
	auth, admin := newAuthenticator(t)
	handler := auth.AdminMiddleware(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: adminLogin(t, admin)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	expired, err := utils.GenerateAdminJWT([]byte(testSecret), "root", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AdminTokenHeader, expired)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")

	disabled := NewAuthenticator(testSecret, services.NewAdminService(&config.Config{JWTSecret: testSecret}, nil))
	rec = httptest.NewRecorder()
	disabled.AdminMiddleware(http.HandlerFunc(echoIdentity)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCors(t *testing.T) {
	handler := Cors([]string{"https://hub.example"})(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodOptions, "/api/tools", nil)
	req.Header.Set("Origin", "https://hub.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://hub.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), AdminTokenHeader)

	req = httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := limiter.RateLimit(http.HandlerFunc(echoIdentity))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.8:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	limiter.sweep(-time.Second)
	assert.Empty(t, limiter.visitors)
}
