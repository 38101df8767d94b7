package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/exam-engine-api/internal/service"
	"github.com/yourusername/exam-engine-api/pkg/auth"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "middleware-test-secret"

func newJWT(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(testSecret, "exam-engine", logger.Nop())
	require.NoError(t, err)
	return svc
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Тело ответа должно быть JSON: %s", w.Body.String())
	return resp
}

// ============================================================================
// RequireAuth / RequireRole
// ============================================================================

func TestRequireAuth_Rejections(t *testing.T) {
	jwtService := newJWT(t)
	expired, err := jwtService.GenerateToken(uuid.New(), "a@b.c", service.RoleStudent, -time.Minute)
	require.NoError(t, err)

	other, err := auth.NewJWTService("another-secret", "exam-engine", logger.Nop())
	require.NoError(t, err)
	foreign, err := other.GenerateToken(uuid.New(), "a@b.c", service.RoleStudent, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name          string
		header        string
		wantErrorType string
	}{
		{name: "no header", header: "", wantErrorType: "token_missing"},
		{name: "not bearer", header: "Basic abc", wantErrorType: "token_format"},
		{name: "empty bearer", header: "Bearer ", wantErrorType: "token_format"},
		{name: "garbage token", header: "Bearer not-a-jwt", wantErrorType: "token_invalid"},
		{name: "foreign signature", header: "Bearer " + foreign, wantErrorType: "token_invalid"},
		{name: "expired", header: "Bearer " + expired, wantErrorType: "token_expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(jwtService)
			r := gin.New()
			reached := false
			r.GET("/p", m.RequireAuth(), func(c *gin.Context) { reached = true })

			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, reached, "Обработчик не должен вызываться")
			assert.Equal(t, tt.wantErrorType, parseBody(t, w)["error_type"])
		})
	}
}

func TestRequireAuth_SetsActor(t *testing.T) {
	// Arrange
	jwtService := newJWT(t)
	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID, "prof@lms.test", service.RoleInstructor, time.Hour)
	require.NoError(t, err)

	m := NewAuthMiddleware(jwtService)
	r := gin.New()
	var got service.Actor
	var ok bool
	r.GET("/p", m.RequireAuth(), func(c *gin.Context) {
		got, ok = ActorFromContext(c)
		c.Status(http.StatusNoContent)
	})

	// Act
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, ok, "Актор должен быть в контексте")
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, service.RoleInstructor, got.Role)
	assert.True(t, got.IsStaff())
}

func TestRequireAuth_DefaultsToStudentRole(t *testing.T) {
	jwtService := newJWT(t)
	token, err := jwtService.GenerateToken(uuid.New(), "s@lms.test", "", time.Hour)
	require.NoError(t, err)

	m := NewAuthMiddleware(jwtService)
	r := gin.New()
	var role interface{}
	r.GET("/p", m.RequireAuth(), func(c *gin.Context) {
		role, _ = c.Get(RoleKey)
	})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, service.RoleStudent, role)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		setRole    bool
		wantStatus int
	}{
		{name: "instructor allowed", role: service.RoleInstructor, setRole: true, wantStatus: http.StatusOK},
		{name: "admin allowed", role: service.RoleAdmin, setRole: true, wantStatus: http.StatusOK},
		{name: "student forbidden", role: service.RoleStudent, setRole: true, wantStatus: http.StatusForbidden},
		{name: "no role", setRole: false, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(nil)
			r := gin.New()
			r.GET("/p", func(c *gin.Context) {
				if tt.setRole {
					c.Set(RoleKey, tt.role)
				}
			}, m.RequireRole(service.RoleAdmin, service.RoleInstructor), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// ============================================================================
// ExtractUUIDParam
// ============================================================================

func TestExtractUUIDParam(t *testing.T) {
	valid := uuid.New()
	tests := []struct {
		name       string
		param      string
		wantStatus int
	}{
		{name: "valid", param: valid.String(), wantStatus: http.StatusOK},
		{name: "not uuid", param: "42", wantStatus: http.StatusBadRequest},
		{name: "nil uuid", param: uuid.Nil.String(), wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			var got interface{}
			r.GET("/evaluations/:id", ExtractUUIDParam("id", "evaluationID"), func(c *gin.Context) {
				got, _ = c.Get("evaluationID")
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/evaluations/"+tt.param, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, valid, got)
			} else {
				resp := parseBody(t, w)
				assert.Equal(t, "validation", resp["error_type"])
				assert.Equal(t, "Invalid id", resp["error"])
			}
		})
	}
}

// ============================================================================
// RateLimiter
// ============================================================================

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *mockCache) Increment(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	args := m.Called(ctx, key, expiration)
	return args.Error(0)
}

func (m *mockCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *mockCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func limitedRouter(rl *RateLimiter, cfg RateLimitConfig, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.POST("/attempts/:id/finish", func(c *gin.Context) {
		c.Set(UserIDKey, userID)
	}, rl.Limit(cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiter_FirstRequestSetsTTL(t *testing.T) {
	// Arrange
	cache := new(mockCache)
	userID := uuid.New()
	cfg := ExamRateLimitConfig(2, time.Minute)
	key := "rl:exam:user:" + userID.String() + ":/attempts/:id/finish"
	cache.On("Increment", mock.Anything, key).Return(int64(1), nil).Once()
	cache.On("Expire", mock.Anything, key, time.Minute).Return(nil).Once()

	r := limitedRouter(NewRateLimiter(cache, logger.Nop()), cfg, userID)

	// Act
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/attempts/"+uuid.NewString()+"/finish", nil))

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	cache.AssertExpectations(t)
}

func TestRateLimiter_Exceeded(t *testing.T) {
	// Arrange
	cache := new(mockCache)
	cfg := ExamRateLimitConfig(2, 30*time.Second)
	cache.On("Increment", mock.Anything, mock.AnythingOfType("string")).Return(int64(3), nil)

	r := limitedRouter(NewRateLimiter(cache, logger.Nop()), cfg, uuid.New())

	// Act
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/attempts/"+uuid.NewString()+"/finish", nil))

	// Assert
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	resp := parseBody(t, w)
	assert.Equal(t, "rate_limited", resp["error_type"])
	assert.Equal(t, float64(30), resp["retry_after"])
	cache.AssertNotCalled(t, "Expire", mock.Anything, mock.Anything, mock.Anything)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	cache := new(mockCache)
	cache.On("Increment", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), errors.New("redis down"))

	r := limitedRouter(NewRateLimiter(cache, logger.Nop()), ExamRateLimitConfig(1, time.Minute), uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/attempts/"+uuid.NewString()+"/finish", nil))

	assert.Equal(t, http.StatusOK, w.Code, "При недоступном Redis запрос должен пропускаться")
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestExamRateLimitConfig_Defaults(t *testing.T) {
	cfg := ExamRateLimitConfig(0, 0)
	assert.Equal(t, 10, cfg.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, "rl:exam", cfg.KeyPrefix)
}

// ============================================================================
// Metrics / RequestLogger
// ============================================================================

type observation struct {
	method, route, status string
}

type recordingObserver struct {
	mu  sync.Mutex
	got []observation
}

func (o *recordingObserver) ObserveHTTP(method, route, status string, took time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, observation{method, route, status})
}

func TestMetrics_ObservesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/attempts/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/attempts/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Len(t, observer.got, 2)
	assert.Equal(t, observation{"GET", "/attempts/:id", "202"}, observer.got[0])
	assert.Equal(t, observation{"GET", "unmatched", "404"}, observer.got[1])
}

func TestMetrics_NilObserverPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Metrics(nil), RequestLogger(logger.Nop()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
