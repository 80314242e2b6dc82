package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/wellbeat/internal/middleware"
	"github.com/hitoshi/wellbeat/internal/model"
)

// mockUserFinder はmiddleware.UserFinderのモック。
type mockUserFinder struct {
	findFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return &model.User{ID: id, Active: true}, nil
}

// mockHealthChecker はHealthCheckerのモック。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(_ context.Context) error { return m.err }

func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()
	if deps.UserFinder == nil {
		deps.UserFinder = &mockUserFinder{}
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		t.Cleanup(deps.RateLimiter.Stop)
	}
	if deps.AnalyzerService == nil {
		deps.AnalyzerService = &mockAnalyzerService{}
	}
	if deps.WellnessReader == nil {
		deps.WellnessReader = &mockWellnessReader{}
	}
	if deps.CORSAllowedOrigin == "" {
		deps.CORSAllowedOrigin = "http://localhost:3000"
	}
	return NewRouter(deps)
}

// /healthはDB疎通OKなら200を返すことを検証
func TestRouter_Health_OK(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{HealthChecker: &mockHealthChecker{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// /healthはDB疎通NGなら503を返すことを検証
func TestRouter_Health_Unhealthy(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		HealthChecker: &mockHealthChecker{err: errors.New("connection refused")},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// APIルートはX-User-IDなしでは401を返すことを検証
func TestRouter_APIRoutes_RequireIdentity(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	for _, target := range []string{
		"/api/wellness/scores",
		"/api/wellness/scores/latest",
		"/api/wellness/patterns",
		"/api/wellness/patterns/active",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", target, rec.Code)
		}
	}
}

// 未知のユーザーIDは401を返すことを検証
func TestRouter_UnknownUser_Unauthorized(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		UserFinder: &mockUserFinder{
			findFn: func(_ context.Context, _ string) (*model.User, error) {
				return nil, nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/wellness/scores/latest", nil)
	req.Header.Set("X-User-ID", "ghost")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// 識別済みユーザーのGETルートがハンドラーまで到達することを検証
func TestRouter_AuthedRoutes_Reachable(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	cases := []struct {
		target string
		want   int
	}{
		{"/api/wellness/scores", http.StatusOK},
		{"/api/wellness/scores/latest", http.StatusNotFound}, // スコア未記録
		{"/api/wellness/patterns", http.StatusOK},
		{"/api/wellness/patterns/active", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.target, rec.Code, tc.want)
		}
	}
}

// POST /api/wellness/analyze が分析サービスまで到達することを検証
func TestRouter_Analyze_Reachable(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := authedPost(t, "/api/wellness/analyze", `{"events": []}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

// /metricsがPrometheusテキストを返すことを検証
func TestRouter_Metrics_Exposed(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := newTestRouter(t, &RouterDeps{Gatherer: registry})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// セキュリティヘッダーが全レスポンスに付与されることを検証
func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func authedPost(t *testing.T, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("X-User-ID", "user-123")
	req.Header.Set("Content-Type", "application/json")
	return req
}
