package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/mybucks/internal/httputil"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(client)
	l.now = func() time.Time { return now }
	return l, mr, &now
}

func TestLimiter_AllowsUpToBudget(t *testing.T) {
	l, _, _ := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Name: "api", Requests: 3, Window: time.Minute}

	for i := 2; i >= 0; i-- {
		d, err := l.Allow(ctx, rule, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, i, d.Remaining)
	}

	d, err := l.Allow(ctx, rule, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	// other clients have their own budget
	d, err = l.Allow(ctx, rule, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_WindowSlides(t *testing.T) {
	l, _, now := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Name: "api", Requests: 2, Window: time.Minute}
	start := *now

	_, err := l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	*now = start.Add(30 * time.Second)
	_, err = l.Allow(ctx, rule, "ip")
	require.NoError(t, err)

	d, err := l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	assert.True(t, start.Add(time.Minute).Equal(d.ResetAt))

	// first request leaves the window
	*now = start.Add(61 * time.Second)
	d, err = l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_DeniedRequestsDoNotCount(t *testing.T) {
	l, _, now := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Name: "api", Requests: 1, Window: time.Minute}
	start := *now

	_, err := l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		*now = start.Add(time.Duration(i+1) * 10 * time.Second)
		d, err := l.Allow(ctx, rule, "ip")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	}

	*now = start.Add(61 * time.Second)
	d, err := l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_RulesAreIndependent(t *testing.T) {
	l, _, _ := newTestLimiter(t)
	ctx := context.Background()

	auth := Rule{Name: "auth", Requests: 1, Window: time.Minute}
	api := Rule{Name: "api", Requests: 1, Window: time.Minute}

	d, err := l.Allow(ctx, auth, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, api, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMiddleware_Headers(t *testing.T) {
	l, _, _ := newTestLimiter(t)
	rule := Rule{Name: "api", Requests: 1, Window: 15 * time.Minute}

	handler := l.Middleware(rule)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), httputil.CodeTooManyRequests)

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Equal(t, 900, retryAfter)

	// a different port on the same host shares the budget
	req.RemoteAddr = "10.0.0.1:6666"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	l, mr, _ := newTestLimiter(t)
	mr.Close()

	called := false
	handler := l.Middleware(Rule{Name: "api", Requests: 1, Window: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
