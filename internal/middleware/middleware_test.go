package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(60, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per client")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"), "one token refills per second at 60/min")

	now = now.Add(time.Hour)
	limiter.Allow("10.0.0.3")
	assert.Len(t, limiter.visitors, 1, "idle buckets are dropped")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/auth/token", NewIPRateLimiter(1, 1).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestMetricsExposesRouteTemplate(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Instrument())
	r.GET("/employees/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/employees/123", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/employees/:id",status="200"} 1`)
}

func TestMetricsSettleAfterPanic(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), m.Instrument())
	r.GET("/boom", func(c *gin.Context) { panic("nil map") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, promtestutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/boom", "500")))
}

func TestTracingRecordsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := gin.New()
	r.Use(Tracing(tp))
	r.GET("/policy/:id", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/policy/7", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /policy/:id", spans[0].Name())
	var status int64
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "http.response.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	assert.EqualValues(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

func TestRecoveryReturnsGenericError(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("db handle is nil") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"An unexpected error occurred"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "db handle")
}

func newIdempotentRouter(t *testing.T) (*gin.Engine, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	r := gin.New()
	r.Use(Idempotency(NewRedisCache(client, zap.NewNop())))
	r.POST("/policy/create_new_policy", func(c *gin.Context) {
		calls++
		if c.Query("fail") != "" {
			c.JSON(http.StatusConflict, gin.H{"detail": "duplicate"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})
	return r, &calls
}

func postWithKey(r *gin.Engine, target, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	r, calls := newIdempotentRouter(t)

	first := postWithKey(r, "/policy/create_new_policy", "abc")
	second := postWithKey(r, "/policy/create_new_policy", "abc")

	assert.Equal(t, 1, *calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

	postWithKey(r, "/policy/create_new_policy", "other")
	postWithKey(r, "/policy/create_new_policy", "")
	assert.Equal(t, 3, *calls)
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	r, calls := newIdempotentRouter(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/policy/create_new_policy", strings.NewReader(body))
		req.Header.Set(IdempotencyHeader, "reused")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusCreated, post(`{"title":"Leave"}`).Code)

	w := post(`{"title":"Travel"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"detail":"Idempotency-Key was reused with a different request body"}`, w.Body.String())
	assert.Equal(t, 1, *calls)

	replay := post(`{"title":"Leave"}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, *calls)
}

func TestIdempotencySkipsFailures(t *testing.T) {
	r, calls := newIdempotentRouter(t)

	postWithKey(r, "/policy/create_new_policy?fail=1", "k")
	postWithKey(r, "/policy/create_new_policy?fail=1", "k")
	assert.Equal(t, 2, *calls)
}

func TestIdempotencyDisabledWithoutCache(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(Idempotency(nil))
	r.POST("/x", func(c *gin.Context) { calls++; c.Status(http.StatusCreated) })

	postWithKey(r, "/x", "k")
	postWithKey(r, "/x", "k")
	assert.Equal(t, 2, calls)
}
