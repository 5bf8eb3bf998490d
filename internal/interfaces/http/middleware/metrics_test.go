package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// newMetricsRouter wires the middleware in front of the cron and
// webhook routes the server actually exposes.
func newMetricsRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.POST("/tracking-update", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.POST("/affiliate-approve-cron", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"approved": 0})
	})
	return router
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	router := newMetricsRouter(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/tracking-update", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_NilMeterProvider(t *testing.T) {
	router := newMetricsRouter(HTTPMetrics(HTTPMetricsConfig{Enabled: true, MeterProvider: nil}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/tracking-update", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsWithMeter_Disabled(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := newMetricsRouter(HTTPMetricsWithMeter(mp.Meter("test"), false))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/tracking-update", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	rm := collectMetrics(t, reader)
	assert.Nil(t, findMetricByName(rm, "http_server_request_total"))
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := newMetricsRouter(HTTPMetricsWithMeter(mp.Meter("test"), true))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/tracking-update", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}

func TestHTTPMetricsWithMeter_StatusCodeLabel(t *testing.T) {
	mp, reader := setupTestMeter(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test"), true))
	router.POST("/tracking-update", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/tracking-update", nil)
	router.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	status, found := sum.DataPoints[0].Attributes.Value("http.status_code")
	require.True(t, found)
	assert.Equal(t, int64(http.StatusNotFound), status.AsInt64())
}

func TestHTTPMetricsWithMeter_RouteLabelUsesPattern(t *testing.T) {
	mp, reader := setupTestMeter(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test"), true))
	router.GET("/api/v1/orders/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/orders/ab12", nil)
	router.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	route, found := sum.DataPoints[0].Attributes.Value("http.route")
	require.True(t, found)
	assert.Equal(t, "/api/v1/orders/:id", route.AsString())
}

func TestHTTPMetricsWithMeter_RequestDuration(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := newMetricsRouter(HTTPMetricsWithMeter(mp.Meter("test"), true))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/affiliate-approve-cron", nil)
	router.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, m)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestHTTPMetricsWithMeter_BodySizes(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := newMetricsRouter(HTTPMetricsWithMeter(mp.Meter("test"), true))

	body := strings.NewReader(`{"order_id":"ord-1","tracking_number":"T-1","carrier":"ups","status":"shipped"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/tracking-update", body)
	router.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)

	reqSize := findMetricByName(rm, "http_server_request_size_bytes")
	require.NotNil(t, reqSize)
	reqHist, ok := reqSize.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, reqHist.DataPoints, 1)
	assert.Greater(t, reqHist.DataPoints[0].Sum, float64(0))

	respSize := findMetricByName(rm, "http_server_response_size_bytes")
	require.NotNil(t, respSize)
	respHist, ok := respSize.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, respHist.DataPoints, 1)
	assert.Greater(t, respHist.DataPoints[0].Sum, float64(0))
}

func TestHTTPMetricsWithMeter_ActiveRequests(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := newMetricsRouter(HTTPMetricsWithMeter(mp.Meter("test"), true))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/tracking-update", nil)
	router.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	// The request has completed, so the in-flight count is back to zero.
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestGetRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("matched route returns the pattern", func(t *testing.T) {
		router := gin.New()
		router.GET("/api/v1/orders/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"route": getRoutePattern(c)})
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/orders/123", nil)
		router.ServeHTTP(w, req)

		assert.Contains(t, w.Body.String(), "/api/v1/orders/:id")
	})

	t.Run("unmatched route collapses to unknown", func(t *testing.T) {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"route": getRoutePattern(c)})
			c.Abort()
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/nonexistent", nil)
		router.ServeHTTP(w, req)

		assert.Contains(t, w.Body.String(), "unknown")
	})
}

func TestGetRequestSize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		contentLength int64
		expected      int64
	}{
		{"declared length", 100, 100},
		{"empty body", 0, 0},
		{"unknown length", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int64
			router := gin.New()
			router.POST("/tracking-update", func(c *gin.Context) {
				got = getRequestSize(c)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/tracking-update", nil)
			req.ContentLength = tt.contentLength
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDefaultHTTPMetricsConfig(t *testing.T) {
	cfg := DefaultHTTPMetricsConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "storefront-backend", cfg.ServiceName)
}
