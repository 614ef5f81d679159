package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jqjjian/ad-workflow-sub001/pkg/metrics"
)

func TestGinMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New("middleware-test")

	router := gin.New()
	router.Use(GinMetricsMiddleware(m))
	router.GET("/orders/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	// 标签使用路由模板，路径参数不展开
	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/orders/:id", "200"))
	assert.Equal(t, float64(3), count)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-such-route", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
