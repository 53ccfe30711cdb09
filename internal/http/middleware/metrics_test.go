package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabels_AndInflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/feedback/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "hello")
	})
	r.DELETE("/feedback/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	baseGet := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/feedback/:id", "200"))
	baseDel := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/feedback/:id", "204"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", UnmatchedRouteLabel, "404"))

	for _, tc := range []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/feedback/1", http.StatusOK},
		{http.MethodGet, "/feedback/2", http.StatusOK},
		{http.MethodDelete, "/feedback/3", http.StatusNoContent},
		{http.MethodGet, "/wp-admin/setup.php", http.StatusNotFound},
		{http.MethodGet, "/.env", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d; want %d", tc.method, tc.target, w.Code, tc.want)
		}
	}

	// ids collapse into the route template
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/feedback/:id", "200")); got != baseGet+2 {
		t.Fatalf("GET counter = %v; want %v", got, baseGet+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/feedback/:id", "204")); got != baseDel+1 {
		t.Fatalf("DELETE counter = %v; want %v", got, baseDel+1)
	}
	// random paths share a single series
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", UnmatchedRouteLabel, "404")); got != base404+2 {
		t.Fatalf("unmatched counter = %v; want %v", got, base404+2)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("httpInflight = %v; want 0", got)
	}
}
