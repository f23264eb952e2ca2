package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/coursekit/quizflow/internal/metrics"
)

func TestMiddlewareLabelsStatusWithCode(t *testing.T) {
	m := metrics.New("test")

	notFound := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	notFound.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/nope", nil))
	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "404")); got != 1 {
		t.Fatalf("requests{method=GET,status=404} = %v", got)
	}

	// Handlers that never call WriteHeader count as 200.
	ok := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "200")); got != 1 {
		t.Fatalf("requests{method=GET,status=200} = %v", got)
	}
}
