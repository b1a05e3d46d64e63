package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motor-insurance/internal/metrics"
)

func TestRequestLogger(t *testing.T) {
	hook := test.NewGlobal()
	t.Cleanup(hook.Reset)

	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(m))
	r.Get("/api/vehicles/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/vehicles/65f000000000000000000001", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/vehicles/{id}", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, log.WarnLevel, entries[0].Level)
	assert.Equal(t, 404, entries[0].Data["status"])
	assert.NotEmpty(t, entries[0].Data["request_id"])
	assert.Equal(t, log.InfoLevel, entries[1].Level)
}
