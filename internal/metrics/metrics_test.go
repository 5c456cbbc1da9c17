package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-token-auth/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordAuth(t *testing.T) {
	m := metrics.New()

	m.RecordAuth("sign_in", "success")
	m.RecordAuth("sign_in", "success")
	m.RecordAuth("sign_in", "invalid_credentials")

	require.Equal(t, 2.0, testutil.ToFloat64(m.AuthCounter("sign_in", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AuthCounter("sign_in", "invalid_credentials")))
}

func TestInstrument(t *testing.T) {
	m := metrics.New()
	h := m.Instrument("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter(http.MethodPost, "/auth/refresh", "401")))
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.RecordAuth("refresh", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `auth_operations_total{operation="refresh",outcome="success"} 1`)
}
