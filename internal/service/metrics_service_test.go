package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/mood", http.StatusOK, 15*time.Millisecond)
	m.RecordMood(4)
	m.RecordBooking("counselling")
	m.RecordReplenished("counselling", 8)
	m.RecordReplenished("counselling", 0)

	assert.Equal(t, 8.0, testutil.ToFloat64(m.slotsReplenished.WithLabelValues("counselling")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{"http_requests_total", "unisupport_mood_entries_total", "unisupport_appointments_booked_total"} {
		assert.True(t, strings.Contains(body, name), name)
	}
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordMood(1)
	m.RecordBooking("x")
	m.RecordCacheOperation(true, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
