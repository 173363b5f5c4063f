package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.registry == nil {
		t.Fatal("registry is nil")
	}
}

func TestRecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest("recommend", 200, 50*time.Millisecond)
	m.RecordRequest("recommend", 200, 100*time.Millisecond)
	m.RecordRequest("recommend", 400, 5*time.Millisecond)

	// Check counter
	val := counterValue(t, m.RequestsTotal, "endpoint", "recommend", "status", "200")
	if val != 2 {
		t.Errorf("expected 2 requests with status 200, got %f", val)
	}

	val = counterValue(t, m.RequestsTotal, "endpoint", "recommend", "status", "400")
	if val != 1 {
		t.Errorf("expected 1 request with status 400, got %f", val)
	}
}

func TestRecordRecommendation(t *testing.T) {
	m := New()
	m.RecordRecommendation("ranked", 8)
	m.RecordRecommendation("ranked", 3)
	m.RecordRecommendation("fallback", 8)

	rankedVal := counterValue(t, m.RecommendationsServed, "path", "ranked")
	if rankedVal != 2 {
		t.Errorf("expected 2 ranked responses, got %f", rankedVal)
	}

	fallbackVal := counterValue(t, m.RecommendationsServed, "path", "fallback")
	if fallbackVal != 1 {
		t.Errorf("expected 1 fallback response, got %f", fallbackVal)
	}
}

func TestRecordRecommendation_EmptyResult(t *testing.T) {
	m := New()
	// Should not panic on zero-size results
	m.RecordRecommendation("fallback", 0)
}

func TestRecordSnapshotBuild(t *testing.T) {
	m := New()
	m.RecordSnapshotBuild(120, 4500, 250*time.Millisecond)
	m.RecordSnapshotBuild(121, 4510, 300*time.Millisecond)

	var metric dto.Metric
	if err := m.SnapshotBuilds.Write(&metric); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if metric.GetCounter().GetValue() != 2 {
		t.Errorf("expected 2 snapshot builds, got %f", metric.GetCounter().GetValue())
	}

	if err := m.CatalogProducts.Write(&metric); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	if metric.GetGauge().GetValue() != 121 {
		t.Errorf("expected catalog gauge 121, got %f", metric.GetGauge().GetValue())
	}

	if err := m.VocabularySize.Write(&metric); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	if metric.GetGauge().GetValue() != 4510 {
		t.Errorf("expected vocabulary gauge 4510, got %f", metric.GetGauge().GetValue())
	}
}

func TestMiddleware(t *testing.T) {
	m := New()

	handler := m.Middleware("recommend", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/recommend", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	val := counterValue(t, m.RequestsTotal, "endpoint", "recommend", "status", "200")
	if val != 1 {
		t.Errorf("expected 1 request recorded, got %f", val)
	}
}

func TestMiddleware_ErrorStatus(t *testing.T) {
	m := New()

	handler := m.Middleware("recommend", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/recommend", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	val := counterValue(t, m.RequestsTotal, "endpoint", "recommend", "status", "400")
	if val != 1 {
		t.Errorf("expected 1 request with status 400, got %f", val)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordRequest("recommend", 200, 10*time.Millisecond)
	m.RecordRecommendation("ranked", 8)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "kindred_requests_total") {
		t.Error("metrics output missing kindred_requests_total")
	}
	if !strings.Contains(body, "kindred_recommendations_total") {
		t.Error("metrics output missing kindred_recommendations_total")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("metrics output missing go runtime metrics")
	}
}

func TestActiveRequests(t *testing.T) {
	m := New()

	started := make(chan struct{})
	release := make(chan struct{})

	handler := m.Middleware("recommend", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/recommend", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}()

	<-started

	var metric dto.Metric
	if err := m.ActiveRequests.Write(&metric); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	if metric.GetGauge().GetValue() != 1 {
		t.Errorf("expected 1 active request, got %f", metric.GetGauge().GetValue())
	}

	close(release)
}

// counterValue extracts the value of a counter with the given label pairs.
func counterValue(t *testing.T, cv *prometheus.CounterVec, labelPairs ...string) float64 {
	t.Helper()
	labels := prometheus.Labels{}
	for i := 0; i < len(labelPairs); i += 2 {
		labels[labelPairs[i]] = labelPairs[i+1]
	}
	counter, err := cv.GetMetricWith(labels)
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}
