package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func TestRecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOperation("closet", "create", nil)
	c.RecordOperation("closet", "create", nil)
	c.RecordOperation("closet", "create", errors.New("boom"))

	mf := findMetric(t, reg, "wardrobe_repository_operations_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}

	for _, m := range mf.GetMetric() {
		var result string
		for _, l := range m.GetLabel() {
			if l.GetName() == "result" {
				result = l.GetValue()
			}
		}
		want := 2.0
		if result == "error" {
			want = 1
		}
		if got := m.GetCounter().GetValue(); got != want {
			t.Errorf("%s operations = %v, want %v", result, got, want)
		}
	}
}

func TestRecordWearFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWearFailures(3)

	mf := findMetric(t, reg, "wardrobe_wear_fanout_failures_total")
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("wear failures = %v, want 3", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest("GET", "/api/v1/items", 200, 15*time.Millisecond)
	c.RecordUploadFailure("closet")
	c.RecordDriftRepaired("closet")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to scrape: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{
		"wardrobe_http_requests_total",
		"wardrobe_http_request_duration_seconds",
		"wardrobe_upload_failures_total",
		"wardrobe_counter_drift_repaired_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in scrape output", name)
		}
	}
}
