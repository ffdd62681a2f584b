package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.EntriesPosted == nil || m.PostingDuration == nil || m.FailuresRecorded == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.EntriesPosted.Inc()
	m.ObserveDuration("post", time.Now())
	m.CountError("post", "unbalanced")

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.EntriesPosted); got != 1 {
		t.Fatalf("expected entries posted = 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.PostingErrors.WithLabelValues("post", "unbalanced")); got != 1 {
		t.Fatalf("expected one posting error, got %v", got)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	m.ObserveDuration("post", time.Now())
	m.CountError("post", "x")
}
