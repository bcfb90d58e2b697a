package aggregate

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/coolbeans/mdatool/pkg/keyword"
)

// gather returns metric families by name.
func gather(t *testing.T, registry *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}
	return byName
}

func counterValue(family *dto.MetricFamily, labels map[string]string) float64 {
	if family == nil {
		return 0
	}
	for _, metric := range family.GetMetric() {
		matches := true
		for _, pair := range metric.GetLabel() {
			if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
				matches = false
			}
		}
		if matches {
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_ObserveBatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	aggregator := New(Config{Mode: ModeSection, Keywords: keyword.ParseSpec("growth"), Logger: discardLogger})
	batch := NewBatch(aggregator, batchFixture(), BatchConfig{Workers: 2, Metrics: metrics, Logger: discardLogger})

	_, err := batch.Run(context.Background(), []string{
		"ACME_0001_2001_20010315.txt",
		"BETA_0002_2002_20020401.txt",
		"NOMDA_0003_2003_20030101.txt",
		"broken.txt",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	families := gather(t, registry)

	documents := families["mdatool_documents_total"]
	if value := counterValue(documents, map[string]string{"status": "processed", "cause": ""}); value != 2 {
		t.Errorf("processed = %v, want 2", value)
	}
	if value := counterValue(documents, map[string]string{"status": "skipped", "cause": "section_not_found"}); value != 1 {
		t.Errorf("skipped = %v, want 1", value)
	}
	if value := counterValue(documents, map[string]string{"status": "failed", "cause": "malformed_identifier"}); value != 1 {
		t.Errorf("failed = %v, want 1", value)
	}

	if value := counterValue(families["mdatool_keyword_hits_total"], map[string]string{"keyword": "growth"}); value != 7 {
		t.Errorf("growth hits = %v, want 7", value)
	}

	histogram := families["mdatool_section_bytes"]
	if histogram == nil || histogram.GetMetric()[0].GetHistogram().GetSampleCount() != 2 {
		t.Errorf("expected two section size observations, got %v", histogram)
	}
}

func TestMetrics_ObserveRetriedRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	spec := keyword.ParseSpec("profit")
	metrics.Observe(Entry{Status: StatusProcessed, Retried: true, SectionBytes: 1500}, &Record{TotalWords: 10, Counts: []int{4}}, spec)
	metrics.Observe(Entry{Status: StatusSkipped, Cause: CauseSectionNotFound}, nil, spec)

	families := gather(t, registry)
	if value := counterValue(families["mdatool_section_retries_total"], nil); value != 1 {
		t.Errorf("retries = %v, want 1", value)
	}
	if value := counterValue(families["mdatool_words_total"], nil); value != 10 {
		t.Errorf("words = %v, want 10", value)
	}
	if value := counterValue(families["mdatool_keyword_hits_total"], map[string]string{"keyword": "profit"}); value != 4 {
		t.Errorf("profit hits = %v, want 4", value)
	}
}
