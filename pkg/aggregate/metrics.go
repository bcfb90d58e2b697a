package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coolbeans/mdatool/pkg/keyword"
)

// Metrics holds batch counters. Register it on a caller-owned registry so
// separate runs do not share state.
type Metrics struct {
	documents    *prometheus.CounterVec
	retries      prometheus.Counter
	words        prometheus.Counter
	keywordHits  *prometheus.CounterVec
	sectionBytes prometheus.Histogram
}

// NewMetrics creates the batch counters and registers them.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdatool",
			Name:      "documents_total",
			Help:      "Filings handled by outcome and cause.",
		}, []string{"status", "cause"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mdatool",
			Name:      "section_retries_total",
			Help:      "Section searches re-entered after an implausibly short match.",
		}),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mdatool",
			Name:      "words_total",
			Help:      "Whitespace tokens counted across processed filings.",
		}),
		keywordHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdatool",
			Name:      "keyword_hits_total",
			Help:      "Keyword occurrences across processed filings.",
		}, []string{"keyword"}),
		sectionBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mdatool",
			Name:      "section_bytes",
			Help:      "Size of located MD&A sections in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 8),
		}),
	}

	registerer.MustRegister(
		metrics.documents,
		metrics.retries,
		metrics.words,
		metrics.keywordHits,
		metrics.sectionBytes,
	)
	return metrics
}

// Observe records one document outcome.
func (metrics *Metrics) Observe(entry Entry, record *Record, spec keyword.Spec) {
	metrics.documents.WithLabelValues(string(entry.Status), string(entry.Cause)).Inc()
	if entry.Retried {
		metrics.retries.Inc()
	}
	if entry.SectionBytes > 0 {
		metrics.sectionBytes.Observe(float64(entry.SectionBytes))
	}
	if record == nil {
		return
	}

	metrics.words.Add(float64(record.TotalWords))
	for index, count := range record.Counts {
		if index >= len(spec) {
			break
		}
		metrics.keywordHits.WithLabelValues(spec[index].Text).Add(float64(count))
	}
}
