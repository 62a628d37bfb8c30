package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuoteMetrics records pricing quote activity.
type QuoteMetrics struct {
	duration  *prometheus.HistogramVec
	quotes    *prometheus.CounterVec
	cacheHit  prometheus.Counter
	cacheMiss prometheus.Counter
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_duration_seconds",
		Help:    "Duration of quote evaluations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_total",
		Help: "Quotes served, by rule kind.",
	}, []string{"kind"})
	cacheHit := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rule_cache_hits_total",
		Help: "Rule definitions served from the cache.",
	})
	cacheMiss := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rule_cache_misses_total",
		Help: "Rule definitions loaded from the database.",
	})
	reg.MustRegister(duration, quotes, cacheHit, cacheMiss)
	return &QuoteMetrics{
		duration:  duration,
		quotes:    quotes,
		cacheHit:  cacheHit,
		cacheMiss: cacheMiss,
	}
}

// ObserveQuote records one served quote and its evaluation time.
func (q *QuoteMetrics) ObserveQuote(kind string, duration time.Duration) {
	if q == nil || q.quotes == nil {
		return
	}
	label := normalizeLabel(kind)
	q.quotes.WithLabelValues(label).Inc()
	q.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncCacheHit counts a rule served from the cache.
func (q *QuoteMetrics) IncCacheHit() {
	if q == nil || q.cacheHit == nil {
		return
	}
	q.cacheHit.Inc()
}

// IncCacheMiss counts a rule loaded from the database.
func (q *QuoteMetrics) IncCacheMiss() {
	if q == nil || q.cacheMiss == nil {
		return
	}
	q.cacheMiss.Inc()
}

func normalizeLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}
