package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the chatbot's Prometheus metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Answers           *prometheus.CounterVec
	RewriteFallbacks  prometheus.Counter
	EvidenceFallbacks *prometheus.CounterVec
	Unanswered        *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	SinkFailures      *prometheus.CounterVec
	CorpusReloads     *prometheus.CounterVec
	Failures          *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Answers returned, by domain and outcome",
			},
			[]string{"domain", "outcome"},
		),
		RewriteFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rewrite_fallbacks_total",
				Help:      "Queries searched unchanged because rewriting failed",
			},
		),
		EvidenceFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evidence_fallbacks_total",
				Help:      "Questions refused for lack of evidence",
			},
			[]string{"domain"},
		),
		Unanswered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unanswered_total",
				Help:      "Generated answers classified as unanswered",
			},
			[]string{"domain"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		SinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "log_sink_failures_total",
				Help:      "Log rows that could not be written",
			},
			[]string{"stream"},
		),
		CorpusReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "corpus_reloads_total",
				Help:      "Corpus reload attempts by result",
			},
			[]string{"result"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answer_failures_total",
				Help:      "Failed answers, split into upstream model or index errors and everything else",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		c.Answers,
		c.RewriteFallbacks,
		c.EvidenceFallbacks,
		c.Unanswered,
		c.StageDuration,
		c.SinkFailures,
		c.CorpusReloads,
		c.Failures,
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveAnswer(domain, outcome string) {
	if c == nil {
		return
	}
	c.Answers.WithLabelValues(domain, outcome).Inc()
}

func (c *Collector) ObserveRewriteFallback() {
	if c == nil {
		return
	}
	c.RewriteFallbacks.Inc()
}

func (c *Collector) ObserveEvidenceFallback(domain string) {
	if c == nil {
		return
	}
	c.EvidenceFallbacks.WithLabelValues(domain).Inc()
}

func (c *Collector) ObserveUnanswered(domain string) {
	if c == nil {
		return
	}
	c.Unanswered.WithLabelValues(domain).Inc()
}

func (c *Collector) ObserveStage(stage string, started time.Time) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

func (c *Collector) ObserveSinkFailure(stream string) {
	if c == nil {
		return
	}
	c.SinkFailures.WithLabelValues(stream).Inc()
}

func (c *Collector) ObserveReload(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.CorpusReloads.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveFailure(kind string) {
	if c == nil {
		return
	}
	c.Failures.WithLabelValues(kind).Inc()
}
