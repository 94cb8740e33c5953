// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"errors"
	"net/http"
	"time"

	"carvel.dev/ytpl/pkg/template"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ytpl"

// Metrics exports template lifecycle events to Prometheus.
// Each instance owns its collectors so that several can coexist (e.g. in tests).
type Metrics struct {
	registry *prometheus.Registry

	templatesParsed      *prometheus.CounterVec
	templateParseSeconds prometheus.Histogram
	templateCacheHits    prometheus.Counter
	templatesRendered    *prometheus.CounterVec
	templateRenderSecs   prometheus.Histogram
	includeFailures      *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ template.Observer = &Metrics{}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		templatesParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "templates_parsed_total",
			Help:      "Total number of parsed templates",
		}, []string{"result"}),

		templateParseSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "template_parse_duration_seconds",
			Help:      "Template parse duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		templateCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_cache_hits_total",
			Help:      "Total number of included templates found in the template cache",
		}),

		templatesRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "templates_rendered_total",
			Help:      "Total number of rendered templates",
		}, []string{"result"}),

		templateRenderSecs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "template_render_duration_seconds",
			Help:      "Template render duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		includeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "include_failures_total",
			Help:      "Total number of include failures, counted once where each failure originates",
		}, []string{"kind"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TemplateParsed(_ string, dur time.Duration, diags template.Diagnostics) {
	m.templatesParsed.WithLabelValues(resultLabel(diags.HasErrors())).Inc()
	m.templateParseSeconds.Observe(dur.Seconds())
}

func (m *Metrics) TemplateCacheHit(string) {
	m.templateCacheHits.Inc()
}

func (m *Metrics) TemplateRendered(_ string, dur time.Duration, err error) {
	m.templatesRendered.WithLabelValues(resultLabel(err != nil)).Inc()
	m.templateRenderSecs.Observe(dur.Seconds())
}

func (m *Metrics) IncludeFailed(_ string, err error) {
	m.includeFailures.WithLabelValues(KindLabel(err)).Inc()
}

func resultLabel(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}

var kindLabels = []struct {
	kind  error
	label string
}{
	{template.ErrInvalidState, "invalid_state"},
	{template.ErrArity, "arity"},
	{template.ErrConversion, "conversion"},
	{template.ErrEmptyName, "empty_name"},
	{template.ErrEmptyPath, "empty_path"},
	{template.ErrConfiguration, "configuration"},
	{template.ErrLoad, "load"},
	{template.ErrIncludeParse, "include_parse"},
	{template.ErrRecursiveInclude, "recursive_include"},
	{template.ErrEvaluation, "evaluation"},
}

// KindLabel names the failure kind of err for use as a metric label.
func KindLabel(err error) string {
	for _, kl := range kindLabels {
		if errors.Is(err, kl.kind) {
			return kl.label
		}
	}
	return "other"
}
