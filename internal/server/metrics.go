// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the stub's collectors. Each server owns its own registry so
// several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	chatMessages   prometheus.Counter
	quizzesStarted *prometheus.CounterVec
	quizzesDone    *prometheus.CounterVec
	reflections    prometheus.Counter
	rateLimited    prometheus.Counter
	csrfRejected   prometheus.Counter
	sessions       prometheus.Gauge
}

// NewMetrics registers the stub's collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mentari_stub_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mentari_stub_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		chatMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "mentari_stub_chat_messages_total",
			Help: "Chat messages answered.",
		}),
		quizzesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mentari_stub_quizzes_started_total",
			Help: "Quizzes started by topic.",
		}, []string{"topic"}),
		quizzesDone: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mentari_stub_quizzes_completed_total",
			Help: "Quizzes completed by topic.",
		}, []string{"topic"}),
		reflections: factory.NewCounter(prometheus.CounterOpts{
			Name: "mentari_stub_reflections_total",
			Help: "Random appearances served.",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "mentari_stub_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		csrfRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "mentari_stub_csrf_rejected_total",
			Help: "Chat posts rejected for a missing or wrong CSRF token.",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mentari_stub_sessions",
			Help: "Live chat sessions.",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observe(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
