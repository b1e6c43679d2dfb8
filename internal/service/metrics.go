// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "deepcog"

// Metrics holds the client's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	framesReceived  *prometheus.CounterVec
	framesMalformed prometheus.Counter
	promptsSent     prometheus.Counter
	imageRequests   *prometheus.CounterVec
	streamState     prometheus.Gauge
}

// NewMetrics creates collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stream_frames_received_total",
			Help:      "Inbound stream frames by type.",
		}, []string{"type"}),
		framesMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stream_frames_malformed_total",
			Help:      "Inbound frames dropped because they could not be decoded.",
		}),
		promptsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stream_prompts_sent_total",
			Help:      "Prompt frames written to the text stream.",
		}),
		imageRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "image_requests_total",
			Help:      "Image generation requests by outcome.",
		}, []string{"outcome"}),
		streamState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stream_state",
			Help:      "Text stream state (0 unconnected, 1 connecting, 2 open, 3 closed).",
		}),
	}
	m.registry.MustRegister(
		m.framesReceived,
		m.framesMalformed,
		m.promptsSent,
		m.imageRequests,
		m.streamState,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) frameReceived(frameType string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(frameType).Inc()
}

func (m *Metrics) frameMalformed() {
	if m == nil {
		return
	}
	m.framesMalformed.Inc()
}

func (m *Metrics) promptSent() {
	if m == nil {
		return
	}
	m.promptsSent.Inc()
}

func (m *Metrics) imageRequest(outcome string) {
	if m == nil {
		return
	}
	m.imageRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setStreamState(s State) {
	if m == nil {
		return
	}
	m.streamState.Set(float64(s))
}
