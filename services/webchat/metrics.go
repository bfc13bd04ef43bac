// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package webchat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "comsolagent"

// Metrics holds the Prometheus metrics for the web chat surface.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
type Metrics struct {
	// TurnsTotal counts processed user turns by status.
	// Labels: status (success, model_error, bad_request)
	TurnsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures wall time per user turn.
	TurnDurationSeconds prometheus.Histogram

	// ModelErrorsTotal counts model boundary failures.
	ModelErrorsTotal prometheus.Counter
}

// NewMetrics registers the web chat metrics on reg. Pass nil to use the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Processed user turns by status.",
		}, []string{"status"}),
		TurnDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Wall time per user turn, including tool batches.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ModelErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "model_errors_total",
			Help:      "Model boundary failures surfaced to the client.",
		}),
	}
}
