// Copyright (C) 2025 AjithTao
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matcherMatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copilot",
		Subsystem: "matcher",
		Name:      "match_total",
		Help:      "Intent match outcomes: exact, fuzzy, none",
	}, []string{"outcome"})

	matcherBestScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "copilot",
		Subsystem: "matcher",
		Name:      "best_score",
		Help:      "Best fuzzy similarity score per query (including rejected ones)",
		Buckets:   []float64{0.3, 0.5, 0.7, 0.8, 0.82, 0.9, 0.95, 1.0},
	})

	extractorSlotsFilled = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "copilot",
		Subsystem: "extractor",
		Name:      "slots_filled",
		Help:      "Number of slots populated per query",
		Buckets:   []float64{0, 1, 2, 3, 4, 5, 7, 10},
	})

	extractorDirectoryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copilot",
		Subsystem: "extractor",
		Name:      "directory_errors_total",
		Help:      "Directory lookups degraded to empty by kind: projects, assignees",
	}, []string{"kind"})
)
