package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// solvesTotal counts solves by outcome: ok, problems or error.
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solvent_solver_solves_total",
		Help: "Total solves by outcome",
	}, []string{"outcome"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solvent_solver_solve_duration_seconds",
		Help:    "Solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	})

	solveRules = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solvent_solver_rules",
		Help:    "Number of rules generated per solve",
		Buckets: []float64{10, 100, 1000, 10000, 100000, 1000000},
	})

	// solveConflicts tracks conflicts hit by the search, learnt rules included.
	solveConflicts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solvent_solver_conflicts",
		Help:    "Number of search conflicts per solve",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000},
	})

	problemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solvent_solver_problems_total",
		Help: "Total problems reported by rule kind",
	}, []string{"kind"})
)
