package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterWorkoutsCompleted prometheus.Counter
	CounterWorkoutsCancelled prometheus.Counter
	CounterFallbacksConsumed prometheus.Counter
	CounterStreaksBroken     prometheus.Counter

	// gauges
	GaugeCurrentStreak prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("habits", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("habits", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterWorkoutsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_completed",
		Help:      "The total number of finished workout sessions",
	})
	counterWorkoutsCancelled := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_cancelled",
		Help:      "The total number of abandoned workout sessions",
	})
	counterFallbacksConsumed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fallbacks_consumed",
		Help:      "The total number of fallbacks spent on missed days",
	})
	counterStreaksBroken := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "streaks_broken",
		Help:      "The total number of streaks reset by a missed day",
	})

	gaugeCurrentStreak := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_streak",
		Help:      "Current streak length in days",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.00001, 0.0001, 0.0005, 0.001, 0.005,
				0.01, 0.05, 0.1, 0.5, 1, 10,
			},
			Name: "request_duration_seconds",
			Help: "Total duration of requests in seconds",
		},
	)

	return &Manager{
		CounterRequests:          counterRequests,
		CounterWorkoutsCompleted: counterWorkoutsCompleted,
		CounterWorkoutsCancelled: counterWorkoutsCancelled,
		CounterFallbacksConsumed: counterFallbacksConsumed,
		CounterStreaksBroken:     counterStreaksBroken,
		GaugeCurrentStreak:       gaugeCurrentStreak,
		HistRequestDuration:      histReqDuration,
	}
}
