package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 90},
		},
		[]string{"method", "endpoint"},
	)

	ConversationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "conversations_started_total",
			Help:      "Conversations created, by language and level",
		},
		[]string{"language", "level"},
	)

	ConversationsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "conversations_completed_total",
			Help:      "Conversations that reached their last human turn",
		},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "turn_submissions_total",
			Help:      "Turn submissions by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "turn_score",
			Help:      "Score given to accepted turn submissions",
			Buckets:   []float64{10, 20, 35, 55, 75, 90, 100},
		},
	)

	TurnCommitConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "turn_commit_conflicts_total",
			Help:      "Turn commits rejected because the conversation moved on",
		},
	)

	GeneratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "babel",
			Subsystem: "session_api",
			Name:      "dialogue_generation_seconds",
			Help:      "Dialogue generation latency in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 90},
		},
		[]string{"status"},
	)
)

// ConversationRecorder reports conversation lifecycle events to Prometheus.
type ConversationRecorder struct{}

func (ConversationRecorder) ConversationStarted(language, level string) {
	ConversationsStarted.WithLabelValues(language, level).Inc()
}

func (ConversationRecorder) ConversationCompleted() {
	ConversationsCompleted.Inc()
}

func (ConversationRecorder) TurnSubmitted(outcome string, score int) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "accepted" {
		SubmissionScore.Observe(float64(score))
	}
}

func (ConversationRecorder) CommitConflict() {
	TurnCommitConflicts.Inc()
}

// RecordGeneration records how long a dialogue generation call took.
func RecordGeneration(status string, seconds float64) {
	GeneratorDuration.WithLabelValues(status).Observe(seconds)
}
