package metrics

import "github.com/prometheus/client_golang/prometheus"

// Application metrics, registered by the metrics server at startup.
var (
	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamify_events_processed_total",
			Help: "Total number of domain events routed into rule evaluation",
		},
		[]string{"game"},
	)

	AwardsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamify_awards_emitted_total",
			Help: "Total number of award notifications emitted",
		},
		[]string{"game", "kind"},
	)

	EvaluationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamify_evaluation_errors_total",
			Help: "Total number of per-rule evaluation failures (skipped events)",
		},
		[]string{"game"},
	)

	MessagesAcked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamify_messages_acked_total",
			Help: "Total number of inbound broker messages acknowledged",
		},
	)

	MessagesNacked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamify_messages_nacked_total",
			Help: "Total number of inbound broker messages negatively acknowledged",
		},
	)

	PoisonMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamify_poison_messages_total",
			Help: "Total number of structurally invalid messages dropped",
		},
	)

	ActiveGames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamify_active_games",
			Help: "Number of games currently in RUNNING state",
		},
	)
)

// Register adds all application collectors to the given registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		EventsProcessed,
		AwardsEmitted,
		EvaluationErrors,
		MessagesAcked,
		MessagesNacked,
		PoisonMessages,
		ActiveGames,
	)
}
