package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		commandsTotal,
		statusShownTotal,
		sessionsStartedTotal,
		filesDroppedTotal,
	)
}

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_chat_commands_total",
			Help: "Console commands entered, plain questions count as 'ask'.",
		},
		[]string{"command"},
	)

	statusShownTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_chat_status_shown_total",
			Help: "Status banners shown by kind.",
		},
		[]string{"kind"}, // success|error|info|warning
	)

	sessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rag_chat_sessions_started_total",
			Help: "Sessions explicitly started by the user.",
		},
	)

	filesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_chat_files_dropped_total",
			Help: "Files seen in the drop folder by outcome.",
		},
		[]string{"result"}, // queued|ignored
	)
)

func IncCommand(command string) {
	commandsTotal.WithLabelValues(norm(command)).Inc()
}

func IncStatusShown(kind string) {
	statusShownTotal.WithLabelValues(norm(kind)).Inc()
}

func IncSessionStarted() {
	sessionsStartedTotal.Inc()
}

func IncFileDropped(result string) {
	filesDroppedTotal.WithLabelValues(norm(result)).Inc()
}
