package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(messagesConsumedTotal, messagesReclaimedTotal)
}

var (
	messagesConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_consumed_total",
			Help: "Queue messages handled by workers, labeled by outcome.",
		},
		[]string{"outcome"}, // 'acked', 'redelivery'
	)

	messagesReclaimedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_messages_reclaimed_total",
			Help: "Messages reclaimed after exceeding the visibility timeout.",
		},
	)
)

func IncMessageConsumed(outcome string) {
	messagesConsumedTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddMessagesReclaimed(n int) { messagesReclaimedTotal.Add(float64(n)) }
