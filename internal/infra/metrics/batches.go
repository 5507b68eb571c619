package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		batchesPreparedTotal,
		documentsValidatedTotal,
		chunksPublishedTotal,
	)
}

var (
	batchesPreparedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batches_prepared_total",
			Help: "Batches accepted by the preparer, labeled by resulting status.",
		},
		[]string{"status"}, // 'ready', 'completed'
	)

	documentsValidatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_validated_total",
			Help: "Documents judged during batch validation.",
		},
		[]string{"result"}, // 'valid', 'invalid'
	)

	chunksPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunks_published_total",
			Help: "Queue messages published by the preparer, labeled by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'error'
	)
)

func IncBatchPrepared(status string) {
	batchesPreparedTotal.WithLabelValues(norm(status)).Inc()
}

func AddDocumentsValidated(result string, n int) {
	documentsValidatedTotal.WithLabelValues(norm(result)).Add(float64(n))
}

func IncChunkPublished(outcome string) {
	chunksPublishedTotal.WithLabelValues(norm(outcome)).Inc()
}
