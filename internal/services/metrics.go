// Prometheus collectors for the application core. Transport-level metrics
// live in the HTTP middleware; these count domain events so dashboards can
// watch chat and favorites behavior independent of request traffic.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// chatsCreated counts first-contact chat creations.
	chatsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petty_chats_created_total",
		Help: "Total number of chat documents created on first contact.",
	})

	// messagesSent counts successfully appended messages.
	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "petty_messages_sent_total",
		Help: "Total number of chat messages appended.",
	})

	// orphanedFavorites tracks how many favorites the most recent validation
	// pass classified as orphaned, per user scan.
	orphanedFavorites = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "petty_orphaned_favorites_per_scan",
		Help:    "Orphaned favorite entries detected per validation pass.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
	})

	// droppedDocuments counts per-item decode failures filtered out of lists.
	droppedDocuments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "petty_dropped_documents_total",
		Help: "Documents dropped from list results because they failed to decode.",
	}, []string{"entity"})
)

func init() {
	prometheus.MustRegister(chatsCreated, messagesSent, orphanedFavorites, droppedDocuments)
}
