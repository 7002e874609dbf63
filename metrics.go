package pagereader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of paging readers. Every series is
// labelled with the reader name. A nil *Metrics records nothing.
type Metrics struct {
	PagesFetched  *prometheus.CounterVec
	ItemsRead     *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Checkpoints   *prometheus.CounterVec
}

// NewMetrics registers the reader collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagereader_pages_fetched_total",
				Help: "Total number of pages fetched from the store",
			},
			[]string{"reader"},
		),
		ItemsRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagereader_items_read_total",
				Help: "Total number of items handed to workers",
			},
			[]string{"reader"},
		),
		FetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagereader_fetch_errors_total",
				Help: "Total number of failed page fetches",
			},
			[]string{"reader", "kind"}, // "data_access", "mapping"
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagereader_page_fetch_duration_seconds",
				Help:    "Page fetch duration, including the store round trip",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"reader"},
		),
		Checkpoints: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagereader_checkpoints_total",
				Help: "Total number of cursor checkpoints written",
			},
			[]string{"reader", "position"}, // "current", "pending"
		),
	}
}

func (m *Metrics) observeFetch(reader string, took time.Duration) {
	if m == nil {
		return
	}

	m.PagesFetched.WithLabelValues(reader).Inc()
	m.FetchDuration.WithLabelValues(reader).Observe(took.Seconds())
}

func (m *Metrics) observeFetchError(reader, kind string) {
	if m == nil {
		return
	}

	m.FetchErrors.WithLabelValues(reader, kind).Inc()
}

func (m *Metrics) observeRead(reader string) {
	if m == nil {
		return
	}

	m.ItemsRead.WithLabelValues(reader).Inc()
}

func (m *Metrics) observeCheckpoint(reader, position string) {
	if m == nil {
		return
	}

	m.Checkpoints.WithLabelValues(reader, position).Inc()
}
