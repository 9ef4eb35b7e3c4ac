package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LocationsProcessed *prometheus.CounterVec
	PlacesRequests     *prometheus.CounterVec
	APIErrors          prometheus.Counter
	RequestSeconds     *prometheus.HistogramVec
	ActiveWorkers      prometheus.Gauge
	LeadsAccepted      prometheus.Counter
	LeadsFiltered      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		LocationsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_locations_processed_total",
			Help: "Total number of processed search locations.",
		}, []string{"status"}),
		PlacesRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_places_requests_total",
			Help: "Total number of requests issued to the places API.",
		}, []string{"kind"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "leadgen_provider_api_errors_total",
			Help: "Total number of errors received from external provider APIs.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadgen_provider_request_duration_seconds",
			Help:    "Duration of requests to external provider APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "leadgen_active_workers",
			Help: "Current number of active workers processing locations.",
		}),
		LeadsAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "leadgen_leads_accepted_total",
			Help: "Total number of business records accepted after deduplication.",
		}),
		LeadsFiltered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "leadgen_leads_filtered_total",
			Help: "Total number of business records rejected as invalid or duplicate.",
		}),
	}
}
