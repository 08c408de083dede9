package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// CatalogLoads counts emote catalog loads.
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoterelay_catalog_loads_total",
			Help: "Total number of emote catalog loads.",
		},
		[]string{"provider", "scope", "status"}, // status: success, error
	)

	// EmoteTableSize reports the number of names in each provider table.
	EmoteTableSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "emoterelay_emote_table_size",
			Help: "Number of emote names known per channel and provider.",
		},
		[]string{"channel", "provider"},
	)

	// MessagesRendered counts messages passed through the pipeline.
	MessagesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoterelay_messages_rendered_total",
			Help: "Total number of chat messages rendered or stripped.",
		},
		[]string{"channel", "mode"}, // mode: render, strip
	)

	// RelayCalls counts calls to the relay target.
	RelayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoterelay_relay_calls_total",
			Help: "Total number of relay calls.",
		},
		[]string{"method", "status"}, // status: success, error, skipped
	)

	// ActiveSessions reports the number of live channel sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "emoterelay_active_sessions",
			Help: "Number of channel sessions held in memory.",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer starts the Prometheus metrics HTTP server.
func StartServer(addr string) {
	if addr == "" {
		log.Info().Msg("Metrics server address not configured, Prometheus endpoint will not be available.")
		return
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", Handler())

	log.Info().Str("address", addr).Msg("Starting Prometheus metrics server")
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Prometheus metrics server failed")
		}
	}()
}
