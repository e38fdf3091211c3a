package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/intakehq/prospector/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CompaniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospector_companies_total",
			Help: "Companies processed, labelled by enrichment outcome",
		},
		[]string{"outcome"},
	)

	EnrichDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prospector_enrich_duration_seconds",
			Help:    "Wall time spent enriching one company",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	ChallengesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_challenges_total",
			Help: "Bot challenge pages encountered on the primary backend",
		},
	)

	FallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_search_fallbacks_total",
			Help: "Searches answered by the secondary backend",
		},
	)

	ContactsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospector_contacts_total",
			Help: "Contact facts harvested, labelled by kind",
		},
		[]string{"kind"},
	)
)

// RecordCompany updates the counters from one finalized result.
func RecordCompany(res *model.CompanyResult, d time.Duration) {
	if res == nil {
		return
	}

	outcome := "empty"
	switch {
	case res.Website != "":
		outcome = "resolved"
	case len(res.Emails) > 0 || len(res.Phones) > 0:
		outcome = "partial"
	}

	CompaniesTotal.WithLabelValues(outcome).Inc()
	EnrichDuration.Observe(d.Seconds())
	ContactsTotal.WithLabelValues("email").Add(float64(len(res.Emails)))
	ContactsTotal.WithLabelValues("phone").Add(float64(len(res.Phones)))
	ContactsTotal.WithLabelValues("social").Add(float64(len(res.SocialLinks)))
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
