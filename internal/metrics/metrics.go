package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_bets_placed_total",
		Help: "Bets admitted by the placement workflow.",
	})

	BetsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_bets_settled_total",
		Help: "Bets resolved by the settlement workflow.",
	}, []string{"result"})

	BetsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_bets_deleted_total",
		Help: "Bets removed, including settled-bet rollbacks.",
	})

	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sessions_closed_total",
		Help: "Sessions transitioned OPEN to CLOSED.",
	})
)

type HealthFunc func(ctx context.Context) error

// StartServer runs a small HTTP server for /metrics and /healthz on its own
// port, separate from the public API.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
