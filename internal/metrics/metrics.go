// Package metrics exposes Prometheus counters for countdown activity.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	Transitions        *prometheus.CounterVec
	TransitionsAborted *prometheus.CounterVec
	RemindersSent      prometheus.Counter
	IgnoredTokens      *prometheus.CounterVec
	LiveEvents         prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		Transitions = promauto.NewCounterVec(prometheus.CounterOpts{Name: "countdown_transitions_total", Help: "Countdown lifecycle transitions by kind"}, []string{"kind"})
		TransitionsAborted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "countdown_transitions_aborted_total", Help: "Transitions abandoned before completion"}, []string{"kind", "reason"})
		RemindersSent = promauto.NewCounter(prometheus.CounterOpts{Name: "countdown_reminders_sent_total", Help: "Pre-expiry reminders sent"})
		IgnoredTokens = promauto.NewCounterVec(prometheus.CounterOpts{Name: "countdown_ignored_tokens_total", Help: "Command tokens that were not used"}, []string{"reason"})
		LiveEvents = promauto.NewGauge(prometheus.GaugeOpts{Name: "countdown_live_events", Help: "Countdowns currently tracked"})
	})
}

// Transition counts a completed lifecycle transition.
func Transition(kind string) {
	if Transitions != nil {
		Transitions.WithLabelValues(kind).Inc()
	}
}

// Aborted counts a transition that stopped early.
func Aborted(kind, reason string) {
	if TransitionsAborted != nil {
		TransitionsAborted.WithLabelValues(kind, reason).Inc()
	}
}

// Reminder counts one sent reminder.
func Reminder() {
	if RemindersSent != nil {
		RemindersSent.Inc()
	}
}

// IgnoredToken counts an unrecognized or duplicate command token.
func IgnoredToken(reason string) {
	if IgnoredTokens != nil {
		IgnoredTokens.WithLabelValues(reason).Inc()
	}
}

// SetLiveEvents records the number of tracked countdowns.
func SetLiveEvents(n int) {
	if LiveEvents != nil {
		LiveEvents.Set(float64(n))
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", "error", err)
	}
}
