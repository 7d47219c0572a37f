// Package metrics exposes Prometheus counters for update handling, access
// decisions, AI replies and currency lookups.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the bot's collectors.
type Metrics struct {
	UpdatesTotal   *prometheus.CounterVec
	DeniedTotal    *prometheus.CounterVec
	AIRepliesTotal *prometheus.CounterVec
	RateLookups    *prometheus.CounterVec
	LookupDuration prometheus.Histogram
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide collectors, registering them on first use.
func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			UpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rublebot",
				Name:      "telegram_updates_total",
				Help:      "Total telegram updates processed, by update type",
			}, []string{"type"}),
			DeniedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rublebot",
				Name:      "access_denied_total",
				Help:      "Requests refused by the allow-list, by handler",
			}, []string{"handler"}),
			AIRepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rublebot",
				Name:      "ai_replies_total",
				Help:      "AI backend calls, by result",
			}, []string{"result"}),
			RateLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rublebot",
				Name:      "rate_lookups_total",
				Help:      "Exchange rate lookups, by currency and result",
			}, []string{"currency", "result"}),
			LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "rublebot",
				Name:      "rate_lookup_duration_seconds",
				Help:      "Duration of exchange rate lookups",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			global.UpdatesTotal,
			global.DeniedTotal,
			global.AIRepliesTotal,
			global.RateLookups,
			global.LookupDuration,
		)
	})
	return global
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result labels shared by the counters.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
