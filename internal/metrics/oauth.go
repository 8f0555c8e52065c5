package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OAuth flow metrics. Defined in a standalone package to avoid import
// cycles between the auth manager and anything that exposes a registry.

var (
	AuthorizeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_authorize_total",
		Help: "Intentos de autorización completos por provider y resultado",
	}, []string{"provider", "result"})

	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_token_refresh_total",
		Help: "Refresh de tokens por provider y resultado",
	}, []string{"provider", "result"})

	RefreshLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "oauth_token_refresh_latency_ms",
		Help:    "Latencia del grant refresh_token en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Result labels. Un set chico y estable: los dashboards agrupan por esto.
const (
	ResultOK           = "ok"
	ResultBindFailed   = "bind_failed"
	ResultTimeout      = "timeout"
	ResultStateError   = "state_mismatch"
	ResultProviderErr  = "provider_error"
	ResultNetworkError = "network_error"
	ResultReauth       = "reauth_required"
	ResultOther        = "other"
)

// Register registers the oauth metrics on the given registry (or default
// if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthorizeTotal, RefreshTotal, RefreshLatency} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
