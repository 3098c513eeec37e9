package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmgate",
			Name:      "proxy_requests_total",
			Help:      "Total number of proxied requests by provider and upstream status.",
		},
		[]string{"provider", "status"},
	)

	ProxyTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmgate",
			Name:      "proxy_tokens_total",
			Help:      "Total tokens accounted by provider and direction (prompt/completion).",
		},
		[]string{"provider", "direction"},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmgate",
			Name:      "upstream_errors_total",
			Help:      "Total upstream connectivity failures by provider.",
		},
		[]string{"provider"},
	)

	LedgerWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llmgate",
			Name:      "ledger_write_failures_total",
			Help:      "Total usage ledger writes that failed after a response was forwarded.",
		},
	)
)
