// Package metrics holds the Prometheus collectors for certificate lookups.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every collector below is registered with
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		LookupTotal,
		LookupDuration,
		ProcessRunsTotal,
		StartTLSTotal,
		IssuerFetchTotal,
		BuildInfo,
	)
}

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

var (
	// Lookup metrics

	// LookupTotal counts answered questions per driver and outcome
	LookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certshow",
		Name:      "lookup_total",
		Help:      "Total number of certificate lookups",
	}, []string{"driver", "result"})

	// LookupDuration tracks the time spent answering one question
	LookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "certshow",
		Name:      "lookup_duration_seconds",
		Help:      "Duration of a single certificate lookup in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"driver"})

	// Strategy metrics

	// ProcessRunsTotal counts external toolkit invocations
	ProcessRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certshow",
		Name:      "process_runs_total",
		Help:      "Total number of external TLS toolkit invocations",
	}, []string{"step", "status"})

	// StartTLSTotal counts STARTTLS negotiations
	StartTLSTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certshow",
		Name:      "starttls_total",
		Help:      "Total number of STARTTLS negotiations",
	}, []string{"protocol", "result"})

	// IssuerFetchTotal counts id-ad-caIssuers downloads
	IssuerFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certshow",
		Name:      "issuer_fetch_total",
		Help:      "Total number of issuer certificate downloads",
	}, []string{"status"})

	// BuildInfo provides build metadata
	BuildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certshow",
		Name:      "build_info",
		Help:      "Build information",
	}, []string{"version"})
)

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Outcome returns the result label for a completed lookup. Errors the
// driver reports as an empty result are failures; any other error aborts
// the batch and is labelled as an error.
func Outcome(err error, recoverable func(error) bool) string {
	switch {
	case err == nil:
		return ResultSuccess
	case recoverable != nil && recoverable(err):
		return ResultFailure
	default:
		return ResultError
	}
}
