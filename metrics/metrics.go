// Package metrics exposes prometheus counters for the automation loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExecutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dca_executions_total", Help: "Successful DCA executions"},
	)
	ExecutionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dca_execution_failures_total", Help: "Failed DCA attempts"},
		[]string{"reason"},
	)
	ExecutionSkips = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dca_execution_skips_total", Help: "Attempts skipped because the interval had not elapsed"},
	)
	NativeReceivedWei = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dca_native_received_wei_total", Help: "Native currency received across executions, in wei"},
	)
)

func init() {
	prometheus.MustRegister(ExecutionsTotal, ExecutionFailures, ExecutionSkips, NativeReceivedWei)
}

// Serve starts a /metrics endpoint in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
