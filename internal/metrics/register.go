package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	pending      []prometheus.Collector
)

// register queues collectors declared in this package; each metrics file calls it from init.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister hands the queued collectors to the default registry. Calls after the first do nothing.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(pending...)
	})
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
