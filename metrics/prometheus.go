package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shardflow/shardflow-node/log"
)

var promLogger = log.NewModuleLogger(log.Metrics)

// gaugeFunc adapts a go-metrics snapshot into a prometheus.Collector by
// polling the registry on every scrape, avoiding a second bookkeeping path.
type gaugeFunc struct {
	desc *prometheus.Desc
	fn   func() float64
}

func (g *gaugeFunc) Describe(ch chan<- *prometheus.Desc) { ch <- g.desc }
func (g *gaugeFunc) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, g.fn())
}

// ServeHTTP starts a /metrics Prometheus scrape endpoint on addr, exporting
// every counter and gauge registered through NewRegisteredCounter/Gauge.
func ServeHTTP(addr string) {
	reg := prometheus.NewRegistry()
	registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case interface{ Count() int64 }:
			reg.MustRegister(&gaugeFunc{
				desc: prometheus.NewDesc(sanitize(name), name, nil, nil),
				fn:   func() float64 { return float64(m.Count()) },
			})
		case interface{ Value() int64 }:
			reg.MustRegister(&gaugeFunc{
				desc: prometheus.NewDesc(sanitize(name), name, nil, nil),
				fn:   func() float64 { return float64(m.Value()) },
			})
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			promLogger.Error("prometheus exporter stopped", "err", err)
		}
	}()
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '/' || r == '.' || r == '-' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
