package pipe

import "github.com/prometheus/client_golang/prometheus"

// PrometheusGaugeListener adapts a prometheus.Gauge into a
// ProgressListener, so Progress/AsyncProgress can feed a pipeline's
// completion percentage straight into a metrics registry instead of
// (or in addition to) a caller-supplied callback.
func PrometheusGaugeListener(gauge prometheus.Gauge) ProgressListener {
	return func(percent int) {
		gauge.Set(float64(percent))
	}
}

// NewProgressGauge creates and registers a gauge named name (tracking
// a single pipeline's completion percentage, 0-100) against reg and
// returns it along with a ProgressListener already wired to it.
// Passing a nil reg registers against prometheus.DefaultRegisterer,
// mirroring the common "reg := prometheus.DefaultRegisterer" plus
// MustRegister pairing used to stand up ad-hoc counters/gauges.
func NewProgressGauge(reg prometheus.Registerer, name, help string) (prometheus.Gauge, ProgressListener) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	reg.MustRegister(gauge)
	return gauge, PrometheusGaugeListener(gauge)
}
