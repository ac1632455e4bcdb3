// Package metrics exposes Prometheus collectors for framework and codec
// activity. All recording methods are safe to call on a nil *Metrics, so
// instrumented code does not need to check whether metrics are enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mca"

// Metrics holds the collectors.
type Metrics struct {
	componentsOpened   *prometheus.CounterVec
	componentsFiltered *prometheus.CounterVec
	loadFailures       *prometheus.CounterVec
	activeModules      *prometheus.GaugeVec
	bytesPacked        *prometheus.CounterVec
	bytesUnpacked      *prometheus.CounterVec
	bufferGrowths      prometheus.Counter
	codecErrors        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which is convenient for tests that only read values back.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		componentsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "base",
			Name:      "components_opened_total",
			Help:      "Components whose open function succeeded.",
		}, []string{"framework"}),
		componentsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "base",
			Name:      "components_filtered_total",
			Help:      "Components removed by the selection filter or metadata flags.",
		}, []string{"framework"}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "base",
			Name:      "component_load_failures_total",
			Help:      "Plugin files that could not be loaded or validated.",
		}, []string{"framework"}),
		activeModules: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "base",
			Name:      "active_modules",
			Help:      "Modules on the active list of a framework.",
		}, []string{"framework"}),
		bytesPacked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bfrops",
			Name:      "bytes_packed_total",
			Help:      "Bytes appended to buffers by pack operations.",
		}, []string{"module"}),
		bytesUnpacked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bfrops",
			Name:      "bytes_unpacked_total",
			Help:      "Bytes consumed from buffers by unpack operations.",
		}, []string{"module"}),
		bufferGrowths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bfrops",
			Name:      "buffer_growths_total",
			Help:      "Buffer reallocations triggered by the growth policy.",
		}),
		codecErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bfrops",
			Name:      "errors_total",
			Help:      "Codec failures by status.",
		}, []string{"module", "status"}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.componentsOpened,
		m.componentsFiltered,
		m.loadFailures,
		m.activeModules,
		m.bytesPacked,
		m.bytesUnpacked,
		m.bufferGrowths,
		m.codecErrors,
	}
}

// ComponentOpened counts a successful component open.
func (m *Metrics) ComponentOpened(framework string) {
	if m == nil {
		return
	}
	m.componentsOpened.WithLabelValues(framework).Inc()
}

// ComponentFiltered counts a component removed from the available list.
func (m *Metrics) ComponentFiltered(framework string) {
	if m == nil {
		return
	}
	m.componentsFiltered.WithLabelValues(framework).Inc()
}

// LoadFailed counts a plugin file that was skipped.
func (m *Metrics) LoadFailed(framework string) {
	if m == nil {
		return
	}
	m.loadFailures.WithLabelValues(framework).Inc()
}

// SetActiveModules records the length of a framework's active list.
func (m *Metrics) SetActiveModules(framework string, n int) {
	if m == nil {
		return
	}
	m.activeModules.WithLabelValues(framework).Set(float64(n))
}

// Packed adds n bytes written by module.
func (m *Metrics) Packed(module string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesPacked.WithLabelValues(module).Add(float64(n))
}

// Unpacked adds n bytes consumed by module.
func (m *Metrics) Unpacked(module string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesUnpacked.WithLabelValues(module).Add(float64(n))
}

// BufferGrown counts one reallocation.
func (m *Metrics) BufferGrown() {
	if m == nil {
		return
	}
	m.bufferGrowths.Inc()
}

// CodecError counts a failed codec call.
func (m *Metrics) CodecError(module, status string) {
	if m == nil {
		return
	}
	m.codecErrors.WithLabelValues(module, status).Inc()
}
