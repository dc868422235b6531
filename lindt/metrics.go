package lindt

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomeNegative = "negative"
)

// Bridge decision paths.
const (
	pathSame   = "same"
	pathImport = "import"
	pathExport = "export"
	pathNone   = "none"
)

// Metrics holds the Prometheus collectors of an engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	loads          *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	bridge         *prometheus.CounterVec
}

// NewMetrics creates the engine collectors and registers them with reg.
// Collectors already registered by another engine on the same registry are
// shared.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lindt",
			Subsystem: "loader",
			Name:      "loads_total",
			Help:      "Total number of definition resource loads by outcome",
		}, []string{"outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lindt",
			Subsystem: "registry",
			Name:      "resolutions_total",
			Help:      "Total number of first-time datatype resolutions by outcome",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lindt",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of value cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lindt",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of value cache misses",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lindt",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of value cache evictions",
		}),
		bridge: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lindt",
			Subsystem: "bridge",
			Name:      "decisions_total",
			Help:      "Total number of literal comparisons by deciding path",
		}, []string{"path"}),
	}

	var err error
	if m.loads, err = register(reg, m.loads); err != nil {
		return nil, err
	}
	if m.resolutions, err = register(reg, m.resolutions); err != nil {
		return nil, err
	}
	if m.cacheHits, err = register(reg, m.cacheHits); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = register(reg, m.cacheMisses); err != nil {
		return nil, err
	}
	if m.cacheEvictions, err = register(reg, m.cacheEvictions); err != nil {
		return nil, err
	}
	if m.bridge, err = register(reg, m.bridge); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, returning the existing collector when an identical
// one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) load(outcome string) {
	if m != nil {
		m.loads.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) resolution(outcome string) {
	if m != nil {
		m.resolutions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) cacheEviction() {
	if m != nil {
		m.cacheEvictions.Inc()
	}
}

func (m *Metrics) decision(path string) {
	if m != nil {
		m.bridge.WithLabelValues(path).Inc()
	}
}
