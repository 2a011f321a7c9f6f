package client

import (
	"sync"
	"time"

	gometrics "github.com/hashicorp/go-metrics"
)

// ClientMetricsCollector defines the interface for collecting metrics
type ClientMetricsCollector interface {
	// RecordCommandLatency records submit-to-reply latency per command
	RecordCommandLatency(command string, duration time.Duration)

	// IncrementActiveConnections Concurrency metrics
	IncrementActiveConnections()
	DecrementActiveConnections()

	// IncrementCommandCounter Command counter metrics
	IncrementCommandCounter(command string)

	// IncrementErrorCounter Error metrics
	IncrementErrorCounter(errorType string)

	// Shutdown the metrics collector
	Shutdown()
}

// MetricsConfig holds configuration for the in-memory metrics sink
type MetricsConfig struct {
	// Metrics prefix for namespacing
	ServiceName string

	// Time interval for in-memory metrics aggregation
	AggregationInterval time.Duration

	// Retention period for metrics
	RetentionPeriod time.Duration
}

func DefaultMetricsConfig(serviceName string) *MetricsConfig {
	return &MetricsConfig{
		ServiceName:         serviceName,
		AggregationInterval: 5 * time.Second,
		RetentionPeriod:     10 * time.Minute,
	}
}

// labelPool is a simple object pool for label slices to reduce allocations
type labelPool struct {
	pool sync.Pool
}

func newLabelPool() *labelPool {
	return &labelPool{
		pool: sync.Pool{
			New: func() interface{} {
				slice := make([]gometrics.Label, 0, 3)
				return &slice
			},
		},
	}
}

func (p *labelPool) get() []gometrics.Label {
	slicePtr := p.pool.Get().(*[]gometrics.Label)
	*slicePtr = (*slicePtr)[:0]
	return *slicePtr
}

func (p *labelPool) put(labels []gometrics.Label) {
	p.pool.Put(&labels)
}

// InmemCollector implements ClientMetricsCollector on hashicorp/go-metrics
// with an in-memory sink. No HTTP exposure: a client library has no serving
// surface, so aggregated intervals are read back through Data.
type InmemCollector struct {
	metrics *gometrics.Metrics
	inm     *gometrics.InmemSink

	serviceLabel       gometrics.Label
	commandLabelPrefix string
	errorLabelPrefix   string

	labelPool *labelPool

	activeMu sync.Mutex
	active   float32
}

// NewInmemCollector creates a metrics collector backed by an in-memory sink.
func NewInmemCollector(config *MetricsConfig) (*InmemCollector, error) {
	if config == nil {
		config = DefaultMetricsConfig("respkit")
	}
	inm := gometrics.NewInmemSink(config.AggregationInterval, config.RetentionPeriod)
	metricsConf := gometrics.DefaultConfig(config.ServiceName)
	metricsConf.EnableRuntimeMetrics = false
	metricsImpl, err := gometrics.New(metricsConf, inm)
	if err != nil {
		return nil, err
	}
	return &InmemCollector{
		metrics:            metricsImpl,
		inm:                inm,
		serviceLabel:       gometrics.Label{Name: "service", Value: config.ServiceName},
		commandLabelPrefix: "command",
		errorLabelPrefix:   "type",
		labelPool:          newLabelPool(),
	}, nil
}

func (h *InmemCollector) RecordCommandLatency(command string, duration time.Duration) {
	labels := h.labelPool.get()
	labels = append(labels, h.serviceLabel, gometrics.Label{Name: h.commandLabelPrefix, Value: command})

	h.metrics.AddSampleWithLabels([]string{"command", "latency"}, float32(duration.Microseconds()), labels)

	h.labelPool.put(labels)
}

func (h *InmemCollector) IncrementActiveConnections() {
	h.metrics.IncrCounterWithLabels([]string{"connections", "opened"}, 1, []gometrics.Label{h.serviceLabel})
	h.metrics.SetGaugeWithLabels([]string{"connections", "active"}, h.activeDelta(1), []gometrics.Label{h.serviceLabel})
}

func (h *InmemCollector) DecrementActiveConnections() {
	h.metrics.SetGaugeWithLabels([]string{"connections", "active"}, h.activeDelta(-1), []gometrics.Label{h.serviceLabel})
}

func (h *InmemCollector) IncrementCommandCounter(command string) {
	labels := h.labelPool.get()
	labels = append(labels, h.serviceLabel, gometrics.Label{Name: h.commandLabelPrefix, Value: command})

	h.metrics.IncrCounterWithLabels([]string{"command", "submitted"}, 1, labels)

	h.labelPool.put(labels)
}

func (h *InmemCollector) IncrementErrorCounter(errorType string) {
	labels := h.labelPool.get()
	labels = append(labels, h.serviceLabel, gometrics.Label{Name: h.errorLabelPrefix, Value: errorType})

	h.metrics.IncrCounterWithLabels([]string{"errors"}, 1, labels)

	h.labelPool.put(labels)
}

// Data returns the aggregated metric intervals for inspection.
func (h *InmemCollector) Data() []*gometrics.IntervalMetrics {
	return h.inm.Data()
}

// Shutdown stops the metrics collector
func (h *InmemCollector) Shutdown() {
	// Nothing to do for now, but could be used to flush metrics or clean up resources
}

func (h *InmemCollector) activeDelta(delta float32) float32 {
	h.activeMu.Lock()
	defer h.activeMu.Unlock()
	h.active += delta
	if h.active < 0 {
		h.active = 0
	}
	return h.active
}
