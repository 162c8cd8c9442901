// Package observe provides observability primitives for tonecast:
// OpenTelemetry metrics with a Prometheus exporter bridge so the standard
// /metrics endpoint keeps working.
//
// A [Metrics] instance is created once in main via [NewMetrics] and threaded
// into the components that record; tests should construct their own with a
// private [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all tonecast metrics.
const meterName = "github.com/MrWong99/tonecast"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// EncodeDuration tracks per-frame encode latency.
	EncodeDuration metric.Float64Histogram

	// FramesSent counts encoded frames handed to the transport.
	FramesSent metric.Int64Counter

	// BytesSent counts encoded payload bytes handed to the transport.
	BytesSent metric.Int64Counter

	// EncodeErrors counts dropped frames. Use with attribute:
	//   attribute.String("stage", ...)
	EncodeErrors metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// a 20 ms frame budget.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.EncodeDuration, err = m.Float64Histogram("tonecast.encode.duration",
		metric.WithDescription("Latency of encoding one audio frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FramesSent, err = m.Int64Counter("tonecast.frames.sent",
		metric.WithDescription("Encoded frames handed to the transport."),
	); err != nil {
		return nil, err
	}
	if met.BytesSent, err = m.Int64Counter("tonecast.bytes.sent",
		metric.WithDescription("Encoded payload bytes handed to the transport."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.EncodeErrors, err = m.Int64Counter("tonecast.encode.errors",
		metric.WithDescription("Frames dropped due to encode failure."),
	); err != nil {
		return nil, err
	}

	return met, nil
}
