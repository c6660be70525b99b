package otel

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter observes. *authgate.Client satisfies it.
type Source interface {
	MetricsSnapshot() authgate.MetricsSnapshot
	AuditDroppedByType() map[string]uint64
}

// point is one attribute combination of a grouped instrument.
type point struct {
	attrs attribute.Set
	value func(authgate.MetricsSnapshot) uint64
}

// family is one instrument and the counters folded into it.
type family struct {
	name   string
	help   string
	points []point
}

func counter(id authgate.MetricID) func(authgate.MetricsSnapshot) uint64 {
	return func(s authgate.MetricsSnapshot) uint64 { return s.Counters[id] }
}

// difference reads a minus b, floored at zero.
func difference(a, b authgate.MetricID) func(authgate.MetricsSnapshot) uint64 {
	return func(s authgate.MetricsSnapshot) uint64 {
		if s.Counters[a] < s.Counters[b] {
			return 0
		}
		return s.Counters[a] - s.Counters[b]
	}
}

func at(value func(authgate.MetricsSnapshot) uint64, kv ...attribute.KeyValue) point {
	return point{attrs: attribute.NewSet(kv...), value: value}
}

var (
	result     = attribute.Key("result")
	reason     = attribute.Key("reason")
	credential = attribute.Key("credential")
	event      = attribute.Key("event")
	outcome    = attribute.Key("outcome")
	operation  = attribute.Key("operation")
	le         = attribute.Key("le")
	eventType  = attribute.Key("event_type")
)

// families groups the flat authgate counters into attribute-keyed
// instruments. Every counter in internaldefs.CounterDefs appears once.
var families = []family{
	{name: "authgate.requests", help: "Logical requests by result.", points: []point{
		at(counter(authgate.MetricRequestSuccess), result.String("success")),
		at(counter(authgate.MetricRequestFailure), result.String("failure")),
		at(counter(authgate.MetricRequestNetworkError), result.String("network_error")),
	}},
	{name: "authgate.request.retries", help: "Requests replayed once after a 401, by what supplied the new token.", points: []point{
		at(difference(authgate.MetricRequestRetry, authgate.MetricRequestRotatedRetry), reason.String("refreshed")),
		at(counter(authgate.MetricRequestRotatedRetry), reason.String("rotated")),
	}},
	{name: "authgate.refreshes", help: "Refresh attempts by result.", points: []point{
		at(counter(authgate.MetricRefreshSuccess), result.String("success")),
		at(counter(authgate.MetricRefreshFailure), result.String("failure")),
		at(counter(authgate.MetricRefreshSkipped), result.String("skipped")),
	}},
	{name: "authgate.refresh.shared", help: "Refresh callers that joined an exchange already in flight.", points: []point{
		at(counter(authgate.MetricRefreshShared)),
	}},
	{name: "authgate.logins", help: "Login attempts by credential and result.", points: []point{
		at(counter(authgate.MetricLoginSuccess), credential.String("password"), result.String("success")),
		at(counter(authgate.MetricLoginFailure), credential.String("password"), result.String("failure")),
		at(counter(authgate.MetricAPIKeyLoginSuccess), credential.String("api_key"), result.String("success")),
		at(counter(authgate.MetricAPIKeyLoginFailure), credential.String("api_key"), result.String("failure")),
	}},
	{name: "authgate.session.events", help: "Session lifecycle transitions.", points: []point{
		at(counter(authgate.MetricSessionExpired), event.String("expired")),
		at(counter(authgate.MetricSessionCommitFailure), event.String("commit_failure")),
		at(counter(authgate.MetricAPIKeyDropped), event.String("api_key_dropped")),
		at(counter(authgate.MetricLogout), event.String("logout")),
		at(counter(authgate.MetricBootstrap), event.String("bootstrap")),
	}},
	{name: "authgate.guard.decisions", help: "Edge guard decisions by outcome.", points: []point{
		at(counter(authgate.MetricGuardPass), outcome.String("pass")),
		at(counter(authgate.MetricGuardLogin), outcome.String("login")),
		at(counter(authgate.MetricGuardForbidden), outcome.String("forbidden")),
	}},
}

// latencyOperations names the operation attribute of each histogram.
var latencyOperations = map[authgate.MetricID]string{
	authgate.MetricRequestLatency: "request",
	authgate.MetricRefreshLatency: "refresh",
}

type observedFamily struct {
	family
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      authgate.MetricID
	buckets [8]attribute.Set
	count   attribute.Set
}

// Exporter publishes authgate metrics as OpenTelemetry observable
// instruments. Call Close to unregister the collection callback.
type Exporter struct {
	source       Source
	registration metric.Registration
	families     []observedFamily
	histograms   []observedHistogram
	bucket       metric.Int64ObservableGauge
	count        metric.Int64ObservableGauge
	auditDropped metric.Int64ObservableCounter
}

// New registers instruments on meter that observe client.
func New(meter metric.Meter, client *authgate.Client) (*Exporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewFromSource(meter, client)
}

// NewFromSource registers instruments on meter that observe source.
func NewFromSource(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:     source,
		families:   make([]observedFamily, 0, len(families)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}
	observables := make([]metric.Observable, 0, len(families)+3)

	for _, f := range families {
		ins, err := meter.Int64ObservableCounter(f.name, metric.WithDescription(f.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", f.name, err)
		}
		exporter.families = append(exporter.families, observedFamily{family: f, instrument: ins})
		observables = append(observables, ins)
	}

	bucket, err := meter.Int64ObservableGauge("authgate.latency.bucket",
		metric.WithDescription("Cumulative latency samples at or below the le bound, in seconds."))
	if err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	count, err := meter.Int64ObservableGauge("authgate.latency.count",
		metric.WithDescription("Total latency samples."))
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	exporter.bucket, exporter.count = bucket, count
	observables = append(observables, bucket, count)

	for _, def := range internaldefs.HistogramDefs {
		op := operation.String(latencyOperations[def.ID])
		h := observedHistogram{id: def.ID, count: attribute.NewSet(op)}
		for i, bound := range internaldefs.HistogramBounds {
			h.buckets[i] = attribute.NewSet(op, le.String(bound))
		}
		exporter.histograms = append(exporter.histograms, h)
	}

	auditDropped, err := meter.Int64ObservableCounter("authgate.audit.dropped",
		metric.WithDescription("Audit events lost to dispatcher backpressure, by event type."))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, f := range e.families {
		for _, p := range f.points {
			observer.ObserveInt64(f.instrument, int64(p.value(snapshot)), metric.WithAttributeSet(p.attrs))
		}
	}

	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i := range cumulative {
			observer.ObserveInt64(e.bucket, int64(cumulative[i]), metric.WithAttributeSet(h.buckets[i]))
		}
		observer.ObserveInt64(e.count, int64(cumulative[len(cumulative)-1]), metric.WithAttributeSet(h.count))
	}

	dropped := e.source.AuditDroppedByType()
	types := make([]string, 0, len(dropped))
	for t := range dropped {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		observer.ObserveInt64(e.auditDropped, int64(dropped[t]), metric.WithAttributes(eventType.String(t)))
	}
	return nil
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
