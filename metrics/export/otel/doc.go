// Package otel binds authgate client metrics to OpenTelemetry instruments.
//
// [New] folds the flat authgate counters into a few attribute-keyed
// Int64ObservableCounters: authgate.requests{result},
// authgate.request.retries{reason}, authgate.refreshes{result},
// authgate.refresh.shared, authgate.logins{credential,result},
// authgate.session.events{event} and authgate.guard.decisions{outcome}.
// Latency histograms are published as authgate.latency.bucket{operation,le}
// and authgate.latency.count{operation}; audit losses as
// authgate.audit.dropped{event_type}.
//
// A single callback reads the client's metrics snapshot on every collection
// cycle. The caller owns the MeterProvider.
package otel
