// Package prometheus renders authgate client metrics in Prometheus text
// exposition format.
//
// [New] accepts an *authgate.Client and [Exporter.Handler] serves every
// counter (authgate_*_total) and both latency histograms
// (authgate_request_latency_seconds, authgate_refresh_latency_seconds).
// Histograms are omitted while latency collection is disabled.
package prometheus
