package internaldefs

import (
	"github.com/MrEthical07/authgate"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef names one exported latency histogram.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricRequestSuccess, Name: "authgate_request_success_total", Help: "Logical requests that ended with a 2xx response."},
	{ID: authgate.MetricRequestFailure, Name: "authgate_request_failure_total", Help: "Logical requests that ended with a non-2xx response."},
	{ID: authgate.MetricRequestNetworkError, Name: "authgate_request_network_error_total", Help: "Logical requests that got no response."},
	{ID: authgate.MetricRequestRetry, Name: "authgate_request_retry_total", Help: "Requests replayed once after a 401."},
	{ID: authgate.MetricRequestRotatedRetry, Name: "authgate_request_rotated_retry_total", Help: "Retries that reused a token rotated by a concurrent request."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful refresh exchanges."},
	{ID: authgate.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Failed refresh exchanges."},
	{ID: authgate.MetricRefreshShared, Name: "authgate_refresh_shared_total", Help: "Refresh callers that shared an in-flight exchange."},
	{ID: authgate.MetricRefreshSkipped, Name: "authgate_refresh_skipped_total", Help: "Refresh calls with no refresh token."},
	{ID: authgate.MetricSessionExpired, Name: "authgate_session_expired_total", Help: "Sessions torn down after an unrecoverable 401."},
	{ID: authgate.MetricSessionCommitFailure, Name: "authgate_session_commit_failure_total", Help: "Credential writes rejected by the persistence surface."},
	{ID: authgate.MetricAPIKeyDropped, Name: "authgate_api_key_dropped_total", Help: "Stored API keys dropped after a 401."},
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful password logins."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed password logins."},
	{ID: authgate.MetricAPIKeyLoginSuccess, Name: "authgate_api_key_login_success_total", Help: "API keys accepted by the health probe."},
	{ID: authgate.MetricAPIKeyLoginFailure, Name: "authgate_api_key_login_failure_total", Help: "API keys rejected by the health probe."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Logout operations."},
	{ID: authgate.MetricBootstrap, Name: "authgate_bootstrap_total", Help: "Sessions seeded from the operator API key."},
	{ID: authgate.MetricGuardPass, Name: "authgate_guard_pass_total", Help: "Edge guard decisions that passed."},
	{ID: authgate.MetricGuardLogin, Name: "authgate_guard_login_total", Help: "Edge guard redirects to login."},
	{ID: authgate.MetricGuardForbidden, Name: "authgate_guard_forbidden_total", Help: "Edge guard redirects for insufficient role."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricRequestLatency, Name: "authgate_request_latency_seconds", Help: "Backend request latency per attempt."},
	{ID: authgate.MetricRefreshLatency, Name: "authgate_refresh_latency_seconds", Help: "Refresh exchange latency."},
}

// HistogramBounds are the upper bucket bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
