package middleware

import (
	"log/slog"
	"net/http"

	"github.com/MrEthical07/authgate"
)

// Guard returns middleware that runs Evaluate on every request. Passing
// requests reach next with the decision in their context; the others get a
// 307 to the decision's location.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Evaluate(r, cfg)

			switch d.Outcome {
			case OutcomePass:
				cfg.Metrics.Inc(authgate.MetricGuardPass)
				logger.DebugContext(r.Context(), "guard pass",
					"path", r.URL.Path, "credential", d.Credential.String(), "public", d.Public)
				next.ServeHTTP(w, r.WithContext(withDecision(r.Context(), d)))
				return

			case OutcomeForbidden:
				cfg.Metrics.Inc(authgate.MetricGuardForbidden)
				logger.InfoContext(r.Context(), "guard forbidden",
					"path", r.URL.Path, "user_id", d.Identity.ID, "role", string(d.Identity.Role))

			default:
				cfg.Metrics.Inc(authgate.MetricGuardLogin)
				logger.DebugContext(r.Context(), "guard login redirect", "path", r.URL.Path)
			}

			http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
		})
	}
}
