package router

import (
	"net/http"

	"github.com/safe4law/safe4law/internal/pkg/config"
	"go.uber.org/atomic"
)

// middlewareMaintenance answers 503 while the global switch is on, or for the
// routes listed under app.maintenance.endpoints. The list is read per request
// so a config reload takes effect without a restart.
func middlewareMaintenance(cfg config.Config, global *atomic.Bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if route != "/health" && (global.Load() || blockedRoute(cfg, route)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func blockedRoute(cfg config.Config, route string) bool {
	if cfg == nil {
		return false
	}
	for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
		if endpoint == route {
			return true
		}
	}
	return false
}
