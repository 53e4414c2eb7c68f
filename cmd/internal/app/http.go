package app

import (
	"net/http"
	"time"
)

// routes builds the full handler: probes, metrics and the guarded record API, wrapped
// in request id, security header and request logging middleware.
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.ReadinessRequireDB && a.pool == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		if a.pool != nil {
			if err := PingDB(r.Context(), a.pool, 2*time.Second); err != nil {
				a.log.Info("readyz.db.not_ready", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", a.metrics.Handler())

	guard := func(next http.Handler) http.Handler {
		return requireOperator(next, a.authn, a.cfg.AuthRealm, a.log)
	}
	a.cattle.register(mux, guard)

	var h http.Handler = mux
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, a.log, a.metrics)
	h = WithRequestID(h)
	return h
}
