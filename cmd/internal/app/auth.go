package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"herd/cmd/internal/operators"
)

// OperatorFromContext returns the operator authenticated by requireOperator.
func OperatorFromContext(ctx context.Context) (operators.Operator, bool) {
	op, ok := ctx.Value(ctxKeyOperator).(operators.Operator)
	return op, ok
}

// requireOperator guards next with HTTP Basic credentials checked against the operator
// store on every request.
func requireOperator(next http.Handler, authn *operators.Authenticator, realm string, log *slog.Logger) http.Handler {
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, pw, ok := r.BasicAuth()
		if !ok || username == "" {
			w.Header().Set("WWW-Authenticate", challenge)
			writeError(w, http.StatusUnauthorized, "unauthenticated", "credentials required")
			return
		}

		op, ok, err := authn.Authenticate(r.Context(), username, pw)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			switch {
			case errors.Is(err, context.Canceled):
				log.Info("http.auth.canceled", "request_id", rid)
			case operators.IsStoreUnavailable(err), errors.Is(err, context.DeadlineExceeded):
				log.Error("http.auth.fail", "request_id", rid, "err", err)
				writeError(w, http.StatusServiceUnavailable, "store_unavailable", "please retry later")
			default:
				log.Error("http.auth.fail", "request_id", rid, "err", err)
				writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			}
			return
		}
		if !ok {
			w.Header().Set("WWW-Authenticate", challenge)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyOperator, op)))
	})
}
