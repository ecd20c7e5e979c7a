package middleware

import (
	"context"
	"net/http"

	"github.com/passportr/passportr"
)

type stateContextKey struct{}

// StateFromContext returns the session state stored by RequireIdentity or
// RequireResolved.
func StateFromContext(ctx context.Context) (passportr.State, bool) {
	st, ok := ctx.Value(stateContextKey{}).(passportr.State)
	return st, ok
}

// RequireIdentity rejects requests while the view is resolving (503) or when
// nobody is signed in (401). Otherwise the current state is placed in the
// request context.
func RequireIdentity(view passportr.View) func(http.Handler) http.Handler {
	return guard(view, true)
}

// RequireResolved only waits out the resolving phase. Signed-out requests
// pass through with a state whose Identity is nil.
func RequireResolved(view passportr.View) func(http.Handler) http.Handler {
	return guard(view, false)
}

func guard(view passportr.View, needIdentity bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if view == nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}

			st := view.State()
			if st.Resolving {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session resolving", http.StatusServiceUnavailable)
				return
			}
			if needIdentity && !st.Authenticated() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), stateContextKey{}, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
