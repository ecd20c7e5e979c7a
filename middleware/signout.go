package middleware

import (
	"net/http"

	"github.com/passportr/passportr"
)

// SignOutHandler accepts POST only and always answers 204 once the view's
// best-effort sign-out returns. The request is labelled with surface for
// audit and logs when surface is not empty.
func SignOutHandler(view passportr.View, surface string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if view != nil {
			ctx := r.Context()
			if surface != "" {
				ctx = passportr.WithSurface(ctx, surface)
			}
			view.SignOut(ctx)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
