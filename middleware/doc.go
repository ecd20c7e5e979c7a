// Package middleware adapts a [passportr.View] to net/http.
//
//   - [RequireIdentity] answers 503 while the session is resolving and 401 when
//     nobody is signed in.
//   - [RequireResolved] answers 503 while resolving and lets signed-out
//     requests through.
//   - [SignOutHandler] runs the view's best-effort sign-out on POST.
//
// Handlers read the admitted state with [StateFromContext]. The package never
// talks to the identity provider or the marker store directly.
package middleware
