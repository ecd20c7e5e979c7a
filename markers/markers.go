package markers

import (
	"context"
	"errors"
)

const (
	LoggedIn  = "isLoggedIn"
	UserEmail = "userEmail"
)

var (
	ErrMarkersBackend = errors.New("markers backend unavailable")
	ErrUnknownMarker  = errors.New("unknown marker key")
)

var allKeys = [...]string{LoggedIn, UserEmail}

// Keys returns every marker key, in the order sign-out clears them. The slice
// is fresh on each call.
func Keys() []string {
	out := make([]string, len(allKeys))
	copy(out, allKeys[:])
	return out
}

// Store reads and writes marker values. Clear of an absent key is not an
// error.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Clear(ctx context.Context, keys ...string) error
}

func validKey(key string) bool {
	return key == LoggedIn || key == UserEmail
}

// MarkLoggedIn writes both markers the way login flows do.
func MarkLoggedIn(ctx context.Context, s Store, email string) error {
	if err := s.Set(ctx, LoggedIn, "true"); err != nil {
		return err
	}
	return s.Set(ctx, UserEmail, email)
}

// IsLoggedIn reports whether the logged-in marker is present and true.
func IsLoggedIn(ctx context.Context, s Store) (bool, error) {
	v, ok, err := s.Get(ctx, LoggedIn)
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}
