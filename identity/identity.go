package identity

import (
	"context"
	"errors"

	"github.com/passportr/passportr/jwt"
)

var (
	// ErrUnavailable is returned when the provider backend cannot be reached.
	ErrUnavailable = errors.New("identity provider unavailable")
	// ErrProviderClosed is returned by operations on a closed provider.
	ErrProviderClosed = errors.New("identity provider closed")
	// ErrInvalidToken is returned when an identity token fails verification.
	ErrInvalidToken = errors.New("invalid identity token")
	// ErrNilListener is returned by Subscribe when no listener is supplied.
	ErrNilListener = errors.New("nil listener")
)

// Identity is the authenticated principal. Only ID is interpreted by the
// session core; the rest is display metadata.
type Identity struct {
	ID          string            `json:"id"`
	Email       string            `json:"email,omitempty"`
	DisplayName string            `json:"display_name,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy. Clone of nil is nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.Metadata != nil {
		out.Metadata = make(map[string]string, len(i.Metadata))
		for k, v := range i.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// FromClaims converts verified token claims into an Identity.
func FromClaims(c *jwt.IdentityClaims) *Identity {
	if c == nil || c.UID == "" {
		return nil
	}
	id := &Identity{
		ID:          c.UID,
		Email:       c.Email,
		DisplayName: c.Name,
	}
	if len(c.Meta) > 0 {
		id.Metadata = make(map[string]string, len(c.Meta))
		for k, v := range c.Meta {
			id.Metadata[k] = v
		}
	}
	return id
}

// Listener receives provider notifications. A nil identity means signed out.
type Listener func(id *Identity)

// CancelFunc ends a subscription. It is safe to call more than once. It must
// not be called from inside the subscription's own Listener.
type CancelFunc func()

// Provider is the external identity service the session core depends on.
type Provider interface {
	Subscribe(ctx context.Context, fn Listener) (CancelFunc, error)
	SignOut(ctx context.Context) error
}
