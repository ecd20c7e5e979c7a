package passportr

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/markers"
)

const (
	auditEventStoreInitialized     = "store_initialized"
	auditEventIdentityChanged      = "identity_changed"
	auditEventStoreTornDown        = "store_torn_down"
	auditEventSignOut              = "sign_out"
	auditEventSignOutRemoteFailure = "sign_out_remote_failure"
	auditEventMarkersClearFailure  = "markers_clear_failure"
	auditEventProviderUnavailable  = "provider_unavailable"
	auditEventScopeMounted         = "scope_mounted"
	auditEventScopeUnmounted       = "scope_unmounted"
)

// AuditErrorCode is the stable error label carried by AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrProviderUnavailable AuditErrorCode = "provider_unavailable"
	auditErrProviderClosed      AuditErrorCode = "provider_closed"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrMarkersUnavailable  AuditErrorCode = "markers_unavailable"
	auditErrStoreTornDown       AuditErrorCode = "store_torn_down"
	auditErrScopeTransition     AuditErrorCode = "scope_transition"
	auditErrCanceled            AuditErrorCode = "canceled"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	storeID string,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		StoreID:   storeID,
		UserID:    userID,
		Surface:   surfaceFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, identity.ErrUnavailable):
		return auditErrProviderUnavailable
	case errors.Is(err, identity.ErrProviderClosed):
		return auditErrProviderClosed
	case errors.Is(err, identity.ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, markers.ErrMarkersBackend):
		return auditErrMarkersUnavailable
	case errors.Is(err, ErrStoreTornDown):
		return auditErrStoreTornDown
	case errors.Is(err, ErrScopeTransition):
		return auditErrScopeTransition
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
