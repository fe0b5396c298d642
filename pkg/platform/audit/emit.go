package audit

import (
	"context"
	"log/slog"

	"medgate/pkg/requestcontext"
)

// Emitter accepts audit events; *publisher.Publisher satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// LogAudit writes an audit line to the structured logger and forwards the
// event to the emitter when one is configured. Request metadata is taken from
// the context; "reason" and "email" attrs are copied onto the event.
func LogAudit(ctx context.Context, logger *slog.Logger, emitter Emitter, event AuditEvent, base Event, kv ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		kv = append(kv, "request_id", requestID)
	}
	if logger != nil {
		args := append(kv, "event", string(event), "log_type", "audit")
		logger.InfoContext(ctx, string(event), args...)
	}
	if emitter == nil {
		return
	}

	base.Action = string(event)
	base.Category = event.Category()
	base.RequestID = requestID
	if base.IP == "" {
		base.IP = requestcontext.ClientIP(ctx)
	}
	if base.UserAgent == "" {
		base.UserAgent = requestcontext.UserAgent(ctx)
	}
	if base.Reason == "" {
		base.Reason = stringAttr(kv, "reason")
	}
	if base.Email == "" {
		base.Email = stringAttr(kv, "email")
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if err := emitter.Emit(ctx, base); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

// stringAttr returns the string value paired with key in a slog-style
// key/value list, or "" when absent or not a string.
func stringAttr(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			v, _ := kv[i+1].(string)
			return v
		}
	}
	return ""
}
