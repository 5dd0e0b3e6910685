package bootstrap

import "context"

// AuditLog is a single operational audit entry, e.g. server lifecycle events.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

// AuditLogger records operational audit entries. Implementations must be
// safe to call during shutdown.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
