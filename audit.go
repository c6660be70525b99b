package authgate

import (
	"context"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/authgate/internal/audit"
)

// AuditEvent is one session lifecycle record. It never carries token or key
// values.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

type NoOpSink = internalaudit.NoOpSink

type ChannelSink = internalaudit.ChannelSink

type JSONWriterSink = internalaudit.JSONWriterSink

type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}

// Audit event types.
const (
	AuditLogin          = "login"
	AuditAPIKeyLogin    = "api_key_login"
	AuditRefresh        = "refresh"
	AuditSessionExpired = "session_expired"
	AuditAPIKeyDropped  = "api_key_dropped"
	AuditLogout         = "logout"
	AuditBootstrap      = "bootstrap"
)

func (c *Client) emitAudit(ctx context.Context, event AuditEvent) {
	if c == nil || c.audit == nil {
		return
	}
	c.audit.Emit(ctx, event)
}

// AuditDropped returns the number of events lost to backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// AuditDroppedByType returns lost-event counts keyed by event type.
func (c *Client) AuditDroppedByType() map[string]uint64 {
	if c == nil {
		return map[string]uint64{}
	}
	return c.audit.DroppedByType()
}
