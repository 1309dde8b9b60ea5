package adminauth

import (
	"context"

	"github.com/MrEthical07/adminauth/i18n"
	"github.com/MrEthical07/adminauth/internal/audit"
	"github.com/MrEthical07/adminauth/internal/flows"
)

// LoginEvent is a login log entry recorded through RecordLoginEvent.
type LoginEvent struct {
	Username   string
	Success    bool
	Logout     bool
	MessageKey string
	Args       map[string]any
	IP         string
	UserAgent  string
}

// RecordLoginEvent queues ev for the login log and returns immediately.
func (e *Engine) RecordLoginEvent(ctx context.Context, ev LoginEvent) {
	if e == nil {
		return
	}
	if ev.IP == "" {
		ev.IP = clientIPFromContext(ctx)
	}
	if ev.UserAgent == "" {
		ev.UserAgent = userAgentFromContext(ctx)
	}
	e.emitAudit(ctx, flows.AuditRecord(ev))
}

func (e *Engine) emitAudit(ctx context.Context, rec flows.AuditRecord) {
	if e.audit == nil {
		return
	}
	status := audit.StatusFailure
	switch {
	case rec.Logout:
		status = audit.StatusLogout
	case rec.Success:
		status = audit.StatusSuccess
	}
	msg := rec.MessageKey
	if e.messages != nil {
		msg = e.messages.Message(e.config.Language, rec.MessageKey, i18n.M(rec.Args))
	}
	event := audit.NewEvent(rec.Username, status, msg)
	event.IP = rec.IP
	event.UserAgent = rec.UserAgent
	e.audit.Emit(ctx, event)
}
