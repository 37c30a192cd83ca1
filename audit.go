package ember

import (
	"sync"
	"sync/atomic"
)

// auditController is the process-wide fan-out sink described in spec §4.5:
// independent of any single logger's own sinks, toggled globally, and
// tagged with the originating logger's name via AuditFormatter.
type auditController struct {
	active atomic.Bool

	mu        sync.Mutex
	sink      *RotatingFileSink
	formatter *AuditFormatter
}

var auditCtl = &auditController{}

// StartAudit activates the audit fan-out, writing every subsequent
// emission from any logger that passes that logger's own severity
// filtering into a dedicated rotating file, per spec §4.5.
// Calling StartAudit while already active installs the new sink and then
// closes the prior one. The audit stream preserves ANSI color by default,
// matching spec §4.5's "preserves ANSI (does not strip) unless configured
// otherwise"; pass ModePlain explicitly to strip it instead.
func StartAudit(dir, base, ext string, rotation *RotationLogic, details *LogRecordDetails, mode ...RenderMode) error {
	sink, err := NewRotatingFileSink(dir, base, ext, rotation, details)
	if err != nil {
		return err
	}

	m := ModeColor
	if len(mode) > 0 {
		m = mode[0]
	}
	formatter := NewAuditFormatter(details, m)
	sink.setRenderer(formatter)

	auditCtl.mu.Lock()
	prev := auditCtl.sink
	auditCtl.sink = sink
	auditCtl.formatter = formatter
	auditCtl.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	auditCtl.active.Store(true)
	return nil
}

// StopAudit deactivates the audit fan-out and closes its sink. It is safe
// to call when audit is not active.
func StopAudit() error {
	auditCtl.active.Store(false)

	auditCtl.mu.Lock()
	sink := auditCtl.sink
	auditCtl.sink = nil
	auditCtl.formatter = nil
	auditCtl.mu.Unlock()

	if sink != nil {
		return sink.Close()
	}
	return nil
}

// dispatch writes rec to the active audit sink, reporting (never
// panicking on) write failures via the same error-reporting path as a
// logger's own sinks.
func (a *auditController) dispatch(rec *LogRecord) {
	a.mu.Lock()
	sink := a.sink
	a.mu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.Write(rec); err != nil {
		reportSinkError(sink.Name(), err)
	}
}
