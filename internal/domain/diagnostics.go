package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosticLevel grades a diagnostic event
type DiagnosticLevel string

const (
	DiagnosticInfo    DiagnosticLevel = "info"
	DiagnosticWarning DiagnosticLevel = "warn"
	DiagnosticError   DiagnosticLevel = "error"
)

// Diagnostic event codes emitted by the calculation engines
const (
	CodeDividendHigh          = "dividend.high"
	CodeDividendNegative      = "dividend.negative"
	CodeActionSkipped         = "scenario.action_skipped"
	CodeDeferredUnsupported   = "scenario.deferred_unsupported"
	CodeCPIFallback           = "index.cpi_fallback"
	CodeRevenueStreamNoOutput = "revenue.empty"
	CodeCacheUnavailable      = "cache.unavailable"
)

// DiagnosticEvent is a structured observation raised while projecting.
// Engines never print; they hand events to a DiagnosticSink.
type DiagnosticEvent struct {
	Level    DiagnosticLevel
	Code     string
	EntityID uuid.UUID
	Date     time.Time
	Message  string
	Fields   map[string]string
}

// DiagnosticSink receives diagnostic events
type DiagnosticSink interface {
	Emit(event DiagnosticEvent)
}

// NopSink discards every event
type NopSink struct{}

// Emit implements DiagnosticSink
func (NopSink) Emit(DiagnosticEvent) {}

// RecordingSink keeps events in memory (useful for callers that report them back)
type RecordingSink struct {
	Events []DiagnosticEvent
}

// Emit implements DiagnosticSink
func (s *RecordingSink) Emit(event DiagnosticEvent) {
	s.Events = append(s.Events, event)
}

// Codes returns the codes of all recorded events in emission order
func (s *RecordingSink) Codes() []string {
	codes := make([]string, 0, len(s.Events))
	for _, e := range s.Events {
		codes = append(codes, e.Code)
	}
	return codes
}

// SinkOrNop returns sink, or NopSink when sink is nil
func SinkOrNop(sink DiagnosticSink) DiagnosticSink {
	if sink == nil {
		return NopSink{}
	}
	return sink
}
