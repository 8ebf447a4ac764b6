// Package logging connects the engines' diagnostic events and the gRPC
// transport to zerolog.
package logging

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/wealthflow-planner/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// New returns a timestamped logger writing JSON to w at the named level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// NewConsole returns a human-readable, uncolored logger on w, for the CLI
func NewConsole(w io.Writer, level string) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.Kitchen}, level)
}

// Sink writes diagnostic events to a zerolog logger
type Sink struct {
	Logger zerolog.Logger
}

// NewSink creates a diagnostic sink backed by logger
func NewSink(logger zerolog.Logger) *Sink {
	return &Sink{Logger: logger}
}

// Emit implements domain.DiagnosticSink
func (s *Sink) Emit(event domain.DiagnosticEvent) {
	var e *zerolog.Event
	switch event.Level {
	case domain.DiagnosticError:
		e = s.Logger.Error()
	case domain.DiagnosticWarning:
		e = s.Logger.Warn()
	default:
		e = s.Logger.Info()
	}

	e = e.Str("code", event.Code)
	if event.EntityID != uuid.Nil {
		e = e.Str("entity_id", event.EntityID.String())
	}
	if !event.Date.IsZero() {
		e = e.Str("date", event.Date.Format(time.DateOnly))
	}
	for k, v := range event.Fields {
		e = e.Str(k, v)
	}
	e.Msg(event.Message)
}

// UnaryInterceptor logs the method, duration and status code of every call
func UnaryInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		e := logger.Info()
		if err != nil {
			e = logger.Warn().Err(err)
		}
		e.Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Str("code", code.String()).
			Msg("grpc call")

		return resp, err
	}
}
