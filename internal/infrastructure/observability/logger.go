package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type pageContextKey struct{}

// pageFields names the landing page a request or generation works on.
type pageFields struct {
	doctorID string
	quizType string
}

// InitLogger initializes the global zerolog logger on stdout.
func InitLogger(serviceName, env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = NewLogger(os.Stdout, serviceName, env)
}

// NewLogger builds a logger tagged with the service and environment.
// Development gets a human-readable console writer; every other environment
// logs JSON with timestamps and callers.
func NewLogger(w io.Writer, serviceName, env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", serviceName).
			Str("env", env).
			Logger()
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Str("env", env).
		Logger()
}

// WithPage tags ctx with a landing page; loggers from LoggerFromContext
// carry its doctor and quiz type.
func WithPage(ctx context.Context, doctorID, quizType string) context.Context {
	return context.WithValue(ctx, pageContextKey{}, pageFields{doctorID: doctorID, quizType: quizType})
}

// LoggerFromContext returns the global logger with the trace and page
// context of ctx.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	fields := log.With()

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		fields = fields.
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}
	if page, ok := ctx.Value(pageContextKey{}).(pageFields); ok {
		fields = fields.
			Str("doctor_id", page.doctorID).
			Str("quiz_type", page.quizType)
	}

	logger := fields.Logger()
	return &logger
}

// SetLevel sets the global log level from a name such as "debug" or "warn".
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	if level, err := zerolog.ParseLevel(name); err == nil && name != "" {
		zerolog.SetGlobalLevel(level)
	}
}
