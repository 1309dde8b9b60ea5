package audit

import (
	"context"

	"go.uber.org/zap"
)

// LoggerSink writes events as structured log lines.
type LoggerSink struct {
	logger *zap.Logger
}

func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerSink{logger: logger.Named("audit")}
}

func (s *LoggerSink) Emit(_ context.Context, e Event) {
	fields := []zap.Field{
		zap.String("event_id", e.ID),
		zap.String("username", e.Username),
		zap.String("status", string(e.Status)),
		zap.String("ip", e.IP),
		zap.String("location", e.Location),
		zap.String("browser", e.Browser),
		zap.String("os", e.OS),
		zap.Time("at", e.Timestamp),
	}
	if e.Success() {
		s.logger.Info(e.Message, fields...)
		return
	}
	s.logger.Warn(e.Message, fields...)
}
