package logging

import (
	"go.uber.org/zap"

	"github.com/commercegate/ipg-service/internal/domain/ports"
)

// ZapLogger adapts *zap.Logger to ports.Logger so domain and service code
// stay free of the logging dependency.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps a zap logger
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

func (l *ZapLogger) Info(msg string, fields ...ports.Field) {
	l.logger.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...ports.Field) {
	l.logger.Error(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...ports.Field) {
	l.logger.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Debug(msg string, fields ...ports.Field) {
	l.logger.Debug(msg, toZapFields(fields)...)
}

func toZapFields(fields []ports.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			zapFields = append(zapFields, zap.Error(err))
			continue
		}
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
