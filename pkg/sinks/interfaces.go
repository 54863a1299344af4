package sinks

import (
	"context"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// Sink persists artifact metadata downstream (table, queue, webhook).
type Sink interface {
	ID() string
	Type() string
	Save(ctx context.Context, md domain.ArtifactMetadata) error
	Close() error
}

// Logger is the subset of the application logger sinks write to: per-row
// delivery at debug level and delivery failures at error level.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
