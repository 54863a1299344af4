package listing

import (
	"github.com/samvad-hq/samvad-report-harvester/pkg/httpclient"
)

// HTTPClient aliases the shared httpclient.Client interface for clarity within listing.
type HTTPClient = httpclient.Client

// Logger is the subset of the application logger used by the crawler.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{}) {}

func ensureLogger(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}
