package ports

import (
	"context"
	"fmt"
	"time"
)

// Logger is the logging port used by every component.
// Fields are optional structured key/value pairs; only the first map is used.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}

type ctxKey string

const cycleIDKey ctxKey = "cycle_id"

// WithCycleID stores a polling-cycle ID in the context so every log line of
// one cycle can be correlated.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleID extracts the cycle ID from context. Returns "" if not set.
func CycleID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(cycleIDKey).(string); ok {
		return v
	}
	return ""
}

// NewCycleID builds an ID of the form "{ticker}-{unixNano}".
func NewCycleID(ticker string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", ticker, ts.UnixNano())
}
