package telemetry

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologLogger delegates to a *zerolog.Logger embedded in the context (via
// zerolog.Ctx) or, when none is set, the base logger passed to
// NewZerologLogger.
type ZerologLogger struct {
	base zerolog.Logger
}

// NewZerologLogger constructs a Logger backed by base.
func NewZerologLogger(base zerolog.Logger) Logger {
	return ZerologLogger{base: base}
}

// logger prefers a logger attached to ctx (via zerolog.Logger.WithContext)
// and falls back to the instance's base logger when ctx carries none.
func (l ZerologLogger) logger(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	return &l.base
}

func (l ZerologLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger(ctx).Debug(), keyvals).Msg(msg)
}

func (l ZerologLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger(ctx).Info(), keyvals).Msg(msg)
}

func (l ZerologLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger(ctx).Warn(), keyvals).Msg(msg)
}

func (l ZerologLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger(ctx).Error(), keyvals).Msg(msg)
}

// applyKeyvals fans a flat (k1, v1, k2, v2, ...) slice into zerolog's typed
// event builder. A non-string key is rendered under "badkey" rather than
// dropped silently; a trailing unpaired key is written with a null value.
func applyKeyvals(evt *zerolog.Event, keyvals []any) *zerolog.Event {
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = "badkey"
		}
		var val any
		if i+1 < len(keyvals) {
			val = keyvals[i+1]
		}
		evt = evt.Interface(key, val)
	}
	return evt
}
