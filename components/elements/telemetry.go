package elements

import "context"

// Telemetry receives structured element events such as elements.mount or
// elements.portfolio.update.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record calls f.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

var discardTelemetry = TelemetryFunc(func(context.Context, string, map[string]any) {})

// NormalizeTelemetry returns t, or a sink that drops events when t is nil.
func NormalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return discardTelemetry
	}
	return t
}
