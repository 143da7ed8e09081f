package observability

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	toolCallCounter  metric.Int64Counter
	toolCallDuration metric.Int64Histogram
)

// init registers instruments against the global meter provider. With no
// provider configured these are no-ops, so recording is always safe.
func init() {
	meter := otel.Meter("linearmcp/server")

	var err error
	toolCallCounter, err = meter.Int64Counter(
		"mcp.tool.calls",
		metric.WithDescription("Number of MCP tool calls"),
	)
	if err != nil {
		log.Printf("metrics: failed to create tool call counter: %v", err)
	}

	toolCallDuration, err = meter.Int64Histogram(
		"mcp.tool.duration",
		metric.WithDescription("MCP tool call duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		log.Printf("metrics: failed to create tool duration histogram: %v", err)
	}
}

// RecordToolCall records one tool execution on the call counter and the
// duration histogram.
func RecordToolCall(ctx context.Context, module, tool, status string, durationMs int64) {
	attrs := metric.WithAttributes(
		attribute.String("module", module),
		attribute.String("tool", tool),
		attribute.String("status", status),
	)
	if toolCallCounter != nil {
		toolCallCounter.Add(ctx, 1, attrs)
	}
	if toolCallDuration != nil {
		toolCallDuration.Record(ctx, durationMs, attrs)
	}
}
