package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/SouliyaPPS/sqlopsstudio"

// Instruments holds pre-created OTel metric instruments.
type Instruments struct {
	RefreshCount    metric.Int64Counter
	RefreshDuration metric.Float64Histogram
	ShapeRejections metric.Int64Counter
	ToolDuration    metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	meter := otel.Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	meter := noop.NewMeterProvider().Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	refreshCount, _ := meter.Int64Counter("editdata.refresh.count",
		metric.WithDescription("Total number of edit-grid refreshes executed"),
	)
	refreshDuration, _ := meter.Float64Histogram("editdata.refresh.duration",
		metric.WithDescription("Edit-grid refresh duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	shapeRejections, _ := meter.Int64Counter("editdata.validation.rejections",
		metric.WithDescription("Total number of override statements rejected by shape validation"),
	)
	toolDuration, _ := meter.Float64Histogram("editdata.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		RefreshCount:    refreshCount,
		RefreshDuration: refreshDuration,
		ShapeRejections: shapeRejections,
		ToolDuration:    toolDuration,
	}
}

func (i *Instruments) RecordRefreshDuration(ctx context.Context, ms float64) {
	i.RefreshDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementRefreshCount(ctx context.Context) {
	i.RefreshCount.Add(ctx, 1)
}

func (i *Instruments) IncrementShapeRejections(ctx context.Context) {
	i.ShapeRejections.Add(ctx, 1)
}

func (i *Instruments) RecordToolDuration(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}
