package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SimMetrics are the instruments the simulation runner reports.
type SimMetrics struct {
	ticks  metric.Int64Counter
	resets metric.Int64Counter
	speed  metric.Float64Gauge
}

// NewSimMetrics registers the runner instruments on meter.
func NewSimMetrics(meter metric.Meter) (*SimMetrics, error) {
	ticks, err := meter.Int64Counter("airace.ticks",
		metric.WithDescription("Controller ticks executed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticks counter: %w", err)
	}
	resets, err := meter.Int64Counter("airace.resets",
		metric.WithDescription("Reset sequences triggered by contacts"))
	if err != nil {
		return nil, fmt.Errorf("failed to create resets counter: %w", err)
	}
	speed, err := meter.Float64Gauge("airace.speed",
		metric.WithDescription("Current scalar speed"),
		metric.WithUnit("m/s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create speed gauge: %w", err)
	}
	return &SimMetrics{ticks: ticks, resets: resets, speed: speed}, nil
}

// Tick records one tick and the speed after it.
func (m *SimMetrics) Tick(ctx context.Context, vehicle string, speed float64) {
	attrs := metric.WithAttributes(attribute.String("vehicle", vehicle))
	m.ticks.Add(ctx, 1, attrs)
	m.speed.Record(ctx, speed, attrs)
}

// Reset records a reset trigger for the contact category.
func (m *SimMetrics) Reset(ctx context.Context, vehicle, category string) {
	m.resets.Add(ctx, 1, metric.WithAttributes(
		attribute.String("vehicle", vehicle),
		attribute.String("category", category),
	))
}
