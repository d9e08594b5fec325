package checker

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fyrsmithlabs/secretsguard/internal/checker"

// metrics records run statistics through the global meter provider. With no
// SDK installed the instruments are no-ops.
type metrics struct {
	references metric.Int64Counter
	documents  metric.Int64Counter
	forbidden  metric.Int64Counter
	duration   metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)

	m.references, err = meter.Int64Counter(
		"secretsguard.references",
		metric.WithDescription("Secret references found in workflow documents, by classification"),
		metric.WithUnit("{reference}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create references counter: %w", err)
	}

	m.documents, err = meter.Int64Counter(
		"secretsguard.documents",
		metric.WithDescription("Workflow documents scanned"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents counter: %w", err)
	}

	m.forbidden, err = meter.Int64Counter(
		"secretsguard.forbidden",
		metric.WithDescription("Forbidden secrets found in the accessible set"),
		metric.WithUnit("{secret}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create forbidden counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"secretsguard.run.duration",
		metric.WithDescription("Duration of a full check run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	return &m, nil
}

func defaultMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}
