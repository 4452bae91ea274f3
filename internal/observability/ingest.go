package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IngestMetrics records outcomes of the record ingestion pipeline.
type IngestMetrics interface {
	RecordRecordsCreated(ctx context.Context, count int)
	RecordRecordsUpdated(ctx context.Context, count int)
	RecordBulkError(ctx context.Context, operation string)
	RecordIndexFailure(ctx context.Context)
}

type ingestMetrics struct {
	recordsCreated metric.Int64Counter
	recordsUpdated metric.Int64Counter
	bulkErrors     metric.Int64Counter
	indexFailures  metric.Int64Counter
}

// NewIngestMetrics creates IngestMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewIngestMetrics(meter metric.Meter) (IngestMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	recordsCreated, err := meter.Int64Counter(
		MetricNameRecordsCreated,
		metric.WithDescription("Records created through the bulk pipeline."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create records created counter: %w", err)
	}

	recordsUpdated, err := meter.Int64Counter(
		MetricNameRecordsUpdated,
		metric.WithDescription("Records updated through the bulk pipeline."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create records updated counter: %w", err)
	}

	bulkErrors, err := meter.Int64Counter(
		MetricNameBulkErrors,
		metric.WithDescription("Failed bulk requests. Label operation: create, upsert, update."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create bulk errors counter: %w", err)
	}

	indexFailures, err := meter.Int64Counter(
		MetricNameIndexFailures,
		metric.WithDescription("Search index writes that failed and rolled the batch back."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create index failures counter: %w", err)
	}

	return &ingestMetrics{
		recordsCreated: recordsCreated,
		recordsUpdated: recordsUpdated,
		bulkErrors:     bulkErrors,
		indexFailures:  indexFailures,
	}, nil
}

func (m *ingestMetrics) RecordRecordsCreated(ctx context.Context, count int) {
	if count <= 0 {
		return
	}

	m.recordsCreated.Add(ctx, int64(count))
}

func (m *ingestMetrics) RecordRecordsUpdated(ctx context.Context, count int) {
	if count <= 0 {
		return
	}

	m.recordsUpdated.Add(ctx, int64(count))
}

func (m *ingestMetrics) RecordBulkError(ctx context.Context, operation string) {
	m.bulkErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, NormalizeBulkOperation(operation)),
	))
}

func (m *ingestMetrics) RecordIndexFailure(ctx context.Context) {
	m.indexFailures.Add(ctx, 1)
}
