// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// GatePassMetrics provides business metrics for the gate pass workflow.
// It tracks submissions, stage transitions, item returns and the health of
// the identity resolution pipeline.
type GatePassMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	createdTotal       *Counter
	transitionTotal    *Counter
	itemsReturnedTotal *Counter
	lookupTotal        *Counter
	cacheHitTotal      *Counter
	cacheMissTotal     *Counter
	reconcileBatches   *Counter
	reconcileDuration  *Histogram
}

// GatePassMetricsConfig holds configuration for gate pass metrics.
type GatePassMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewGatePassMetrics creates a new GatePassMetrics instance.
func NewGatePassMetrics(cfg GatePassMetricsConfig) (*GatePassMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gm := &GatePassMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	gm.createdTotal, err = NewCounter(
		cfg.Meter,
		"gatepass_created_total",
		"Total number of gate pass requests submitted",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	gm.transitionTotal, err = NewCounter(
		cfg.Meter,
		"gatepass_transition_total",
		"Total number of gate pass stage transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	gm.itemsReturnedTotal, err = NewCounter(
		cfg.Meter,
		"gatepass_items_returned_total",
		"Total number of returnable items marked returned",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	gm.lookupTotal, err = NewCounter(
		cfg.Meter,
		"gatepass_identity_lookup_total",
		"Total number of identity lookups by source and outcome",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	gm.cacheHitTotal, err = NewCounter(
		cfg.Meter,
		"gatepass_profile_cache_hits_total",
		"Total number of profile cache hits",
		"{hits}",
	)
	if err != nil {
		return nil, err
	}

	gm.cacheMissTotal, err = NewCounter(
		cfg.Meter,
		"gatepass_profile_cache_misses_total",
		"Total number of profile cache misses",
		"{misses}",
	)
	if err != nil {
		return nil, err
	}

	gm.reconcileBatches, err = NewCounter(
		cfg.Meter,
		"gatepass_reconcile_batches_total",
		"Total number of record batches reconciled",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	gm.reconcileDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "gatepass_reconcile_duration_seconds",
		Description: "Duration of reconcile plus enrichment per listing request",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Gate pass metrics initialized")
	return gm, nil
}

// RecordCreated records a submitted gate pass request
func (gm *GatePassMetrics) RecordCreated(ctx context.Context, branch string) {
	gm.createdTotal.Inc(ctx, AttrBranch.String(branch))
}

// RecordTransition records a stage transition
func (gm *GatePassMetrics) RecordTransition(ctx context.Context, status string) {
	gm.transitionTotal.Inc(ctx, AttrGatePassStatus.String(status))
}

// RecordItemsReturned records returned items
func (gm *GatePassMetrics) RecordItemsReturned(ctx context.Context, count int64) {
	if count > 0 {
		gm.itemsReturnedTotal.Add(ctx, count)
	}
}

// RecordLookup records an identity lookup against a source
func (gm *GatePassMetrics) RecordLookup(ctx context.Context, source, outcome string) {
	gm.lookupTotal.Inc(ctx,
		AttrLookupSource.String(source),
		AttrLookupOutcome.String(outcome),
	)
}

// RecordCacheHit records a profile cache hit
func (gm *GatePassMetrics) RecordCacheHit(ctx context.Context) {
	gm.cacheHitTotal.Inc(ctx)
}

// RecordCacheMiss records a profile cache miss
func (gm *GatePassMetrics) RecordCacheMiss(ctx context.Context) {
	gm.cacheMissTotal.Inc(ctx)
}

// RecordReconcile records one reconciled batch and how long it took
func (gm *GatePassMetrics) RecordReconcile(ctx context.Context, seconds float64) {
	gm.reconcileBatches.Inc(ctx)
	gm.reconcileDuration.Record(ctx, seconds)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewGatePassMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
