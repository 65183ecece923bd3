// internal/insights/store.go
package insights

import (
	"context"
	"fmt"
	"os"
	"time"

	"hms-analytics/internal/appointments"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/metrics"
	"hms-analytics/internal/common/observability"
	"hms-analytics/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Store supplies the insight collection. Implementations are read-only and safe for
// concurrent use. Any failure is reported as DataUnavailable.
type Store interface {
	Load(ctx context.Context) ([]models.Insight, error)
	Name() string
}

// FixtureStore serves a JSON fixture file, re-read on every Load so that a replaced
// or damaged file is noticed without a restart.
type FixtureStore struct {
	path string
}

func NewFixtureStore(path string) *FixtureStore {
	return &FixtureStore{path: path}
}

func (s *FixtureStore) Name() string { return "fixture" }

func (s *FixtureStore) Load(ctx context.Context) ([]models.Insight, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewDataUnavailableError(err)
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.NewDataUnavailableError(fmt.Errorf("read fixture: %w", err))
	}
	return Decode(raw)
}

// ComputedStore aggregates the collection from an appointment source on every Load.
type ComputedStore struct {
	source  appointments.Source
	timeout time.Duration
}

func NewComputedStore(source appointments.Source, timeout time.Duration) *ComputedStore {
	return &ComputedStore{source: source, timeout: timeout}
}

func (s *ComputedStore) Name() string { return "computed-" + s.source.Name() }

func (s *ComputedStore) Load(ctx context.Context) ([]models.Insight, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	appts, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, errors.NewDataUnavailableError(err)
	}

	collection, err := Aggregate(appts)
	if err != nil {
		return nil, errors.NewDataUnavailableError(err)
	}
	if err := Validate(collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// TracedStore wraps a Store with a span, Prometheus failure counts and otel load metrics.
type TracedStore struct {
	inner Store
	obs   *observability.Observability
}

func NewTracedStore(inner Store, obs *observability.Observability) *TracedStore {
	return &TracedStore{inner: inner, obs: obs}
}

func (s *TracedStore) Name() string { return s.inner.Name() }

func (s *TracedStore) Load(ctx context.Context) ([]models.Insight, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "insights.load", attribute.String("store", s.inner.Name()))

	collection, err := s.inner.Load(ctx)

	s.obs.RecordLoad(ctx, s.inner.Name(), time.Since(start), err)
	if err != nil {
		metrics.LoadFailures.WithLabelValues(s.inner.Name(), string(errors.Normalize(err).Code)).Inc()
	} else {
		span.SetAttributes(attribute.Int("insights.count", len(collection)))
	}
	observability.EndSpan(span, err)
	return collection, err
}
