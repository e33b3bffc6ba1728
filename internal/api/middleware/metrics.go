package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/flightscope/flightscope/internal/api/middleware"

// instruments creates instruments on one meter and keeps the first error of each.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func newInstruments() *instruments {
	return &instruments{meter: otel.Meter(meterName)}
}

func (b *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	b.errs = append(b.errs, err)
	return h
}

func (b *instruments) bytes(name, desc string) metric.Int64Histogram {
	h, err := b.meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit("By"))
	b.errs = append(b.errs, err)
	return h
}

func (b *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{request}"))
	b.errs = append(b.errs, err)
	return c
}

func (b *instruments) gauge(name, desc string) metric.Int64UpDownCounter {
	g, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit("{request}"))
	b.errs = append(b.errs, err)
	return g
}

func (b *instruments) err() error { return errors.Join(b.errs...) }

// Metrics holds the HTTP server instruments.
type Metrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewMetrics creates the HTTP server instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	b := newInstruments()
	m := &Metrics{
		duration: b.seconds("http.server.request.duration", "Duration of HTTP server requests"),
		total:    b.counter("http.server.request.total", "HTTP server requests served"),
		inFlight: b.gauge("http.server.requests_in_flight", "HTTP requests currently being served"),
		size:     b.bytes("http.server.response.size", "Size of HTTP response bodies"),
	}
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware records one measurement per request, labelled with the chi
// route pattern rather than the raw path.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			byMethod := metric.WithAttributes(attribute.String("http.method", r.Method))
			m.inFlight.Add(ctx, 1, byMethod)
			defer m.inFlight.Add(ctx, -1, byMethod)

			snoop := serve(next, w, r)

			attrs := attribute.NewSet(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.status_code", strconv.Itoa(snoop.Code)),
				attribute.Bool("error", snoop.Code >= http.StatusBadRequest),
			)
			opt := metric.WithAttributeSet(attrs)
			m.duration.Record(ctx, snoop.Duration.Seconds(), opt)
			m.total.Add(ctx, 1, opt)
			m.size.Record(ctx, snoop.Written, opt)
		})
	}
}

// ProviderMetrics records calls to the upstream flight provider.
// It satisfies flights.MetricsRecorder.
type ProviderMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// NewProviderMetrics creates the provider call instruments.
func NewProviderMetrics() (*ProviderMetrics, error) {
	b := newInstruments()
	m := &ProviderMetrics{
		duration: b.seconds("provider.request.duration", "Duration of upstream provider calls"),
		total:    b.counter("provider.request.total", "Upstream provider calls made"),
	}
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequest records one provider call.
func (m *ProviderMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)

	// The request context may already be cancelled by the time this runs.
	ctx := context.Background()
	m.duration.Record(ctx, duration.Seconds(), opt)
	m.total.Add(ctx, 1, opt)
}
