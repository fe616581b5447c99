package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	transitions     metric.Int64Counter
	reconciliations metric.Int64Counter
	intents         metric.Int64Counter
	guardDenied     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "rentalcore"
	}
	meter := provider.Meter(name)

	transitions, err := meter.Int64Counter("rentalcore_booking_transitions_total")
	if err != nil {
		return nil, err
	}
	reconciliations, err := meter.Int64Counter("rentalcore_payment_reconciliations_total")
	if err != nil {
		return nil, err
	}
	intents, err := meter.Int64Counter("rentalcore_notification_intents_total")
	if err != nil {
		return nil, err
	}
	guardDenied, err := meter.Int64Counter("rentalcore_write_guard_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		transitions:     transitions,
		reconciliations: reconciliations,
		intents:         intents,
		guardDenied:     guardDenied,
	}, nil
}

// RecordTransition increments booking transition counts.
func (m *Metrics) RecordTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("to_status", strings.TrimSpace(to)),
	)
	m.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReconciliation increments payment reconciliation counts.
func (m *Metrics) RecordReconciliation(ctx context.Context, paymentStatus string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("payment_status", strings.TrimSpace(paymentStatus)))
	m.reconciliations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotificationIntent increments emitted intent counts.
func (m *Metrics) RecordNotificationIntent(ctx context.Context, intentType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("intent_type", strings.TrimSpace(intentType)))
	m.intents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordGuardDenied increments write guard contention counts.
func (m *Metrics) RecordGuardDenied(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("operation", strings.TrimSpace(operation)))
	m.guardDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"from_status":    {},
	"to_status":      {},
	"payment_status": {},
	"intent_type":    {},
	"operation":      {},
	"endpoint":       {},
	"status_code":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
