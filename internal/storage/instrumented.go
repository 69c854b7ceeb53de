package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures backend call telemetry.
type Observer interface {
	Observe(backend, operation string, duration time.Duration, err error)
}

// PrometheusObserver exports backend timings under the "backend" namespace.
type PrometheusObserver struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewPrometheusObserver registers the backend metrics on reg
// (prometheus.DefaultRegisterer when nil).
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "backend",
		Name:      "operation_duration_seconds",
		Help:      "Latency of attachment backend calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "operation"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backend",
		Name:      "operation_errors_total",
		Help:      "Count of failed attachment backend calls.",
	}, []string{"backend", "operation"})

	if err := reg.Register(duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register backend metric: %w", err)
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	if err := reg.Register(failures); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register backend metric: %w", err)
		}
		failures = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return &PrometheusObserver{duration: duration, errors: failures}, nil
}

func (o *PrometheusObserver) Observe(backend, operation string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues(backend, operation).Inc()
	}
}

// Instrumented times every backend call of the wrapped Store.
type Instrumented struct {
	Store
	observer Observer
}

// Instrument wraps store. A nil observer returns store unchanged.
func Instrument(store Store, observer Observer) Store {
	if observer == nil {
		return store
	}
	return &Instrumented{Store: store, observer: observer}
}

func (s *Instrumented) Save(ctx context.Context, content []byte, filename string, opts SaveOptions) (string, error) {
	start := time.Now()
	location, err := s.Store.Save(ctx, content, filename, opts)
	s.observe("save", start, err)
	return location, err
}

func (s *Instrumented) Delete(ctx context.Context, location string) error {
	start := time.Now()
	err := s.Store.Delete(ctx, location)
	s.observe("delete", start, err)
	return err
}

func (s *Instrumented) Exists(ctx context.Context, location string) (bool, error) {
	start := time.Now()
	ok, err := s.Store.Exists(ctx, location)
	s.observe("exists", start, err)
	return ok, err
}

// Close closes the wrapped store when it holds a client.
func (s *Instrumented) Close() error {
	if closer, ok := s.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Instrumented) observe(operation string, start time.Time, err error) {
	// A rejected extension is a client error, not a backend failure.
	if errors.Is(err, ErrFileNotAllowed) {
		err = nil
	}
	s.observer.Observe(s.Store.Name(), operation, time.Since(start), err)
}
