package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "streamline"

// Registry holds every collector the process exports.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	MessagesReceived = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "kafka_source",
		Name: "messages_received_total",
		Help: "Messages handed out by the broker cursor.",
	})
	MessagesSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "kafka_source",
		Name: "messages_skipped_total",
		Help: "Messages discarded because they carried no payload.",
	})
	OffsetsStored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "kafka_source",
		Name: "offsets_stored_total",
		Help: "Offsets stored for later commit.",
	})
	EventsForwarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "kafka_source",
		Name: "events_forwarded_total",
		Help: "Events accepted by the downstream channel.",
	})
	SourceErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "kafka_source",
		Name: "errors_total",
		Help: "Terminal source errors by stage.",
	}, []string{"stage"})
	SourceState = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "kafka_source",
		Name: "state",
		Help: "0 uninitialized, 1 connected, 2 running, 3 terminated.",
	})
	SinkPushes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "sink",
		Name: "pushes_total",
		Help: "Events pushed to sinks by result.",
	}, []string{"sink", "result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Serve exposes /metrics on port until ctx ends.
func Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
