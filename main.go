package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/norun9/gomarketplace-cart/cartstore"
	"github.com/norun9/gomarketplace-cart/services"
)

const serviceName = "cartservice"

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("invalid LOG_LEVEL %q, keeping %s", cfg.LogLevel, log.Level)
	}

	if cfg.EnableTracing {
		tp, err := initTracerProvider(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to initialize tracer provider: %v", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down tracer provider: %v", err)
			}
		}()
		log.Info("tracing enabled")
	}

	blobs, closeBlobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("failed to create %s blob store: %v", cfg.Backend, err)
	}
	defer closeBlobs.Close()
	if err := blobs.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize %s blob store: %v", cfg.Backend, err)
	}
	log.Infof("using %s blob store", cfg.Backend)

	store := cartstore.New(ctx, blobs,
		cartstore.WithStorageKey(cfg.StorageKey),
		cartstore.WithLogger(log),
	)

	// gRPC health endpoint.
	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("failed to listen on gRPC port %s: %v", cfg.GRPCPort, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthpb.RegisterHealthServer(grpcServer, services.NewHealthCheckService(store))
	go func() {
		log.Infof("health server listening on :%s", cfg.GRPCPort)
		if err := grpcServer.Serve(grpcLis); err != nil {
			log.Errorf("gRPC server stopped: %v", err)
		}
	}()

	// HTTP cart API.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           services.NewRouter(store, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("cart API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("HTTP server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("received shutdown signal, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}
	grpcServer.GracefulStop()
	if err := store.Close(shutdownCtx); err != nil {
		log.Warnf("pending cart snapshot not written: %v", err)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newBlobStore(cfg config) (cartstore.BlobStore, io.Closer, error) {
	switch cfg.Backend {
	case backendRedis:
		s := cartstore.NewRedisBlobStore(cfg.RedisAddr, log)
		return s, s, nil
	case backendSQLite:
		s, err := cartstore.NewSQLiteBlobStore(cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return cartstore.NewLocalBlobStore(), nopCloser{}, nil
	}
}

// initTracerProvider sets up an OTLP gRPC exporter for the given collector
// endpoint and installs it as the global TracerProvider.
func initTracerProvider(ctx context.Context, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("v1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}
