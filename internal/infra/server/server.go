package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
	"google.golang.org/grpc"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/ai"
	"github.com/LabelSafe/food-advisory-service/internal/core/analysis"
	"github.com/LabelSafe/food-advisory-service/internal/core/openfoodfacts"
	"github.com/LabelSafe/food-advisory-service/internal/core/products"
	"github.com/LabelSafe/food-advisory-service/internal/core/translations"
	"github.com/LabelSafe/food-advisory-service/internal/core/vocab"
	"github.com/LabelSafe/food-advisory-service/pkg/telemetry"
)

type Server struct {
	cfg            *config.Config
	app            *fiber.App
	db             *pgxpool.Pool
	traceProvider  *sdktrace.TracerProvider
	metricProvider *metric.MeterProvider
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

func New(ctx context.Context, cfg *config.Config, dbConn *pgxpool.Pool, redisClient *redis.Client) *Server {
	traceExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		slog.Error("failed to initialize jaeger exporter", slog.String("error", err.Error()))
		return nil
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OtlpEndpoint),
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithDialOption(grpc.WithUserAgent("food-advisory-service")),
	)
	if err != nil {
		slog.Error("failed to initialize otlp exporter", slog.String("error", err.Error()))
		return nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String("food-advisory-service"),
			)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	provider := metric.NewMeterProvider(metric.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String("food-advisory-service"),
	)), metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(15*time.Second))))

	otel.SetMeterProvider(provider)

	if err := telemetry.InitTelemetry(provider, dbConn); err != nil {
		slog.Error("failed to initialize telemetry", slog.String("error", err.Error()))
		return nil
	}

	instrumentedConn, err := telemetry.NewInstrumentedPool(provider, dbConn)
	if err != nil {
		slog.Error("failed to create instrumented pool", slog.String("error", err.Error()))
		return nil
	}

	app := fiber.New(cfg.Fiber())

	serverCtx, cancel := context.WithCancel(ctx)

	logger := slog.Default()

	// Vocabulary is loaded once before request serving begins.
	vocabCache := vocab.NewCache(cfg.GetVocabularyConfig(), logger)
	vocabCache.Load()

	promptCfg := cfg.GetPromptConfig()
	generator := ai.NewOpenAIClient(cfg.GetOpenAIConfig(), logger)

	translationService := translations.NewService(
		translations.NewPostgresRepository(instrumentedConn),
		generator,
		promptCfg.Translation,
		logger,
	)
	healthAdvisor := analysis.NewHealthAdvisor(generator, promptCfg.Analysis, cfg.TargetLanguage, logger)

	handlers := NewHandlers(
		openfoodfacts.NewClient(*cfg, redisClient, logger),
		products.NewParser(vocabCache),
		analysis.NewOrchestrator(healthAdvisor, translationService, logger),
		analysis.NewComprehensiveAdvisor(generator, promptCfg.Comprehensive, cfg.TargetLanguage, logger),
		logger,
	)

	initGlobalMiddlewares(app, cfg)
	registerHttpRoutes(app, handlers)

	return &Server{
		cfg:            cfg,
		app:            app,
		db:             dbConn,
		traceProvider:  tp,
		metricProvider: provider,
		ctx:            serverCtx,
		cancel:         cancel,
	}
}

func (s *Server) Start() {
	slog.Info("Starting HTTP server", slog.String("address", s.cfg.ServerAddress))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.app.Listen(s.cfg.ServerAddress); err != nil {
			slog.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()
}

func (s *Server) Shutdown() {
	slog.Info("Shutting down server")

	// Cancel context to stop all goroutines
	s.cancel()

	// Shutdown HTTP server
	if err := s.app.Shutdown(); err != nil {
		slog.Error("Error shutting down HTTP server", slog.String("error", err.Error()))
	}

	// Wait for all goroutines to finish
	s.wg.Wait()

	// Shutdown telemetry providers
	if err := s.traceProvider.Shutdown(context.Background()); err != nil {
		slog.Error("Error shutting down trace provider", slog.String("error", err.Error()))
	}

	if err := s.metricProvider.Shutdown(context.Background()); err != nil {
		slog.Error("Error shutting down metric provider", slog.String("error", err.Error()))
	}

	s.db.Close()

	slog.Info("Server shut down successfully")
}
