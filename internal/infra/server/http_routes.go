package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogfiber "github.com/samber/slog-fiber"
	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/analysis"
	"github.com/LabelSafe/food-advisory-service/internal/core/openfoodfacts"
	"github.com/LabelSafe/food-advisory-service/internal/core/products"
	"github.com/LabelSafe/food-advisory-service/pkg/telemetry"
)

// API error messages
const (
	msgInvalidJSON     = "Invalid JSON data"
	msgProductNotFound = "Product not found"
	msgProfileRequired = "health profile is required"
)

// ProductProvider fetches raw product payloads from the upstream database.
type ProductProvider interface {
	GetProduct(ctx context.Context, barcode string) (map[string]interface{}, error)
}

// Orchestrator runs the parallel health analysis for one product.
type Orchestrator interface {
	Analyze(ctx context.Context, product *products.ProductInfo, healthProfile json.RawMessage)
}

// BatchAdvisor produces the combined multi-product advisory.
type BatchAdvisor interface {
	AssessMany(ctx context.Context, productsData []map[string]interface{}, healthProfile json.RawMessage) (*analysis.ComprehensiveResult, error)
}

type Handlers struct {
	provider      ProductProvider
	parser        *products.Parser
	orchestrator  Orchestrator
	comprehensive BatchAdvisor
	logger        *slog.Logger
}

func NewHandlers(provider ProductProvider, parser *products.Parser, orchestrator Orchestrator, comprehensive BatchAdvisor, logger *slog.Logger) *Handlers {
	return &Handlers{
		provider:      provider,
		parser:        parser,
		orchestrator:  orchestrator,
		comprehensive: comprehensive,
		logger:        logger.With("component", "http_handler"),
	}
}

func initGlobalMiddlewares(app *fiber.App, cfg *config.Config) {
	app.Use(
		compress.New(compress.Config{
			Level: compress.LevelDefault,
		}),

		slogfiber.NewWithFilters(slog.Default(), slogfiber.IgnorePath("/health")),

		cors.New(cors.Config{
			AllowOrigins: "*", // TODO - add allowed origins
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, OPTIONS",
		}),

		favicon.New(),
		limiter.New(limiter.Config{
			Max:               cfg.RateLimitMax,
			Expiration:        time.Duration(cfg.RateLimitWindow) * time.Second,
			LimiterMiddleware: limiter.SlidingWindow{},
		}),
	)

	app.Use(otelfiber.Middleware())
}

func registerHttpRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "timestamp": time.Now().Unix()})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/barcode/:barcode", h.HandleBarcode)
	app.Post("/barcode/:barcode", h.HandleBarcode)
	app.Post("/comprehensive-analysis", h.HandleComprehensiveAnalysis)
}

// analysisRequest is the POST /barcode body.
type analysisRequest struct {
	HealthProfile json.RawMessage `json:"health_profile"`
}

// comprehensiveRequest is the POST /comprehensive-analysis body.
type comprehensiveRequest struct {
	ProductsData  []map[string]interface{} `json:"products_data"`
	HealthProfile json.RawMessage          `json:"health_profile"`
}

// HandleBarcode serves GET and POST /barcode/:barcode. GET returns the
// enriched product record; POST additionally runs the parallel health analysis
// against the supplied health profile.
func (h *Handlers) HandleBarcode(c *fiber.Ctx) error {
	barcode := c.Params("barcode")

	if telemetry.ProductLookupsTotal != nil {
		telemetry.ProductLookupsTotal.Add(c.UserContext(), 1,
			api.WithAttributes(attribute.String("method", c.Method())))
	}

	product, err := h.provider.GetProduct(c.UserContext(), barcode)
	if err != nil {
		var upstreamErr *openfoodfacts.UpstreamError
		if errors.As(err, &upstreamErr) {
			if telemetry.UpstreamErrorsTotal != nil {
				telemetry.UpstreamErrorsTotal.Add(c.UserContext(), 1,
					api.WithAttributes(attribute.Int("status_code", upstreamErr.StatusCode)))
			}
			return failure(c, upstreamErr.StatusCode, upstreamErr.Error())
		}
		h.logger.Error("Product lookup failed", "barcode", barcode, "error", err)
		return failure(c, fiber.StatusInternalServerError, "Request error: "+err.Error())
	}

	if product == nil {
		return failure(c, fiber.StatusNotFound, msgProductNotFound)
	}

	productInfo := h.parser.Parse(product, barcode)

	if c.Method() == fiber.MethodPost {
		var req analysisRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return failure(c, fiber.StatusBadRequest, msgInvalidJSON)
		}
		if analysis.EmptyProfile(req.HealthProfile) {
			return failure(c, fiber.StatusBadRequest, msgProfileRequired)
		}

		if telemetry.AnalysisRequestsTotal != nil {
			telemetry.AnalysisRequestsTotal.Add(c.UserContext(), 1)
		}

		h.orchestrator.Analyze(c.UserContext(), productInfo, req.HealthProfile)
	}

	return success(c, productInfo)
}

// HandleComprehensiveAnalysis serves POST /comprehensive-analysis.
func (h *Handlers) HandleComprehensiveAnalysis(c *fiber.Ctx) error {
	var req comprehensiveRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return failure(c, fiber.StatusBadRequest, msgInvalidJSON)
	}

	if telemetry.ComprehensiveRequestsTotal != nil {
		telemetry.ComprehensiveRequestsTotal.Add(c.UserContext(), 1)
	}

	result, err := h.comprehensive.AssessMany(c.UserContext(), req.ProductsData, req.HealthProfile)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrNoValidProducts):
			return failure(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, analysis.ErrNoProducts),
			errors.Is(err, analysis.ErrTooManyProducts),
			errors.Is(err, analysis.ErrNoHealthProfile):
			return failure(c, fiber.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Comprehensive analysis failed", "error", err)
			return failure(c, fiber.StatusInternalServerError, "Unexpected error: "+err.Error())
		}
	}

	return success(c, result)
}

func success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func failure(c *fiber.Ctx, status int, message string) error {
	if status >= fiber.StatusInternalServerError && telemetry.ApplicationErrorsTotal != nil {
		telemetry.ApplicationErrorsTotal.Add(c.UserContext(), 1,
			api.WithAttributes(attribute.Int("status_code", status)))
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}
