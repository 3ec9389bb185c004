package telemetry

import (
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Business metrics for application-level monitoring
var (
	// Product lookup metrics
	ProductLookupsTotal   api.Int64Counter
	ProductCacheHitsTotal api.Int64Counter
	UpstreamErrorsTotal   api.Int64Counter

	// Advisory metrics
	AnalysisRequestsTotal      api.Int64Counter
	ComprehensiveRequestsTotal api.Int64Counter
	OpenAIErrorsTotal          api.Int64Counter

	// Translation cache metrics
	TranslationCacheHitsTotal   api.Int64Counter
	TranslationCacheMissesTotal api.Int64Counter

	// Error tracking
	ApplicationErrorsTotal api.Int64Counter
	DatabaseErrorsTotal    api.Int64Counter
)

// InitBusinessMetrics initializes all business-level metrics
func InitBusinessMetrics(provider *metric.MeterProvider) error {
	meter := provider.Meter("business")

	var err error

	ProductLookupsTotal, err = meter.Int64Counter("product.lookups.total",
		api.WithDescription("Total barcode product lookups by method"))
	if err != nil {
		return err
	}

	ProductCacheHitsTotal, err = meter.Int64Counter("product.cache.hits.total",
		api.WithDescription("Total upstream product payloads served from Redis"))
	if err != nil {
		return err
	}

	UpstreamErrorsTotal, err = meter.Int64Counter("upstream.errors.total",
		api.WithDescription("Total OpenFoodFacts request failures by status"))
	if err != nil {
		return err
	}

	AnalysisRequestsTotal, err = meter.Int64Counter("analysis.requests.total",
		api.WithDescription("Total single-product health analyses performed"))
	if err != nil {
		return err
	}

	ComprehensiveRequestsTotal, err = meter.Int64Counter("analysis.comprehensive.total",
		api.WithDescription("Total multi-product comprehensive analyses performed"))
	if err != nil {
		return err
	}

	OpenAIErrorsTotal, err = meter.Int64Counter("openai.errors.total",
		api.WithDescription("Total OpenAI call failures by prompt type"))
	if err != nil {
		return err
	}

	TranslationCacheHitsTotal, err = meter.Int64Counter("translations.cache.hits.total",
		api.WithDescription("Total ingredient translation cache hits"))
	if err != nil {
		return err
	}

	TranslationCacheMissesTotal, err = meter.Int64Counter("translations.cache.misses.total",
		api.WithDescription("Total ingredient translation cache misses"))
	if err != nil {
		return err
	}

	ApplicationErrorsTotal, err = meter.Int64Counter("application.errors.total",
		api.WithDescription("Total application errors by component and type"))
	if err != nil {
		return err
	}

	DatabaseErrorsTotal, err = meter.Int64Counter("database.errors.total",
		api.WithDescription("Total database errors by operation and type"))
	if err != nil {
		return err
	}

	return nil
}
