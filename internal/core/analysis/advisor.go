package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/ai"
	"github.com/LabelSafe/food-advisory-service/internal/core/products"
)

var tracer = otel.Tracer("analysis-service")

// Fallback advisory text returned when the model call fails. Callers never see
// an error from the advisors.
const (
	AnalysisFallback      = "건강 분석을 수행하는 중 오류가 발생했습니다."
	ComprehensiveFallback = "종합 건강 분석을 수행하는 중 오류가 발생했습니다."
)

// MaxComprehensiveProducts caps one comprehensive-analysis request.
const MaxComprehensiveProducts = 10

// Validation failures surfaced to the HTTP layer as 400s.
var (
	ErrNoProducts      = errors.New("products data is required")
	ErrTooManyProducts = fmt.Errorf("at most %d products can be analyzed at once", MaxComprehensiveProducts)
	ErrNoHealthProfile = errors.New("health profile is required")
	ErrNoValidProducts = errors.New("no valid product data found")
)

// HealthAdvisor produces a single-product health assessment for a given
// health profile.
type HealthAdvisor struct {
	generator    ai.Generator
	params       config.ModelParams
	systemPrompt string
	logger       *slog.Logger
}

func NewHealthAdvisor(generator ai.Generator, params config.ModelParams, targetLanguage string, logger *slog.Logger) *HealthAdvisor {
	return &HealthAdvisor{
		generator:    generator,
		params:       params,
		systemPrompt: ai.HealthExpertSystemPrompt(targetLanguage),
		logger:       logger.With("service", "health-advisor"),
	}
}

// Assess generates an advisory for one product and profile. On any failure it
// returns the fixed fallback text.
func (a *HealthAdvisor) Assess(ctx context.Context, product *products.ProductInfo, healthProfile json.RawMessage) string {
	ctx, span := tracer.Start(ctx, "analysis.Assess")
	defer span.End()

	productJSON, err := json.MarshalIndent(product, "", "  ")
	if err != nil {
		a.logger.Error("Failed to serialize product info", "error", err)
		return AnalysisFallback
	}

	advisory, err := a.generator.Generate(ctx, ai.GenerateRequest{
		System:      a.systemPrompt,
		User:        fmt.Sprintf(ai.HealthProfileAnalysisPromptTemplate, indentJSON(healthProfile), productJSON),
		Model:       a.params.Model,
		MaxTokens:   a.params.MaxTokens,
		Temperature: a.params.Temperature,
	})
	if err != nil {
		a.logger.Error("Health analysis failed", "barcode", product.Code, "error", err)
		return AnalysisFallback
	}

	return advisory
}

// NormalizedProduct is the cleaned-up shape of one externally supplied product
// in a comprehensive-analysis request.
type NormalizedProduct struct {
	Code            string                 `json:"code"`
	ProductName     string                 `json:"product_name"`
	Brands          string                 `json:"brands"`
	Nutriments      map[string]interface{} `json:"nutriments"`
	AllergensTags   []string               `json:"allergens_tags"`
	FoodGroupsTags  []string               `json:"food_groups_tags"`
	NutriscoreGrade string                 `json:"nutriscore_grade"`
	NutrientLevels  map[string]interface{} `json:"nutrient_levels"`
	Ingredients     []interface{}          `json:"ingredients"`
	ServingSize     string                 `json:"serving_size"`
	Quantity        string                 `json:"quantity"`
	ImageURL        string                 `json:"image_url"`
}

// ProductSummary is the per-product echo in the comprehensive response.
type ProductSummary struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Brands  string `json:"brands"`
}

// ComprehensiveResult is the payload of a successful comprehensive analysis.
type ComprehensiveResult struct {
	ComprehensiveAnalysis string           `json:"comprehensive_analysis"`
	AnalyzedProducts      int              `json:"analyzed_products"`
	TotalRequested        int              `json:"total_requested"`
	SkippedProducts       int              `json:"skipped_products"`
	ProductsSummary       []ProductSummary `json:"products_summary"`
}

// ComprehensiveAdvisor produces one combined advisory over a batch of
// products. The batch is normalized sequentially and analyzed with a single
// model call.
type ComprehensiveAdvisor struct {
	generator    ai.Generator
	params       config.ModelParams
	systemPrompt string
	logger       *slog.Logger
}

func NewComprehensiveAdvisor(generator ai.Generator, params config.ModelParams, targetLanguage string, logger *slog.Logger) *ComprehensiveAdvisor {
	return &ComprehensiveAdvisor{
		generator:    generator,
		params:       params,
		systemPrompt: ai.ComprehensiveHealthExpertSystemPrompt(targetLanguage),
		logger:       logger.With("service", "comprehensive-advisor"),
	}
}

// AssessMany validates and normalizes the supplied products, then issues one
// combined advisory call. Validation failures return an error; a failed model
// call degrades to the fixed fallback text.
func (a *ComprehensiveAdvisor) AssessMany(ctx context.Context, productsData []map[string]interface{}, healthProfile json.RawMessage) (*ComprehensiveResult, error) {
	ctx, span := tracer.Start(ctx, "analysis.AssessMany")
	defer span.End()

	if len(productsData) == 0 {
		return nil, ErrNoProducts
	}
	if len(productsData) > MaxComprehensiveProducts {
		return nil, ErrTooManyProducts
	}
	if EmptyProfile(healthProfile) {
		return nil, ErrNoHealthProfile
	}

	normalized := make([]NormalizedProduct, 0, len(productsData))
	skipped := 0

	for _, productData := range productsData {
		// The identifier and nutrition fields each have two accepted aliases.
		barcode := stringField(productData, "code")
		if barcode == "" {
			barcode = stringField(productData, "barcode")
		}
		if barcode == "" {
			a.logger.Warn("Skipping product without barcode in comprehensive analysis")
			skipped++
			continue
		}

		nutriments := mapField(productData, "nutriments")
		if nutriments == nil {
			nutriments = mapField(productData, "nutrition_data")
		}
		if nutriments == nil {
			nutriments = map[string]interface{}{}
		}

		nutrientLevels := mapField(productData, "nutrient_levels")
		if nutrientLevels == nil {
			nutrientLevels = map[string]interface{}{}
		}

		ingredients, _ := productData["ingredients"].([]interface{})
		if ingredients == nil {
			ingredients = []interface{}{}
		}

		normalized = append(normalized, NormalizedProduct{
			Code:            barcode,
			ProductName:     stringField(productData, "product_name"),
			Brands:          stringField(productData, "brands"),
			Nutriments:      nutriments,
			AllergensTags:   stringSliceField(productData, "allergens_tags"),
			FoodGroupsTags:  stringSliceField(productData, "food_groups_tags"),
			NutriscoreGrade: stringField(productData, "nutriscore_grade"),
			NutrientLevels:  nutrientLevels,
			Ingredients:     ingredients,
			ServingSize:     stringField(productData, "serving_size"),
			Quantity:        stringField(productData, "quantity"),
			ImageURL:        stringField(productData, "image_url"),
		})
	}

	if len(normalized) == 0 {
		return nil, ErrNoValidProducts
	}

	summaries := make([]ProductSummary, 0, len(normalized))
	for _, product := range normalized {
		summaries = append(summaries, ProductSummary{
			Barcode: product.Code,
			Name:    product.ProductName,
			Brands:  product.Brands,
		})
	}

	return &ComprehensiveResult{
		ComprehensiveAnalysis: a.generate(ctx, normalized, healthProfile),
		AnalyzedProducts:      len(normalized),
		TotalRequested:        len(productsData),
		SkippedProducts:       skipped,
		ProductsSummary:       summaries,
	}, nil
}

func (a *ComprehensiveAdvisor) generate(ctx context.Context, normalized []NormalizedProduct, healthProfile json.RawMessage) string {
	productsJSON, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		a.logger.Error("Failed to serialize normalized products", "error", err)
		return ComprehensiveFallback
	}

	advisory, err := a.generator.Generate(ctx, ai.GenerateRequest{
		System:      a.systemPrompt,
		User:        fmt.Sprintf(ai.ComprehensiveHealthAnalysisPromptTemplate, indentJSON(healthProfile), productsJSON),
		Model:       a.params.Model,
		MaxTokens:   a.params.MaxTokens,
		Temperature: a.params.Temperature,
	})
	if err != nil {
		a.logger.Error("Comprehensive health analysis failed",
			"products", len(normalized),
			"error", err)
		return ComprehensiveFallback
	}

	return advisory
}

// indentJSON pretty-prints a raw JSON document for prompt embedding, falling
// back to the raw bytes when they do not re-indent cleanly.
func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// EmptyProfile reports whether a raw health-profile document carries no
// content. Absent, null and empty-object profiles are all treated as missing.
func EmptyProfile(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func mapField(m map[string]interface{}, key string) map[string]interface{} {
	inner, _ := m[key].(map[string]interface{})
	return inner
}

func stringSliceField(m map[string]interface{}, key string) []string {
	list, _ := m[key].([]interface{})
	values := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}
