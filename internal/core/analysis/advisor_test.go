package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/ai"
	"github.com/LabelSafe/food-advisory-service/internal/core/products"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
	lastReq  ai.GenerateRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req ai.GenerateRequest) (string, error) {
	g.calls++
	g.lastReq = req
	return g.response, g.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testParams = config.ModelParams{Model: "gpt-3.5-turbo", MaxTokens: 500, Temperature: 0.7}

func TestHealthAdvisorAssess(t *testing.T) {
	generator := &fakeGenerator{response: "당류 함량이 높아 주의가 필요합니다."}
	advisor := NewHealthAdvisor(generator, testParams, "ko", discardLogger())

	product := &products.ProductInfo{Code: "8801234567890", ProductName: "초코파이"}
	profile := json.RawMessage(`{"age": 44, "conditions": ["diabetes"]}`)

	advisory := advisor.Assess(context.Background(), product, profile)

	assert.Equal(t, "당류 함량이 높아 주의가 필요합니다.", advisory)
	assert.Equal(t, 1, generator.calls)
	assert.Contains(t, generator.lastReq.User, "초코파이")
	assert.Contains(t, generator.lastReq.User, "diabetes")
	assert.Equal(t, "gpt-3.5-turbo", generator.lastReq.Model)
}

func TestHealthAdvisorAssessFallsBackOnError(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("rate limited")}
	advisor := NewHealthAdvisor(generator, testParams, "ko", discardLogger())

	advisory := advisor.Assess(context.Background(), &products.ProductInfo{Code: "123"}, json.RawMessage(`{"age": 30}`))

	assert.Equal(t, AnalysisFallback, advisory)
}

func TestAdvisorsUseConfiguredTargetLanguage(t *testing.T) {
	generator := &fakeGenerator{response: "ok"}
	profile := json.RawMessage(`{"age": 30}`)

	advisor := NewHealthAdvisor(generator, testParams, "en", discardLogger())
	advisor.Assess(context.Background(), &products.ProductInfo{Code: "123"}, profile)
	assert.Contains(t, generator.lastReq.System, "in English")

	advisor = NewHealthAdvisor(generator, testParams, "ko", discardLogger())
	advisor.Assess(context.Background(), &products.ProductInfo{Code: "123"}, profile)
	assert.Contains(t, generator.lastReq.System, "in Korean")

	comprehensive := NewComprehensiveAdvisor(generator, testParams, "ja", discardLogger())
	_, err := comprehensive.AssessMany(context.Background(), []map[string]interface{}{{"code": "123"}}, profile)
	require.NoError(t, err)
	assert.Contains(t, generator.lastReq.System, "in Japanese")
}

func TestAssessManyValidation(t *testing.T) {
	advisor := NewComprehensiveAdvisor(&fakeGenerator{}, testParams, "ko", discardLogger())
	profile := json.RawMessage(`{"age": 30}`)

	_, err := advisor.AssessMany(context.Background(), nil, profile)
	assert.ErrorIs(t, err, ErrNoProducts)

	tooMany := make([]map[string]interface{}, MaxComprehensiveProducts+1)
	for i := range tooMany {
		tooMany[i] = map[string]interface{}{"code": "123"}
	}
	_, err = advisor.AssessMany(context.Background(), tooMany, profile)
	assert.ErrorIs(t, err, ErrTooManyProducts)

	_, err = advisor.AssessMany(context.Background(), []map[string]interface{}{{"code": "123"}}, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrNoHealthProfile)

	_, err = advisor.AssessMany(context.Background(), []map[string]interface{}{{"product_name": "nameless"}}, profile)
	assert.ErrorIs(t, err, ErrNoValidProducts)
}

func TestAssessManySkipsProductsWithoutBarcode(t *testing.T) {
	generator := &fakeGenerator{response: "종합 분석 결과입니다."}
	advisor := NewComprehensiveAdvisor(generator, testParams, "ko", discardLogger())

	productsData := []map[string]interface{}{
		{"code": "111", "product_name": "A", "brands": "BrandA"},
		{"product_name": "no barcode"},
		{"barcode": "222", "product_name": "B"},
	}

	result, err := advisor.AssessMany(context.Background(), productsData, json.RawMessage(`{"age": 30}`))
	require.NoError(t, err)

	assert.Equal(t, "종합 분석 결과입니다.", result.ComprehensiveAnalysis)
	assert.Equal(t, 2, result.AnalyzedProducts)
	assert.Equal(t, 3, result.TotalRequested)
	assert.Equal(t, 1, result.SkippedProducts)
	require.Len(t, result.ProductsSummary, 2)
	assert.Equal(t, ProductSummary{Barcode: "111", Name: "A", Brands: "BrandA"}, result.ProductsSummary[0])
	assert.Equal(t, "222", result.ProductsSummary[1].Barcode)
	assert.Equal(t, 1, generator.calls, "the whole batch uses a single model call")
}

func TestAssessManyAcceptsNutritionDataAlias(t *testing.T) {
	generator := &fakeGenerator{response: "ok"}
	advisor := NewComprehensiveAdvisor(generator, testParams, "ko", discardLogger())

	productsData := []map[string]interface{}{
		{"code": "111", "nutrition_data": map[string]interface{}{"sugars_100g": 42.0}},
	}

	_, err := advisor.AssessMany(context.Background(), productsData, json.RawMessage(`{"age": 30}`))
	require.NoError(t, err)

	assert.Contains(t, generator.lastReq.User, "sugars_100g")
}

func TestAssessManyFallsBackOnGeneratorError(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("timeout")}
	advisor := NewComprehensiveAdvisor(generator, testParams, "ko", discardLogger())

	result, err := advisor.AssessMany(context.Background(),
		[]map[string]interface{}{{"code": "111"}},
		json.RawMessage(`{"age": 30}`))
	require.NoError(t, err)

	assert.Equal(t, ComprehensiveFallback, result.ComprehensiveAnalysis)
	assert.Equal(t, 1, result.AnalyzedProducts)
}

func TestEmptyProfile(t *testing.T) {
	empty := []string{"", "null", "{}", "[]", `""`, "  {} "}
	for _, raw := range empty {
		assert.True(t, EmptyProfile(json.RawMessage(raw)), "%q should be empty", raw)
	}

	assert.True(t, EmptyProfile(nil))
	assert.False(t, EmptyProfile(json.RawMessage(`{"age": 30}`)))
	assert.False(t, EmptyProfile(json.RawMessage(`"hypertension"`)))
}
