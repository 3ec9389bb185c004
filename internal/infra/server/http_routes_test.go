package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/analysis"
	"github.com/LabelSafe/food-advisory-service/internal/core/openfoodfacts"
	"github.com/LabelSafe/food-advisory-service/internal/core/products"
	"github.com/LabelSafe/food-advisory-service/internal/core/vocab"
)

type fakeProvider struct {
	product map[string]interface{}
	err     error
}

func (p *fakeProvider) GetProduct(context.Context, string) (map[string]interface{}, error) {
	return p.product, p.err
}

type fakeOrchestrator struct {
	advisory string
	calls    int
}

func (o *fakeOrchestrator) Analyze(_ context.Context, product *products.ProductInfo, _ json.RawMessage) {
	o.calls++
	product.HealthAnalysis = o.advisory
}

type fakeBatchAdvisor struct {
	result *analysis.ComprehensiveResult
	err    error
}

func (a *fakeBatchAdvisor) AssessMany(context.Context, []map[string]interface{}, json.RawMessage) (*analysis.ComprehensiveResult, error) {
	return a.result, a.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestApp(provider ProductProvider, orchestrator Orchestrator, comprehensive BatchAdvisor) *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	vocabCache := vocab.NewCache(config.VocabularyConfig{}, logger)
	vocabCache.Load()

	app := fiber.New()
	registerHttpRoutes(app, NewHandlers(provider, products.NewParser(vocabCache), orchestrator, comprehensive, logger))
	return app
}

func decodeEnvelope(t *testing.T, resp io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp).Decode(&env))
	return env
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&fakeProvider{}, &fakeOrchestrator{}, &fakeBatchAdvisor{})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetBarcodeReturnsProduct(t *testing.T) {
	provider := &fakeProvider{product: map[string]interface{}{
		"product_name": "초코파이",
		"brands":       "Orion",
	}}
	orchestrator := &fakeOrchestrator{}
	app := newTestApp(provider, orchestrator, &fakeBatchAdvisor{})

	resp, err := app.Test(httptest.NewRequest("GET", "/barcode/8801234567890", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.True(t, env.Success)

	var info products.ProductInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "8801234567890", info.Code)
	assert.Equal(t, "초코파이", info.ProductName)
	assert.Empty(t, info.HealthAnalysis)
	assert.Zero(t, orchestrator.calls, "GET must not run the analysis")
}

func TestGetBarcodeNotFound(t *testing.T) {
	app := newTestApp(&fakeProvider{product: nil}, &fakeOrchestrator{}, &fakeBatchAdvisor{})

	resp, err := app.Test(httptest.NewRequest("GET", "/barcode/0000000000000", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.False(t, env.Success)
	assert.Equal(t, "Product not found", env.Error)
}

func TestGetBarcodePropagatesUpstreamStatus(t *testing.T) {
	provider := &fakeProvider{err: &openfoodfacts.UpstreamError{StatusCode: 429}}
	app := newTestApp(provider, &fakeOrchestrator{}, &fakeBatchAdvisor{})

	resp, err := app.Test(httptest.NewRequest("GET", "/barcode/8801234567890", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "429")
}

func TestPostBarcodeRunsAnalysis(t *testing.T) {
	provider := &fakeProvider{product: map[string]interface{}{"product_name": "초코파이"}}
	orchestrator := &fakeOrchestrator{advisory: "당류 함량이 높습니다."}
	app := newTestApp(provider, orchestrator, &fakeBatchAdvisor{})

	req := httptest.NewRequest("POST", "/barcode/8801234567890",
		strings.NewReader(`{"health_profile": {"age": 44, "conditions": ["diabetes"]}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.True(t, env.Success)

	var info products.ProductInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "당류 함량이 높습니다.", info.HealthAnalysis)
	assert.Equal(t, 1, orchestrator.calls)
}

func TestPostBarcodeRejectsInvalidBody(t *testing.T) {
	provider := &fakeProvider{product: map[string]interface{}{"product_name": "초코파이"}}
	app := newTestApp(provider, &fakeOrchestrator{}, &fakeBatchAdvisor{})

	req := httptest.NewRequest("POST", "/barcode/8801234567890", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.Equal(t, "Invalid JSON data", env.Error)
}

func TestPostBarcodeRequiresProfile(t *testing.T) {
	provider := &fakeProvider{product: map[string]interface{}{"product_name": "초코파이"}}
	orchestrator := &fakeOrchestrator{}
	app := newTestApp(provider, orchestrator, &fakeBatchAdvisor{})

	for _, body := range []string{`{}`, `{"health_profile": {}}`, `{"health_profile": null}`} {
		req := httptest.NewRequest("POST", "/barcode/8801234567890", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body %q", body)

		env := decodeEnvelope(t, resp.Body)
		assert.Equal(t, "health profile is required", env.Error)
	}
	assert.Zero(t, orchestrator.calls)
}

func TestComprehensiveAnalysisSuccess(t *testing.T) {
	advisor := &fakeBatchAdvisor{result: &analysis.ComprehensiveResult{
		ComprehensiveAnalysis: "종합 분석 결과입니다.",
		AnalyzedProducts:      2,
		TotalRequested:        2,
		ProductsSummary:       []analysis.ProductSummary{{Barcode: "111"}, {Barcode: "222"}},
	}}
	app := newTestApp(&fakeProvider{}, &fakeOrchestrator{}, advisor)

	req := httptest.NewRequest("POST", "/comprehensive-analysis",
		strings.NewReader(`{"products_data": [{"code": "111"}, {"code": "222"}], "health_profile": {"age": 30}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.True(t, env.Success)

	var result analysis.ComprehensiveResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "종합 분석 결과입니다.", result.ComprehensiveAnalysis)
	assert.Equal(t, 2, result.AnalyzedProducts)
}

func TestComprehensiveAnalysisErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no products", analysis.ErrNoProducts, fiber.StatusBadRequest},
		{"too many products", analysis.ErrTooManyProducts, fiber.StatusBadRequest},
		{"missing profile", analysis.ErrNoHealthProfile, fiber.StatusBadRequest},
		{"no valid products", analysis.ErrNoValidProducts, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeProvider{}, &fakeOrchestrator{}, &fakeBatchAdvisor{err: tt.err})

			req := httptest.NewRequest("POST", "/comprehensive-analysis",
				strings.NewReader(`{"products_data": [], "health_profile": {"age": 30}}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			env := decodeEnvelope(t, resp.Body)
			assert.False(t, env.Success)
			assert.Equal(t, tt.err.Error(), env.Error)
		})
	}
}

func TestComprehensiveAnalysisInvalidBody(t *testing.T) {
	app := newTestApp(&fakeProvider{}, &fakeOrchestrator{}, &fakeBatchAdvisor{})

	req := httptest.NewRequest("POST", "/comprehensive-analysis", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
