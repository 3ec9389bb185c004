package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/LabelSafe/food-advisory-service/internal/core/products"
)

// Advisor is the single-product assessment capability.
type Advisor interface {
	Assess(ctx context.Context, product *products.ProductInfo, healthProfile json.RawMessage) string
}

// IngredientTranslator is the cached ingredient translation capability.
type IngredientTranslator interface {
	GetOrCompute(ctx context.Context, barcode, ingredientsText string) map[string]string
}

// Orchestrator runs the health assessment and the ingredient translation for
// one request as two parallel tasks and merges both results into the product
// record. Each task degrades independently; Analyze always completes.
type Orchestrator struct {
	advisor    Advisor
	translator IngredientTranslator
	logger     *slog.Logger
}

func NewOrchestrator(advisor Advisor, translator IngredientTranslator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		advisor:    advisor,
		translator: translator,
		logger:     logger.With("service", "analysis-orchestrator"),
	}
}

// Analyze mutates product in place: the advisory text is attached to its
// health_analysis field and each ingredient whose text has a translation is
// replaced with the translated form. Untranslated ingredients keep their
// original text.
func (o *Orchestrator) Analyze(ctx context.Context, product *products.ProductInfo, healthProfile json.RawMessage) {
	ctx, span := tracer.Start(ctx, "analysis.Analyze")
	defer span.End()

	var (
		wg           sync.WaitGroup
		advisory     string
		translations map[string]string
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		advisory = o.advisor.Assess(ctx, product, healthProfile)
	}()

	go func() {
		defer wg.Done()
		ingredientsText := product.IngredientsText()
		if product.Code == "" || ingredientsText == "" {
			translations = map[string]string{}
			return
		}
		translations = o.translator.GetOrCompute(ctx, product.Code, ingredientsText)
	}()

	wg.Wait()

	product.HealthAnalysis = advisory

	for i := range product.Ingredients {
		if translated, ok := translations[product.Ingredients[i].Text]; ok {
			product.Ingredients[i].Text = translated
		}
	}
}
