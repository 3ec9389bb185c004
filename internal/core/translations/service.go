package translations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/ai"
	"github.com/LabelSafe/food-advisory-service/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("translations-service")

// CacheRecord is one persisted translation result, keyed by barcode. Records
// are inserted once and never updated in place.
type CacheRecord struct {
	Barcode          string            `json:"barcode" db:"barcode"`
	Translations     map[string]string `json:"translations" db:"translations"`
	IngredientsCount int               `json:"ingredients_count" db:"ingredients_count"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}

// Repository is the persistence layer behind the translation cache.
type Repository interface {
	Find(ctx context.Context, barcode string) (*CacheRecord, error)
	Insert(ctx context.Context, record *CacheRecord) error
}

// translationEntry is the array element shape the translator prompt asks for.
type translationEntry struct {
	Original string `json:"original"`
	Korean   string `json:"korean"`
}

// Service computes and caches per-ingredient translations. The first caller to
// miss the cache for a barcode performs the model call and persists the result;
// any failure along the way degrades to an empty map, never an error.
type Service struct {
	repo      Repository
	generator ai.Generator
	params    config.ModelParams
	logger    *slog.Logger
}

func NewService(repo Repository, generator ai.Generator, params config.ModelParams, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		params:    params,
		logger:    logger.With("service", "translations"),
	}
}

// GetOrCompute returns the translation map for the given barcode, computing and
// persisting it on a cache miss. An empty map means "no translations available"
// and is not an error condition.
func (s *Service) GetOrCompute(ctx context.Context, barcode, ingredientsText string) map[string]string {
	ctx, span := tracer.Start(ctx, "translations.GetOrCompute")
	defer span.End()
	span.SetAttributes(attribute.String("barcode", barcode))

	if record, err := s.repo.Find(ctx, barcode); err == nil && record != nil {
		s.logger.Debug("Using cached ingredient translations",
			"barcode", barcode,
			"count", len(record.Translations))
		if telemetry.TranslationCacheHitsTotal != nil {
			telemetry.TranslationCacheHitsTotal.Add(ctx, 1)
		}
		return record.Translations
	}

	if telemetry.TranslationCacheMissesTotal != nil {
		telemetry.TranslationCacheMissesTotal.Add(ctx, 1)
	}

	ingredients := splitIngredients(ingredientsText)
	if len(ingredients) == 0 {
		s.logger.Debug("No ingredients to translate", "barcode", barcode)
		return map[string]string{}
	}

	translations, err := s.translate(ctx, ingredients)
	if err != nil {
		s.logger.Error("Ingredient translation failed",
			"barcode", barcode,
			"ingredients", len(ingredients),
			"error", err)
		return map[string]string{}
	}

	record := &CacheRecord{
		Barcode:          barcode,
		Translations:     translations,
		IngredientsCount: len(ingredients),
		CreatedAt:        time.Now(),
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		// The computed result is still good; only the cache write is lost.
		s.logger.Warn("Failed to persist ingredient translations",
			"barcode", barcode,
			"error", err)
	}

	s.logger.Info("Ingredient translations computed",
		"barcode", barcode,
		"ingredients", len(ingredients),
		"translated", len(translations))

	return translations
}

// splitIngredients turns a comma-separated ingredient string into a list of
// trimmed, non-empty names, preserving order.
func splitIngredients(ingredientsText string) []string {
	parts := strings.Split(ingredientsText, ",")
	ingredients := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ingredients = append(ingredients, trimmed)
		}
	}
	return ingredients
}

func (s *Service) translate(ctx context.Context, ingredients []string) (map[string]string, error) {
	content, err := s.generator.Generate(ctx, ai.GenerateRequest{
		System:      ai.TranslatorSystemPrompt,
		User:        fmt.Sprintf(ai.IngredientTranslationPromptTemplate, strings.Join(ingredients, ",")),
		Model:       s.params.Model,
		MaxTokens:   s.params.MaxTokens,
		Temperature: s.params.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("translation generation failed: %w", err)
	}

	payload := ai.ExtractJSONPayload(content)

	var entries []translationEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrNoPayload, err)
	}

	translations := make(map[string]string, len(entries))
	for _, entry := range entries {
		// Entries missing either field are skipped.
		if entry.Original != "" && entry.Korean != "" {
			translations[entry.Original] = entry.Korean
		}
	}

	return translations, nil
}
