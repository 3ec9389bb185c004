package products

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/vocab"
)

func emptyVocab(t *testing.T) *vocab.Cache {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := vocab.NewCache(config.VocabularyConfig{}, logger)
	cache.Load()
	return cache
}

func loadedVocab(t *testing.T) *vocab.Cache {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	cfg := config.VocabularyConfig{
		ProductFile:    write("product.json", `[{"original":"food","korean":"식품"}]`),
		FoodGroupsFile: write("food_groups.json", `[{"original":"sweets","korean":"과자류"}]`),
		AllergensFile:  write("allergens.json", `[{"original":"nuts","korean":"견과류"}]`),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := vocab.NewCache(cfg, logger)
	cache.Load()
	return cache
}

func TestParseEmptyProductUsesPlaceholders(t *testing.T) {
	parser := NewParser(emptyVocab(t))

	info := parser.Parse(map[string]interface{}{}, "8801234567890")

	assert.Equal(t, "8801234567890", info.Code)
	assert.Equal(t, "상표 브랜드 정보 없음", info.Brands)
	assert.Equal(t, "상품명 정보 없음", info.ProductName)
	assert.Equal(t, "영문 상품명 정보 없음", info.ProductNameEn)
	assert.Equal(t, "상품 분류 정보 없음", info.ProductType)
	assert.Equal(t, "영양 등급 정보 없음", info.NutriscoreGrade)
	assert.Equal(t, "지방 함량 수준 정보 없음", info.NutrientLevels.Fat)
	assert.Equal(t, "나트륨 함량 수준 정보 없음", info.NutrientLevels.Salt)

	// Collections default to empty, never nil, so the JSON response has no nulls.
	assert.NotNil(t, info.Ingredients)
	assert.Empty(t, info.Ingredients)
	assert.Equal(t, []string{}, info.AllergensTags)
	assert.Equal(t, []string{}, info.CountriesTags)

	encoded, err := json.Marshal(info)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "null")
}

func TestParsePopulatedProduct(t *testing.T) {
	parser := NewParser(loadedVocab(t))

	raw := map[string]interface{}{
		"brands":           "Orion",
		"product_name":     "초코파이",
		"product_type":     "food",
		"product_quantity": 468.0,
		"quantity":         "468 g",
		"allergens_tags":   []interface{}{"en:nuts", "en:gluten"},
		"food_groups_tags": []interface{}{"en:sweets"},
		"nutriscore_grade": "e",
		"nutrient_levels": map[string]interface{}{
			"fat":    "moderate",
			"sugars": "high",
		},
		"nutriments": map[string]interface{}{
			"fat_100g":           12.0,
			"saturated-fat_100g": "6.5",
			"sugars_100g":        38.2,
		},
		"ingredients": []interface{}{
			map[string]interface{}{
				"text":             "Sucre",
				"percent_estimate": 40.5,
				"vegan":            "yes",
			},
			"not an object",
		},
		"image_url": "https://images.example.org/front.jpg",
	}

	info := parser.Parse(raw, "8801234567890")

	assert.Equal(t, "Orion", info.Brands)
	assert.Equal(t, "초코파이", info.ProductName)
	assert.Equal(t, "식품", info.ProductType)
	assert.Equal(t, "468", info.ProductQuantity, "numeric quantities are rendered as strings")
	assert.Equal(t, []string{"견과류", "gluten"}, info.AllergensTags)
	assert.Equal(t, []string{"과자류"}, info.FoodGroupsTags)
	assert.Equal(t, "e", info.NutriscoreGrade)

	assert.Equal(t, "moderate", info.NutrientLevels.Fat)
	assert.Equal(t, "high", info.NutrientLevels.Sugars)
	assert.Equal(t, "포화지방 함량 수준 정보 없음", info.NutrientLevels.SaturatedFat)

	assert.Equal(t, 12.0, info.Nutriments.Fat100g)
	assert.Equal(t, 6.5, info.Nutriments.SaturatedFat100g, "string-typed nutriment values are parsed")
	assert.Equal(t, 38.2, info.Nutriments.Sugars100g)
	assert.Zero(t, info.Nutriments.Salt100g)

	require.Len(t, info.Ingredients, 1, "non-object ingredient entries are dropped")
	ingredient := info.Ingredients[0]
	assert.Equal(t, "Sucre", ingredient.Text)
	assert.Equal(t, 40.5, ingredient.PercentEstimate)
	assert.Equal(t, "yes", ingredient.Vegan)
	assert.Equal(t, "가공 정보 없음", ingredient.Processing)
	assert.Equal(t, "채식주의자 여부 정보 없음", ingredient.Vegetarian)

	assert.Equal(t, "https://images.example.org/front.jpg", info.ImageURL)
	assert.Empty(t, info.ImageFrontURL)
}

func TestIngredientsText(t *testing.T) {
	info := &ProductInfo{
		Ingredients: []IngredientEntry{
			{Text: "Sucre"},
			{Text: ""},
			{Text: "Sel"},
		},
	}
	assert.Equal(t, "Sucre,Sel", info.IngredientsText())

	assert.Empty(t, (&ProductInfo{}).IngredientsText())
}
