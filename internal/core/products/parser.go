package products

import (
	"strconv"
	"strings"

	"github.com/LabelSafe/food-advisory-service/internal/core/vocab"
)

// Placeholder text substituted for fields the upstream payload omits. The API
// contract is that no field is ever null or missing in the response.
const (
	noBrandInfo               = "상표 브랜드 정보 없음"
	noProductNameInfo         = "상품명 정보 없음"
	noProductNameEnInfo       = "영문 상품명 정보 없음"
	noProductTypeInfo         = "상품 분류 정보 없음"
	noProductQuantityInfo     = "상품 중량 정보 없음"
	noProductQuantityUnitInfo = "상품 중량 단위 정보 없음"
	noQuantityInfo            = "상품 중량 표기 정보 없음"
	noNutriscoreInfo          = "영양 등급 정보 없음"
	noServingQuantityInfo     = "1회 섭취량 정보 없음"
	noServingQuantityUnitInfo = "1회 섭취량 단위 정보 없음"
	noServingSizeInfo         = "1회 섭취량 표기 정보 없음"
	noIngredientTextInfo      = "원재료 정보 없음"
	noProcessingInfo          = "가공 정보 없음"
	noVeganInfo               = "비건 여부 정보 없음"
	noVegetarianInfo          = "채식주의자 여부 정보 없음"
	noFatLevelInfo            = "지방 함량 수준 정보 없음"
	noSaturatedFatLevelInfo   = "포화지방 함량 수준 정보 없음"
	noSugarsLevelInfo         = "당류 함량 수준 정보 없음"
	noSaltLevelInfo           = "나트륨 함량 수준 정보 없음"
)

// IngredientEntry is one parsed ingredient with defaults filled in.
type IngredientEntry struct {
	Text            string  `json:"text"`
	PercentEstimate float64 `json:"percent_estimate"`
	Processing      string  `json:"processing"`
	Vegan           string  `json:"vegan"`
	Vegetarian      string  `json:"vegetarian"`
}

// Nutriments holds the per-100g values the advisory prompt cares about.
type Nutriments struct {
	Fat100g          float64 `json:"fat_100g"`
	SaturatedFat100g float64 `json:"saturated-fat_100g"`
	Sugars100g       float64 `json:"sugars_100g"`
	Salt100g         float64 `json:"salt_100g"`
}

// NutrientLevels holds the upstream low/moderate/high classification.
type NutrientLevels struct {
	Fat          string `json:"fat"`
	SaturatedFat string `json:"saturated-fat"`
	Sugars       string `json:"sugars"`
	Salt         string `json:"salt"`
}

// ProductInfo is the enriched product record returned by the barcode endpoint.
type ProductInfo struct {
	Code                string            `json:"code"`
	Brands              string            `json:"brands"`
	CountriesTags       []string          `json:"countries_tags"`
	ProductName         string            `json:"product_name"`
	ProductNameEn       string            `json:"product_name_en"`
	ProductType         string            `json:"product_type"`
	ProductQuantity     string            `json:"product_quantity"`
	ProductQuantityUnit string            `json:"product_quantity_unit"`
	Quantity            string            `json:"quantity"`
	AllergensTags       []string          `json:"allergens_tags"`
	FoodGroupsTags      []string          `json:"food_groups_tags"`
	NutriscoreGrade     string            `json:"nutriscore_grade"`
	NutrientLevels      NutrientLevels    `json:"nutrient_levels"`
	Nutriments          Nutriments        `json:"nutriments"`
	Ingredients         []IngredientEntry `json:"ingredients"`
	ServingQuantity     string            `json:"serving_quantity"`
	ServingQuantityUnit string            `json:"serving_quantity_unit"`
	ServingSize         string            `json:"serving_size"`
	ImageFrontURL       string            `json:"image_front_url"`
	ImageIngredientsURL string            `json:"image_ingredients_url"`
	ImageNutritionURL   string            `json:"image_nutrition_url"`
	ImagePackagingURL   string            `json:"image_packaging_url"`
	ImageURL            string            `json:"image_url"`
	ImageThumbURL       string            `json:"image_thumb_url"`
	HealthAnalysis      string            `json:"health_analysis,omitempty"`
}

// IngredientsText joins the ingredient names into the comma-separated form the
// translation prompt expects.
func (p *ProductInfo) IngredientsText() string {
	texts := make([]string, 0, len(p.Ingredients))
	for _, ingredient := range p.Ingredients {
		if ingredient.Text != "" {
			texts = append(texts, ingredient.Text)
		}
	}
	return strings.Join(texts, ",")
}

// Parser builds ProductInfo records from raw upstream payloads, localizing the
// product type and tag vocabularies along the way.
type Parser struct {
	vocab *vocab.Cache
}

func NewParser(vocabCache *vocab.Cache) *Parser {
	return &Parser{vocab: vocabCache}
}

// Parse extracts a ProductInfo from an OpenFoodFacts product object. The
// upstream payload is loosely typed (quantities arrive as strings or numbers
// depending on the product), so every field is read defensively with a
// placeholder default.
func (p *Parser) Parse(product map[string]interface{}, barcode string) *ProductInfo {
	return &ProductInfo{
		Code:                barcode,
		Brands:              getString(product, "brands", noBrandInfo),
		CountriesTags:       getStringSlice(product, "countries_tags"),
		ProductName:         getString(product, "product_name", noProductNameInfo),
		ProductNameEn:       getString(product, "product_name_en", noProductNameEnInfo),
		ProductType:         p.vocab.TranslateOne(getString(product, "product_type", noProductTypeInfo), vocab.DomainProduct),
		ProductQuantity:     getString(product, "product_quantity", noProductQuantityInfo),
		ProductQuantityUnit: getString(product, "product_quantity_unit", noProductQuantityUnitInfo),
		Quantity:            getString(product, "quantity", noQuantityInfo),
		AllergensTags:       p.vocab.TranslateTags(getStringSlice(product, "allergens_tags"), vocab.DomainAllergens),
		FoodGroupsTags:      p.vocab.TranslateTags(getStringSlice(product, "food_groups_tags"), vocab.DomainFoodGroups),
		NutriscoreGrade:     getString(product, "nutriscore_grade", noNutriscoreInfo),
		NutrientLevels:      parseNutrientLevels(getMap(product, "nutrient_levels")),
		Nutriments:          parseNutriments(getMap(product, "nutriments")),
		Ingredients:         parseIngredients(product["ingredients"]),
		ServingQuantity:     getString(product, "serving_quantity", noServingQuantityInfo),
		ServingQuantityUnit: getString(product, "serving_quantity_unit", noServingQuantityUnitInfo),
		ServingSize:         getString(product, "serving_size", noServingSizeInfo),
		ImageFrontURL:       getString(product, "image_front_url", ""),
		ImageIngredientsURL: getString(product, "image_ingredients_url", ""),
		ImageNutritionURL:   getString(product, "image_nutrition_url", ""),
		ImagePackagingURL:   getString(product, "image_packaging_url", ""),
		ImageURL:            getString(product, "image_url", ""),
		ImageThumbURL:       getString(product, "image_thumb_url", ""),
	}
}

func parseIngredients(raw interface{}) []IngredientEntry {
	list, ok := raw.([]interface{})
	if !ok {
		return []IngredientEntry{}
	}

	ingredients := make([]IngredientEntry, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		ingredients = append(ingredients, IngredientEntry{
			Text:            getString(entry, "text", noIngredientTextInfo),
			PercentEstimate: getFloat(entry, "percent_estimate"),
			Processing:      getString(entry, "processing", noProcessingInfo),
			Vegan:           getString(entry, "vegan", noVeganInfo),
			Vegetarian:      getString(entry, "vegetarian", noVegetarianInfo),
		})
	}
	return ingredients
}

func parseNutriments(nutriments map[string]interface{}) Nutriments {
	return Nutriments{
		Fat100g:          getFloat(nutriments, "fat_100g"),
		SaturatedFat100g: getFloat(nutriments, "saturated-fat_100g"),
		Sugars100g:       getFloat(nutriments, "sugars_100g"),
		Salt100g:         getFloat(nutriments, "salt_100g"),
	}
}

func parseNutrientLevels(levels map[string]interface{}) NutrientLevels {
	return NutrientLevels{
		Fat:          getString(levels, "fat", noFatLevelInfo),
		SaturatedFat: getString(levels, "saturated-fat", noSaturatedFatLevelInfo),
		Sugars:       getString(levels, "sugars", noSugarsLevelInfo),
		Salt:         getString(levels, "salt", noSaltLevelInfo),
	}
}

func getString(m map[string]interface{}, key, def string) string {
	switch v := m[key].(type) {
	case string:
		if v == "" {
			return def
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return def
	}
}

func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

func getStringSlice(m map[string]interface{}, key string) []string {
	list, ok := m[key].([]interface{})
	if !ok {
		return []string{}
	}
	values := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if inner, ok := m[key].(map[string]interface{}); ok {
		return inner
	}
	return map[string]interface{}{}
}
