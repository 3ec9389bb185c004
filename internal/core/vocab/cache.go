package vocab

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/LabelSafe/food-advisory-service/config"
)

// Domain identifies one of the independent vocabulary mappings.
type Domain string

const (
	DomainProduct    Domain = "product"
	DomainFoodGroups Domain = "food_groups"
	DomainAllergens  Domain = "allergens"
)

// Entry is one (original, localized) pair as stored in the vocabulary files.
type Entry struct {
	Original string `json:"original"`
	Korean   string `json:"korean"`
}

// Cache holds the localized display text for product types, food-group tags and
// allergen tags. It is loaded once at startup and read-only afterwards; lookup
// misses fall back to returning the input unchanged.
type Cache struct {
	cfg      config.VocabularyConfig
	logger   *slog.Logger
	mappings map[Domain]map[string]string
}

func NewCache(cfg config.VocabularyConfig, logger *slog.Logger) *Cache {
	return &Cache{
		cfg:      cfg,
		logger:   logger.With("service", "vocab"),
		mappings: map[Domain]map[string]string{},
	}
}

// Load reads the three vocabulary files into memory. It is idempotent: once any
// mapping is populated subsequent calls are no-ops. A missing or malformed file
// leaves that domain's mapping empty so lookups degrade to pass-through; the
// service still starts.
func (c *Cache) Load() {
	if len(c.mappings) > 0 {
		return
	}

	files := map[Domain]string{
		DomainProduct:    c.cfg.ProductFile,
		DomainFoodGroups: c.cfg.FoodGroupsFile,
		DomainAllergens:  c.cfg.AllergensFile,
	}

	for domain, path := range files {
		mapping, err := loadFile(path)
		if err != nil {
			c.logger.Warn("Failed to load vocabulary file, lookups will pass through",
				"domain", string(domain),
				"file", path,
				"error", err)
			mapping = map[string]string{}
		}
		c.mappings[domain] = mapping
	}

	c.logger.Info("Vocabulary data loaded",
		"product", len(c.mappings[DomainProduct]),
		"food_groups", len(c.mappings[DomainFoodGroups]),
		"allergens", len(c.mappings[DomainAllergens]))
}

func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	mapping := make(map[string]string, len(entries))
	for _, entry := range entries {
		mapping[entry.Original] = entry.Korean
	}
	return mapping, nil
}

// TranslateOne returns the localized value for text in the given domain, or the
// text unchanged when no mapping exists. It never fails.
func (c *Cache) TranslateOne(text string, domain Domain) string {
	if mapping, ok := c.mappings[domain]; ok {
		if localized, ok := mapping[text]; ok {
			return localized
		}
	}
	return text
}

// TranslateTags translates a slice of namespaced tags ("en:nuts") by looking up
// the part after the first separator. Tags without a namespace pass through
// unchanged. Output order matches input order.
func (c *Cache) TranslateTags(tags []string, domain Domain) []string {
	if len(tags) == 0 {
		return []string{}
	}

	translated := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, value, found := strings.Cut(tag, ":"); found {
			translated = append(translated, c.TranslateOne(value, domain))
		} else {
			translated = append(translated, tag)
		}
	}
	return translated
}

// Size reports the number of entries loaded per domain.
func (c *Cache) Size() map[Domain]int {
	sizes := make(map[Domain]int, len(c.mappings))
	for domain, mapping := range c.mappings {
		sizes[domain] = len(mapping)
	}
	return sizes
}

// Reset clears all loaded mappings. Administrative operation, intended for
// tests and vocabulary redeploys; the next Load call re-reads the files.
func (c *Cache) Reset() {
	c.mappings = map[Domain]map[string]string{}
	c.logger.Info("Vocabulary cache cleared")
}
