// vocab-translate is a one-shot batch job that turns a newline-separated tag
// list into a vocabulary file of {original, korean} pairs, using the same
// translator prompt as the serving path. It is not part of the serving path.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/internal/core/ai"
	"github.com/LabelSafe/food-advisory-service/internal/core/vocab"
	"github.com/LabelSafe/food-advisory-service/pkg/logger"
)

const batchSize = 100

func main() {
	inputPath := flag.String("input", "", "newline-separated tag list to translate")
	outputPath := flag.String("output", "", "vocabulary JSON file to write")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: vocab-translate -input tags.txt -output vocab.json")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(logger.NewLogger(&cfg))

	tags, err := readTags(*inputPath)
	if err != nil {
		slog.Error("failed to read tag list", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(tags) == 0 {
		slog.Info("No tags to translate")
		return
	}

	generator := ai.NewOpenAIClient(cfg.GetOpenAIConfig(), slog.Default())
	params := cfg.GetPromptConfig().Translation

	ctx := context.Background()
	entries := make([]vocab.Entry, 0, len(tags))

	for start := 0; start < len(tags); start += batchSize {
		end := start + batchSize
		if end > len(tags) {
			end = len(tags)
		}
		batch := tags[start:end]

		slog.Info("Translating batch", "from", start, "to", end, "total", len(tags))

		content, err := generator.Generate(ctx, ai.GenerateRequest{
			System:      ai.TranslatorSystemPrompt,
			User:        fmt.Sprintf(ai.IngredientTranslationPromptTemplate, strings.Join(batch, ",")),
			Model:       params.Model,
			MaxTokens:   params.MaxTokens,
			Temperature: params.Temperature,
		})
		if err != nil {
			slog.Error("Batch translation failed", "from", start, "error", err)
			os.Exit(1)
		}

		var batchEntries []vocab.Entry
		if err := json.Unmarshal([]byte(ai.ExtractJSONPayload(content)), &batchEntries); err != nil {
			slog.Error("Failed to parse batch translation output", "from", start, "error", err)
			os.Exit(1)
		}

		for _, entry := range batchEntries {
			if entry.Original != "" && entry.Korean != "" {
				entries = append(entries, entry)
			}
		}
	}

	output, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		slog.Error("failed to serialize vocabulary", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := os.WriteFile(*outputPath, output, 0o644); err != nil {
		slog.Error("failed to write vocabulary file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Vocabulary file written", "file", *outputPath, "entries", len(entries))
}

// readTags loads the tag list, stripping namespaces and skipping duplicates
// and blank lines.
func readTags(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var tags []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tag := strings.TrimSpace(scanner.Text())
		if tag == "" {
			continue
		}
		if _, value, found := strings.Cut(tag, ":"); found {
			tag = value
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags, scanner.Err()
}
