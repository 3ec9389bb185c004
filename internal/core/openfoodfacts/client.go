package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/LabelSafe/food-advisory-service/config"
	"github.com/LabelSafe/food-advisory-service/pkg/telemetry"
)

// ProductResponse is the envelope the OpenFoodFacts product endpoint returns.
// The product object itself stays loosely typed; the parser handles defaults.
type ProductResponse struct {
	Status  int                    `json:"status"`
	Product map[string]interface{} `json:"product"`
}

// UpstreamError reports a non-200 answer from the product database. Its status
// code is propagated to the API caller.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// Client fetches product payloads from OpenFoodFacts. Raw payloads are cached
// in Redis with a TTL; any cache failure falls back to a direct fetch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	redis      *redis.Client
	cacheTTL   time.Duration
	logger     *slog.Logger
}

func NewClient(cfg config.Config, redisClient *redis.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.OpenFoodFactsBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.OpenFoodFactsTimeout) * time.Second,
		},
		redis:    redisClient,
		cacheTTL: time.Duration(cfg.ProductCacheTTL) * time.Second,
		logger:   logger.With("service", "openfoodfacts"),
	}
}

// GetProduct fetches the raw product payload for a barcode. It returns
// (nil, nil) when the upstream says the product does not exist, and an
// UpstreamError for non-200 upstream statuses.
func (c *Client) GetProduct(ctx context.Context, barcode string) (map[string]interface{}, error) {
	if body, ok := c.cacheGet(ctx, barcode); ok {
		return c.decode(body, barcode)
	}

	url := fmt.Sprintf("%s/%s.json", c.baseURL, barcode)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create product request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read product response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	c.cacheSet(ctx, barcode, body)

	return c.decode(body, barcode)
}

func (c *Client) decode(body []byte, barcode string) (map[string]interface{}, error) {
	var productResp ProductResponse
	if err := json.Unmarshal(body, &productResp); err != nil {
		return nil, fmt.Errorf("failed to decode product response: %w", err)
	}

	// status 0 means the barcode is unknown to the database
	if productResp.Status != 1 || productResp.Product == nil {
		c.logger.Debug("Product not found upstream", "barcode", barcode)
		return nil, nil
	}

	return productResp.Product, nil
}

func (c *Client) cacheKey(barcode string) string {
	return "off:product:" + barcode
}

func (c *Client) cacheGet(ctx context.Context, barcode string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}

	body, err := c.redis.Get(ctx, c.cacheKey(barcode)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Product cache read failed", "barcode", barcode, "error", err)
		}
		return nil, false
	}

	c.logger.Debug("Product cache hit", "barcode", barcode)
	if telemetry.ProductCacheHitsTotal != nil {
		telemetry.ProductCacheHitsTotal.Add(ctx, 1)
	}
	return body, true
}

func (c *Client) cacheSet(ctx context.Context, barcode string, body []byte) {
	if c.redis == nil {
		return
	}

	if err := c.redis.Set(ctx, c.cacheKey(barcode), body, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("Product cache write failed", "barcode", barcode, "error", err)
	}
}
