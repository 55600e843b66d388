package marketdata

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

// Client fetches raw order-book and volume data from the LocalMarket API.
// Any failure degrades to an empty payload so the ingestion cycle is never
// interrupted by the market source.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) FetchLatest(ctx context.Context, assetID string) map[string]any {
	if c.baseURL == "" {
		return map[string]any{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stock/price/"+assetID, nil)
	if err != nil {
		log.Printf("[MarketClient] failed to build request for assetId=%s: %v", assetID, err)
		return map[string]any{}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[MarketClient] failed to fetch market data for assetId=%s: %v", assetID, err)
		return map[string]any{}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		log.Printf("[MarketClient] empty response for assetId=%s", assetID)
		return map[string]any{}
	}
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		log.Printf("[MarketClient] malformed response for assetId=%s: %v", assetID, err)
		return map[string]any{}
	}
	if data, ok := root["price_data"].(map[string]any); ok {
		return data
	}
	return map[string]any{}
}
