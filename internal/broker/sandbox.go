package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// SandboxAdapter places orders against the sandbox brokerage HTTP endpoint.
type SandboxAdapter struct {
	baseURL string
	http    *http.Client
}

func NewSandboxAdapter(baseURL string) *SandboxAdapter {
	return &SandboxAdapter{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *SandboxAdapter) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	log.Printf("[SandboxBroker] placing %s order: %d units of %s at %s", req.OrderType, req.Quantity, req.Symbol, req.Price)
	body, err := json.Marshal(req)
	if err != nil {
		return OrderResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return OrderResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := a.http.Do(httpReq)
	if err != nil {
		return OrderResponse{Success: false, Message: err.Error()}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return OrderResponse{Success: false, Message: err.Error()}, err
	}
	var out OrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return OrderResponse{Success: false, Message: err.Error()}, err
	}
	return out, nil
}

func (a *SandboxAdapter) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/account/balance", nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, err
	}
	balance, ok := out["balance"]
	if !ok {
		return decimal.Zero, fmt.Errorf("balance missing in broker response")
	}
	return decimal.NewFromString(fmt.Sprintf("%v", balance))
}
