package broker

import (
	"context"

	"github.com/shopspring/decimal"
)

type OrderRequest struct {
	Symbol    string          `json:"symbol"`
	OrderType string          `json:"order_type"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Condition string          `json:"condition"`
}

type OrderResponse struct {
	Success bool           `json:"success"`
	Order   map[string]any `json:"order"`
	Message string         `json:"message"`
}

type Adapter interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResponse, error)
	AccountBalance(ctx context.Context) (decimal.Decimal, error)
}
