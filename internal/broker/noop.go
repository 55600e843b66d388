package broker

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type DisabledAdapter struct{}

func NewDisabledAdapter() *DisabledAdapter {
	return &DisabledAdapter{}
}

func (a *DisabledAdapter) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	return OrderResponse{}, errors.New("broker adapter not configured")
}

func (a *DisabledAdapter) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("broker adapter not configured")
}
