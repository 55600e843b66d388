package constraint

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"antigravity-engine/internal/portfolio"
	"antigravity-engine/internal/types"
)

// Verdict is the verifier outcome. A DENIED status is an expected rule result,
// not a fault; ERROR is reserved for a missing ledger.
type Verdict struct {
	Status               types.ActionStatus `json:"status"`
	Message              string             `json:"message"`
	MaxAllowableDrawdown decimal.Decimal    `json:"maxAllowableDrawdown"`
}

func (v Verdict) Approved() bool {
	return v.Status == types.ActionStatusSuccess
}

// Verifier gates trade proposals against the ledger. It holds only the read
// path and never mutates state.
type Verifier struct {
	keeper    *portfolio.Keeper
	threshold decimal.Decimal
}

func NewVerifier(keeper *portfolio.Keeper, threshold decimal.Decimal) *Verifier {
	return &Verifier{keeper: keeper, threshold: threshold}
}

func (v *Verifier) Check(ctx context.Context, userID string, requestedAllocation, estimatedRisk decimal.Decimal) Verdict {
	snap, err := v.keeper.Snapshot(ctx, userID)
	if errors.Is(err, portfolio.ErrNotFound) {
		return Verdict{
			Status:               types.ActionStatusError,
			Message:              "Portfolio not found for user.",
			MaxAllowableDrawdown: decimal.Zero,
		}
	}
	if err != nil {
		return Verdict{
			Status:               types.ActionStatusError,
			Message:              "Portfolio lookup failed: " + err.Error(),
			MaxAllowableDrawdown: decimal.Zero,
		}
	}
	return Evaluate(snap, requestedAllocation, estimatedRisk, v.threshold)
}

// Evaluate applies the capital preservation rules to a ledger snapshot.
// Risk is bounded by a fraction of accumulated profit; allocation sizing is
// bounded by total portfolio value. The two bounds are deliberately separate:
// a trade may be sized beyond profit as long as its risk stays inside the
// profit-funded drawdown budget.
func Evaluate(snap portfolio.Portfolio, requestedAllocation, estimatedRisk, threshold decimal.Decimal) Verdict {
	maxAllowableDrawdown := snap.AccumulatedProfit.Mul(threshold)

	if maxAllowableDrawdown.LessThanOrEqual(decimal.Zero) {
		return Verdict{
			Status:               types.ActionStatusDenied,
			Message:              "DENIED: Cannot trade. No accumulated profits exist to absorb risk. The initial capital is strictly firewalled.",
			MaxAllowableDrawdown: decimal.Zero,
		}
	}

	// Exact comparison; risk equal to the drawdown budget passes.
	if estimatedRisk.GreaterThan(maxAllowableDrawdown) {
		return Verdict{
			Status: types.ActionStatusDenied,
			Message: fmt.Sprintf("DENIED: Risk (%s) exceeds %s%% CVaR threshold of profit (%s)",
				estimatedRisk, threshold.Mul(decimal.NewFromInt(100)), maxAllowableDrawdown),
			MaxAllowableDrawdown: maxAllowableDrawdown,
		}
	}

	if requestedAllocation.GreaterThan(snap.TotalCurrentValue()) {
		return Verdict{
			Status:               types.ActionStatusDenied,
			Message:              "DENIED: Insufficient total capital in portfolio.",
			MaxAllowableDrawdown: maxAllowableDrawdown,
		}
	}

	return Verdict{
		Status:               types.ActionStatusSuccess,
		Message:              "APPROVED: Trade allocation is within bounds. Initial capital firewalled.",
		MaxAllowableDrawdown: maxAllowableDrawdown,
	}
}
