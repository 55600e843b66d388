package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the per-user capital ledger. ProtectedCapitalBase only ever
// grows, and only through deposits. AccumulatedProfit is the sole balance
// exposed to trading risk or withdrawal.
type Portfolio struct {
	UserID               string          `json:"userId"`
	ProtectedCapitalBase decimal.Decimal `json:"protectedCapitalBase"`
	AccumulatedProfit    decimal.Decimal `json:"accumulatedProfit"`
	TotalWithdrawals     decimal.Decimal `json:"totalWithdrawals"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func New(userID string, initialBase decimal.Decimal) Portfolio {
	now := time.Now().UTC()
	return Portfolio{
		UserID:               userID,
		ProtectedCapitalBase: initialBase,
		AccumulatedProfit:    decimal.Zero,
		TotalWithdrawals:     decimal.Zero,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (p Portfolio) TotalCurrentValue() decimal.Decimal {
	return p.ProtectedCapitalBase.Add(p.AccumulatedProfit)
}

func (p Portfolio) AddDeposit(amount decimal.Decimal) Portfolio {
	p.ProtectedCapitalBase = p.ProtectedCapitalBase.Add(amount)
	p.UpdatedAt = time.Now().UTC()
	return p
}

func (p Portfolio) AddProfit(amount decimal.Decimal) Portfolio {
	p.AccumulatedProfit = p.AccumulatedProfit.Add(amount)
	p.UpdatedAt = time.Now().UTC()
	return p
}

// DeductLoss charges a trading loss against accumulated profit only. The
// protected base is never touched. Profit may go negative and is then carried
// as a tracked deficit.
func (p Portfolio) DeductLoss(amount decimal.Decimal) Portfolio {
	p.AccumulatedProfit = p.AccumulatedProfit.Sub(amount)
	p.UpdatedAt = time.Now().UTC()
	return p
}

// ProcessWithdrawal deducts from profit when the amount is covered by it.
// This is the sole gate keeping withdrawals away from the protected base.
func (p Portfolio) ProcessWithdrawal(amount decimal.Decimal) (Portfolio, bool) {
	if amount.GreaterThan(p.AccumulatedProfit) {
		return p, false
	}
	p.AccumulatedProfit = p.AccumulatedProfit.Sub(amount)
	p.TotalWithdrawals = p.TotalWithdrawals.Add(amount)
	p.UpdatedAt = time.Now().UTC()
	return p, true
}
