package types

type ActionStatus string

type TradeAction string

type Trend string

type Strategy string

type AuditAction string

const (
	ActionStatusSuccess ActionStatus = "SUCCESS"
	ActionStatusDenied  ActionStatus = "DENIED"
	ActionStatusError   ActionStatus = "ERROR"
)

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

const (
	StrategyDiscreteSwing Strategy = "DISCRETE_SWING"
	StrategyHold          Strategy = "HOLD"
	StrategyAccumulate    Strategy = "ACCUMULATE"
)

const (
	AuditActionEventTrace   AuditAction = "EventTrace"
	AuditActionParseFailure AuditAction = "ParseFailure"
	AuditActionAlert        AuditAction = "Alert"
)
