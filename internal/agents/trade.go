package agents

import (
	"context"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"antigravity-engine/internal/broker"
	"antigravity-engine/internal/bus"
	"antigravity-engine/internal/reasoning"
	"antigravity-engine/internal/trades"
	"antigravity-engine/internal/types"
)

// TradeAgent is the decision stage. It consumes market health events, reasons
// over them with the capital-constraint tool bound, persists approved trades
// and hands execution to the broker dispatcher. The TradeRecord commit and
// the broker dispatch are deliberately not atomic: a failed dispatch never
// rolls back an already-committed record.
type TradeAgent struct {
	engine     reasoning.Engine
	trades     trades.Store
	dispatcher *broker.Dispatcher
	pipeline   *bus.Bus
	userID     string
}

func NewTradeAgent(engine reasoning.Engine, store trades.Store, dispatcher *broker.Dispatcher, pipeline *bus.Bus, userID string) *TradeAgent {
	return &TradeAgent{
		engine:     engine,
		trades:     store,
		dispatcher: dispatcher,
		pipeline:   pipeline,
		userID:     userID,
	}
}

func (t *TradeAgent) Name() string { return "TradeAgent" }

func (t *TradeAgent) Start(ctx context.Context) error {
	return t.pipeline.Subscribe(ctx, bus.TopicMarketHealth, "trade-agent", func(evt bus.Event) {
		t.Handle(ctx, evt)
	})
}

func (t *TradeAgent) Handle(ctx context.Context, evt bus.Event) CycleOutcome {
	log.Printf("[TradeAgent] received market event id=%s", evt.ID)

	raw, err := t.engine.Reason(ctx, tradeSystemPrompt, "Market Event:\n"+string(evt.Payload))
	if err != nil {
		log.Printf("[TradeAgent] reasoning failed, defaulting to passive posture: %v", err)
		return OutcomeCollaboratorFault
	}

	result := reasoning.ParseTradeDecision(raw)
	if result.Denied {
		log.Printf("[TradeAgent] trade denied by capital constraint")
		t.forwardForAudit(result.Raw)
		return OutcomeDenied
	}
	if !result.Parsed {
		log.Printf("[TradeAgent] non-trading or unparseable decision, forwarding for audit")
		t.forwardForAudit(result.Raw)
		return OutcomeParseFailure
	}

	decision := result.Decision
	record := trades.TradeRecord{
		UserID:          t.userID,
		AssetID:         decision.AssetID,
		Action:          types.TradeAction(strings.ToUpper(decision.Action)),
		AmountAllocated: decision.AmountAllocated,
		ExecutionPrice:  decision.ExecutionPrice,
		StrategyUsed:    decision.StrategyUsed,
		CvarExposure:    decision.CvarExposure,
	}
	if _, err := t.trades.Insert(ctx, record); err != nil {
		log.Printf("[TradeAgent] failed to persist trade record: %v", err)
		return OutcomeCollaboratorFault
	}

	t.dispatch(decision)

	if _, err := t.pipeline.Publish(bus.TopicTradeLogs, t.userID, []byte(raw)); err != nil {
		log.Printf("[TradeAgent] failed to publish trade log: %v", err)
		return OutcomePublishFailure
	}
	log.Printf("[TradeAgent] trade persisted and broadcast: %s %s", record.Action, record.AssetID)
	return OutcomeProcessed
}

// dispatch hands the order to the broker queue. Quantity is whole units of
// the allocated amount at the execution price; a zero quantity skips
// execution entirely.
func (t *TradeAgent) dispatch(decision reasoning.TradeDecision) {
	if decision.ExecutionPrice.LessThanOrEqual(decimal.Zero) {
		log.Printf("[TradeAgent] non-positive execution price, skipping broker dispatch")
		return
	}
	quantity := decision.AmountAllocated.Div(decision.ExecutionPrice).Floor().IntPart()
	if quantity <= 0 {
		log.Printf("[TradeAgent] calculated quantity is 0 for amount=%s, skipping broker dispatch", decision.AmountAllocated)
		return
	}
	err := t.dispatcher.Enqueue(broker.OrderRequest{
		Symbol:    decision.AssetID,
		OrderType: strings.ToLower(decision.Action),
		Quantity:  quantity,
		Price:     decision.ExecutionPrice,
		Condition: "market",
	})
	if err != nil {
		log.Printf("[TradeAgent] broker dispatch queue rejected order for %s: %v", decision.AssetID, err)
	}
}

func (t *TradeAgent) forwardForAudit(raw string) {
	if _, err := t.pipeline.Publish(bus.TopicAuditTraces, t.userID, []byte(raw)); err != nil {
		log.Printf("[TradeAgent] failed to forward decision for audit: %v", err)
	}
}
