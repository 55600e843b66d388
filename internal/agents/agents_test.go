package agents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"antigravity-engine/internal/audit"
	"antigravity-engine/internal/broker"
	"antigravity-engine/internal/bus"
	"antigravity-engine/internal/trades"
	"antigravity-engine/internal/types"
)

// stubEngine returns a canned reply and captures the prompts it was given.
type stubEngine struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubEngine) Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, userPrompt)
	return s.reply, s.err
}

func (s *stubEngine) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// recordingAdapter accepts every order and remembers it.
type recordingAdapter struct {
	mu     sync.Mutex
	orders []broker.OrderRequest
}

func (a *recordingAdapter) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.orders = append(a.orders, req)
	return broker.OrderResponse{Success: true}, nil
}

func (a *recordingAdapter) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(1000000), nil
}

func (a *recordingAdapter) all() []broker.OrderRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]broker.OrderRequest, len(a.orders))
	copy(out, a.orders)
	return out
}

func drainEvents(t *testing.T, b *bus.Bus, topic bus.Topic) <-chan bus.Event {
	t.Helper()
	ch := make(chan bus.Event, 32)
	err := b.Subscribe(context.Background(), topic, "test-sink", func(e bus.Event) { ch <- e })
	require.NoError(t, err)
	return ch
}

func waitEvent(t *testing.T, ch <-chan bus.Event) bus.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pipeline event")
		return bus.Event{}
	}
}

func newTradeFixture(t *testing.T, reply string, engineErr error) (*TradeAgent, *stubEngine, *trades.MemoryStore, *recordingAdapter, *bus.Bus) {
	t.Helper()
	engine := &stubEngine{reply: reply, err: engineErr}
	store := trades.NewMemoryStore()
	adapter := &recordingAdapter{}
	dispatcher := broker.NewDispatcher(adapter, 16)
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)
	pipeline := bus.New(3, 64)
	t.Cleanup(func() {
		pipeline.Close()
		cancel()
		dispatcher.Close()
	})
	agent := NewTradeAgent(engine, store, dispatcher, pipeline, "usr_001")
	return agent, engine, store, adapter, pipeline
}

func TestTradeAgent_ApprovedDecision(t *testing.T) {
	reply := `{"assetId":"AAL","action":"BUY","amountAllocated":1500,"executionPrice":14.25,"strategyUsed":"DISCRETE_SWING","cvarExposure":120}`
	agent, _, store, adapter, pipeline := newTradeFixture(t, reply, nil)
	logs := drainEvents(t, pipeline, bus.TopicTradeLogs)

	outcome := agent.Handle(context.Background(), bus.Event{ID: "evt1", Payload: []byte(`{"trend":"BULLISH"}`)})
	assert.Equal(t, OutcomeProcessed, outcome)

	recs, err := store.ListByUser(context.Background(), "usr_001")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "AAL", recs[0].AssetID)
	assert.Equal(t, types.TradeActionBuy, recs[0].Action)
	assert.True(t, recs[0].AmountAllocated.Equal(decimal.NewFromInt(1500)))

	evt := waitEvent(t, logs)
	assert.Equal(t, reply, string(evt.Payload))
	assert.Equal(t, "usr_001", evt.Key)

	// 1500 / 14.25 = 105.26 -> 105 whole units at the broker.
	require.Eventually(t, func() bool { return len(adapter.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	order := adapter.all()[0]
	assert.Equal(t, int64(105), order.Quantity)
	assert.Equal(t, "buy", order.OrderType)
}

func TestTradeAgent_DeniedDecision(t *testing.T) {
	agent, _, store, adapter, pipeline := newTradeFixture(t,
		"DENIED: Risk (300) exceeds 10% CVaR threshold of profit (200)", nil)
	traces := drainEvents(t, pipeline, bus.TopicAuditTraces)

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte(`{}`)})
	assert.Equal(t, OutcomeDenied, outcome)

	recs, err := store.ListByUser(context.Background(), "usr_001")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, adapter.all())

	evt := waitEvent(t, traces)
	assert.Contains(t, string(evt.Payload), "DENIED")
}

func TestTradeAgent_UnparseableDecisionForwardedForAudit(t *testing.T) {
	agent, _, store, _, pipeline := newTradeFixture(t, "market looks choppy, sitting out", nil)
	traces := drainEvents(t, pipeline, bus.TopicAuditTraces)

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte(`{}`)})
	assert.Equal(t, OutcomeParseFailure, outcome)

	recs, err := store.ListByUser(context.Background(), "usr_001")
	require.NoError(t, err)
	assert.Empty(t, recs)

	evt := waitEvent(t, traces)
	assert.Equal(t, "market looks choppy, sitting out", string(evt.Payload))
}

func TestTradeAgent_EngineFault(t *testing.T) {
	agent, _, store, _, _ := newTradeFixture(t, "", errors.New("model unavailable"))

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte(`{}`)})
	assert.Equal(t, OutcomeCollaboratorFault, outcome)

	recs, err := store.ListByUser(context.Background(), "usr_001")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTradeAgent_TinyAllocationSkipsBroker(t *testing.T) {
	reply := `{"assetId":"AAL","action":"BUY","amountAllocated":10,"executionPrice":14.25,"strategyUsed":"DISCRETE_SWING","cvarExposure":1}`
	agent, _, store, adapter, _ := newTradeFixture(t, reply, nil)

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte(`{}`)})
	assert.Equal(t, OutcomeProcessed, outcome)

	// The record is still persisted even though 10/14.25 floors to 0 units.
	recs, err := store.ListByUser(context.Background(), "usr_001")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, adapter.all())
}

func newObserverFixture(t *testing.T, reply string, engineErr error) (*ObserverAgent, *audit.MemoryStore, *bus.Bus) {
	t.Helper()
	engine := &stubEngine{reply: reply, err: engineErr}
	audits := audit.NewMemoryStore()
	pipeline := bus.New(3, 64)
	t.Cleanup(pipeline.Close)
	return NewObserverAgent(engine, audits, pipeline, 0.85), audits, pipeline
}

func TestObserverAgent_HighConfidenceTrace(t *testing.T) {
	agent, audits, _ := newObserverFixture(t,
		`{"confidence_score":0.95,"anomaly_detected":false,"reasoning":"within bounds","origin_agent":"TradeAgent"}`, nil)

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte(`{"action":"BUY"}`)})
	assert.Equal(t, OutcomeProcessed, outcome)

	recs := audits.All()
	require.Len(t, recs, 1)
	assert.Equal(t, types.AuditActionEventTrace, recs[0].ActionType)
	assert.Equal(t, "TradeAgent", recs[0].AgentName)
	assert.InDelta(t, 0.95, recs[0].ConfidenceScore, 1e-9)
}

func TestObserverAgent_LowConfidenceAlert(t *testing.T) {
	agent, audits, _ := newObserverFixture(t,
		`{"confidence_score":0.60,"anomaly_detected":false,"reasoning":"allocation inconsistent with strategy","origin_agent":"TradeAgent"}`, nil)

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte(`{}`)})
	assert.Equal(t, OutcomeProcessed, outcome)

	recs := audits.All()
	require.Len(t, recs, 1)
	assert.Equal(t, types.AuditActionAlert, recs[0].ActionType)
}

func TestObserverAgent_AnomalyAlertsDespiteHighConfidence(t *testing.T) {
	agent, audits, _ := newObserverFixture(t,
		`{"confidence_score":0.99,"anomaly_detected":true,"reasoning":"volume spike","origin_agent":"AnalysisAgent"}`, nil)

	agent.Handle(context.Background(), bus.Event{Payload: []byte(`{}`)})
	recs := audits.All()
	require.Len(t, recs, 1)
	assert.Equal(t, types.AuditActionAlert, recs[0].ActionType)
}

func TestObserverAgent_UnparseableEvaluationZeroConfidence(t *testing.T) {
	agent, audits, _ := newObserverFixture(t, "I cannot evaluate this", nil)

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte("garbled payload")})
	assert.Equal(t, OutcomeParseFailure, outcome)

	recs := audits.All()
	require.Len(t, recs, 1)
	assert.Equal(t, types.AuditActionParseFailure, recs[0].ActionType)
	assert.Equal(t, "unknown", recs[0].AgentName)
	assert.Zero(t, recs[0].ConfidenceScore)
	assert.Equal(t, "garbled payload", recs[0].ReasoningBody)
}

func TestObserverAgent_EngineFaultStillRecords(t *testing.T) {
	agent, audits, _ := newObserverFixture(t, "", errors.New("model unavailable"))

	outcome := agent.Handle(context.Background(), bus.Event{Payload: []byte("raw trade log")})
	assert.Equal(t, OutcomeCollaboratorFault, outcome)

	recs := audits.All()
	require.Len(t, recs, 1)
	assert.Equal(t, types.AuditActionParseFailure, recs[0].ActionType)
	assert.Zero(t, recs[0].ConfidenceScore)
}

func TestObserverAgent_OneRecordPerInboundEvent(t *testing.T) {
	agent, audits, pipeline := newObserverFixture(t,
		`{"confidence_score":0.9,"anomaly_detected":false,"origin_agent":"TradeAgent"}`, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, agent.Start(ctx))

	const n = 10
	for i := 0; i < n; i++ {
		_, err := pipeline.Publish(bus.TopicTradeLogs, "usr_001", []byte(`{"action":"BUY"}`))
		require.NoError(t, err)
	}
	_, err := pipeline.Publish(bus.TopicAuditTraces, "usr_001", []byte("denied trace"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(audits.All()) == n+1 }, 2*time.Second, 10*time.Millisecond)
}

func TestAnalysisAgent_ProcessPublishesVerbatim(t *testing.T) {
	reply := `{"asset_id":"AAL","volatility_score":0.42,"trend":"BULLISH","anomaly_detected":false,"recommended_strategy":"DISCRETE_SWING","confidence":0.9}`
	engine := &stubEngine{reply: reply}
	pipeline := bus.New(3, 64)
	t.Cleanup(pipeline.Close)
	health := drainEvents(t, pipeline, bus.TopicMarketHealth)

	agent := NewAnalysisAgent(engine, nil, pipeline, "AAL", time.Minute)
	outcome := agent.Process(context.Background(), `{"price": 14.25}`)
	assert.Equal(t, OutcomeProcessed, outcome)

	evt := waitEvent(t, health)
	assert.Equal(t, reply, string(evt.Payload))
	assert.Equal(t, "AAL", evt.Key)
	assert.Contains(t, engine.lastPrompt(), `{"price": 14.25}`)
}

func TestAnalysisAgent_EngineFaultSkipsCycle(t *testing.T) {
	engine := &stubEngine{err: errors.New("model unavailable")}
	pipeline := bus.New(3, 64)
	t.Cleanup(pipeline.Close)
	health := drainEvents(t, pipeline, bus.TopicMarketHealth)

	agent := NewAnalysisAgent(engine, nil, pipeline, "AAL", time.Minute)
	outcome := agent.Process(context.Background(), "{}")
	assert.Equal(t, OutcomeCollaboratorFault, outcome)

	select {
	case <-health:
		t.Fatal("failed cycle must not publish")
	case <-time.After(100 * time.Millisecond):
	}
}
