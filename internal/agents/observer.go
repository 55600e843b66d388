package agents

import (
	"context"
	"log"

	"antigravity-engine/internal/audit"
	"antigravity-engine/internal/bus"
	"antigravity-engine/internal/reasoning"
	"antigravity-engine/internal/types"
)

// ObserverAgent is the oversight stage. It consumes both the trade execution
// log and the generic audit trace channels, scores every payload through the
// reasoning engine and persists exactly one AuditRecord per inbound event,
// parse failures included. It holds no ledger access and cannot veto trades.
type ObserverAgent struct {
	engine    reasoning.Engine
	audits    audit.Store
	pipeline  *bus.Bus
	threshold float64
}

func NewObserverAgent(engine reasoning.Engine, audits audit.Store, pipeline *bus.Bus, threshold float64) *ObserverAgent {
	return &ObserverAgent{
		engine:    engine,
		audits:    audits,
		pipeline:  pipeline,
		threshold: threshold,
	}
}

func (o *ObserverAgent) Name() string { return "ObserverAgent" }

func (o *ObserverAgent) Start(ctx context.Context) error {
	handler := func(evt bus.Event) { o.Handle(ctx, evt) }
	if err := o.pipeline.Subscribe(ctx, bus.TopicTradeLogs, "observer-agent", handler); err != nil {
		return err
	}
	return o.pipeline.Subscribe(ctx, bus.TopicAuditTraces, "observer-agent", handler)
}

func (o *ObserverAgent) Handle(ctx context.Context, evt bus.Event) CycleOutcome {
	evaluation, err := o.engine.Reason(ctx, observerSystemPrompt, "Evaluate the following agent payload:\n"+string(evt.Payload))
	if err != nil {
		log.Printf("[ObserverAgent] evaluation failed, storing raw payload for manual audit: %v", err)
		o.record(ctx, audit.AuditRecord{
			AgentName:       "unknown",
			ActionType:      types.AuditActionParseFailure,
			ReasoningBody:   string(evt.Payload),
			ConfidenceScore: 0.0,
		})
		return OutcomeCollaboratorFault
	}

	result := reasoning.ParseAuditVerdict(evaluation)
	if !result.Parsed {
		log.Printf("[ObserverAgent] unparseable evaluation, storing raw payload for manual audit")
		o.record(ctx, audit.AuditRecord{
			AgentName:       "unknown",
			ActionType:      types.AuditActionParseFailure,
			ReasoningBody:   string(evt.Payload),
			ConfidenceScore: 0.0,
		})
		return OutcomeParseFailure
	}

	verdict := result.Verdict
	action := types.AuditActionEventTrace
	if verdict.AnomalyDetected || verdict.ConfidenceScore < o.threshold {
		action = types.AuditActionAlert
		log.Printf("[ObserverAgent] ALERT: confidence=%.2f agent=%q reason: %s",
			verdict.ConfidenceScore, verdict.OriginAgent, verdict.Reasoning)
	} else {
		log.Printf("[ObserverAgent] agent=%q passed validation, confidence=%.2f", verdict.OriginAgent, verdict.ConfidenceScore)
	}
	o.record(ctx, audit.AuditRecord{
		AgentName:       verdict.OriginAgent,
		ActionType:      action,
		ReasoningBody:   evaluation,
		ConfidenceScore: verdict.ConfidenceScore,
	})
	return OutcomeProcessed
}

func (o *ObserverAgent) record(ctx context.Context, rec audit.AuditRecord) {
	if _, err := o.audits.Insert(ctx, rec); err != nil {
		log.Printf("[ObserverAgent] failed to persist audit record: %v", err)
	}
}
