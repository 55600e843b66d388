package agents

import (
	"context"
	"fmt"
	"log"
	"time"

	"antigravity-engine/internal/bus"
	"antigravity-engine/internal/marketdata"
	"antigravity-engine/internal/reasoning"
)

// AnalysisAgent is the ingestion stage: on a fixed interval it pulls raw
// market data, asks the reasoning engine for a structured market-health
// payload, and publishes the result verbatim to the market health channel.
type AnalysisAgent struct {
	engine   reasoning.Engine
	market   *marketdata.Client
	pipeline *bus.Bus
	asset    string
	interval time.Duration
}

func NewAnalysisAgent(engine reasoning.Engine, market *marketdata.Client, pipeline *bus.Bus, asset string, interval time.Duration) *AnalysisAgent {
	return &AnalysisAgent{
		engine:   engine,
		market:   market,
		pipeline: pipeline,
		asset:    asset,
		interval: interval,
	}
}

func (a *AnalysisAgent) Name() string { return "AnalysisAgent" }

// Run drives the scheduled evaluation loop. A failed cycle is logged and
// skipped; the scheduler itself never stops before ctx is done.
func (a *AnalysisAgent) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	log.Printf("[AnalysisAgent] scheduler started, interval=%s asset=%s", a.interval, a.asset)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[AnalysisAgent] scheduler stopped")
			return
		case <-ticker.C:
			a.Evaluate(ctx)
		}
	}
}

// Evaluate runs one ingestion cycle end to end.
func (a *AnalysisAgent) Evaluate(ctx context.Context) CycleOutcome {
	raw := a.market.FetchLatest(ctx, a.asset)
	return a.Process(ctx, fmt.Sprintf("%v", raw))
}

// Process is the entry point shared by the scheduler and simulation inject.
func (a *AnalysisAgent) Process(ctx context.Context, rawData string) CycleOutcome {
	payload, err := a.engine.Reason(ctx, analysisSystemPrompt, "Raw LocalMarket Data: "+rawData)
	if err != nil {
		log.Printf("[AnalysisAgent] market evaluation cycle failed, skipping: %v", err)
		return OutcomeCollaboratorFault
	}
	if _, err := a.pipeline.Publish(bus.TopicMarketHealth, a.asset, []byte(payload)); err != nil {
		log.Printf("[AnalysisAgent] failed to publish market health event: %v", err)
		return OutcomePublishFailure
	}
	log.Printf("[AnalysisAgent] market health derived, emitted to %s", bus.TopicMarketHealth)
	return OutcomeProcessed
}
