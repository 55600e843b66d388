package reasoning

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// TradeDecision is the structured output expected from the decision stage's
// reasoning call.
type TradeDecision struct {
	AssetID         string          `json:"assetId"`
	Action          string          `json:"action"`
	AmountAllocated decimal.Decimal `json:"amountAllocated"`
	ExecutionPrice  decimal.Decimal `json:"executionPrice"`
	StrategyUsed    string          `json:"strategyUsed"`
	CvarExposure    decimal.Decimal `json:"cvarExposure"`
}

// DecisionResult is the tagged parse outcome: exactly one of Denied, Parsed,
// or neither (unparseable) holds, and Raw always carries the collaborator's
// text for the audit trail.
type DecisionResult struct {
	Decision TradeDecision
	Raw      string
	Parsed   bool
	Denied   bool
}

func ParseTradeDecision(raw string) DecisionResult {
	res := DecisionResult{Raw: raw}
	if strings.Contains(raw, "DENIED") {
		res.Denied = true
		return res
	}
	blob, ok := extractJSON(raw)
	if !ok {
		return res
	}
	var d TradeDecision
	if err := json.Unmarshal([]byte(blob), &d); err != nil {
		return res
	}
	if d.AssetID == "" || d.Action == "" {
		return res
	}
	res.Decision = d
	res.Parsed = true
	return res
}

// AuditVerdict is the oversight stage's structured evaluation.
type AuditVerdict struct {
	ConfidenceScore float64 `json:"confidence_score"`
	AnomalyDetected bool    `json:"anomaly_detected"`
	Reasoning       string  `json:"reasoning"`
	OriginAgent     string  `json:"origin_agent"`
}

type VerdictResult struct {
	Verdict AuditVerdict
	Raw     string
	Parsed  bool
}

func ParseAuditVerdict(raw string) VerdictResult {
	res := VerdictResult{Raw: raw}
	blob, ok := extractJSON(raw)
	if !ok {
		return res
	}
	// Pointer fields to tell "absent" from zero: an absent score defaults
	// optimistically, matching the original evaluator.
	var v struct {
		ConfidenceScore *float64 `json:"confidence_score"`
		AnomalyDetected *bool    `json:"anomaly_detected"`
		Reasoning       string   `json:"reasoning"`
		OriginAgent     string   `json:"origin_agent"`
	}
	if err := json.Unmarshal([]byte(blob), &v); err != nil {
		return res
	}
	res.Verdict = AuditVerdict{ConfidenceScore: 1.0, Reasoning: "N/A", OriginAgent: "unknown"}
	if v.ConfidenceScore != nil {
		res.Verdict.ConfidenceScore = *v.ConfidenceScore
	}
	if v.AnomalyDetected != nil {
		res.Verdict.AnomalyDetected = *v.AnomalyDetected
	}
	if v.Reasoning != "" {
		res.Verdict.Reasoning = v.Reasoning
	}
	if v.OriginAgent != "" {
		res.Verdict.OriginAgent = v.OriginAgent
	}
	res.Parsed = true
	return res
}

// extractJSON pulls the outermost JSON object out of free text, tolerating
// markdown code fences around it.
func extractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
