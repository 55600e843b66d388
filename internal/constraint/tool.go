package constraint

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// VerifyTool exposes the verifier to the decision stage's reasoning model as
// a callable function. The model is instructed to call it before proposing
// any trade.
type VerifyTool struct {
	verifier *Verifier
	userID   string
}

func NewVerifyTool(verifier *Verifier, userID string) *VerifyTool {
	return &VerifyTool{verifier: verifier, userID: userID}
}

func (t *VerifyTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "verify_capital_constraint",
		Description: "Strictly enforces capital preservation limits before allowing trade execution. Call this before any BUY action.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"requestedAllocation": {
					Type:        genai.TypeNumber,
					Description: "Capital the trade would allocate, in account currency.",
				},
				"estimatedCvarRisk": {
					Type:        genai.TypeNumber,
					Description: "Estimated CVaR exposure of the trade, in account currency.",
				},
			},
			Required: []string{"requestedAllocation", "estimatedCvarRisk"},
		},
	}
}

func (t *VerifyTool) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	fresp := &genai.FunctionResponse{ID: id, Name: "verify_capital_constraint"}
	alloc, err := decimalArg(args, "requestedAllocation")
	if err != nil {
		fresp.Response = map[string]any{"error": err.Error()}
		return fresp
	}
	risk, err := decimalArg(args, "estimatedCvarRisk")
	if err != nil {
		fresp.Response = map[string]any{"error": err.Error()}
		return fresp
	}
	verdict := t.verifier.Check(ctx, t.userID, alloc, risk)
	log.Printf("[VerifyTool] user=%s alloc=%s risk=%s -> %s", t.userID, alloc, risk, verdict.Status)
	fresp.Response = map[string]any{
		"status":               string(verdict.Status),
		"message":              verdict.Message,
		"maxAllowableDrawdown": verdict.MaxAllowableDrawdown.String(),
	}
	return fresp
}

func decimalArg(args map[string]any, key string) (decimal.Decimal, error) {
	switch v := args[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("invalid %s: got %T, expected number", key, args[key])
	}
}
