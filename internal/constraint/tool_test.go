package constraint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"antigravity-engine/internal/portfolio"
)

func newToolFixture(t *testing.T) *VerifyTool {
	t.Helper()
	keeper := portfolio.NewKeeper(portfolio.NewMemoryStore())
	ctx := context.Background()
	_, err := keeper.Deposit(ctx, "usr_001", dec("100000"))
	require.NoError(t, err)
	_, err = keeper.AddProfit(ctx, "usr_001", dec("5000"))
	require.NoError(t, err)
	return NewVerifyTool(NewVerifier(keeper, dec("0.10")), "usr_001")
}

func TestVerifyTool_Declaration(t *testing.T) {
	t.Parallel()

	decl := newToolFixture(t).Declaration()
	assert.Equal(t, "verify_capital_constraint", decl.Name)
	assert.Contains(t, decl.Parameters.Properties, "requestedAllocation")
	assert.Contains(t, decl.Parameters.Properties, "estimatedCvarRisk")
	assert.ElementsMatch(t, []string{"requestedAllocation", "estimatedCvarRisk"}, decl.Parameters.Required)
}

func TestVerifyTool_Call(t *testing.T) {
	t.Parallel()

	tool := newToolFixture(t)
	ctx := context.Background()

	resp := tool.Call(ctx, "call-1", map[string]any{
		"requestedAllocation": 10000.0,
		"estimatedCvarRisk":   150.0,
	})
	require.Equal(t, "verify_capital_constraint", resp.Name)
	assert.Equal(t, "call-1", resp.ID)
	assert.Equal(t, "SUCCESS", resp.Response["status"])
	assert.Equal(t, "500", resp.Response["maxAllowableDrawdown"])

	resp = tool.Call(ctx, "call-2", map[string]any{
		"requestedAllocation": 10000.0,
		"estimatedCvarRisk":   900.0,
	})
	assert.Equal(t, "DENIED", resp.Response["status"])
	assert.Contains(t, resp.Response["message"], "CVaR threshold")
}

func TestVerifyTool_Call_StringArguments(t *testing.T) {
	t.Parallel()

	// Some model runtimes hand numeric args through as strings.
	resp := newToolFixture(t).Call(context.Background(), "call-3", map[string]any{
		"requestedAllocation": "10000",
		"estimatedCvarRisk":   "150",
	})
	assert.Equal(t, "SUCCESS", resp.Response["status"])
}

func TestVerifyTool_Call_BadArguments(t *testing.T) {
	t.Parallel()

	resp := newToolFixture(t).Call(context.Background(), "call-4", map[string]any{
		"requestedAllocation": true,
	})
	assert.Contains(t, resp.Response, "error")
	assert.NotContains(t, resp.Response, "status")
}
