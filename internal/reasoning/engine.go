package reasoning

import (
	"context"
	"errors"
)

var ErrDisabled = errors.New("reasoning engine not configured")

// Engine is the single reasoning capability shared by every pipeline stage.
// Each stage gets its own instance by composition; stages never share chat
// state with each other.
type Engine interface {
	Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Disabled stands in when no API key is configured. Stages treat the error as
// a collaborator fault and skip the cycle.
type Disabled struct{}

func NewDisabled() Disabled {
	return Disabled{}
}

func (Disabled) Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", ErrDisabled
}
