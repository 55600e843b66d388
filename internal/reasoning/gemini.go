package reasoning

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Function is a callable capability exposed to the model, declaration plus
// implementation.
type Function interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

// Gemini runs one chat per Reason call against the configured model. When
// functions are bound, the model may call them before producing its final
// text and the loop feeds responses back until it does.
type Gemini struct {
	client    *genai.Client
	model     string
	functions []Function
}

func NewGemini(client *genai.Client, model string, functions ...Function) *Gemini {
	return &Gemini{client: client, model: model, functions: functions}
}

func (g *Gemini) Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
	if len(g.functions) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(g.functions))
		for _, f := range g.functions {
			decls = append(decls, f.Declaration())
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	chat, err := g.client.Chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", err
	}
	return g.ask(ctx, chat, &genai.Part{Text: userPrompt})
}

func (g *Gemini) ask(ctx context.Context, chat *genai.Chat, part *genai.Part) (string, error) {
	resp, err := chat.Send(ctx, part)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from model %s", g.model)
	}
	part0 := resp.Candidates[0].Content.Parts[0]
	if part0.FunctionCall != nil {
		fresp := g.dispatch(ctx, part0.FunctionCall)
		// Hand the function result back and keep going until the model
		// produces plain text.
		return g.ask(ctx, chat, &genai.Part{FunctionResponse: fresp})
	}
	return part0.Text, nil
}

func (g *Gemini) dispatch(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
	for _, f := range g.functions {
		if f.Declaration().Name == call.Name {
			return f.Call(ctx, call.ID, call.Args)
		}
	}
	return &genai.FunctionResponse{
		ID:   call.ID,
		Name: call.Name,
		Response: map[string]any{
			"error": fmt.Sprintf("unknown function %s", call.Name),
		},
	}
}
