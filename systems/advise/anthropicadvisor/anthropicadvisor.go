// Package anthropicadvisor adapts Anthropic's Messages API to the
// advise.Advisor interface. Grounded on the teacher's
// graph/model/anthropic adapter (NewClient + Messages.New with a single
// text block), trimmed to a one-shot text-in/text-out call since a
// planning hint never needs tool calling or conversation history.
package anthropicadvisor

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dominoengine/simcore/systems/advise"
)

// Advisor implements advise.Advisor against Anthropic's Claude API.
type Advisor struct {
	client    anthropicsdk.Client
	modelName string
}

// New returns an Advisor using apiKey and modelName (a default Claude
// model is used when modelName is empty).
func New(apiKey, modelName string) *Advisor {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &Advisor{
		client:    anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}
}

// Advise sends req.Prompt as a single user message and returns the
// model's text reply.
func (a *Advisor) Advise(ctx context.Context, req advise.Request) (advise.Response, error) {
	resp, err := a.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(a.modelName),
		MaxTokens: 1024,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return advise.Response{}, fmt.Errorf("anthropicadvisor: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return advise.Response{Text: text}, nil
}
