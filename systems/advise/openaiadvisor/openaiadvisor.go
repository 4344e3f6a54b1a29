// Package openaiadvisor adapts OpenAI's Chat Completions API to the
// advise.Advisor interface. Grounded on the teacher's
// graph/model/openai adapter (NewClient + Chat.Completions.New with a
// single user message), trimmed to a one-shot call with no tool calling.
package openaiadvisor

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dominoengine/simcore/systems/advise"
)

// Advisor implements advise.Advisor against OpenAI's Chat Completions API.
type Advisor struct {
	client    openaisdk.Client
	modelName string
}

// New returns an Advisor using apiKey and modelName (a default model is
// used when modelName is empty).
func New(apiKey, modelName string) *Advisor {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &Advisor{
		client:    openaisdk.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}
}

// Advise sends req.Prompt as a single user message and returns the
// model's text reply.
func (a *Advisor) Advise(ctx context.Context, req advise.Request) (advise.Response, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(a.modelName),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(req.Prompt),
		},
	})
	if err != nil {
		return advise.Response{}, fmt.Errorf("openaiadvisor: %w", err)
	}
	if len(resp.Choices) == 0 {
		return advise.Response{}, nil
	}
	return advise.Response{Text: resp.Choices[0].Message.Content}, nil
}
