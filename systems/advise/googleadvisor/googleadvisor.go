// Package googleadvisor adapts Google's Gemini API to the
// advise.Advisor interface. Grounded on the teacher's
// graph/model/google adapter (genai.NewClient + GenerativeModel +
// GenerateContent with a single text part), trimmed to a one-shot call
// with no tool calling.
package googleadvisor

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dominoengine/simcore/systems/advise"
)

// Advisor implements advise.Advisor against Google's Gemini API.
type Advisor struct {
	apiKey    string
	modelName string
}

// New returns an Advisor using apiKey and modelName (a default Gemini
// model is used when modelName is empty).
func New(apiKey, modelName string) *Advisor {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &Advisor{apiKey: apiKey, modelName: modelName}
}

// Advise sends req.Prompt as a single text part and returns the model's
// text reply, concatenating every text part of the first candidate.
func (a *Advisor) Advise(ctx context.Context, req advise.Request) (advise.Response, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return advise.Response{}, fmt.Errorf("googleadvisor: create client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(a.modelName)
	resp, err := genModel.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return advise.Response{}, fmt.Errorf("googleadvisor: generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return advise.Response{}, nil
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return advise.Response{Text: text}, nil
}
