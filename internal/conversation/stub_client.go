package conversation

import (
	"context"
	"fmt"
)

// StubLLMClient answers without calling a provider. It is used for local
// development when no API key is configured.
type StubLLMClient struct{}

func (StubLLMClient) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	last := ""
	if i := lastUserIndex(req.Messages); i >= 0 {
		last = req.Messages[i].Content
	}
	return LLMResponse{Text: fmt.Sprintf("Thanks for your message: %q. How else can I help?", last)}, nil
}
