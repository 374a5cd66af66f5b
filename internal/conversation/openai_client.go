package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

const defaultOpenAIModel = "gpt-4o-mini"

var llmTracer = otel.Tracer("chatbot-backend/internal/conversation/llm")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements LLMClient on the chat completions API. Image
// attachments are sent as image_url parts so vision models can read them.
type OpenAIClient struct {
	client chatClient
	model  string
	logger *logging.Logger
}

// NewOpenAIClient builds a client for the given key. baseURL may point at any
// OpenAI compatible endpoint; empty uses the public API.
func NewOpenAIClient(apiKey, baseURL, model string, logger *logging.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return newOpenAIClient(openai.NewClientWithConfig(cfg), model, logger)
}

func newOpenAIClient(client chatClient, model string, logger *logging.Logger) *OpenAIClient {
	if client == nil {
		panic("conversation: chat client cannot be nil")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIClient{client: client, model: model, logger: logger}
}

func (c *OpenAIClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	ctx, span := llmTracer.Start(ctx, "conversation.openai")
	defer span.End()

	model := req.Model
	if model == "" {
		model = c.model
	}
	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: openAIMessages(req),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		chatReq.Temperature = req.Temperature
	}
	if req.TopP > 0 {
		chatReq.TopP = req.TopP
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		span.RecordError(err)
		return LLMResponse{}, fmt.Errorf("conversation: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("conversation: openai returned no choices")
		span.RecordError(err)
		return LLMResponse{}, err
	}
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("chatbot.openai.model", model),
			attribute.Int("chatbot.openai.choices", len(resp.Choices)),
			attribute.Int("chatbot.openai.images", len(req.Images)),
		)
	}

	choice := resp.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}

func openAIMessages(req LLMRequest) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: block})
	}

	imageAt := -1
	if len(req.Images) > 0 {
		imageAt = lastUserIndex(req.Messages)
	}
	for i, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case ChatRoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case ChatRoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		if i != imageAt {
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
			continue
		}
		parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: msg.Content}}
		for _, img := range req.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: img.DataURL(), Detail: openai.ImageURLDetailAuto},
			})
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return out
}
