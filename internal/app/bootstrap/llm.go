package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/howtosavemytime-sys/chatbot-backend/internal/config"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/conversation"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// BuildLLMClient wires the completion provider named by LLM_PROVIDER, wrapped
// with LLM_FALLBACK_PROVIDER when one is configured. A provider without
// credentials degrades to the stub client.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (conversation.LLMClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primary, err := buildLLMProvider(ctx, cfg.LLMProvider, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}

	fallbackName := strings.TrimSpace(cfg.LLMFallbackProvider)
	if fallbackName == "" || fallbackName == cfg.LLMProvider {
		return primary, nil
	}
	fallback, err := buildLLMProvider(ctx, fallbackName, cfg, loadAWS, logger)
	if err != nil {
		logger.Warn("fallback LLM provider unavailable; continuing without it", "provider", fallbackName, "error", err)
		return primary, nil
	}
	logger.Info("LLM fallback enabled", "primary", cfg.LLMProvider, "fallback", fallbackName)
	return conversation.NewFallbackLLMClient(primary, fallback, logger), nil
}

func buildLLMProvider(ctx context.Context, name string, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (conversation.LLMClient, error) {
	switch name {
	case "openai", "":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			logger.Warn("no OpenAI API key configured; using stub LLM client")
			return conversation.StubLLMClient{}, nil
		}
		logger.Info("using OpenAI LLM client", "model", cfg.OpenAIModel)
		return conversation.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger), nil
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			logger.Warn("no Bedrock model configured; using stub LLM client")
			return conversation.StubLLMClient{}, nil
		}
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: bedrock requires aws configuration")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		logger.Info("using Bedrock LLM client", "model", cfg.BedrockModelID, "region", awsCfg.Region)
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			logger.Warn("no Gemini API key configured; using stub LLM client")
			return conversation.StubLLMClient{}, nil
		}
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info("using Gemini LLM client", "model", cfg.GeminiModel)
		return client, nil
	case "stub":
		return conversation.StubLLMClient{}, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown LLM provider %q", name)
	}
}

// llmCloser releases provider clients that hold connections, such as Gemini's.
func llmCloser(client conversation.LLMClient, logger *logging.Logger) func() {
	return func() {
		closer, ok := client.(io.Closer)
		if !ok {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close LLM client", "error", err)
		}
	}
}
