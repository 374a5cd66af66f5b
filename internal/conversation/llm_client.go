package conversation

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// ImageAttachment is a decoded inline image sent alongside the latest user message.
type ImageAttachment struct {
	Name      string
	MediaType string
	Data      []byte
}

// DataURL re-encodes the attachment as a base64 data URL.
func (a ImageAttachment) DataURL() string {
	return "data:" + a.MediaType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Format returns the short image format ("png", "jpeg", ...).
func (a ImageAttachment) Format() string {
	return strings.TrimPrefix(a.MediaType, "image/")
}

var errInvalidDataURL = errors.New("conversation: invalid image data url")

// ParseDataURL decodes a base64 "data:image/...;base64," URL.
func ParseDataURL(name, raw string) (ImageAttachment, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "data:")
	if !ok {
		return ImageAttachment{}, errInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return ImageAttachment{}, errInvalidDataURL
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(mediaType, "image/") {
		return ImageAttachment{}, errInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return ImageAttachment{}, errInvalidDataURL
	}
	return ImageAttachment{Name: name, MediaType: strings.ToLower(mediaType), Data: data}, nil
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
	// Images belong to the last user message only.
	Images []ImageAttachment
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// lastUserIndex returns the index of the final user message, or -1.
func lastUserIndex(msgs []ChatMessage) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == ChatRoleUser {
			return i
		}
	}
	return -1
}
