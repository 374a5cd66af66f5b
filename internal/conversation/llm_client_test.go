package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	img, err := ParseDataURL("logo.png", "data:image/PNG;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, "png", img.Format())
	assert.Equal(t, []byte("hello"), img.Data)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", img.DataURL())

	for _, raw := range []string{
		"",
		"http://example.com/a.png",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png,aGVsbG8=",
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	} {
		_, err := ParseDataURL("x", raw)
		assert.Error(t, err, raw)
	}
}

func TestStubLLMClientEchoesLastUserMessage(t *testing.T) {
	resp, err := StubLLMClient{}.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{
		{Role: ChatRoleUser, Content: "first"},
		{Role: ChatRoleAssistant, Content: "reply"},
		{Role: ChatRoleUser, Content: "second"},
	}})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, `"second"`)
}
