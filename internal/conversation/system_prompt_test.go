package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/session"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/tenant"
)

func TestBuildSystemPromptGroundsOnTenant(t *testing.T) {
	prompt := BuildSystemPrompt(tenant.Profile{
		CompanyName:   "Acme Roofing",
		Language:      "de",
		Services:      []string{"roof repair", "gutter cleaning"},
		AllowedTopics: []string{"pricing"},
		FAQ:           []tenant.FAQEntry{{Question: "Do you work weekends?", Answer: "Saturdays only."}},
	}, session.Profile{Name: "Ann"})

	assert.Contains(t, prompt, "website assistant for Acme Roofing")
	assert.Contains(t, prompt, "Answer in German")
	assert.Contains(t, prompt, "- roof repair")
	assert.Contains(t, prompt, "- pricing")
	assert.Contains(t, prompt, "Q: Do you work weekends?\nA: Saturdays only.")
	assert.Contains(t, prompt, `"Sorry, a little trouble now. Can we continue talking about Acme Roofing services?"`)
	assert.Contains(t, prompt, "- Name: Ann")
	assert.NotContains(t, prompt, "- Email:")
}

func TestBuildSystemPromptDefaults(t *testing.T) {
	prompt := BuildSystemPrompt(tenant.Profile{}, session.Profile{})

	assert.Contains(t, prompt, "MadeToAutomate")
	assert.False(t, strings.Contains(prompt, "VISITOR:"))
	assert.False(t, strings.HasSuffix(prompt, "\n"))
}
