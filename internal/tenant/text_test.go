package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"<b>bold</b> move", "bold move"},
		{"<script>alert(1)</script>hi", "hi"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Sanitize(tc.in), "input %q", tc.in)
	}
}

func TestProfileSanitized(t *testing.T) {
	p := Profile{
		CompanyName: "<b>Acme</b>",
		Services:    []string{"<i>roofing</i>", " gutters "},
		FAQ:         []FAQEntry{{Question: "<script>x</script>Open?", Answer: "Yes &amp; no"}},
	}.Sanitized()

	assert.Equal(t, "Acme", p.CompanyName)
	assert.Equal(t, []string{"roofing", "gutters"}, p.Services)
	assert.Equal(t, FAQEntry{Question: "Open?", Answer: "Yes & no"}, p.FAQ[0])
	assert.Nil(t, p.AllowedTopics)
	assert.True(t, Profile{}.Sanitized().IsZero())
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "", LanguageName(""))
	assert.Equal(t, "German", LanguageName("de"))
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "not a tag!", LanguageName("not a tag!"))
}
