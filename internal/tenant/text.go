package tenant

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var strict = bluemonday.StrictPolicy()

// Sanitize strips markup and trims the result. It is meant for
// operator-supplied tenant fields; visitor messages are passed through as
// typed because a bare "<" would be read as the start of a tag.
func Sanitize(text string) string {
	cleaned := strict.Sanitize(text)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// LanguageName renders a BCP-47 tag as an English language name ("de" -> "German").
// Unparseable input is returned unchanged.
func LanguageName(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	name := display.English.Tags().Name(parsed)
	if name == "" {
		return tag
	}
	return name
}

// Sanitized returns p with markup stripped from every text field.
func (p Profile) Sanitized() Profile {
	out := Profile{
		CompanyName:  Sanitize(p.CompanyName),
		Tone:         Sanitize(p.Tone),
		Language:     Sanitize(p.Language),
		FallbackText: Sanitize(p.FallbackText),
	}
	for _, s := range p.Services {
		out.Services = append(out.Services, Sanitize(s))
	}
	for _, s := range p.AllowedTopics {
		out.AllowedTopics = append(out.AllowedTopics, Sanitize(s))
	}
	for _, e := range p.FAQ {
		out.FAQ = append(out.FAQ, FAQEntry{Question: Sanitize(e.Question), Answer: Sanitize(e.Answer)})
	}
	return out
}
