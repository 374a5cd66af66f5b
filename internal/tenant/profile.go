package tenant

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultCompanyName = "MadeToAutomate"

// FAQEntry is one question/answer pair the assistant may quote.
type FAQEntry struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Profile is the per-tenant configuration that grounds the assistant.
// Widgets send these fields with every chat request; the first non-empty
// set is cached on the session so later turns can omit them.
type Profile struct {
	CompanyName   string     `json:"companyName,omitempty" yaml:"company_name"`
	Tone          string     `json:"tone,omitempty" yaml:"tone"`
	Language      string     `json:"language,omitempty" yaml:"language"`
	Services      []string   `json:"services,omitempty" yaml:"services"`
	AllowedTopics []string   `json:"allowedTopics,omitempty" yaml:"allowed_topics"`
	FAQ           []FAQEntry `json:"faq,omitempty" yaml:"faq"`
	FallbackText  string     `json:"fallbackText,omitempty" yaml:"fallback_text"`
}

// Default returns the built-in MadeToAutomate profile.
func Default() Profile {
	return Profile{
		CompanyName: defaultCompanyName,
		Tone:        "friendly and professional",
		Language:    "en",
		Services: []string{
			"business process automation",
			"AI chatbots for websites",
			"workflow integrations",
		},
		AllowedTopics: []string{
			"our services",
			"pricing and engagement model",
			"booking a discovery call",
		},
	}
}

// LoadFile reads a YAML profile and layers it over Default.
func LoadFile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("tenant: read %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("tenant: parse %s: %w", path, err)
	}
	return Default().Merge(p), nil
}

// Merge returns a copy of p with every non-empty field of override applied.
func (p Profile) Merge(override Profile) Profile {
	out := p
	if v := strings.TrimSpace(override.CompanyName); v != "" {
		out.CompanyName = v
	}
	if v := strings.TrimSpace(override.Tone); v != "" {
		out.Tone = v
	}
	if v := strings.TrimSpace(override.Language); v != "" {
		out.Language = v
	}
	if s := cleanList(override.Services); len(s) > 0 {
		out.Services = s
	}
	if s := cleanList(override.AllowedTopics); len(s) > 0 {
		out.AllowedTopics = s
	}
	if len(override.FAQ) > 0 {
		faq := make([]FAQEntry, 0, len(override.FAQ))
		for _, e := range override.FAQ {
			if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
				continue
			}
			faq = append(faq, e)
		}
		if len(faq) > 0 {
			out.FAQ = faq
		}
	}
	if v := strings.TrimSpace(override.FallbackText); v != "" {
		out.FallbackText = v
	}
	return out
}

// Apply resolves the profile for a tenant that sent t, with p as the
// configured defaults. A zero t gets p unchanged. Otherwise only the
// assistant's voice (company name, tone, language) falls back to p; services,
// topics, FAQ and fallback text come from t alone so one company never
// advertises another's offering.
func (p Profile) Apply(t Profile) Profile {
	if t.IsZero() {
		return p
	}
	voice := Profile{CompanyName: p.CompanyName, Tone: p.Tone, Language: p.Language}
	return voice.Merge(t)
}

// IsZero reports whether no field is set.
func (p Profile) IsZero() bool {
	return p.CompanyName == "" && p.Tone == "" && p.Language == "" &&
		len(p.Services) == 0 && len(p.AllowedTopics) == 0 && len(p.FAQ) == 0 && p.FallbackText == ""
}

// Fallback is the verbatim sentence used when the assistant cannot help.
func (p Profile) Fallback() string {
	if v := strings.TrimSpace(p.FallbackText); v != "" {
		return v
	}
	name := strings.TrimSpace(p.CompanyName)
	if name == "" {
		name = defaultCompanyName
	}
	return fmt.Sprintf("Sorry, a little trouble now. Can we continue talking about %s services?", name)
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
