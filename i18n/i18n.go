// Package i18n looks up user-facing messages by key and language.
//
// Messages live in an embedded YAML file keyed by language, then by message
// key. Placeholders use %{name} syntax.
package i18n

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

// M holds placeholder values.
type M map[string]any

// Bundle is an immutable message catalog. It is safe for concurrent use.
type Bundle struct {
	messages map[string]map[string]string
	fallback string
	tags     []language.Tag
	langs    []string
	matcher  language.Matcher
}

// New loads the embedded catalog with fallback as the default language.
func New(fallback string) (*Bundle, error) {
	return Load(strings.NewReader(string(defaultMessages)), fallback)
}

// Load reads a catalog from r.
func Load(r io.Reader, fallback string) (*Bundle, error) {
	var messages map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("message catalog is empty")
	}
	if _, ok := messages[fallback]; !ok {
		return nil, fmt.Errorf("fallback language %q has no messages", fallback)
	}

	b := &Bundle{messages: messages, fallback: fallback}

	// fallback first so the matcher prefers it on a tie
	b.langs = append(b.langs, fallback)
	others := make([]string, 0, len(messages))
	for lang := range messages {
		if lang != fallback {
			others = append(others, lang)
		}
	}
	sort.Strings(others)
	b.langs = append(b.langs, others...)

	for _, lang := range b.langs {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", lang, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Fallback returns the default language.
func (b *Bundle) Fallback() string {
	return b.fallback
}

// Match picks the best catalog language for an Accept-Language header.
func (b *Bundle) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return b.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return b.langs[idx]
}

// Message returns the text for key in lang, falling back to the default
// language and finally to the key itself.
func (b *Bundle) Message(lang, key string, args ...M) string {
	text, ok := b.messages[lang][key]
	if !ok {
		text, ok = b.messages[b.fallback][key]
	}
	if !ok {
		return key
	}
	for _, m := range args {
		for name, v := range m {
			text = strings.ReplaceAll(text, "%{"+name+"}", fmt.Sprint(v))
		}
	}
	return text
}
