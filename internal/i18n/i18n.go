// Package i18n resolves user-facing strings by key. Catalogs are
// embedded YAML files, one per language. Lookup falls back to English
// and finally to the key itself, so a missing translation never hides
// a message entirely.
package i18n

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLanguage is used when the host settings carry no language or
// an unknown one.
const DefaultLanguage = "en"

// Bundle holds the catalog for one language plus the English fallback.
type Bundle struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// New loads the catalog for lang. Unknown languages degrade to the
// English catalog.
func New(lang string) *Bundle {
	lang = normalize(lang)
	fallback, _ := loadCatalog(DefaultLanguage)

	messages, err := loadCatalog(lang)
	if err != nil {
		lang = DefaultLanguage
		messages = fallback
	}

	return &Bundle{lang: lang, messages: messages, fallback: fallback}
}

// Language returns the resolved language code of the bundle.
func (b *Bundle) Language() string { return b.lang }

// T resolves key, formatting with args when given. Unknown keys are
// returned verbatim so they stay greppable.
func (b *Bundle) T(key string, args ...any) string {
	msg, ok := b.messages[key]
	if !ok {
		msg, ok = b.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	lang = strings.ReplaceAll(lang, "_", "-")
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

func loadCatalog(lang string) (map[string]string, error) {
	data, err := localeFS.ReadFile("locales/" + lang + ".yaml")
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse locale %s: %w", lang, err)
	}
	return out, nil
}

// Package-level default bundle for callers that don't thread one
// through (set once at startup from host settings).
var (
	defaultMu     sync.RWMutex
	defaultBundle = New(DefaultLanguage)
)

// SetLanguage replaces the default bundle's language.
func SetLanguage(lang string) {
	b := New(lang)
	defaultMu.Lock()
	defaultBundle = b
	defaultMu.Unlock()
}

// T resolves key against the default bundle.
func T(key string, args ...any) string {
	defaultMu.RLock()
	b := defaultBundle
	defaultMu.RUnlock()
	return b.T(key, args...)
}
