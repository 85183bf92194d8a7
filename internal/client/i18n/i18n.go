// Package i18n holds the localized user-facing strings of the auth client.
// Catalogs are embedded JSON files, one per locale, keyed by message id.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	// BaseLocale is used when the requested locale is not supported.
	BaseLocale = "en-US"
	// UnknownKey is returned for message ids no catalog defines.
	UnknownKey = "auth.error.unknown"
)

var (
	english    = language.MustParse(BaseLocale)
	portuguese = language.MustParse("pt-BR")
)

//go:embed locales/*.json
var embedded embed.FS

// Bundle holds every loaded locale.
type Bundle struct {
	builder *catalog.Builder
	keys    map[string]map[string]struct{}
}

// Catalog returns messages for a single locale.
type Catalog struct {
	locale  string
	printer *message.Printer
	keys    map[string]struct{}
}

// Load reads the embedded catalogs.
func Load() (*Bundle, error) {
	return LoadFromFS(embedded)
}

// MustLoad is Load that panics on error.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// LoadFromFS reads locales/*.json from fsys. The base locale is required.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)

	b := &Bundle{
		builder: catalog.NewBuilder(catalog.Fallback(english)),
		keys:    map[string]map[string]struct{}{},
	}

	for _, p := range paths {
		locale := strings.TrimSuffix(path.Base(p), ".json")
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}

		keys := make(map[string]struct{}, len(messages))
		for k, v := range messages {
			if err := b.builder.SetString(tag, k, v); err != nil {
				return nil, fmt.Errorf("catalog %s key %s: %w", p, k, err)
			}
			keys[k] = struct{}{}
		}
		b.keys[tag.String()] = keys
	}

	if _, ok := b.keys[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}
	return b, nil
}

// Catalog returns the catalog best matching locale.
func (b *Bundle) Catalog(locale string) *Catalog {
	tag := Match(locale)
	keys, ok := b.keys[tag.String()]
	if !ok {
		tag = english
		keys = b.keys[BaseLocale]
	}
	return &Catalog{
		locale:  tag.String(),
		printer: message.NewPrinter(tag, message.Catalog(b.builder)),
		keys:    keys,
	}
}

// Locale returns the resolved locale tag, e.g. "pt-BR".
func (c *Catalog) Locale() string {
	return c.locale
}

// Message returns the text for key, or the UnknownKey text when key is not
// defined.
func (c *Catalog) Message(key string) string {
	if _, ok := c.keys[key]; !ok {
		key = UnknownKey
	}
	return c.printer.Sprintf(key)
}

// Match resolves a locale tag to a supported one: any Portuguese variant
// gives pt-BR, everything else en-US.
func Match(locale string) language.Tag {
	s := strings.ToLower(strings.TrimSpace(locale))
	if tag, err := language.Parse(s); err == nil {
		if base, _ := tag.Base(); base.String() == "pt" {
			return portuguese
		}
		return english
	}
	if strings.HasPrefix(s, "pt") {
		return portuguese
	}
	return english
}
