// Package i18n resolves dotted message keys to localized text.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

type Translator struct {
	catalogs    map[string]map[string]string
	defaultLang string
}

// New loads the embedded catalogs. defaultLang must be one of them.
func New(defaultLang string) (*Translator, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}

	catalogs := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		raw, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, err
		}
		lang := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		catalog, err := parseCatalog(raw)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", lang, err)
		}
		catalogs[lang] = catalog
	}

	return newTranslator(catalogs, defaultLang)
}

func newTranslator(catalogs map[string]map[string]string, defaultLang string) (*Translator, error) {
	defaultLang = strings.ToLower(defaultLang)
	if _, ok := catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q has no catalog", defaultLang)
	}
	return &Translator{catalogs: catalogs, defaultLang: defaultLang}, nil
}

// T returns the text for key in lang with {placeholders} filled from vars.
// A key missing from lang is looked up in the default language; a key
// missing everywhere is returned as is.
func (t *Translator) T(lang, key string, vars map[string]any) string {
	text, ok := t.catalogs[t.Normalize(lang)][key]
	if !ok {
		text, ok = t.catalogs[t.defaultLang][key]
	}
	if !ok {
		return key
	}
	return interpolate(text, vars)
}

// Normalize maps "es-MX" or "ES" to a supported language, or the default.
func (t *Translator) Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if _, ok := t.catalogs[lang]; ok {
		return lang
	}
	return t.defaultLang
}

func (t *Translator) Default() string {
	return t.defaultLang
}

func (t *Translator) Languages() []string {
	langs := make([]string, 0, len(t.catalogs))
	for lang := range t.catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func interpolate(text string, vars map[string]any) string {
	if len(vars) == 0 || !strings.Contains(text, "{") {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func parseCatalog(raw []byte) (map[string]string, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	flatten("", tree, flat)
	return flat, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		case nil:
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
