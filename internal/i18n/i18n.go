// Package i18n holds the message catalogs used to name celebrations and
// render generated titles in the supported locales.
//
// Catalogs live in locales/<locale>/<namespace>.yaml. Keys are unique per
// locale across namespaces. Lookups fall back to BaseLocale.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

// Translator resolves catalog keys for a requested locale.
type Translator struct {
	messages map[string]map[string]string
	tags     []language.Tag
	locales  []string
	matcher  language.Matcher
	builder  *catalog.Builder
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Translator, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads every locales/*/*.yaml file of fsys.
func LoadFromFS(fsys fs.FS) (*Translator, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	messages := map[string]map[string]string{}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := addFile(messages, p, file); err != nil {
			return nil, err
		}
	}
	if _, ok := messages[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	return build(messages)
}

func addFile(messages map[string]map[string]string, p string, file catalogFile) error {
	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	locale := strings.TrimSpace(file.Locale)
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, localeFromPath)
	}
	if ns := strings.TrimSpace(file.Namespace); ns != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename %q", p, ns, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages map is required", p)
	}

	m, ok := messages[locale]
	if !ok {
		m = map[string]string{}
		messages[locale] = m
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, exists := m[key]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, locale)
		}
		m[key] = value
	}
	return nil
}

func build(messages map[string]map[string]string) (*Translator, error) {
	t := &Translator{
		messages: messages,
		builder:  catalog.NewBuilder(catalog.Fallback(language.Make(BaseLocale))),
	}
	// The base locale comes first so that the matcher falls back to it.
	t.locales = append(t.locales, BaseLocale)
	for locale := range messages {
		if locale != BaseLocale {
			t.locales = append(t.locales, locale)
		}
	}
	sort.Strings(t.locales[1:])

	for _, locale := range t.locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		t.tags = append(t.tags, tag)

		keys := make([]string, 0, len(messages[locale]))
		for key := range messages[locale] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := t.builder.SetString(tag, key, messages[locale][key]); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
		}
	}
	t.matcher = language.NewMatcher(t.tags)
	return t, nil
}

// Locales returns the available locales, base locale first.
func (t *Translator) Locales() []string {
	return append([]string(nil), t.locales...)
}

// Match returns the supported locale closest to the requested one. It
// accepts BCP 47 tags, POSIX-style names such as it_IT and Accept-Language
// header values.
func (t *Translator) Match(requested string) string {
	requested = strings.ReplaceAll(strings.TrimSpace(requested), "_", "-")
	if requested == "" {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return BaseLocale
	}
	return t.locales[idx]
}

// Lookup renders key in the locale closest to the requested one, with args
// formatted into the message. A key missing from that locale is taken from
// the base locale; ok is false when neither has it.
func (t *Translator) Lookup(locale, key string, args ...any) (string, bool) {
	if t == nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	locale = t.Match(locale)
	if _, ok := t.messages[locale][key]; !ok {
		if _, ok := t.messages[BaseLocale][key]; !ok {
			return "", false
		}
		locale = BaseLocale
	}
	p := message.NewPrinter(language.Make(locale), message.Catalog(t.builder))
	return p.Sprintf(key, args...), true
}

// Translate is Lookup without arguments; unknown keys are returned as is.
func (t *Translator) Translate(locale, key string) string {
	if s, ok := t.Lookup(locale, key); ok {
		return s
	}
	return key
}
