// Package i18n loads the embedded locale catalogs and resolves message keys
// with fallback to the base locale.
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

// BaseLocale is the canonical source locale for catalogs.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Localizer resolves message keys for a set of locales.
type Localizer struct {
	builder  *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	messages map[string]map[string]string
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Localizer, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads every locales/<locale>/<namespace>.yaml file in fsys.
func LoadFromFS(fsys fs.FS) (*Localizer, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	l := &Localizer{messages: make(map[string]map[string]string)}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := l.add(p, f); err != nil {
			return nil, err
		}
	}
	if _, ok := l.messages[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	base := language.MustParse(BaseLocale)
	l.builder = catalog.NewBuilder(catalog.Fallback(base))
	l.tags = []language.Tag{base}
	for _, locale := range l.Locales() {
		tag := language.MustParse(locale)
		if locale != BaseLocale {
			l.tags = append(l.tags, tag)
		}
		keys := make([]string, 0, len(l.messages[locale]))
		for k := range l.messages[locale] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := l.builder.SetString(tag, k, l.messages[locale][k]); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", locale, k, err)
			}
		}
	}
	l.matcher = language.NewMatcher(l.tags)
	return l, nil
}

func (l *Localizer) add(p string, f catalogFile) error {
	dirLocale := path.Base(path.Dir(p))
	if strings.TrimSpace(f.Locale) != dirLocale {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, f.Locale, dirLocale)
	}
	if _, err := language.Parse(dirLocale); err != nil {
		return fmt.Errorf("catalog %s: parse locale tag: %w", p, err)
	}
	ns := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if strings.TrimSpace(f.Namespace) != ns {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", p, f.Namespace, ns)
	}

	msgs, ok := l.messages[dirLocale]
	if !ok {
		msgs = make(map[string]string)
		l.messages[dirLocale] = msgs
	}
	for k, v := range f.Messages {
		k = strings.TrimSpace(k)
		if k == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, dup := msgs[k]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, k, dirLocale)
		}
		msgs[k] = v
	}
	return nil
}

// Locales returns all available locale identifiers.
func (l *Localizer) Locales() []string {
	out := make([]string, 0, len(l.messages))
	for locale := range l.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Match returns the closest supported locale tag for locale.
func (l *Localizer) Match(locale string) language.Tag {
	_, idx, _ := l.matcher.Match(language.Make(locale))
	return l.tags[idx]
}

// Has reports whether key exists in the base locale.
func (l *Localizer) Has(key string) bool {
	_, ok := l.messages[BaseLocale][key]
	return ok
}

// Text returns the message for key in the best matching locale, falling
// back to the base locale and then to the key itself.
func (l *Localizer) Text(locale, key string) string {
	if !l.Has(key) {
		return key
	}
	tag := l.Match(locale)
	if _, ok := l.messages[tag.String()][key]; !ok {
		tag = l.tags[0]
	}
	p := message.NewPrinter(tag, message.Catalog(l.builder))
	return p.Sprintf(key)
}

// For binds a locale, for callers that take a plain key resolver.
func (l *Localizer) For(locale string) func(key string) string {
	return func(key string) string { return l.Text(locale, key) }
}
