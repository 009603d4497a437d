package locale

import (
	"fmt"
	"path/filepath"
	"sort"

	"CrudAPI/internal/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Catalog holds the built-in message tables plus optional overrides
// loaded from <dir>/<lang>.yml files.
type Catalog struct {
	bundle      *i18n.Bundle
	defaultLang string
}

func NewCatalog(defaultLang, dir string) (*Catalog, error) {
	if _, err := language.Parse(defaultLang); err != nil {
		return nil, fmt.Errorf("locale %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)

	for lang, table := range builtin {
		messages := make([]*i18n.Message, 0, len(table))
		for key, text := range table {
			messages = append(messages, &i18n.Message{ID: string(key), Other: text})
		}
		if err := bundle.AddMessages(language.Make(lang), messages...); err != nil {
			return nil, fmt.Errorf("builtin %s messages: %w", lang, err)
		}
	}

	if dir != "" {
		var files []string
		for _, pattern := range []string{"*.yml", "*.yaml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
		sort.Strings(files)
		for _, path := range files {
			if _, err := bundle.LoadMessageFile(path); err != nil {
				return nil, fmt.Errorf("load locale %s: %w", path, err)
			}
			logger.Info("locale_loaded", map[string]any{"file": path})
		}
	}

	return &Catalog{bundle: bundle, defaultLang: defaultLang}, nil
}

// For returns a translator for the first supported language among prefs
// (Accept-Language values are accepted as-is), falling back to the default.
func (c *Catalog) For(prefs ...string) Translator {
	langs := make([]string, 0, len(prefs)+1)
	for _, p := range prefs {
		if p != "" {
			langs = append(langs, p)
		}
	}
	langs = append(langs, c.defaultLang)
	return &localized{loc: i18n.NewLocalizer(c.bundle, langs...)}
}

func (c *Catalog) Text(key Key) string {
	return c.For().Text(key)
}

type localized struct {
	loc *i18n.Localizer
}

func (l *localized) Text(key Key) string {
	text, err := l.loc.Localize(&i18n.LocalizeConfig{MessageID: string(key)})
	if err != nil || text == "" {
		return string(key)
	}
	return text
}
