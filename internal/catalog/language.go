package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ParseLanguage parses a Qt locale name such as "de_DE" or "sv"
func ParseLanguage(name string) (language.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return language.Und, fmt.Errorf("empty language")
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", name, err)
	}
	return tag, nil
}

// LanguageTag returns the parsed language attribute of c
func LanguageTag(c *Catalog) (language.Tag, error) {
	return ParseLanguage(c.Language)
}

// DisplayName returns the English name of a locale, or the name itself
// when it does not parse
func DisplayName(name string) string {
	tag, err := ParseLanguage(name)
	if err != nil {
		return name
	}
	if n := display.English.Tags().Name(tag); n != "" {
		return n
	}
	return name
}

// SameLanguage reports whether two locale names share the base language
func SameLanguage(a, b string) bool {
	ta, errA := ParseLanguage(a)
	tb, errB := ParseLanguage(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	ba, _ := ta.Base()
	bb, _ := tb.Base()
	return ba == bb
}

// LocaleFromFilename extracts the locale from the Qt naming convention
// <app>_<locale>.ts, e.g. "qtel_de_DE.ts" gives "de_DE". It returns an
// empty string when the name carries no locale.
func LocaleFromFilename(path string) string {
	if path == "" {
		return ""
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	_, locale, ok := strings.Cut(name, "_")
	if !ok || locale == "" {
		return ""
	}
	if _, err := ParseLanguage(locale); err != nil {
		return ""
	}
	return locale
}
