package voices

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"

	"codeberg.org/svxlink/svxaux/internal/catalog"
	"codeberg.org/svxlink/svxaux/internal/mary"
)

// Source is the part of the MARY HTTP client the lister needs
type Source interface {
	Voices(ctx context.Context, addr string) ([]mary.Voice, error)
	Locales(ctx context.Context, addr string) ([]string, error)
}

// Lister handles listing the voices of a MARY server
type Lister struct {
	source Source
	addr   string
	locale string // Only show voices whose locale starts with this
}

// NewLister creates a new voice lister for the server at addr
func NewLister(source Source, addr, locale string) *Lister {
	return &Lister{
		source: source,
		addr:   addr,
		locale: locale,
	}
}

// ListAvailableVoices prints all voices of the server grouped by locale
func (l *Lister) ListAvailableVoices(ctx context.Context, w io.Writer) error {
	voices, err := l.source.Voices(ctx, l.addr)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	// Older servers lack /locales; the voice list still works without it
	locales, err := l.source.Locales(ctx, l.addr)
	if err != nil {
		log.Warn("Could not list locales", "addr", l.addr, "err", err)
	}

	byLocale := map[string][]mary.Voice{}
	for _, v := range voices {
		if l.locale != "" && !strings.HasPrefix(strings.ToLower(v.Locale), strings.ToLower(l.locale)) {
			continue
		}
		byLocale[v.Locale] = append(byLocale[v.Locale], v)
	}

	keys := make([]string, 0, len(byLocale))
	for k := range byLocale {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "Available MARY voices at %s:\n", l.addr)
	if len(keys) == 0 {
		fmt.Fprintln(w, "  No voices found")
		if suggestions := l.suggestLocales(voices); len(suggestions) > 0 {
			fmt.Fprintf(w, "  Did you mean: %s\n", strings.Join(suggestions, ", "))
		}
	}

	for _, locale := range keys {
		group := byLocale[locale]
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })

		fmt.Fprintf(w, "\n%s (%s):\n", locale, catalog.DisplayName(locale))
		for _, v := range group {
			line := fmt.Sprintf("  %-28s %-7s %s", v.Name, v.Gender, v.Type)
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}

	var bare []string
	for _, locale := range locales {
		if l.locale != "" && !strings.HasPrefix(strings.ToLower(locale), strings.ToLower(l.locale)) {
			continue
		}
		if _, ok := byLocale[locale]; !ok {
			bare = append(bare, locale)
		}
	}
	if len(bare) > 0 {
		sort.Strings(bare)
		fmt.Fprintf(w, "\nLocales without voices: %s\n", strings.Join(bare, ", "))
	}

	return nil
}

// suggestLocales returns the voice locales that fuzzy match the filter
func (l *Lister) suggestLocales(voices []mary.Voice) []string {
	if l.locale == "" {
		return nil
	}
	seen := map[string]bool{}
	var candidates []string
	for _, v := range voices {
		if !seen[v.Locale] {
			seen[v.Locale] = true
			candidates = append(candidates, v.Locale)
		}
	}

	var out []string
	for _, m := range fuzzy.Find(l.locale, candidates) {
		out = append(out, m.Str)
	}
	return out
}
