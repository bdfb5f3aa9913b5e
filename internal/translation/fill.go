package translation

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"codeberg.org/svxlink/svxaux/internal/catalog"
)

// FillResult summarizes a Fill run
type FillResult struct {
	Sync      catalog.SyncResult
	Suggested int
	Rejected  int // Suggestions dropped because placeholders did not survive
	Failed    int
	Skipped   int // Numerus messages, which need a human for the plural rules
}

// Fill syncs locale with base and then asks tr for a suggestion for every
// unfinished message that has no text yet. Suggestions stay unfinished.
func Fill(ctx context.Context, tr Translator, base, locale *catalog.Catalog) (FillResult, error) {
	var res FillResult
	res.Sync = catalog.Sync(base, locale)

	targetLang := catalog.DisplayName(locale.Language)
	cache := NewTranslationCache()

	var todo []*catalog.Message
	locale.Each(func(_ *catalog.Context, m *catalog.Message) {
		if m.State != catalog.StateUnfinished || m.IsTranslated() {
			return
		}
		if m.Numerus {
			res.Skipped++
			return
		}
		todo = append(todo, m)
	})

	for _, m := range todo {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("fill aborted: %w", err)
		}

		suggestion, ok := cache.Get(m.Source)
		if !ok {
			var err error
			suggestion, err = tr.Translate(ctx, m.Source, targetLang)
			if err != nil {
				if ctx.Err() != nil {
					return res, fmt.Errorf("fill aborted: %w", ctx.Err())
				}
				log.Warn("Translation failed", "provider", tr.Name(), "source", m.Source, "err", err)
				res.Failed++
				continue
			}
			cache.Add(m.Source, suggestion)
		}

		if suggestion == "" || !catalog.PlaceholdersMatch(m.Source, suggestion, false) {
			log.Debug("Rejected suggestion", "source", m.Source, "suggestion", suggestion)
			res.Rejected++
			continue
		}

		m.Translation = suggestion
		res.Suggested++
	}

	return res, nil
}
