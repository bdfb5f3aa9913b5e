package catalog

// SyncResult summarizes what Sync changed
type SyncResult struct {
	Added     int
	Obsoleted int
	Revived   int
	Dropped   int
}

// Changed reports whether Sync modified the locale catalog
func (r SyncResult) Changed() bool {
	return r.Added+r.Obsoleted+r.Revived+r.Dropped > 0
}

// Sync merges the message set of base into locale the way lupdate does:
// messages missing from locale are added as unfinished, messages no longer
// in base become obsolete (or are dropped when they carry no translation)
// and obsolete messages that reappeared in base are revived as unfinished.
func Sync(base, locale *Catalog) SyncResult {
	var res SyncResult
	if locale.SourceLanguage == "" {
		locale.SourceLanguage = base.SourceLanguage
	}
	forms := numerusFormCount(locale)

	active := map[string]map[Key]bool{}
	base.Each(func(bctx *Context, bm *Message) {
		if bm.State == StateObsolete {
			return
		}
		if active[bctx.Name] == nil {
			active[bctx.Name] = map[Key]bool{}
		}
		active[bctx.Name][bm.Key()] = true

		lctx := locale.EnsureContext(bctx.Name)
		lm, ok := lctx.Lookup(bm.Key())
		if !ok {
			nm := &Message{
				ID:           bm.ID,
				Source:       bm.Source,
				Comment:      bm.Comment,
				ExtraComment: bm.ExtraComment,
				Locations:    append([]Location(nil), bm.Locations...),
				Numerus:      bm.Numerus,
				State:        StateUnfinished,
			}
			if bm.Numerus {
				nm.NumerusForms = make([]string, forms)
			}
			lctx.insert(nm)
			res.Added++
			return
		}

		if lm.State == StateObsolete {
			lm.State = StateUnfinished
			res.Revived++
		}
		lm.Locations = append([]Location(nil), bm.Locations...)
		lm.ExtraComment = bm.ExtraComment
	})

	for _, lctx := range locale.Contexts {
		kept := lctx.Messages[:0]
		for _, lm := range lctx.Messages {
			if active[lctx.Name][lm.Key()] {
				kept = append(kept, lm)
				continue
			}
			if !lm.IsTranslated() && lm.TranslatorComment == "" {
				res.Dropped++
				continue
			}
			if lm.State != StateObsolete {
				lm.State = StateObsolete
				res.Obsoleted++
			}
			kept = append(kept, lm)
		}
		lctx.Messages = kept
		lctx.reindex()
	}

	// Contexts emptied by dropping are removed
	contexts := locale.Contexts[:0]
	for _, lctx := range locale.Contexts {
		if len(lctx.Messages) > 0 {
			contexts = append(contexts, lctx)
		}
	}
	locale.Contexts = contexts

	return res
}

// numerusFormCount guesses the plural form count of a catalog from its
// existing numerus messages, defaulting to two (singular and plural)
func numerusFormCount(c *Catalog) int {
	n := 0
	c.Each(func(_ *Context, m *Message) {
		if m.Numerus && len(m.NumerusForms) > n {
			n = len(m.NumerusForms)
		}
	})
	if n == 0 {
		return 2
	}
	return n
}
