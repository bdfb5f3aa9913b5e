package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/viper"

	"codeberg.org/svxlink/svxaux/internal/archive"
	"codeberg.org/svxlink/svxaux/internal/catalog"
	"codeberg.org/svxlink/svxaux/internal/cli"
	"codeberg.org/svxlink/svxaux/internal/store"
	"codeberg.org/svxlink/svxaux/internal/translation"
)

// CheckCatalogs checks each locale catalog against base. Without locales
// the <app>_*.ts siblings of base are used. With flags.Watch the check is
// repeated on every catalog change until ctx is done.
func (p *Processor) CheckCatalogs(ctx context.Context, base string, locales []string) error {
	err := p.checkOnce(ctx, base, locales)
	if !p.flags.Watch {
		return err
	}
	if err != nil {
		fmt.Fprintf(p.out, "%v\n", err)
	}

	dir := filepath.Dir(base)
	fmt.Fprintf(p.out, "\nWatching %s for changes (Ctrl-C to stop)\n", dir)
	return catalog.Watch(ctx, dir, 300*time.Millisecond, func(path string) {
		log.Debug("Catalog changed", "path", path)
		fmt.Fprintf(p.out, "\n--- %s changed at %s ---\n", filepath.Base(path), time.Now().Format("15:04:05"))
		if err := p.checkOnce(ctx, base, locales); err != nil {
			fmt.Fprintf(p.out, "%v\n", err)
		}
	})
}

func (p *Processor) checkOnce(ctx context.Context, base string, locales []string) error {
	baseCat, err := catalog.Load(base)
	if err != nil {
		return err
	}

	if len(locales) == 0 {
		if locales, err = findLocaleCatalogs(base); err != nil {
			return err
		}
		if len(locales) == 0 {
			return fmt.Errorf("no locale catalogs found next to %s", base)
		}
	}

	strict := p.flags.Strict || viper.GetBool("catalog.strict")
	failed := 0
	for _, path := range locales {
		localeCat, err := catalog.Load(path)
		if err != nil {
			fmt.Fprintf(p.out, "%s %v\n", failMark(), err)
			failed++
			continue
		}

		report := catalog.Check(baseCat, localeCat)
		printReport(p.out, report)
		p.recordCheck(ctx, report)

		if !report.OK() || strict && report.Warnings() > 0 {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d catalogs failed the check", failed, len(locales))
	}
	return nil
}

func printReport(w io.Writer, r *catalog.Report) {
	mark := okMark()
	if !r.OK() {
		mark = failMark()
	}
	fmt.Fprintf(w, "%s %s (%s): %d/%d messages present, %d errors, %d warnings\n",
		mark, filepath.Base(r.Locale), catalog.DisplayName(r.Language), r.Present, r.Required, r.Errors(), r.Warnings())
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "    %s\n", issue)
	}
}

func (p *Processor) recordCheck(ctx context.Context, r *catalog.Report) {
	h := p.historyStore()
	if h == nil {
		return
	}
	rec := &store.CheckRun{
		BasePath:   r.Base,
		LocalePath: r.Locale,
		Language:   r.Language,
		Required:   r.Required,
		Present:    r.Present,
		Errors:     r.Errors(),
		Warnings:   r.Warnings(),
	}
	if err := h.RecordCheck(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("Failed to record history", "err", err)
	}
}

// SyncCatalogs merges the message set of base into each locale catalog and
// saves the ones that changed
func (p *Processor) SyncCatalogs(ctx context.Context, base string, locales []string) error {
	return p.updateCatalogs(base, locales, func(baseCat, localeCat *catalog.Catalog) (bool, error) {
		res := catalog.Sync(baseCat, localeCat)
		fmt.Fprintf(p.out, "%s: %d added, %d obsoleted, %d revived, %d dropped\n",
			filepath.Base(localeCat.Path), res.Added, res.Obsoleted, res.Revived, res.Dropped)
		return res.Changed(), nil
	})
}

// FillCatalogs syncs each locale catalog and adds machine suggestions for
// its empty unfinished messages
func (p *Processor) FillCatalogs(ctx context.Context, base string, locales []string) error {
	provider := stringSetting("translate.provider", p.flags.TranslateAPI)
	tr, err := p.newTranslator(ctx, translation.Config{
		Provider: provider,
		APIKey:   cli.GetAPIKey(provider),
		Model:    stringSetting("translate.model", p.flags.TranslateModel),
		BaseURL:  viper.GetString("translate.base_url"),
	})
	if err != nil {
		return err
	}

	return p.updateCatalogs(base, locales, func(baseCat, localeCat *catalog.Catalog) (bool, error) {
		res, err := translation.Fill(ctx, tr, baseCat, localeCat)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(p.out, "%s: %d added by sync, %d suggested, %d rejected, %d failed, %d plural forms left for review\n",
			filepath.Base(localeCat.Path), res.Sync.Added, res.Suggested, res.Rejected, res.Failed, res.Skipped)
		return res.Sync.Changed() || res.Suggested > 0, nil
	})
}

// updateCatalogs loads base and each locale, applies fn and saves the
// locale catalogs fn changed, backing them up first
func (p *Processor) updateCatalogs(base string, locales []string, fn func(baseCat, localeCat *catalog.Catalog) (bool, error)) error {
	baseCat, err := catalog.Load(base)
	if err != nil {
		return err
	}

	if len(locales) == 0 {
		if locales, err = findLocaleCatalogs(base); err != nil {
			return err
		}
		if len(locales) == 0 {
			return fmt.Errorf("no locale catalogs found next to %s", base)
		}
	}

	for _, path := range locales {
		localeCat, err := catalog.Load(path)
		if err != nil {
			return err
		}

		changed, err := fn(baseCat, localeCat)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if !changed {
			continue
		}

		if !p.flags.NoBackup {
			backup, err := archive.Backup(path, p.flags.ArchiveDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(p.out, "  backup: %s\n", backup)
			if _, err := archive.Prune(path, p.flags.ArchiveDir, p.flags.KeepBackups); err != nil {
				log.Warn("Failed to prune backups", "err", err)
			}
		}

		if err := localeCat.Save(path); err != nil {
			return err
		}
	}
	return nil
}

// ExportCatalog writes a catalog as CSV to flags.ExportOutput or stdout
func (p *Processor) ExportCatalog(ctx context.Context, path string) error {
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}

	if p.flags.ExportOutput == "" {
		return catalog.ExportCSV(p.out, c)
	}

	f, err := os.Create(p.flags.ExportOutput)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := catalog.ExportCSV(f, c); err != nil {
		f.Close()
		return fmt.Errorf("failed to export catalog: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to export catalog: %w", err)
	}
	fmt.Fprintf(p.out, "Exported %s messages to %s\n", humanize.Comma(int64(c.Len())), p.flags.ExportOutput)
	return nil
}

// PrintStats prints translation progress for each catalog
func (p *Processor) PrintStats(ctx context.Context, paths []string) error {
	for _, path := range paths {
		c, err := catalog.Load(path)
		if err != nil {
			return err
		}
		s := catalog.ComputeStats(c)

		size := ""
		if info, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}

		fmt.Fprintf(p.out, "%s  %s (%s)  %s\n", filepath.Base(path), c.Language, catalog.DisplayName(c.Language), size)
		fmt.Fprintf(p.out, "  %.1f%% finished: %d finished, %d unfinished, %d obsolete, %d without text, %d total\n",
			s.Percent(), s.Finished, s.Unfinished, s.Obsolete, s.Empty, s.Total)
	}
	return nil
}

// PrintHistory prints the newest syntheses and catalog checks
func (p *Processor) PrintHistory(ctx context.Context) error {
	h := p.historyStore()
	if h == nil {
		return fmt.Errorf("history is disabled")
	}

	syntheses, err := h.RecentSyntheses(ctx, p.flags.Limit)
	if err != nil {
		return err
	}
	checks, err := h.RecentChecks(ctx, p.flags.Limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(p.out, "Recent syntheses:")
	if len(syntheses) == 0 {
		fmt.Fprintln(p.out, "  none")
	}
	for _, s := range syntheses {
		status := humanize.Bytes(uint64(s.Bytes))
		if s.Error != "" {
			status = "failed: " + s.Error
		}
		fmt.Fprintf(p.out, "  %-14s %-11s %s  %q  %s\n", humanize.Time(s.CreatedAt), s.Provider, s.OutputPath, truncate(s.Text, 40), status)
	}

	fmt.Fprintln(p.out, "\nRecent catalog checks:")
	if len(checks) == 0 {
		fmt.Fprintln(p.out, "  none")
	}
	for _, c := range checks {
		fmt.Fprintf(p.out, "  %-14s %s  %d/%d present, %d errors, %d warnings\n",
			humanize.Time(c.CreatedAt), filepath.Base(c.LocalePath), c.Present, c.Required, c.Errors, c.Warnings)
	}
	return nil
}

// findLocaleCatalogs returns the <app>_<locale>.ts files next to base
func findLocaleCatalogs(base string) ([]string, error) {
	dir := filepath.Dir(base)
	prefix := strings.TrimSuffix(filepath.Base(base), filepath.Ext(base)) + "_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.EqualFold(filepath.Ext(name), ".ts") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// truncate shortens s to n terminal cells
func truncate(s string, n int) string {
	return runewidth.Truncate(s, n, "…")
}
