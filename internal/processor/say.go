package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"codeberg.org/svxlink/svxaux/internal"
	"codeberg.org/svxlink/svxaux/internal/audio"
	"codeberg.org/svxlink/svxaux/internal/batch"
	"codeberg.org/svxlink/svxaux/internal/cli"
	"codeberg.org/svxlink/svxaux/internal/mary"
	"codeberg.org/svxlink/svxaux/internal/store"
	"codeberg.org/svxlink/svxaux/internal/voices"
)

// Say synthesizes one text into flags.Output, or a name derived from the
// text inside flags.OutputDir
func (p *Processor) Say(ctx context.Context, text string) error {
	if err := audio.ValidateText(text); err != nil {
		return fmt.Errorf("invalid text: %w", err)
	}

	config, err := p.AudioConfig()
	if err != nil {
		return err
	}
	provider, err := p.newProvider(config)
	if err != nil {
		return err
	}

	outputFile := p.flags.Output
	if outputFile == "" {
		outputFile = filepath.Join(p.outputDir(), internal.ClipName(text))
	}
	outputFile = audio.OutputPath(outputFile, config.AudioType)
	if p.flags.Play && !strings.EqualFold(filepath.Ext(outputFile), ".wav") {
		return fmt.Errorf("--play needs WAVE audio, not %s", filepath.Ext(outputFile))
	}

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	size, err := p.synthesize(ctx, provider, config, text, outputFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Saved %s (%s)\n", outputFile, humanize.Bytes(uint64(size)))

	if p.flags.Play {
		if err := p.play(ctx, outputFile); err != nil {
			return fmt.Errorf("failed to play %s: %w", outputFile, err)
		}
	}
	return nil
}

// SayBatch synthesizes every clip of flags.BatchFile into flags.OutputDir.
// Clips whose file already exists are skipped unless flags.Force is set.
func (p *Processor) SayBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	// Validate all texts before talking to the server
	for _, entry := range entries {
		if err := audio.ValidateText(entry.Text); err != nil {
			return fmt.Errorf("%s:%d: invalid text: %w", p.flags.BatchFile, entry.Line, err)
		}
	}

	config, err := p.AudioConfig()
	if err != nil {
		return err
	}
	provider, err := p.newProvider(config)
	if err != nil {
		return err
	}

	outputDir := p.outputDir()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Track statistics
	skippedCount := 0
	processedCount := 0
	errorCount := 0
	var totalBytes int64
	var lastErr error

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch aborted: %w", err)
		}

		outputFile := audio.OutputPath(filepath.Join(outputDir, entry.Name), config.AudioType)
		if !p.flags.Force {
			if _, err := os.Stat(outputFile); err == nil {
				fmt.Fprintf(p.out, "  %s Skipping %d/%d: %s already exists\n", okMark(), i+1, len(entries), filepath.Base(outputFile))
				skippedCount++
				continue
			}
		}

		fmt.Fprintf(p.out, "Synthesizing %d/%d: %s\n", i+1, len(entries), entry.Name)
		size, err := p.synthesize(ctx, provider, config, entry.Text, outputFile)
		if err != nil {
			log.Error("Synthesis failed", "clip", entry.Name, "line", entry.Line, "err", err)
			errorCount++
			lastErr = err
			if ctx.Err() != nil {
				return fmt.Errorf("batch aborted: %w", err)
			}
			continue
		}
		processedCount++
		totalBytes += size
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Batch Summary ===\n")
	fmt.Fprintf(p.out, "Total clips: %d\n", len(entries))
	fmt.Fprintf(p.out, "Synthesized: %d (%s)\n", processedCount, humanize.Bytes(uint64(totalBytes)))
	fmt.Fprintf(p.out, "Skipped (already exist): %d\n", skippedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "=====================\n")

	if errorCount > 0 {
		return fmt.Errorf("%d of %d clips failed, last error: %w", errorCount, len(entries), lastErr)
	}
	return nil
}

// ListVoices prints the voices of the configured MARY server
func (p *Processor) ListVoices(ctx context.Context) error {
	config, err := p.AudioConfig()
	if err != nil {
		return err
	}
	addr := (&mary.Request{Host: config.Host, Port: config.Port}).Addr()
	lister := voices.NewLister(mary.NewHTTPClient(config.Timeout), addr, config.Locale)
	return lister.ListAvailableVoices(ctx, p.out)
}

// synthesize runs one request and records it in the history
func (p *Processor) synthesize(ctx context.Context, provider audio.Provider, config *audio.Config, text, outputFile string) (int64, error) {
	rec := &store.Synthesis{
		Provider:   provider.Name(),
		Voice:      config.Voice,
		Locale:     config.Locale,
		Text:       text,
		OutputPath: outputFile,
	}

	start := time.Now()
	err := provider.GenerateAudio(ctx, text, outputFile)
	if err == nil {
		if info, statErr := os.Stat(outputFile); statErr == nil {
			rec.Bytes = info.Size()
		}
		log.Info("Synthesized", "file", outputFile, "bytes", rec.Bytes, "took", time.Since(start).Round(time.Millisecond))
	} else {
		rec.Error = err.Error()
	}

	if h := p.historyStore(); h != nil {
		if herr := h.RecordSynthesis(context.WithoutCancel(ctx), rec); herr != nil {
			log.Warn("Failed to record history", "err", herr)
		}
	}

	return rec.Bytes, err
}

func (p *Processor) outputDir() string {
	return cli.ExpandPath(stringSetting("say.output_dir", p.flags.OutputDir))
}
