package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"codeberg.org/svxlink/svxaux/internal"
)

// Entry is one announcement clip to synthesize
type Entry struct {
	Name string // Output file name without extension
	Text string
	Line int
}

// ReadBatchFile reads announcement texts from a file
// Supports formats:
// - Text only: "Welcome to SK3AB" (name derived from the text)
// - Named: "welcome = Welcome to SK3AB"
// Blank lines and lines starting with '#' are skipped.
func ReadBatchFile(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	seen := map[string]int{}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
		entry.Line = lineNo

		if prev, ok := seen[entry.Name]; ok {
			return nil, fmt.Errorf("%s:%d: clip name %q already used on line %d", filename, lineNo, entry.Name, prev)
		}
		seen[entry.Name] = lineNo
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}

func parseLine(line string) (Entry, error) {
	name, text, ok := strings.Cut(line, "=")
	if !ok {
		return Entry{Name: internal.ClipName(line), Text: line}, nil
	}

	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, fmt.Errorf("missing text after '='")
	}
	if name == "" {
		return Entry{Name: internal.ClipName(text), Text: text}, nil
	}

	safe := internal.SanitizeFilename(name)
	if safe == "" {
		return Entry{}, fmt.Errorf("invalid clip name %q", name)
	}
	return Entry{Name: safe, Text: text}, nil
}
