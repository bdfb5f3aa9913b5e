package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/svxlink/svxaux/internal/catalog"
	"codeberg.org/svxlink/svxaux/internal/cli"
	"codeberg.org/svxlink/svxaux/internal/testutil"
	"codeberg.org/svxlink/svxaux/internal/translation"
)

type mockTranslator struct {
	replies map[string]string
}

func (m *mockTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return m.replies[text], nil
}

func (m *mockTranslator) Name() string {
	return "mock"
}

func TestFillCatalogs(t *testing.T) {
	dir := copyFixtures(t, "qtel.ts", "qtel_sv.ts")
	svPath := filepath.Join(dir, "qtel_sv.ts")

	flags := cli.NewFlags()
	flags.NoBackup = true
	flags.TranslateAPI = "gemini"
	p, out := newTestProcessor(t, flags)

	var gotConfig translation.Config
	p.newTranslator = func(ctx context.Context, config translation.Config) (translation.Translator, error) {
		gotConfig = config
		return &mockTranslator{}, nil
	}

	if err := p.FillCatalogs(context.Background(), filepath.Join(dir, "qtel.ts"), []string{svPath}); err != nil {
		t.Fatalf("FillCatalogs() error: %v", err)
	}

	if gotConfig.Provider != "gemini" {
		t.Errorf("Translator provider = %q", gotConfig.Provider)
	}
	if !strings.Contains(out.String(), "1 plural forms left for review") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	// The sync part was saved even though no suggestion was accepted
	synced, err := catalog.Load(svPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := synced.Lookup("MainWindow", "%n station(s) online"); !ok {
		t.Error("Fill did not sync the catalog")
	}
	if entries, _ := os.ReadDir(filepath.Join(dir, "archive")); len(entries) != 0 {
		t.Error("Backup written despite --no-backup")
	}
}

func TestFillCatalogs_Suggestions(t *testing.T) {
	dir := t.TempDir()
	base := catalog.New("en")
	_ = base.EnsureContext("ComDialog").Add(&catalog.Message{Source: "Connect"})
	if err := base.Save(filepath.Join(dir, "qtel.ts")); err != nil {
		t.Fatal(err)
	}
	if err := catalog.New("sv").Save(filepath.Join(dir, "qtel_sv.ts")); err != nil {
		t.Fatal(err)
	}

	flags := cli.NewFlags()
	p, _ := newTestProcessor(t, flags)
	p.newTranslator = func(ctx context.Context, config translation.Config) (translation.Translator, error) {
		return &mockTranslator{replies: map[string]string{"Connect": "Anslut"}}, nil
	}

	if err := p.FillCatalogs(context.Background(), filepath.Join(dir, "qtel.ts"), nil); err != nil {
		t.Fatalf("FillCatalogs() error: %v", err)
	}

	filled, err := catalog.Load(filepath.Join(dir, "qtel_sv.ts"))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := filled.Lookup("ComDialog", "Connect")
	if !ok || m.Translation != "Anslut" || m.State != catalog.StateUnfinished {
		t.Errorf("Suggestion = %+v", m)
	}
}

func TestExportCatalog(t *testing.T) {
	dir := copyFixtures(t, "qtel_de.ts")

	t.Run("stdout", func(t *testing.T) {
		p, out := newTestProcessor(t, cli.NewFlags())
		if err := p.ExportCatalog(context.Background(), filepath.Join(dir, "qtel_de.ts")); err != nil {
			t.Fatalf("ExportCatalog() error: %v", err)
		}
		if !strings.HasPrefix(out.String(), "context,source,comment,translation,state\n") {
			t.Errorf("Unexpected CSV:\n%s", out.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		flags := cli.NewFlags()
		flags.ExportOutput = filepath.Join(t.TempDir(), "qtel_de.csv")
		p, out := newTestProcessor(t, flags)
		if err := p.ExportCatalog(context.Background(), filepath.Join(dir, "qtel_de.ts")); err != nil {
			t.Fatalf("ExportCatalog() error: %v", err)
		}
		testutil.AssertFileContains(t, flags.ExportOutput, "ComDialog,Connect,,Verbinden,finished")
		if !strings.Contains(out.String(), "Exported 6 messages") {
			t.Errorf("Unexpected output: %q", out.String())
		}
	})
}

func TestPrintStats(t *testing.T) {
	dir := copyFixtures(t, "qtel_de.ts", "qtel_sv.ts")
	p, out := newTestProcessor(t, cli.NewFlags())

	err := p.PrintStats(context.Background(), []string{filepath.Join(dir, "qtel_de.ts"), filepath.Join(dir, "qtel_sv.ts")})
	if err != nil {
		t.Fatalf("PrintStats() error: %v", err)
	}

	for _, want := range []string{
		"qtel_de.ts  de_DE",
		"83.3% finished: 5 finished, 1 unfinished, 0 obsolete, 0 without text, 6 total",
		"qtel_sv.ts  sv (Swedish)",
		"1 obsolete, 1 without text",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Output missing %q:\n%s", want, out.String())
		}
	}

	if err := p.PrintStats(context.Background(), []string{filepath.Join(dir, "missing.ts")}); err == nil {
		t.Error("Expected error for missing catalog")
	}
}

func TestPrintHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		flags := cli.NewFlags()
		flags.NoHistory = true
		p, _ := newTestProcessor(t, flags)
		if err := p.PrintHistory(context.Background()); err == nil {
			t.Error("Expected error when history is disabled")
		}
	})

	t.Run("with entries", func(t *testing.T) {
		server := testutil.StartFakeSocketServer(t, testutil.SampleWAV())
		dir := copyFixtures(t, "qtel.ts", "qtel_de.ts")

		flags := cli.NewFlags()
		flags.Host = server.Host
		flags.Port = server.Port
		p, out := newTestProcessor(t, flags)
		flags.Output = filepath.Join(t.TempDir(), "id.wav")

		if err := p.Say(context.Background(), "This is SK3AB"); err != nil {
			t.Fatal(err)
		}
		if err := p.CheckCatalogs(context.Background(), filepath.Join(dir, "qtel.ts"), nil); err != nil {
			t.Fatal(err)
		}

		out.Reset()
		if err := p.PrintHistory(context.Background()); err != nil {
			t.Fatalf("PrintHistory() error: %v", err)
		}
		for _, want := range []string{"Recent syntheses:", flags.Output, `"This is SK3AB"`, "Recent catalog checks:", "qtel_de.ts  6/6 present"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("Output missing %q:\n%s", want, out.String())
			}
		}
	})
}

func TestFindLocaleCatalogs(t *testing.T) {
	dir := copyFixtures(t, "qtel.ts", "qtel_de.ts", "qtel_sv.ts", "duplicate.ts")
	testutil.CreateTestFile(t, filepath.Join(dir, "qtel_notes.txt"), []byte("x"))

	got, err := findLocaleCatalogs(filepath.Join(dir, "qtel.ts"))
	if err != nil {
		t.Fatalf("findLocaleCatalogs() error: %v", err)
	}
	want := []string{filepath.Join(dir, "qtel_de.ts"), filepath.Join(dir, "qtel_sv.ts")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("findLocaleCatalogs() = %v, want %v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("Välkommen till repeatern", 10); got != "Välkommen…" {
		t.Errorf("truncate() = %q", got)
	}
}
