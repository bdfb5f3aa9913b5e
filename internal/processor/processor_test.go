package processor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"codeberg.org/svxlink/svxaux/internal"
	"codeberg.org/svxlink/svxaux/internal/audio"
	"codeberg.org/svxlink/svxaux/internal/catalog"
	"codeberg.org/svxlink/svxaux/internal/cli"
	"codeberg.org/svxlink/svxaux/internal/mary"
	"codeberg.org/svxlink/svxaux/internal/testutil"
)

// newTestProcessor returns a processor with a private history database,
// no audio cache and output captured in the returned buffer
func newTestProcessor(t *testing.T, flags *cli.Flags) (*Processor, *bytes.Buffer) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	tmpDir := t.TempDir()
	flags.NoCache = true
	flags.HistoryDB = filepath.Join(tmpDir, "history.db")
	if flags.OutputDir == "." {
		flags.OutputDir = tmpDir
	}

	p := NewProcessor(flags)
	var buf bytes.Buffer
	p.out = &buf
	t.Cleanup(func() { p.Close() })
	return p, &buf
}

func TestAudioConfig(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *cli.Flags)
		viper   map[string]any
		check   func(t *testing.T, c *audio.Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:  "defaults",
			setup: func(f *cli.Flags) { f.Host = "localhost"; f.Port = mary.DefaultPort; f.Protocol = "socket" },
			check: func(t *testing.T, c *audio.Config) {
				if c.Provider != audio.ProviderMarySocket || c.Host != "localhost" || c.Port != mary.DefaultPort {
					t.Errorf("Unexpected config: %+v", c)
				}
				if c.EnableCache {
					t.Error("Cache should be disabled by --no-cache")
				}
			},
		},
		{
			name: "http with effects",
			setup: func(f *cli.Flags) {
				f.Protocol = "http"
				f.Fallback = "socket"
				f.Effects = []string{"Robot:amount=60", "Volume"}
			},
			check: func(t *testing.T, c *audio.Config) {
				if c.Provider != audio.ProviderMaryHTTP || c.Fallback != audio.ProviderMarySocket {
					t.Errorf("Provider/Fallback = %s/%s", c.Provider, c.Fallback)
				}
				if len(c.Effects) != 2 || c.Effects[0] != (mary.Effect{Name: "Robot", Params: "amount=60"}) {
					t.Errorf("Effects = %+v", c.Effects)
				}
			},
		},
		{
			name:  "config file overrides flag defaults",
			setup: func(f *cli.Flags) {},
			viper: map[string]any{"mary.host": "mary.example.org", "mary.voice": "bits1-hsmm", "mary.port": 59126},
			check: func(t *testing.T, c *audio.Config) {
				if c.Host != "mary.example.org" || c.Voice != "bits1-hsmm" || c.Port != 59126 {
					t.Errorf("Unexpected config: %+v", c)
				}
			},
		},
		{
			name:    "unknown protocol",
			setup:   func(f *cli.Flags) { f.Protocol = "carrier-pigeon" },
			wantErr: true,
			errMsg:  "unknown MARY protocol: carrier-pigeon",
		},
		{
			name:    "bad effect",
			setup:   func(f *cli.Flags) { f.Effects = []string{":x"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := cli.NewFlags()
			tt.setup(flags)
			p, _ := newTestProcessor(t, flags)
			for k, v := range tt.viper {
				viper.Set(k, v)
			}

			config, err := p.AudioConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("AudioConfig() error: %v", err)
			}
			tt.check(t, config)
		})
	}
}

func TestSay(t *testing.T) {
	server := testutil.StartFakeSocketServer(t, testutil.SampleWAV())

	flags := cli.NewFlags()
	flags.Host = server.Host
	flags.Port = server.Port
	flags.Protocol = "socket"
	flags.Voice = "cmu-slt-hsmm"
	p, out := newTestProcessor(t, flags)

	outputFile := filepath.Join(t.TempDir(), "clips", "welcome.wav")
	flags.Output = outputFile

	if err := p.Say(context.Background(), "Welcome to the repeater"); err != nil {
		t.Fatalf("Say() error: %v", err)
	}

	testutil.AssertFileContent(t, outputFile, testutil.SampleWAV())
	if !strings.Contains(out.String(), "Saved "+outputFile) {
		t.Errorf("Unexpected output: %q", out.String())
	}

	reqs := server.Requests()
	if len(reqs) != 1 || !strings.Contains(reqs[0].Header, "VOICE=cmu-slt-hsmm") {
		t.Errorf("Server requests = %+v", reqs)
	}

	history, err := p.historyStore().RecentSyntheses(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentSyntheses() error: %v", err)
	}
	if len(history) != 1 || history[0].OutputPath != outputFile || history[0].Bytes != int64(len(testutil.SampleWAV())) {
		t.Errorf("History = %+v", history)
	}
}

func TestSay_Play(t *testing.T) {
	server := testutil.StartFakeSocketServer(t, testutil.SampleWAV())

	tests := []struct {
		name       string
		output     string
		audioType  string
		wantPlayed bool
		wantErr    bool
		errMsg     string
	}{
		{name: "wave clip", output: "id.wav", wantPlayed: true},
		{name: "mp3 rejected", output: "id", audioType: "MP3", wantErr: true, errMsg: "--play needs WAVE audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := cli.NewFlags()
			flags.Host = server.Host
			flags.Port = server.Port
			flags.NoHistory = true
			flags.Play = true
			flags.AudioType = tt.audioType
			p, _ := newTestProcessor(t, flags)
			flags.Output = filepath.Join(t.TempDir(), tt.output)

			var played string
			p.play = func(ctx context.Context, path string) error {
				played = path
				return nil
			}

			err := p.Say(context.Background(), "QRV on the repeater")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Say() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Error = %q, want %q", err, tt.errMsg)
			}
			if (played != "") != tt.wantPlayed {
				t.Errorf("played = %q, wantPlayed %v", played, tt.wantPlayed)
			}
			if tt.wantPlayed && played != flags.Output {
				t.Errorf("played %q, want %q", played, flags.Output)
			}
		})
	}
}

func TestSay_DerivedName(t *testing.T) {
	server := testutil.StartFakeSocketServer(t, testutil.SampleWAV())

	flags := cli.NewFlags()
	flags.Host = server.Host
	flags.Port = server.Port
	flags.NoHistory = true
	p, _ := newTestProcessor(t, flags)

	if err := p.Say(context.Background(), "Net starts now"); err != nil {
		t.Fatalf("Say() error: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(flags.OutputDir, "net_starts_now_*.wav"))
	if len(matches) != 1 {
		t.Fatalf("Expected one derived clip, got %v", matches)
	}
	testutil.AssertFileExists(t, matches[0])
	if got := filepath.Base(matches[0]); got != internal.ClipName("Net starts now")+".wav" {
		t.Errorf("Clip name = %q", got)
	}
}

func TestSay_ConnectFailure(t *testing.T) {
	flags := cli.NewFlags()
	flags.Host = "127.0.0.1"
	flags.Port = testutil.ClosedPort(t)
	p, _ := newTestProcessor(t, flags)
	flags.Output = filepath.Join(t.TempDir(), "out.wav")

	err := p.Say(context.Background(), "Hello")
	if err == nil {
		t.Fatal("Expected error")
	}

	var connErr *mary.ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("Expected ConnectError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "cannot connect to MARY server at 127.0.0.1:") {
		t.Errorf("Unexpected message: %v", err)
	}
	testutil.AssertFileNotExists(t, flags.Output)
}

func TestSay_InvalidText(t *testing.T) {
	p, _ := newTestProcessor(t, cli.NewFlags())
	if err := p.Say(context.Background(), "   "); err == nil {
		t.Error("Expected error for blank text")
	}
}

func TestSayBatch(t *testing.T) {
	server := testutil.StartFakeSocketServer(t, testutil.SampleWAV())

	flags := cli.NewFlags()
	flags.Host = server.Host
	flags.Port = server.Port
	flags.RateLimit = 0
	p, out := newTestProcessor(t, flags)

	batchFile := filepath.Join(t.TempDir(), "clips.txt")
	testutil.CreateTestFile(t, batchFile, []byte("# announcements\nwelcome = Welcome\nbye = Goodbye\n"))
	flags.BatchFile = batchFile

	// Existing clips are skipped
	testutil.CreateTestFile(t, filepath.Join(flags.OutputDir, "bye.wav"), []byte("old"))

	if err := p.SayBatch(context.Background()); err != nil {
		t.Fatalf("SayBatch() error: %v", err)
	}

	testutil.AssertFileContent(t, filepath.Join(flags.OutputDir, "welcome.wav"), testutil.SampleWAV())
	testutil.AssertFileContent(t, filepath.Join(flags.OutputDir, "bye.wav"), []byte("old"))
	if len(server.Requests()) != 1 {
		t.Errorf("Expected 1 request, got %d", len(server.Requests()))
	}
	if !strings.Contains(out.String(), "Skipped (already exist): 1") {
		t.Errorf("Summary missing skip count:\n%s", out.String())
	}

	// --force regenerates everything
	flags.Force = true
	if err := p.SayBatch(context.Background()); err != nil {
		t.Fatalf("SayBatch() with force error: %v", err)
	}
	testutil.AssertFileContent(t, filepath.Join(flags.OutputDir, "bye.wav"), testutil.SampleWAV())
}

func TestSayBatch_Failures(t *testing.T) {
	flags := cli.NewFlags()
	flags.Host = "127.0.0.1"
	flags.Port = testutil.ClosedPort(t)
	flags.BreakerTrip = 1
	p, out := newTestProcessor(t, flags)

	batchFile := filepath.Join(t.TempDir(), "clips.txt")
	testutil.CreateTestFile(t, batchFile, []byte("a = Alpha\nb = Bravo\nc = Charlie\n"))
	flags.BatchFile = batchFile

	err := p.SayBatch(context.Background())
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "3 of 3 clips failed") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Errors: 3") {
		t.Errorf("Summary missing error count:\n%s", out.String())
	}
}

func TestListVoices(t *testing.T) {
	server := testutil.StartFakeHTTPServer(t, testutil.SampleWAV())

	flags := cli.NewFlags()
	flags.Host = server.Host
	flags.Port = server.Port
	flags.Locale = "en"
	p, out := newTestProcessor(t, flags)

	if err := p.ListVoices(context.Background()); err != nil {
		t.Fatalf("ListVoices() error: %v", err)
	}
	if !strings.Contains(out.String(), "cmu-slt-hsmm") || strings.Contains(out.String(), "bits1-hsmm") {
		t.Errorf("Unexpected voice listing:\n%s", out.String())
	}
}

// copyFixtures copies catalog fixtures into a temp dir and returns it
func copyFixtures(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join("..", "catalog", "testdata", name))
		if err != nil {
			t.Fatalf("Failed to read fixture: %v", err)
		}
		testutil.CreateTestFile(t, filepath.Join(dir, name), data)
	}
	return dir
}

func TestCheckCatalogs(t *testing.T) {
	dir := copyFixtures(t, "qtel.ts", "qtel_de.ts", "qtel_sv.ts")
	base := filepath.Join(dir, "qtel.ts")

	tests := []struct {
		name    string
		locales []string
		strict  bool
		wantErr string
		output  []string
	}{
		{
			name:    "complete catalog",
			locales: []string{filepath.Join(dir, "qtel_de.ts")},
			output:  []string{"✓ qtel_de.ts", "6/6 messages present, 0 errors, 1 warnings", "warning: unfinished"},
		},
		{
			name:    "strict fails on warnings",
			locales: []string{filepath.Join(dir, "qtel_de.ts")},
			strict:  true,
			wantErr: "1 of 1 catalogs failed the check",
		},
		{
			name:    "discovered siblings",
			wantErr: "1 of 2 catalogs failed the check",
			output:  []string{"✗ qtel_sv.ts (Swedish)", `error: missing [MainWindow] "%n station(s) online"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := cli.NewFlags()
			flags.Strict = tt.strict
			p, out := newTestProcessor(t, flags)

			err := p.CheckCatalogs(context.Background(), base, tt.locales)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Errorf("Expected error %q, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Errorf("CheckCatalogs() error: %v", err)
			}

			for _, want := range tt.output {
				if !strings.Contains(out.String(), want) {
					t.Errorf("Output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestCheckCatalogs_RecordsHistory(t *testing.T) {
	dir := copyFixtures(t, "qtel.ts", "qtel_de.ts", "qtel_sv.ts")
	p, _ := newTestProcessor(t, cli.NewFlags())

	_ = p.CheckCatalogs(context.Background(), filepath.Join(dir, "qtel.ts"), nil)

	checks, err := p.historyStore().RecentChecks(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentChecks() error: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("Expected 2 recorded checks, got %d", len(checks))
	}
}

func TestCheckCatalogs_NoLocales(t *testing.T) {
	dir := copyFixtures(t, "qtel.ts")
	p, _ := newTestProcessor(t, cli.NewFlags())

	err := p.CheckCatalogs(context.Background(), filepath.Join(dir, "qtel.ts"), nil)
	if err == nil || !strings.Contains(err.Error(), "no locale catalogs found") {
		t.Errorf("Expected no catalogs error, got %v", err)
	}
}

func TestSyncCatalogs(t *testing.T) {
	dir := copyFixtures(t, "qtel.ts", "qtel_sv.ts")
	svPath := filepath.Join(dir, "qtel_sv.ts")
	original, _ := os.ReadFile(svPath)

	p, out := newTestProcessor(t, cli.NewFlags())
	if err := p.SyncCatalogs(context.Background(), filepath.Join(dir, "qtel.ts"), []string{svPath}); err != nil {
		t.Fatalf("SyncCatalogs() error: %v", err)
	}
	if !strings.Contains(out.String(), "qtel_sv.ts: 1 added, 1 obsoleted, 1 revived, 0 dropped") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	synced, err := catalog.Load(svPath)
	if err != nil {
		t.Fatalf("Synced catalog does not load: %v", err)
	}
	if _, ok := synced.Lookup("MainWindow", "%n station(s) online"); !ok {
		t.Error("Missing message was not added")
	}

	backups, _ := filepath.Glob(filepath.Join(dir, "archive", "qtel_sv-*.ts"))
	if len(backups) != 1 {
		t.Fatalf("Expected one backup, got %v", backups)
	}
	testutil.AssertFileContent(t, backups[0], original)

	// Second run has nothing to do and writes no backup
	out.Reset()
	if err := p.SyncCatalogs(context.Background(), filepath.Join(dir, "qtel.ts"), []string{svPath}); err != nil {
		t.Fatalf("Second SyncCatalogs() error: %v", err)
	}
	backups, _ = filepath.Glob(filepath.Join(dir, "archive", "qtel_sv-*.ts"))
	if len(backups) != 1 {
		t.Errorf("Unchanged catalog was backed up again: %v", backups)
	}
}
