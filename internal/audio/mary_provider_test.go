package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/svxlink/svxaux/internal/mary"
	"codeberg.org/svxlink/svxaux/internal/testutil"
)

func testConfig(host string, port int) *Config {
	return &Config{
		Host:    host,
		Port:    port,
		Voice:   "cmu-slt-hsmm",
		Timeout: 2 * time.Second,
	}
}

func TestMarySocketProviderGenerateAudio(t *testing.T) {
	audio := testutil.SampleWAV()
	srv := testutil.StartFakeSocketServer(t, audio)

	provider := NewMarySocketProvider(testConfig(srv.Host, srv.Port), nil)
	outputFile := filepath.Join(t.TempDir(), "clips", "welcome.wav")

	if err := provider.GenerateAudio(context.Background(), "Welcome to SK3AB", outputFile); err != nil {
		t.Fatalf("GenerateAudio() error: %v", err)
	}

	testutil.AssertFileContent(t, outputFile, audio)
	if provider.Name() != ProviderMarySocket {
		t.Errorf("Name() = %v, want %v", provider.Name(), ProviderMarySocket)
	}
}

func TestMaryHTTPProviderGenerateAudio(t *testing.T) {
	audio := testutil.SampleWAV()
	srv := testutil.StartFakeHTTPServer(t, audio)

	config := testConfig(srv.Host, srv.Port)
	config.Locale = "en_US"
	config.Effects = []mary.Effect{{Name: "Robot", Params: "amount:50;"}}
	provider := NewMaryHTTPProvider(config, nil)

	// No extension: the provider appends one for the audio type
	base := filepath.Join(t.TempDir(), "ident")
	if err := provider.GenerateAudio(context.Background(), "SK3AB", base); err != nil {
		t.Fatalf("GenerateAudio() error: %v", err)
	}

	testutil.AssertFileContent(t, base+".wav", audio)
	forms := srv.Forms()
	if len(forms) != 1 || forms[0].Get("effect_Robot_parameters") != "amount:50;" {
		t.Errorf("Unexpected forms: %v", forms)
	}
}

func TestMaryProviderConnectErrorLeavesNoFile(t *testing.T) {
	provider := NewMarySocketProvider(testConfig("127.0.0.1", testutil.ClosedPort(t)), nil)
	dir := t.TempDir()
	outputFile := filepath.Join(dir, "clip.wav")

	err := provider.GenerateAudio(context.Background(), "hello", outputFile)
	if !mary.IsConnectError(err) {
		t.Fatalf("Expected ConnectError, got %v", err)
	}

	testutil.AssertFileNotExists(t, outputFile)
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no leftover files, found %d", len(entries))
	}
}

func TestMaryProviderInvalidText(t *testing.T) {
	provider := NewMarySocketProvider(testConfig("127.0.0.1", 1), nil)
	if err := provider.GenerateAudio(context.Background(), "  ", "out.wav"); err == nil {
		t.Error("Expected error for blank text")
	}
}

func TestMaryProviderCache(t *testing.T) {
	audio := testutil.SampleWAV()
	srv := testutil.StartFakeSocketServer(t, audio)

	cache, err := NewCache(filepath.Join(t.TempDir(), "cache"), 0)
	if err != nil {
		t.Fatalf("NewCache() error: %v", err)
	}
	provider := NewMarySocketProvider(testConfig(srv.Host, srv.Port), cache)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.wav")
	second := filepath.Join(dir, "second.wav")

	if err := provider.GenerateAudio(context.Background(), "cached text", first); err != nil {
		t.Fatalf("first GenerateAudio() error: %v", err)
	}
	if err := provider.GenerateAudio(context.Background(), "cached text", second); err != nil {
		t.Fatalf("second GenerateAudio() error: %v", err)
	}

	if n := len(srv.Requests()); n != 1 {
		t.Errorf("Expected 1 server request, got %d", n)
	}
	testutil.AssertFileContent(t, second, audio)
}

func TestMaryProviderIsAvailable(t *testing.T) {
	srv := testutil.StartFakeSocketServer(t, nil)

	provider := NewMarySocketProvider(testConfig(srv.Host, srv.Port), nil)
	if err := provider.IsAvailable(); err != nil {
		t.Errorf("IsAvailable() unexpected error: %v", err)
	}

	provider = NewMarySocketProvider(testConfig("127.0.0.1", testutil.ClosedPort(t)), nil)
	if err := provider.IsAvailable(); !mary.IsConnectError(err) {
		t.Errorf("Expected ConnectError, got %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		file      string
		audioType string
		want      string
	}{
		{"clip.wav", "WAVE", "clip.wav"},
		{"clip", "WAVE", "clip.wav"},
		{"clip", "WAVE_FILE", "clip.wav"},
		{"clip", "AU", "clip.au"},
		{"clip", "MP3_FILE", "clip.mp3"},
		{"clip.raw", "MP3", "clip.raw"},
	}

	for _, tt := range tests {
		t.Run(tt.file+"_"+tt.audioType, func(t *testing.T) {
			if got := OutputPath(tt.file, tt.audioType); got != tt.want {
				t.Errorf("OutputPath() = %v, want %v", got, tt.want)
			}
		})
	}
}
