package mary

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"codeberg.org/svxlink/svxaux/internal/testutil"
)

func TestSocketClientSynthesize(t *testing.T) {
	audio := testutil.SampleWAV()
	srv := testutil.StartFakeSocketServer(t, audio)

	client := NewSocketClient(2 * time.Second)
	req := &Request{
		Host:  srv.Host,
		Port:  srv.Port,
		Voice: "cmu-slt-hsmm",
		Text:  "This is SK3AB\nrepeater",
	}

	var buf bytes.Buffer
	n, err := client.Synthesize(context.Background(), req, &buf)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if n != int64(len(audio)) {
		t.Errorf("Synthesize() wrote %d bytes, want %d", n, len(audio))
	}
	if !bytes.Equal(buf.Bytes(), audio) {
		t.Error("Received audio does not match server bytes")
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Header != "MARY IN=TEXT OUT=AUDIO AUDIO=WAVE VOICE=cmu-slt-hsmm\n" {
		t.Errorf("Unexpected header: %q", reqs[0].Header)
	}
	if len(reqs[0].Lines) != 2 || reqs[0].Lines[0] != "This is SK3AB" || reqs[0].Lines[1] != "repeater" {
		t.Errorf("Unexpected text lines: %q", reqs[0].Lines)
	}
}

func TestSocketClientConnectError(t *testing.T) {
	client := NewSocketClient(time.Second)
	req := &Request{Host: "127.0.0.1", Port: testutil.ClosedPort(t), Text: "hello"}

	_, err := client.Synthesize(context.Background(), req, &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error for refused connection")
	}
	if !IsConnectError(err) {
		t.Errorf("Expected ConnectError, got %T: %v", err, err)
	}
}

func TestSocketClientEmptyResponse(t *testing.T) {
	srv := testutil.StartFakeSocketServer(t, nil)

	client := NewSocketClient(time.Second)
	req := &Request{Host: srv.Host, Port: srv.Port, Text: "hello"}

	_, err := client.Synthesize(context.Background(), req, &bytes.Buffer{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestSocketClientInvalidRequest(t *testing.T) {
	client := NewSocketClient(time.Second)
	_, err := client.Synthesize(context.Background(), &Request{Host: "localhost", Port: DefaultPort}, &bytes.Buffer{})
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestSocketClientContextCancel(t *testing.T) {
	// Server that accepts and never answers
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(2 * time.Second)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := NewSocketClient(time.Second)
	req := &Request{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port, Text: "hello"}

	start := time.Now()
	_, err = client.Synthesize(ctx, req, &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error when context expires")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Synthesize did not return promptly after context expiry")
	}
}
