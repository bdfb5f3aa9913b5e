package testutil

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// SocketRequest is what the fake socket server received on one connection
type SocketRequest struct {
	Header string
	Lines  []string
}

// FakeSocketServer emulates the MARY socket protocol
type FakeSocketServer struct {
	Host  string
	Port  int
	Audio []byte

	ln       net.Listener
	mu       sync.Mutex
	requests []SocketRequest
	wg       sync.WaitGroup
}

// StartFakeSocketServer listens on a random local port and answers every
// request with audio. The server is shut down when the test ends.
func StartFakeSocketServer(t *testing.T, audio []byte) *FakeSocketServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	addr := ln.Addr().(*net.TCPAddr)
	s := &FakeSocketServer{
		Host:  "127.0.0.1",
		Port:  addr.Port,
		Audio: audio,
		ln:    ln,
	}

	s.wg.Add(1)
	go s.serve()

	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

// Requests returns a copy of the requests received so far
func (s *FakeSocketServer) Requests() []SocketRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SocketRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *FakeSocketServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.handle(conn)
	}
}

func (s *FakeSocketServer) handle(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	header, err := reader.ReadString('\n')
	if err != nil {
		return
	}

	req := SocketRequest{Header: header}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		req.Lines = append(req.Lines, line)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	_, _ = conn.Write(s.Audio)
}

// FakeHTTPServer emulates the MARY HTTP interface
type FakeHTTPServer struct {
	Host    string
	Port    int
	Server  *httptest.Server
	Audio   []byte
	Voices  []string
	Locales []string

	mu     sync.Mutex
	status int
	forms  []url.Values
}

// StartFakeHTTPServer starts a chi-routed fake MARY server
func StartFakeHTTPServer(t *testing.T, audio []byte) *FakeHTTPServer {
	t.Helper()

	s := &FakeHTTPServer{
		Audio: audio,
		Voices: []string{
			"cmu-slt-hsmm en_US female hmm",
			"bits1-hsmm de female hmm",
			"dfki-spike en_GB male unitselection general",
		},
		Locales: []string{"de", "en_GB", "en_US"},
		status:  http.StatusOK,
	}

	r := chi.NewRouter()
	r.Post("/process", s.process)
	r.Get("/voices", s.lines(func() []string { return s.Voices }))
	r.Get("/locales", s.lines(func() []string { return s.Locales }))

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)

	addr := s.Server.Listener.Addr().(*net.TCPAddr)
	s.Host = "127.0.0.1"
	s.Port = addr.Port
	return s
}

// SetStatus makes /process answer with the given status code
func (s *FakeHTTPServer) SetStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

// Forms returns the forms posted to /process so far
func (s *FakeHTTPServer) Forms() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]url.Values, len(s.forms))
	copy(out, s.forms)
	return out
}

func (s *FakeHTTPServer) process(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.forms = append(s.forms, r.PostForm)
	status := s.status
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, "Error processing input: unknown voice", status)
		return
	}

	w.Header().Set("Content-Type", "audio/x-wav")
	_, _ = w.Write(s.Audio)
}

func (s *FakeHTTPServer) lines(get func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		for _, line := range get() {
			_, _ = w.Write([]byte(line + "\n"))
		}
	}
}

// ClosedPort returns a local port that refuses connections
func ClosedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}
