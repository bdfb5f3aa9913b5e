package mary

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// SocketClient speaks the plain-text socket protocol: one command line,
// the text, a blank line, then the server streams audio until it closes
// the connection.
type SocketClient struct {
	DialTimeout time.Duration
}

// NewSocketClient creates a socket protocol client
func NewSocketClient(dialTimeout time.Duration) *SocketClient {
	return &SocketClient{DialTimeout: dialTimeout}
}

// Synthesize sends req and copies the returned audio to w. The number of
// bytes written is returned even when the stream ends with an error.
func (c *SocketClient) Synthesize(ctx context.Context, req *Request, w io.Writer) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	addr := req.Addr()
	d := net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, &ConnectError{Addr: addr, Err: err}
	}
	defer conn.Close()

	// Closing the connection unblocks the copy below once ctx is done
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := io.WriteString(conn, req.Header()+req.Payload()); err != nil {
		return 0, fmt.Errorf("failed to send request to %s: %w", addr, err)
	}

	n, err := io.Copy(w, conn)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return n, fmt.Errorf("MARY request aborted after %d bytes: %w", n, ctxErr)
	}
	if err != nil {
		return n, fmt.Errorf("failed to read audio stream from %s: %w", addr, err)
	}
	if n == 0 {
		return 0, ErrEmptyResponse
	}
	return n, nil
}
