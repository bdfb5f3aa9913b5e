package mary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// maxErrorBody bounds how much of an error page ends up in a ServerError
const maxErrorBody = 512

// HTTPClient talks to the HTTP interface of a MARY server (MARY 4 and later)
type HTTPClient struct {
	http *resty.Client
}

// NewHTTPClient creates an HTTP protocol client with the given request timeout
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{http: resty.New().SetTimeout(timeout)}
}

// Synthesize POSTs req to /process and streams the reply body to w
func (c *HTTPClient) Synthesize(ctx context.Context, req *Request, w io.Writer) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	addr := req.Addr()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(req.Form()).
		SetDoNotParseResponse(true).
		Post("http://" + addr + "/process")
	if err != nil {
		return 0, requestError(err, addr)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		return 0, &ServerError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(string(snippet))}
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("failed to read audio stream from %s: %w", addr, err)
	}
	if n == 0 {
		return 0, ErrEmptyResponse
	}
	return n, nil
}

// Voice is one line of the /voices listing
type Voice struct {
	Name   string
	Locale string
	Gender string
	Type   string
}

// Voices lists the voices installed on the server at addr (host:port)
func (c *HTTPClient) Voices(ctx context.Context, addr string) ([]Voice, error) {
	lines, err := c.getLines(ctx, addr, "/voices")
	if err != nil {
		return nil, err
	}
	return ParseVoices(lines), nil
}

// Locales lists the locales supported by the server at addr (host:port)
func (c *HTTPClient) Locales(ctx context.Context, addr string) ([]string, error) {
	return c.getLines(ctx, addr, "/locales")
}

// ParseVoices turns "name locale gender [type]" lines into voices. Lines
// with fewer than two fields are skipped.
func ParseVoices(lines []string) []Voice {
	var voices []Voice
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		v := Voice{Name: fields[0], Locale: fields[1]}
		if len(fields) > 2 {
			v.Gender = fields[2]
		}
		if len(fields) > 3 {
			v.Type = strings.Join(fields[3:], " ")
		}
		voices = append(voices, v)
	}
	return voices
}

func (c *HTTPClient) getLines(ctx context.Context, addr, path string) ([]string, error) {
	resp, err := c.http.R().SetContext(ctx).Get("http://" + addr + path)
	if err != nil {
		return nil, requestError(err, addr)
	}
	if resp.StatusCode() != http.StatusOK {
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &ServerError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(body)}
	}

	var lines []string
	for _, line := range strings.Split(resp.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// requestError turns dial failures into a ConnectError
func requestError(err error, addr string) error {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &ConnectError{Addr: addr, Err: opErr}
	}
	return fmt.Errorf("MARY request to %s failed: %w", addr, err)
}
