package mary

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Defaults used when a Request leaves a field empty
const (
	DefaultPort       = 59125
	DefaultInputType  = "TEXT"
	DefaultOutputType = "AUDIO"

	// The socket protocol names the raw WAVE stream, the HTTP form names the file type
	DefaultSocketAudio = "WAVE"
	DefaultHTTPAudio   = "WAVE_FILE"
)

// Effect is one entry of the MARY audio effect chain, e.g. {"Volume", "amount:2.0;"}
type Effect struct {
	Name   string
	Params string
}

// Request describes a single synthesis call
type Request struct {
	Host       string
	Port       int
	Voice      string
	Locale     string
	InputType  string
	OutputType string
	AudioType  string
	Style      string
	Effects    []Effect
	Text       string
}

// Validate checks that the request can be sent
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("MARY host cannot be empty")
	}
	if r.Port < 1 || r.Port > 65535 {
		return fmt.Errorf("invalid MARY port: %d", r.Port)
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	for _, e := range r.Effects {
		if e.Name == "" || strings.ContainsAny(e.Name, " =&") {
			return fmt.Errorf("invalid effect name: %q", e.Name)
		}
	}
	return nil
}

// Addr returns host:port
func (r *Request) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Header renders the command line that opens a socket request
func (r *Request) Header() string {
	var b strings.Builder
	b.WriteString("MARY IN=")
	b.WriteString(orDefault(r.InputType, DefaultInputType))
	b.WriteString(" OUT=")
	b.WriteString(orDefault(r.OutputType, DefaultOutputType))
	b.WriteString(" AUDIO=")
	b.WriteString(orDefault(r.AudioType, DefaultSocketAudio))
	if r.Voice != "" {
		b.WriteString(" VOICE=")
		b.WriteString(r.Voice)
	}
	if r.Locale != "" {
		b.WriteString(" LOCALE=")
		b.WriteString(r.Locale)
	}
	b.WriteByte('\n')
	return b.String()
}

// Payload is the text block sent after the header, terminated by a blank
// line. Blank lines inside the text are dropped since the server would
// take the first one as end of input.
func (r *Request) Payload() string {
	var b strings.Builder
	for _, line := range strings.Split(r.Text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

// Form renders the fields POSTed to /process
func (r *Request) Form() url.Values {
	form := url.Values{}
	form.Set("INPUT_TEXT", r.Text)
	form.Set("INPUT_TYPE", orDefault(r.InputType, DefaultInputType))
	form.Set("OUTPUT_TYPE", orDefault(r.OutputType, DefaultOutputType))
	form.Set("AUDIO", orDefault(r.AudioType, DefaultHTTPAudio))
	if r.Locale != "" {
		form.Set("LOCALE", r.Locale)
	}
	if r.Voice != "" {
		form.Set("VOICE", r.Voice)
	}
	if r.Style != "" {
		form.Set("STYLE", r.Style)
	}
	for _, e := range r.Effects {
		form.Set("effect_"+e.Name+"_selected", "on")
		if e.Params != "" {
			form.Set("effect_"+e.Name+"_parameters", e.Params)
		}
	}
	return form
}

// ParseEffects parses "Name:params" specs as given on the command line.
// "Volume:amount:2.0;" yields {Volume, amount:2.0;}, a bare "Robot" has no params.
func ParseEffects(specs []string) ([]Effect, error) {
	var effects []Effect
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		name, params, _ := strings.Cut(spec, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid effect %q: missing name", spec)
		}
		effects = append(effects, Effect{Name: name, Params: strings.TrimSpace(params)})
	}
	return effects, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
