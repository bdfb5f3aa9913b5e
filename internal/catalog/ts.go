package catalog

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// XML layout of a .ts file
type tsFile struct {
	XMLName        xml.Name    `xml:"TS"`
	Version        string      `xml:"version,attr,omitempty"`
	Language       string      `xml:"language,attr,omitempty"`
	SourceLanguage string      `xml:"sourcelanguage,attr,omitempty"`
	Contexts       []tsContext `xml:"context"`
}

type tsContext struct {
	Name     string      `xml:"name"`
	Messages []tsMessage `xml:"message"`
}

type tsMessage struct {
	ID                string        `xml:"id,attr,omitempty"`
	Numerus           string        `xml:"numerus,attr,omitempty"`
	Locations         []tsLocation  `xml:"location"`
	Source            string        `xml:"source"`
	OldSource         string        `xml:"oldsource,omitempty"`
	Comment           string        `xml:"comment,omitempty"`
	OldComment        string        `xml:"oldcomment,omitempty"`
	ExtraComment      string        `xml:"extracomment,omitempty"`
	TranslatorComment string        `xml:"translatorcomment,omitempty"`
	Translation       tsTranslation `xml:"translation"`
}

type tsLocation struct {
	Filename string `xml:"filename,attr,omitempty"`
	Line     string `xml:"line,attr,omitempty"`
}

type tsTranslation struct {
	Type         string   `xml:"type,attr,omitempty"`
	Text         string   `xml:",chardata"`
	NumerusForms []string `xml:"numerusform"`
}

const tsHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n" + `<!DOCTYPE TS>` + "\n"

// Parse decodes a .ts document
func Parse(r io.Reader) (*Catalog, error) {
	var doc tsFile
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		Version:        doc.Version,
		Language:       doc.Language,
		SourceLanguage: doc.SourceLanguage,
	}

	for _, xc := range doc.Contexts {
		// Contexts may be split across the file; lupdate merges them the same way
		ctx := c.EnsureContext(xc.Name)
		for _, xm := range xc.Messages {
			if err := ctx.Add(fromXML(xm)); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// Load reads and parses the catalog at path
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Write encodes the catalog in the Qt Linguist layout
func (c *Catalog) Write(w io.Writer) error {
	doc := tsFile{
		Version:        c.Version,
		Language:       c.Language,
		SourceLanguage: c.SourceLanguage,
	}
	for _, ctx := range c.Contexts {
		xc := tsContext{Name: ctx.Name}
		for _, m := range ctx.Messages {
			xc.Messages = append(xc.Messages, toXML(m))
		}
		doc.Contexts = append(doc.Contexts, xc)
	}

	out, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	// Linguist keeps line breaks and tabs literal; encoding/xml escapes them
	out = bytes.ReplaceAll(out, []byte("&#xA;"), []byte("\n"))
	out = bytes.ReplaceAll(out, []byte("&#x9;"), []byte("\t"))

	var buf bytes.Buffer
	buf.WriteString(tsHeader)
	buf.Write(out)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

// Save writes the catalog to path through a temporary file
func (c *Catalog) Save(path string) error {
	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.ts")
	if err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	c.Path = path
	return nil
}

func fromXML(xm tsMessage) *Message {
	m := &Message{
		ID:                xm.ID,
		Source:            xm.Source,
		OldSource:         xm.OldSource,
		Comment:           xm.Comment,
		OldComment:        xm.OldComment,
		ExtraComment:      xm.ExtraComment,
		TranslatorComment: xm.TranslatorComment,
		Numerus:           xm.Numerus == "yes",
		State:             parseState(xm.Translation.Type),
		Type:              strings.TrimSpace(xm.Translation.Type),
	}
	for _, loc := range xm.Locations {
		m.Locations = append(m.Locations, Location(loc))
	}
	if m.Numerus {
		m.NumerusForms = append([]string(nil), xm.Translation.NumerusForms...)
	} else {
		m.Translation = xm.Translation.Text
	}
	return m
}

func toXML(m *Message) tsMessage {
	xm := tsMessage{
		ID:                m.ID,
		Source:            m.Source,
		OldSource:         m.OldSource,
		Comment:           m.Comment,
		OldComment:        m.OldComment,
		ExtraComment:      m.ExtraComment,
		TranslatorComment: m.TranslatorComment,
	}
	for _, loc := range m.Locations {
		xm.Locations = append(xm.Locations, tsLocation(loc))
	}
	switch {
	case m.Type != "" && parseState(m.Type) == m.State:
		xm.Translation.Type = m.Type
	case m.State != StateFinished && m.State != "":
		xm.Translation.Type = string(m.State)
	}
	if m.Numerus {
		xm.Numerus = "yes"
		xm.Translation.NumerusForms = m.NumerusForms
	} else {
		xm.Translation.Text = m.Translation
	}
	return xm
}

func parseState(typ string) State {
	switch strings.TrimSpace(typ) {
	case "":
		return StateFinished
	case "obsolete", "vanished":
		return StateObsolete
	default:
		// "unfinished" and anything Linguist might add later
		return StateUnfinished
	}
}
