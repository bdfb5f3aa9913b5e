package catalog

import (
	"fmt"
)

// State is the translation state of a message
type State string

const (
	StateFinished   State = "finished"
	StateUnfinished State = "unfinished"
	StateObsolete   State = "obsolete"
)

// Key identifies a message inside its context
type Key struct {
	Source  string
	Comment string
}

// Location is a reference to the UI source file a message came from
type Location struct {
	Filename string
	Line     string
}

// Message is one translatable string
type Message struct {
	ID                string
	Source            string
	OldSource         string
	Comment           string
	OldComment        string
	ExtraComment      string
	TranslatorComment string
	Locations         []Location
	Numerus           bool
	Translation       string
	NumerusForms      []string
	State             State
	// Type is the translation type attribute as read, kept so that
	// "vanished" is written back unchanged
	Type string
}

// Key returns the message's identity within its context
func (m *Message) Key() Key {
	return Key{Source: m.Source, Comment: m.Comment}
}

// IsTranslated reports whether every translation form carries text
func (m *Message) IsTranslated() bool {
	if m.Numerus {
		if len(m.NumerusForms) == 0 {
			return false
		}
		for _, form := range m.NumerusForms {
			if form == "" {
				return false
			}
		}
		return true
	}
	return m.Translation != ""
}

// Texts returns the translation texts, one per numerus form
func (m *Message) Texts() []string {
	if m.Numerus {
		return m.NumerusForms
	}
	return []string{m.Translation}
}

// Clone returns a deep copy
func (m *Message) Clone() *Message {
	c := *m
	c.Locations = append([]Location(nil), m.Locations...)
	c.NumerusForms = append([]string(nil), m.NumerusForms...)
	return &c
}

// Context groups the messages of one UI class
type Context struct {
	Name     string
	Messages []*Message
	index    map[Key]*Message
}

// Lookup finds a message by key
func (c *Context) Lookup(key Key) (*Message, bool) {
	if c.index == nil {
		c.reindex()
	}
	m, ok := c.index[key]
	return m, ok
}

// Add appends a message. Adding a second message with the same key fails.
func (c *Context) Add(m *Message) error {
	if _, ok := c.Lookup(m.Key()); ok {
		return &DuplicateError{Context: c.Name, Source: m.Source, Comment: m.Comment}
	}
	c.insert(m)
	return nil
}

// insert appends m; the caller has checked that its key is free
func (c *Context) insert(m *Message) {
	if c.index == nil {
		c.reindex()
	}
	c.Messages = append(c.Messages, m)
	c.index[m.Key()] = m
}

func (c *Context) reindex() {
	c.index = make(map[Key]*Message, len(c.Messages))
	for _, m := range c.Messages {
		c.index[m.Key()] = m
	}
}

// Catalog is a parsed .ts file
type Catalog struct {
	Path           string
	Version        string
	Language       string
	SourceLanguage string
	Contexts       []*Context
}

// New returns an empty catalog for language
func New(language string) *Catalog {
	return &Catalog{Version: "2.1", Language: language}
}

// Context returns the named context or nil
func (c *Catalog) Context(name string) *Context {
	for _, ctx := range c.Contexts {
		if ctx.Name == name {
			return ctx
		}
	}
	return nil
}

// EnsureContext returns the named context, appending it when missing
func (c *Catalog) EnsureContext(name string) *Context {
	if ctx := c.Context(name); ctx != nil {
		return ctx
	}
	ctx := &Context{Name: name, index: map[Key]*Message{}}
	c.Contexts = append(c.Contexts, ctx)
	return ctx
}

// LookupKey finds the message with the exact source and comment
func (c *Catalog) LookupKey(context string, key Key) (*Message, bool) {
	ctx := c.Context(context)
	if ctx == nil {
		return nil, false
	}
	return ctx.Lookup(key)
}

// Lookup finds a message by context and source. Messages are keyed by
// source and comment, so when several share the source the one without a
// comment wins, else the first in file order. Use LookupKey to pick a
// disambiguated message.
func (c *Catalog) Lookup(context, source string) (*Message, bool) {
	ctx := c.Context(context)
	if ctx == nil {
		return nil, false
	}
	if m, ok := ctx.Lookup(Key{Source: source}); ok {
		return m, true
	}
	for _, m := range ctx.Messages {
		if m.Source == source {
			return m, true
		}
	}
	return nil, false
}

// Each calls fn for every message in file order
func (c *Catalog) Each(fn func(ctx *Context, m *Message)) {
	for _, ctx := range c.Contexts {
		for _, m := range ctx.Messages {
			fn(ctx, m)
		}
	}
}

// Len returns the number of messages
func (c *Catalog) Len() int {
	n := 0
	for _, ctx := range c.Contexts {
		n += len(ctx.Messages)
	}
	return n
}

// DuplicateError reports a source and comment pair that appears twice in
// one context
type DuplicateError struct {
	Context string
	Source  string
	Comment string
}

func (e *DuplicateError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("duplicate message in context %q: %q (comment %q)", e.Context, e.Source, e.Comment)
	}
	return fmt.Sprintf("duplicate message in context %q: %q", e.Context, e.Source)
}
