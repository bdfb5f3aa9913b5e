package catalog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// IssueKind classifies a finding of Check
type IssueKind string

const (
	IssueMissing     IssueKind = "missing"
	IssueObsolete    IssueKind = "obsolete"
	IssueEmpty       IssueKind = "empty"
	IssueUnfinished  IssueKind = "unfinished"
	IssueStale       IssueKind = "stale"
	IssuePlaceholder IssueKind = "placeholder"
	IssueAccelerator IssueKind = "accelerator"
	IssueLanguage    IssueKind = "language"
)

// Severity of an issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of Check
type Issue struct {
	Kind     IssueKind
	Severity Severity
	Context  string
	Source   string
	Comment  string
	Detail   string
}

func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", i.Severity, i.Kind)
	if i.Context != "" {
		fmt.Fprintf(&b, " [%s] %q", i.Context, i.Source)
	}
	if i.Detail != "" {
		b.WriteString(": ")
		b.WriteString(i.Detail)
	}
	return b.String()
}

// Report is the result of checking one locale catalog against the base
type Report struct {
	Base     string
	Locale   string
	Language string
	Required int // Active messages in the base catalog
	Present  int // Of those, present (finished or unfinished) in the locale
	Issues   []Issue
}

// Errors returns the number of error-level issues
func (r *Report) Errors() int {
	return r.count(SeverityError)
}

// Warnings returns the number of warning-level issues
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// OK reports whether the locale catalog covers every base message
func (r *Report) OK() bool {
	return r.Errors() == 0
}

// ByKind returns the issues of one kind
func (r *Report) ByKind(kind IssueKind) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

func (r *Report) add(kind IssueKind, severity Severity, ctx string, m *Message, detail string) {
	issue := Issue{Kind: kind, Severity: severity, Context: ctx, Detail: detail}
	if m != nil {
		issue.Source = m.Source
		issue.Comment = m.Comment
	}
	r.Issues = append(r.Issues, issue)
}

// Check verifies that every active message of base has a finished or
// unfinished counterpart in locale, and validates the translations that
// exist.
func Check(base, locale *Catalog) *Report {
	r := &Report{
		Base:     base.Path,
		Locale:   locale.Path,
		Language: locale.Language,
	}

	if want := LocaleFromFilename(locale.Path); want != "" && locale.Language != "" && !SameLanguage(want, locale.Language) {
		r.add(IssueLanguage, SeverityWarning, "", nil,
			fmt.Sprintf("file name suggests %q but language attribute is %q", want, locale.Language))
	}

	required := map[string]map[Key]bool{}
	base.Each(func(ctx *Context, bm *Message) {
		if bm.State == StateObsolete {
			return
		}
		r.Required++
		if required[ctx.Name] == nil {
			required[ctx.Name] = map[Key]bool{}
		}
		required[ctx.Name][bm.Key()] = true

		var lm *Message
		if lctx := locale.Context(ctx.Name); lctx != nil {
			lm, _ = lctx.Lookup(bm.Key())
		}

		switch {
		case lm == nil:
			r.add(IssueMissing, SeverityError, ctx.Name, bm, "")
			return
		case lm.State == StateObsolete:
			r.add(IssueObsolete, SeverityError, ctx.Name, bm, "translation is marked obsolete but the source is still in use")
			return
		}

		r.Present++
		checkTranslation(r, ctx.Name, bm, lm)
	})

	locale.Each(func(ctx *Context, lm *Message) {
		if lm.State == StateObsolete {
			return
		}
		if !required[ctx.Name][lm.Key()] {
			r.add(IssueStale, SeverityWarning, ctx.Name, lm, "not in base catalog")
		}
	})

	return r
}

func checkTranslation(r *Report, ctxName string, bm, lm *Message) {
	if lm.State == StateUnfinished {
		r.add(IssueUnfinished, SeverityWarning, ctxName, bm, "")
	}

	if !lm.IsTranslated() {
		if lm.State == StateFinished {
			r.add(IssueEmpty, SeverityError, ctxName, bm, "finished translation has no text")
		}
		return
	}

	severity := SeverityWarning
	if lm.State == StateFinished {
		severity = SeverityError
	}

	want := placeholders(bm.Source, bm.Numerus)
	for i, text := range lm.Texts() {
		got := placeholders(text, bm.Numerus)
		if !slices.Equal(want, got) {
			detail := fmt.Sprintf("source has %v, translation has %v", want, got)
			if lm.Numerus {
				detail = fmt.Sprintf("form %d: %s", i, detail)
			}
			r.add(IssuePlaceholder, severity, ctxName, bm, detail)
		}
		if hasAccelerator(bm.Source) != hasAccelerator(text) {
			r.add(IssueAccelerator, SeverityWarning, ctxName, bm, "accelerator (&) present in only one of source and translation")
		}
	}
}

var placeholderRe = regexp.MustCompile(`%L?(\d{1,2}|n)`)

// placeholders returns the sorted Qt argument markers in s. %n is left out
// for numerus messages since plural forms may spell the number out.
func placeholders(s string, numerus bool) []string {
	var out []string
	for _, p := range placeholderRe.FindAllString(s, -1) {
		if numerus && (p == "%n" || p == "%Ln") {
			continue
		}
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// hasAccelerator reports whether s marks a keyboard accelerator; "&&" is a literal ampersand
func hasAccelerator(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '&' {
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] != ' ' && !isEntityStart(s[i+1:]) {
			return true
		}
	}
	return false
}

// isEntityStart catches HTML entities such as &amp; in rich text strings
func isEntityStart(s string) bool {
	end := strings.IndexByte(s, ';')
	if end <= 0 || end > 8 {
		return false
	}
	for _, r := range s[:end] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '#') {
			return false
		}
	}
	return true
}

// PlaceholdersMatch reports whether translation carries the same Qt
// argument markers as source
func PlaceholdersMatch(source, translation string, numerus bool) bool {
	return slices.Equal(placeholders(source, numerus), placeholders(translation, numerus))
}
