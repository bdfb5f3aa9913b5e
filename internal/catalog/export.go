package catalog

import (
	"encoding/csv"
	"io"
	"strings"
)

// NumerusSeparator joins plural forms in a single CSV cell
const NumerusSeparator = " | "

// ExportCSV writes a header and one row per message with the columns
// context, source, comment, translation and state. The comment column keeps
// disambiguated messages apart.
func ExportCSV(w io.Writer, c *Catalog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"context", "source", "comment", "translation", "state"}); err != nil {
		return err
	}

	var err error
	c.Each(func(ctx *Context, m *Message) {
		if err != nil {
			return
		}
		translation := m.Translation
		if m.Numerus {
			translation = strings.Join(m.NumerusForms, NumerusSeparator)
		}
		err = cw.Write([]string{ctx.Name, m.Source, m.Comment, translation, string(m.State)})
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
