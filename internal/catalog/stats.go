package catalog

// Stats counts messages per state
type Stats struct {
	Total      int
	Finished   int
	Unfinished int
	Obsolete   int
	Empty      int // Active messages without any translation text
}

// Percent returns the share of active messages that are finished
func (s Stats) Percent() float64 {
	active := s.Finished + s.Unfinished
	if active == 0 {
		return 0
	}
	return float64(s.Finished) * 100 / float64(active)
}

// ComputeStats counts the messages of c
func ComputeStats(c *Catalog) Stats {
	var s Stats
	c.Each(func(_ *Context, m *Message) {
		s.Total++
		switch m.State {
		case StateObsolete:
			s.Obsolete++
			return
		case StateUnfinished:
			s.Unfinished++
		default:
			s.Finished++
		}
		if !m.IsTranslated() {
			s.Empty++
		}
	})
	return s
}
