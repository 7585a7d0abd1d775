// Package core holds the cashflow domain: items, months and the rules
// deciding which items belong to which month.
package core

// ForMonth returns the items that belong to m, preserving input order.
//
// A Recurring item belongs only when its window covers the whole month
// (Start on or before m.Start and End on or after m.End); a window that
// merely overlaps does not count. A OneOff item belongs when its
// PaymentDate falls within the month, both ends inclusive. Items with a
// nil Schedule never belong. The result is never nil.
func ForMonth(m Month, items []Cashflow) []Cashflow {
	out := make([]Cashflow, 0, len(items))
	for _, c := range items {
		if InMonth(m, c) {
			out = append(out, c)
		}
	}
	return out
}

// InMonth reports whether a single item belongs to m.
func InMonth(m Month, c Cashflow) bool {
	switch s := c.Schedule.(type) {
	case Recurring:
		return !s.Start.After(m.Start.Time) && !s.End.Before(m.End.Time)
	case OneOff:
		return m.Contains(c.PaymentDate)
	default:
		return false
	}
}

// OccurrenceIn returns the date c falls on within m. Recurring items use
// the day-of-month of PaymentDate, clamped to the month's last day.
func OccurrenceIn(m Month, c Cashflow) (Date, bool) {
	if !InMonth(m, c) {
		return Date{}, false
	}
	if _, ok := c.Schedule.(Recurring); !ok {
		return c.PaymentDate, true
	}
	day := c.PaymentDate.Day()
	if last := m.End.Day(); day > last {
		day = last
	}
	return NewDate(m.Start.Year(), m.Start.Month(), day), true
}
