package core

import "time"

// Month is a calendar month with an inclusive [Start, End] range.
type Month struct {
	ID    int64
	Name  string
	Start Date
	End   Date
	Notes string
}

// NewMonth returns the calendar month containing the given year and month.
// Out of range months normalise the way time.Date does.
func NewMonth(year, month int) Month {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Month{
		Name:  first.Format("January 2006"),
		Start: Date{Time: first},
		End:   Date{Time: last},
	}
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return NewMonth(d.Year(), d.Month())
}

// Contains reports whether d falls within the month, both ends inclusive.
func (m Month) Contains(d Date) bool {
	return !d.Before(m.Start.Time) && !d.After(m.End.Time)
}

// Key is a stable "2006-01" identifier for the month.
func (m Month) Key() string {
	return m.Start.Format("2006-01")
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	n := m.Start.AddDate(0, 1, 0)
	return NewMonth(n.Year(), int(n.Month()))
}

// HistoricalMonths returns one Month for every calendar month from start's
// month through end's month, in order. Only the months count, so a
// mid-month start snaps to the 1st and 31 Jan to 15 Feb yields both
// months. The result is empty when start is after end.
func HistoricalMonths(start, end time.Time) []Month {
	months := []Month{}
	if start.After(end) {
		return months
	}
	last := DateOf(end)
	for m := NewMonth(start.Year(), int(start.Month())); !m.Start.After(last.Time); m = m.Next() {
		months = append(months, m)
	}
	return months
}
