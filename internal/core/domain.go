package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income      Kind = "income"
	Expenditure Kind = "expenditure"

	Projected CashflowType = "projected"
	Actual    CashflowType = "actual"

	// Uncategorized marks an item no rule or user has assigned yet.
	Uncategorized = "Uncategorized"
)

type (
	Kind         string
	CashflowType string

	Date struct {
		time.Time
	}

	// Schedule is either OneOff or Recurring. A nil Schedule marks a
	// record whose recurrence data could not be decoded.
	Schedule interface {
		isSchedule()
	}

	// OneOff happens once, on the item's PaymentDate.
	OneOff struct{}

	// Recurring is active between Start and End inclusive. Only the
	// day-of-month of the item's PaymentDate is meaningful.
	Recurring struct {
		Start Date
		End   Date
	}

	Cashflow struct {
		ID          int64 // Database ID, zero until persisted
		Kind        Kind
		Type        CashflowType
		Name        string
		Amount      decimal.Decimal
		PaymentDate Date
		Schedule    Schedule
		Category    string
	}
)

func (OneOff) isSchedule()    {}
func (Recurring) isSchedule() {}

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidKind        = errors.New("invalid cashflow kind")
	ErrInvalidType        = errors.New("invalid cashflow type")
	ErrMalformedRecurring = errors.New("recurring item without start and end")
	ErrInvalidWindow      = errors.New("recurring end before start")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's wall clock date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// NewSchedule builds a Schedule from the flag-plus-optional-bounds shape
// used by storage rows and form input.
func NewSchedule(recurring bool, start, end *time.Time) (Schedule, error) {
	if !recurring {
		return OneOff{}, nil
	}
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return nil, ErrMalformedRecurring
	}
	r := Recurring{Start: DateOf(*start), End: DateOf(*end)}
	if r.End.Before(r.Start.Time) {
		return nil, ErrInvalidWindow
	}
	return r, nil
}

func (k Kind) Valid() bool {
	return k == Income || k == Expenditure
}

func (t CashflowType) Valid() bool {
	return t == Projected || t == Actual
}

// IsRecurring reports whether the item carries a decoded Recurring schedule.
func (c Cashflow) IsRecurring() bool {
	_, ok := c.Schedule.(Recurring)
	return ok
}

func (c Cashflow) Validate() error {
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if c.PaymentDate.IsZero() {
		return errors.New("payment date cannot be zero")
	}
	if c.Schedule == nil {
		return ErrMalformedRecurring
	}
	return nil
}

// CategoryOrDefault returns the assigned category or Uncategorized.
func (c Cashflow) CategoryOrDefault() string {
	if strings.TrimSpace(c.Category) == "" {
		return Uncategorized
	}
	return c.Category
}
