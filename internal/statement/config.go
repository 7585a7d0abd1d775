package statement

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// CreditRule decides whether a row is money in or money out.
type CreditRule string

const (
	// CreditByReplacementChar treats a row as income only when its paid-in
	// column carries U+FFFD, which is how a Nationwide pound sign reads
	// once decoded as UTF-8. This is the default.
	CreditByReplacementChar CreditRule = "replacement_char"
	// CreditByPaidInColumn treats a row as income when its paid-in column
	// holds a non-zero value. Blank, "-" and zero cells are debits.
	CreditByPaidInColumn CreditRule = "paid_in_column"
)

const (
	CharsetUTF8        = "utf-8"
	CharsetWindows1252 = "windows-1252"
	CharsetISO88591    = "iso-8859-1"
)

// DefaultTransferPattern matches the "sort code + account number" text
// banks put on transfers between a customer's own accounts.
const DefaultTransferPattern = `\d{6}\s\d{8}`

// DefaultDateFormats are tried in order; the first exact match wins, so
// an ambiguous 03/04/2024 reads as day first.
var DefaultDateFormats = []string{
	"02/01/2006",
	"01/02/2006",
	"2006-01-02",
	"02-Jan-06",
	"02-Jan-2006",
}

var ErrInvalidConfig = errors.New("invalid statement config")

// Config describes the column layout and conventions of one bank's export.
type Config struct {
	HasHeaderRow      bool
	DateColumn        int
	DescriptionColumn int
	// AmountColumn holds money paid out.
	AmountColumn int
	PaidInColumn int

	// DateFormat, when set, is tried before DateFormats.
	DateFormat  string
	DateFormats []string

	Credit          CreditRule
	TransferPattern *regexp.Regexp
	Charset         string
}

// DefaultConfig returns the Nationwide current account layout:
// date, type, description, paid out, paid in, balance.
func DefaultConfig() Config {
	return Config{
		HasHeaderRow:      true,
		DateColumn:        0,
		DescriptionColumn: 2,
		AmountColumn:      3,
		PaidInColumn:      4,
		DateFormats:       append([]string(nil), DefaultDateFormats...),
		Credit:            CreditByReplacementChar,
		TransferPattern:   regexp.MustCompile(DefaultTransferPattern),
		Charset:           CharsetUTF8,
	}
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if len(c.DateFormats) == 0 {
		c.DateFormats = DefaultDateFormats
	}
	if c.Credit == "" {
		c.Credit = CreditByReplacementChar
	}
	if c.TransferPattern == nil {
		c.TransferPattern = regexp.MustCompile(DefaultTransferPattern)
	}
	if c.Charset == "" {
		c.Charset = CharsetUTF8
	}
	return c
}

// Validate reports every problem with the config at once.
func (c Config) Validate() error {
	var problems []string
	for name, idx := range map[string]int{
		"date column":        c.DateColumn,
		"description column": c.DescriptionColumn,
		"amount column":      c.AmountColumn,
		"paid-in column":     c.PaidInColumn,
	} {
		if idx < 0 {
			problems = append(problems, fmt.Sprintf("%s %d must not be negative", name, idx))
		}
	}
	switch c.Credit {
	case "", CreditByPaidInColumn, CreditByReplacementChar:
	default:
		problems = append(problems, fmt.Sprintf("unknown credit rule %q", c.Credit))
	}
	switch normalizeCharset(c.Charset) {
	case "", CharsetUTF8, CharsetWindows1252, CharsetISO88591:
	default:
		problems = append(problems, fmt.Sprintf("unsupported charset %q", c.Charset))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ParseCreditRule accepts the external names of the credit rules.
func ParseCreditRule(s string) (CreditRule, error) {
	switch CreditRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", CreditByReplacementChar:
		return CreditByReplacementChar, nil
	case CreditByPaidInColumn:
		return CreditByPaidInColumn, nil
	}
	return "", fmt.Errorf("%w: unknown credit rule %q", ErrInvalidConfig, s)
}

func (c Config) layouts() []string {
	if c.DateFormat == "" {
		return c.DateFormats
	}
	return append([]string{c.DateFormat}, c.DateFormats...)
}

func (c Config) requiredColumns() int {
	return max(c.DateColumn, c.DescriptionColumn, c.AmountColumn, c.PaidInColumn) + 1
}

func (c Config) decode(r io.Reader) io.Reader {
	switch normalizeCharset(c.Charset) {
	case CharsetWindows1252:
		return charmap.Windows1252.NewDecoder().Reader(r)
	case CharsetISO88591:
		return charmap.ISO8859_1.NewDecoder().Reader(r)
	}
	return r
}

func normalizeCharset(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utf-8", "utf8":
		return CharsetUTF8
	case "windows-1252", "cp1252":
		return CharsetWindows1252
	case "iso-8859-1", "latin1", "latin-1":
		return CharsetISO88591
	case "":
		return ""
	}
	return s
}
