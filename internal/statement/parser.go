// Package statement turns bank statement CSV exports into actual cashflow
// items. Bad rows are skipped and reported; only a failure to read the
// stream itself aborts a parse.
package statement

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"planner/internal/core"
	"planner/internal/log"
)

const (
	maxLineBytes = 1 << 20
	// previewBytes bounds the raw text kept for a line that is too long.
	previewBytes = 256
)

// SkipReason says why a row produced no item.
type SkipReason string

const (
	SkipTooFewColumns SkipReason = "too_few_columns"
	SkipInvalidDate   SkipReason = "invalid_date"
	SkipTransfer      SkipReason = "transfer"
	SkipInvalidAmount SkipReason = "invalid_amount"
	// SkipInvalidItem covers rows that parse but do not make a valid
	// cashflow, such as a blank description.
	SkipInvalidItem SkipReason = "invalid_item"
	SkipLineTooLong SkipReason = "line_too_long"
)

var (
	ErrStream      = errors.New("read statement")
	ErrInvalidDate = errors.New("date matches no accepted format")
)

// SkippedRow records a data line that was rejected.
type SkippedRow struct {
	Line   int // 1-based physical line number
	Raw    string
	Reason SkipReason
	Err    error
}

func (s SkippedRow) MarshalJSON() ([]byte, error) {
	out := struct {
		Line   int        `json:"line"`
		Raw    string     `json:"raw"`
		Reason SkipReason `json:"reason"`
		Error  string     `json:"error,omitempty"`
	}{Line: s.Line, Raw: s.Raw, Reason: s.Reason}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}

type Result struct {
	Items   []core.Cashflow
	Skipped []SkippedRow
	Lines   int
}

type Parser struct {
	cfg    Config
	logger *log.Logger
}

// NewParser returns a parser for cfg. Zero-valued optional fields take
// their defaults; call cfg.Validate first to reject bad layouts.
func NewParser(cfg Config, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Discard()
	}
	return &Parser{cfg: cfg.withDefaults(), logger: logger.WithComponent(log.ComponentStatement)}
}

// Parse reads r line by line. Every accepted row becomes an actual,
// one-off, uncategorized item in file order. A line longer than
// maxLineBytes is skipped like any other bad row.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	br := bufio.NewReaderSize(p.cfg.decode(r), 64*1024)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{Items: []core.Cashflow{}}
	n := 0
	for {
		raw, tooLong, readErr := readLine(br)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("%w after line %d: %w", ErrStream, n, readErr)
		}
		if readErr != nil && len(raw) == 0 && !tooLong {
			break
		}
		n++
		if n%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p.handleLine(ctx, res, n, raw, tooLong)
		if readErr != nil {
			break
		}
	}
	res.Lines = n

	p.logger.DebugContext(ctx, "Statement parsed",
		log.FieldAccepted, len(res.Items),
		log.FieldSkipped, len(res.Skipped),
		"lines", n)
	return res, nil
}

func (p *Parser) handleLine(ctx context.Context, res *Result, n int, raw []byte, tooLong bool) {
	line := strings.ToValidUTF8(string(raw), "\uFFFD")
	if n == 1 {
		line = strings.TrimPrefix(line, "\ufeff")
		if p.cfg.HasHeaderRow {
			return
		}
	}
	if tooLong {
		p.skip(ctx, res, SkippedRow{Line: n, Raw: line, Reason: SkipLineTooLong,
			Err: fmt.Errorf("line exceeds %d bytes", maxLineBytes)})
		return
	}
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}

	item, reason, err := p.parseLine(line)
	if reason != "" {
		p.skip(ctx, res, SkippedRow{Line: n, Raw: line, Reason: reason, Err: err})
		return
	}
	res.Items = append(res.Items, item)
}

// readLine returns the next line without its newline. A line over
// maxLineBytes is read to its end but only its first previewBytes are
// returned, with tooLong set.
func readLine(br *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	size := 0
	for {
		chunk, err := br.ReadSlice('\n')
		size += len(chunk)
		if size <= maxLineBytes {
			line = append(line, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if size > maxLineBytes {
			return line[:min(len(line), previewBytes)], true, err
		}
		return bytes.TrimSuffix(line, []byte{'\n'}), false, err
	}
}

func (p *Parser) parseLine(line string) (core.Cashflow, SkipReason, error) {
	cols := SplitColumns(line)
	if len(cols) < p.cfg.requiredColumns() {
		return core.Cashflow{}, SkipTooFewColumns,
			fmt.Errorf("got %d columns, need %d", len(cols), p.cfg.requiredColumns())
	}

	date, err := p.parseDate(cols[p.cfg.DateColumn])
	if err != nil {
		return core.Cashflow{}, SkipInvalidDate, err
	}

	paidIn := cols[p.cfg.PaidInColumn]
	kind := core.Expenditure
	if p.isCredit(paidIn) {
		kind = core.Income
	}

	desc := strings.TrimSpace(cols[p.cfg.DescriptionColumn])
	if p.cfg.TransferPattern.MatchString(desc) {
		return core.Cashflow{}, SkipTransfer, nil
	}

	raw := cols[p.cfg.AmountColumn]
	if kind == core.Income {
		raw = paidIn
	}
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return core.Cashflow{}, SkipInvalidAmount, fmt.Errorf("%q: %w", raw, err)
	}

	item := core.Cashflow{
		Kind:        kind,
		Type:        core.Actual,
		Name:        desc,
		Amount:      amount.Abs(),
		PaymentDate: date,
		Schedule:    core.OneOff{},
	}
	if err := item.Validate(); err != nil {
		return core.Cashflow{}, SkipInvalidItem, err
	}
	return item, "", nil
}

func (p *Parser) parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range p.cfg.layouts() {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (p *Parser) isCredit(paidIn string) bool {
	if p.cfg.Credit == CreditByReplacementChar {
		return strings.ContainsRune(paidIn, '\uFFFD')
	}
	v := strings.TrimSpace(paidIn)
	if v == "" || v == "-" {
		return false
	}
	amount, err := core.ParseAmount(v)
	return err != nil || !amount.IsZero()
}

func (p *Parser) skip(ctx context.Context, res *Result, row SkippedRow) {
	res.Skipped = append(res.Skipped, row)
	args := []any{log.FieldLine, row.Line, log.FieldReason, string(row.Reason), log.FieldRaw, row.Raw}
	if row.Err != nil {
		args = append(args, log.FieldError, row.Err.Error())
	}
	p.logger.DebugContext(ctx, "Statement row skipped", args...)
}
