package statement

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

const nationwide = `"Date","Transaction type","Description","Paid out","Paid in","Balance"
"01/03/2024","Visa purchase","TESCO STORES 2231","£45.20","","£954.80"
"02/03/2024","Bank credit","ACME LTD SALARY","","�2,000.00","£2,954.80"

"03/03/2024","Transfer to","070116 12345678","£500.00","","£2,454.80"
"34/03/2024","Visa purchase","BAD DATE","£1.00","","£1.00"
"05/03/2024","Visa purchase"
"06/03/2024","Visa purchase","NO AMOUNT","","",""
"2024-03-07","Direct debit","NETFLIX","9.99","","1.00"
`

func parse(t *testing.T, cfg Config, input string) *Result {
	t.Helper()
	res, err := NewParser(cfg, nil).Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: unexpected error %v", err)
	}
	return res
}

func TestParseNationwideExport(t *testing.T) {
	res := parse(t, DefaultConfig(), nationwide)

	if len(res.Items) != 3 {
		t.Fatalf("got %d items, want 3: %+v", len(res.Items), res.Items)
	}

	tesco := res.Items[0]
	if tesco.Kind != core.Expenditure || tesco.Name != "TESCO STORES 2231" {
		t.Errorf("first item = %+v", tesco)
	}
	if !tesco.Amount.Equal(decimal.RequireFromString("45.20")) {
		t.Errorf("tesco amount = %s", tesco.Amount)
	}
	if !tesco.PaymentDate.Equal(core.NewDate(2024, 3, 1).Time) {
		t.Errorf("tesco date = %s", tesco.PaymentDate)
	}
	if tesco.Type != core.Actual || tesco.Category != "" {
		t.Errorf("imported items must be actual and uncategorized: %+v", tesco)
	}
	if _, ok := tesco.Schedule.(core.OneOff); !ok {
		t.Errorf("imported items must be one-off, got %T", tesco.Schedule)
	}

	salary := res.Items[1]
	if salary.Kind != core.Income || !salary.Amount.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("salary = %+v", salary)
	}

	if res.Items[2].Name != "NETFLIX" {
		t.Errorf("ISO date row not accepted: %+v", res.Items[2])
	}

	wantSkips := []struct {
		line   int
		reason SkipReason
	}{
		{5, SkipTransfer},
		{6, SkipInvalidDate},
		{7, SkipTooFewColumns},
		{8, SkipInvalidAmount},
	}
	if len(res.Skipped) != len(wantSkips) {
		t.Fatalf("got %d skipped rows, want %d: %+v", len(res.Skipped), len(wantSkips), res.Skipped)
	}
	for i, w := range wantSkips {
		got := res.Skipped[i]
		if got.Line != w.line || got.Reason != w.reason {
			t.Errorf("skip %d = line %d %s, want line %d %s", i, got.Line, got.Reason, w.line, w.reason)
		}
	}
}

func TestParseWithoutHeaderKeepsFirstLine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	res := parse(t, cfg, `"01/03/2024","x","SHOP","1.00","",""`)
	if len(res.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(res.Items))
	}
}

func TestParseEmptyInput(t *testing.T) {
	res := parse(t, DefaultConfig(), "")
	if res.Items == nil || len(res.Items) != 0 || len(res.Skipped) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestParseHeaderOnlyAndBlankLines(t *testing.T) {
	res := parse(t, DefaultConfig(), "Date,Type,Description,Out,In\n\n   \n")
	if len(res.Items) != 0 || len(res.Skipped) != 0 {
		t.Fatalf("blank lines must be ignored silently: %+v", res)
	}
}

func TestParseDateFormats(t *testing.T) {
	cases := []struct {
		in   string
		want core.Date
	}{
		{"03/04/2024", core.NewDate(2024, 4, 3)},
		{"04/13/2024", core.NewDate(2024, 4, 13)},
		{"2024-04-13", core.NewDate(2024, 4, 13)},
		{"13-Apr-24", core.NewDate(2024, 4, 13)},
		{"13-Apr-2024", core.NewDate(2024, 4, 13)},
	}
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	for _, tc := range cases {
		res := parse(t, cfg, tc.in+",x,SHOP,1.00,,")
		if len(res.Items) != 1 {
			t.Errorf("%s: not accepted: %+v", tc.in, res.Skipped)
			continue
		}
		if got := res.Items[0].PaymentDate; !got.Equal(tc.want.Time) {
			t.Errorf("%s: parsed %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParsePreferredDateFormatWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	cfg.DateFormat = "01/02/2006"
	res := parse(t, cfg, "03/04/2024,x,SHOP,1.00,,")
	if len(res.Items) != 1 || !res.Items[0].PaymentDate.Equal(core.NewDate(2024, 3, 4).Time) {
		t.Fatalf("preferred format not applied: %+v", res.Items)
	}
}

func TestParseDefaultCreditNeedsReplacementChar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	// \xa3 is a Latin-1 pound sign, invalid as UTF-8.
	input := "01/03/2024,x,REFUND,,\xa312.00,\n" +
		"02/03/2024,x,COFFEE,12.50,0.00,\n" +
		"03/03/2024,x,LUNCH,8.10,-,\n" +
		"04/03/2024,x,CASH,,12.00,\n"
	res := parse(t, cfg, input)

	want := []struct {
		name   string
		kind   core.Kind
		amount string
	}{
		{"REFUND", core.Income, "12.00"},
		{"COFFEE", core.Expenditure, "12.50"},
		{"LUNCH", core.Expenditure, "8.10"},
	}
	if len(res.Items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(res.Items), len(want), res.Items)
	}
	for i, w := range want {
		got := res.Items[i]
		if got.Name != w.name || got.Kind != w.kind || !got.Amount.Equal(decimal.RequireFromString(w.amount)) {
			t.Errorf("item %d = %s %s %s, want %s %s %s", i, got.Name, got.Kind, got.Amount, w.name, w.kind, w.amount)
		}
	}
	// Without the artifact the row is read as a debit with an empty amount.
	if len(res.Skipped) != 1 || res.Skipped[0].Line != 4 || res.Skipped[0].Reason != SkipInvalidAmount {
		t.Fatalf("skips = %+v", res.Skipped)
	}
}

func TestParsePaidInColumnCredit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	cfg.Credit = CreditByPaidInColumn
	input := "01/03/2024,x,CASH,,12.00,\n" +
		"02/03/2024,x,COFFEE,12.50,0.00,\n" +
		"03/03/2024,x,LUNCH,8.10,-,\n" +
		"04/03/2024,x,SHOP,3.00,,\n"
	res := parse(t, cfg, input)
	if len(res.Items) != 4 || len(res.Skipped) != 0 {
		t.Fatalf("items = %+v, skips = %+v", res.Items, res.Skipped)
	}
	if res.Items[0].Kind != core.Income || !res.Items[0].Amount.Equal(decimal.NewFromInt(12)) {
		t.Errorf("CASH = %+v", res.Items[0])
	}
	for _, item := range res.Items[1:] {
		if item.Kind != core.Expenditure || item.Amount.IsZero() {
			t.Errorf("%s should be a non-zero debit, got %s %s", item.Name, item.Kind, item.Amount)
		}
	}
}

func TestParseCreditRule(t *testing.T) {
	tests := []struct {
		in      string
		want    CreditRule
		wantErr bool
	}{
		{"", CreditByReplacementChar, false},
		{" Replacement_Char ", CreditByReplacementChar, false},
		{"paid_in_column", CreditByPaidInColumn, false},
		{"sign", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCreditRule(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCreditRule(%q) = %q, %v; want %q, error %v", tt.in, got, err, tt.want, tt.wantErr)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParseCreditRule(%q) error %v should wrap ErrInvalidConfig", tt.in, err)
		}
	}
}

func TestParseWindows1252(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	cfg.Charset = CharsetWindows1252
	res := parse(t, cfg, "01/03/2024,x,CAF\xc9 ROUGE,\xa33.40,,\n")
	if len(res.Items) != 1 {
		t.Fatalf("row rejected: %+v", res.Skipped)
	}
	if res.Items[0].Name != "CAFÉ ROUGE" || !res.Items[0].Amount.Equal(decimal.RequireFromString("3.40")) {
		t.Fatalf("decoded item = %+v", res.Items[0])
	}
}

func TestParseCustomTransferPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	cfg.TransferPattern = regexp.MustCompile(`^TFR `)
	res := parse(t, cfg, "01/03/2024,x,TFR SAVINGS,10,,\n01/03/2024,x,070116 12345678,10,,\n")
	if len(res.Items) != 1 || res.Items[0].Name != "070116 12345678" {
		t.Fatalf("items = %+v", res.Items)
	}
}

func TestParseNegativeAmountIsAbsolute(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	res := parse(t, cfg, "01/03/2024,x,SHOP,-7.50,,\n")
	if len(res.Items) != 1 || !res.Items[0].Amount.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("items = %+v", res.Items)
	}
}

func TestParseStripsBOM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	res := parse(t, cfg, "\ufeff01/03/2024,x,SHOP,1.00,,\n")
	if len(res.Items) != 1 {
		t.Fatalf("BOM broke the first row: %+v", res.Skipped)
	}
}

func TestParseStreamErrorIsFatal(t *testing.T) {
	r := iotest.TimeoutReader(strings.NewReader(strings.Repeat("a", 10)))
	_, err := NewParser(DefaultConfig(), nil).Parse(context.Background(), r)
	if !errors.Is(err, ErrStream) {
		t.Fatalf("got %v, want ErrStream", err)
	}
}

func TestParseSkipsOverlongLine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	input := "01/03/2024,x,SHOP,1.00,,\n" +
		strings.Repeat("x", 2<<20) + "\n" +
		"02/03/2024,x,CAFE,2.00,,"
	res := parse(t, cfg, input)

	if len(res.Items) != 2 || res.Items[0].Name != "SHOP" || res.Items[1].Name != "CAFE" {
		t.Fatalf("items = %+v", res.Items)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("got %d skipped rows, want 1", len(res.Skipped))
	}
	skip := res.Skipped[0]
	if skip.Line != 2 || skip.Reason != SkipLineTooLong || skip.Err == nil {
		t.Errorf("skip = line %d %s %v", skip.Line, skip.Reason, skip.Err)
	}
	if len(skip.Raw) > previewBytes {
		t.Errorf("raw preview is %d bytes, want at most %d", len(skip.Raw), previewBytes)
	}
	if res.Lines != 3 {
		t.Errorf("Lines = %d, want 3", res.Lines)
	}
}

func TestParseCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewParser(DefaultConfig(), nil).Parse(ctx, strings.NewReader(nationwide)); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.AmountColumn = -1
	bad.Charset = "ebcdic"
	bad.Credit = "vibes"
	err := bad.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
	for _, want := range []string{"amount column", "ebcdic", "vibes"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestBlankDescriptionIsSkipped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HasHeaderRow = false
	res := parse(t, cfg, `"01/03/2024","Visa purchase","  ","£1.00","",""`+"\n")

	if len(res.Items) != 0 || len(res.Skipped) != 1 {
		t.Fatalf("items = %+v, skipped = %+v", res.Items, res.Skipped)
	}
	if got := res.Skipped[0]; got.Reason != SkipInvalidItem || !errors.Is(got.Err, core.ErrEmptyName) {
		t.Errorf("skip = %+v", got)
	}
}

func TestSkippedRowJSON(t *testing.T) {
	row := SkippedRow{Line: 4, Raw: "x", Reason: SkipInvalidDate, Err: ErrInvalidDate}
	body, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"line":4,"raw":"x","reason":"invalid_date","error":"date matches no accepted format"}`
	if string(body) != want {
		t.Errorf("json = %s, want %s", body, want)
	}
}
