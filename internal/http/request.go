package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

func formBool(r *http.Request, field string, def bool) (bool, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, badInput("%s must be true or false, got %q", field, v)
	}
	return b, nil
}

func formInt(r *http.Request, field string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, badInput("%s must be an integer, got %q", field, v)
	}
	return n, nil
}

func queryInt(r *http.Request, field string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(field))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, badInput("%s must be an integer, got %q", field, v)
	}
	return n, nil
}

func parseID(name, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, badInput("%s must be a positive integer, got %q", name, value)
	}
	return n, nil
}

// parseMonth reads a YYYY-MM query parameter as the first of that month.
func parseMonth(r *http.Request, field string, def time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(field))
	if v == "" {
		return def, nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return def, badInput("%s must look like YYYY-MM, got %q", field, v)
	}
	return t, nil
}

// parseDay reads a YYYY-MM-DD value. Empty input yields nil.
func parseDay(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, badInput("%s must look like YYYY-MM-DD, got %q", field, v)
	}
	return &t, nil
}
