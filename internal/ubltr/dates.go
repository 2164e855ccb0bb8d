package ubltr

import (
	"strings"
	"time"
)

// issueDateLayouts are tried in order when reading cbc:IssueDate.
var issueDateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02.01.2006",
}

func parseIssueDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range issueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDisplayDate formats an issue date as DD.MM.YYYY. Text that is not
// a recognised date is returned unchanged.
func FormatDisplayDate(raw string) string {
	return formatDate(raw, "02.01.2006")
}

// FormatPeriod formats an issue date as the YYYY/MM VAT period. Text that
// is not a recognised date is returned unchanged.
func FormatPeriod(raw string) string {
	return formatDate(raw, "2006/01")
}

func formatDate(raw, layout string) string {
	if raw == "" {
		return ""
	}
	t, ok := parseIssueDate(raw)
	if !ok {
		return raw
	}
	return t.Format(layout)
}

// IsIssueDate reports whether raw is in one of the recognised date layouts.
func IsIssueDate(raw string) bool {
	_, ok := parseIssueDate(raw)
	return ok
}
