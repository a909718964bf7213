package window

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Zxoir/twitter-month-archiver/pkg/errors"
)

// monthPattern matches a YYYY-MM month specifier
var monthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Window is a half-open UTC interval [Start, End) covering one calendar month.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Resolve converts a YYYY-MM month specifier into the UTC window for that
// month. End is the first instant of the following month, computed by
// calendar arithmetic so it is correct across 28/29/30/31-day months and
// year boundaries.
func Resolve(month string) (Window, error) {
	m := monthPattern.FindStringSubmatch(month)
	if m == nil {
		return Window{}, errors.New(errors.ErrorTypeInvalidMonth,
			fmt.Sprintf("month must match YYYY-MM, got %q", month), 0)
	}

	year, err := strconv.Atoi(m[1])
	if err != nil {
		return Window{}, errors.New(errors.ErrorTypeInvalidMonth,
			fmt.Sprintf("invalid year in %q", month), 0)
	}
	mon, err := strconv.Atoi(m[2])
	if err != nil || mon < 1 || mon > 12 {
		return Window{}, errors.New(errors.ErrorTypeInvalidMonth,
			fmt.Sprintf("month must be between 01 and 12, got %q", month), 0)
	}

	start := time.Date(year, time.Month(mon), 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// String returns the window bounds in RFC 3339 form.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
