// Package report computes the read-only dashboard figures: period totals,
// category and division breakdowns, paginated history and category summaries.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
)

// Period selects the calendar bucket a report covers.
type Period string

const (
	// PeriodWeek runs Monday through Sunday.
	PeriodWeek Period = "week"
	// PeriodMonth runs from the first to the last calendar day.
	PeriodMonth Period = "month"
	// PeriodYear runs from January 1 to December 31.
	PeriodYear Period = "year"
)

// DefaultPeriod is used when no period is requested.
const DefaultPeriod = PeriodMonth

// ParsePeriod turns a request value into a Period. Empty means DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPeriod, nil
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", common.NewValidationError("period",
			fmt.Sprintf("unknown period %q, expected week, month or year", s))
	}
}

// Bounds returns the first and last instant of the period containing ref,
// evaluated in loc. The end is the last millisecond of the final day.
func Bounds(period Period, ref time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)
	y, m, d := ref.Date()

	var start, next time.Time
	switch period {
	case PeriodWeek:
		// Sunday closes the week that started the previous Monday.
		weekday := int(ref.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = time.Date(y, m, d-(weekday-1), 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	case PeriodYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	default:
		return time.Time{}, time.Time{}, common.NewValidationError("period",
			fmt.Sprintf("unknown period %q", period))
	}

	return start, next.Add(-time.Millisecond), nil
}
