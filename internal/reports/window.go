package reports

import (
	"time"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// Window is the half-open [Start, End) interval a report row aggregates,
// plus the canonical date the row is keyed on.
type Window struct {
	Start      time.Time
	End        time.Time
	ReportDate time.Time
}

// WindowFor normalizes a reference time into the aggregation window of the
// given report type. Daily windows key on the day itself, weekly on the
// Monday of the week, monthly on the first of the month. All UTC.
func WindowFor(reportType enums.ReportType, ref time.Time) Window {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	switch reportType {
	case enums.ReportTypeWeekly:
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		start := day.AddDate(0, 0, -offset)
		return Window{Start: start, End: start.AddDate(0, 0, 7), ReportDate: start}
	case enums.ReportTypeMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(0, 1, 0), ReportDate: start}
	default:
		return Window{Start: day, End: day.AddDate(0, 0, 1), ReportDate: day}
	}
}
