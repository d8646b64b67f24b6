package cleaner

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Output layouts of a reconciled timestamp
const (
	DateLayout     = "02-01-2006"
	TimeLayout     = "15:04:05"
	DateTimeLayout = DateLayout + " " + TimeLayout
)

// combinedLayouts parse values that already carry a time of day
var combinedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 3:04 PM",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 3:04:05 PM",
	"01/02/2006 3:04 PM",
	"2006/01/02 15:04:05",
	"02.01.2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006 15:04:05",
}

// dateLayouts parse values without a separating space
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"20060102",
}

// clockLayouts parse time-of-day values
var clockLayouts = []string{
	"15:04:05",
	"15:04:05.999999999",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04PM",
}

// DateTimeTriple is a reconciled timestamp in its three output forms
type DateTimeTriple struct {
	Date     string // dd-mm-yyyy
	Time     string // HH:MM:SS
	DateTime string // "dd-mm-yyyy HH:MM:SS"
}

// ParseDateTimePair merges a date-bearing value and an optional separate
// time-bearing value into one timestamp. The boolean is false when the date
// is blank or any component fails to parse; no partial result is returned.
//
// A date value containing a space (or a time.Time) is treated as already
// combined and the time value is ignored. Otherwise the date is parsed alone
// and, when the time value is non-blank, its clock replaces the date's.
func ParseDateTimePair(dateValue, timeValue interface{}) (DateTimeTriple, bool) {
	ts, ok := parseDateTime(dateValue, timeValue)
	if !ok {
		return DateTimeTriple{}, false
	}
	return DateTimeTriple{
		Date:     ts.Format(DateLayout),
		Time:     ts.Format(TimeLayout),
		DateTime: ts.Format(DateTimeLayout),
	}, true
}

func parseDateTime(dateValue, timeValue interface{}) (time.Time, bool) {
	if isBlank(dateValue) {
		return time.Time{}, false
	}

	switch d := dateValue.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	}

	dateText := strings.TrimSpace(toString(dateValue))
	if strings.Contains(dateText, " ") {
		return parseWithLayouts(dateText, combinedLayouts)
	}

	datePart, ok := parseWithLayouts(dateText, dateLayouts)
	if !ok {
		return time.Time{}, false
	}

	if isBlank(timeValue) {
		return datePart, true
	}

	var clock time.Time
	switch t := timeValue.(type) {
	case time.Time:
		clock = t
	case string, []byte:
		clock, ok = parseClock(strings.TrimSpace(toString(t)))
		if !ok {
			return time.Time{}, false
		}
	default:
		// Non-textual time values carry no usable clock
		return datePart, true
	}

	return time.Date(
		datePart.Year(), datePart.Month(), datePart.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0,
		datePart.Location(),
	), true
}

// parseClock accepts a bare clock or a full timestamp and keeps its clock
func parseClock(s string) (time.Time, bool) {
	if t, ok := parseWithLayouts(s, clockLayouts); ok {
		return t, true
	}
	if t, ok := parseWithLayouts(s, combinedLayouts); ok {
		return t, true
	}
	return parseWithLayouts(s, dateLayouts)
}

func parseWithLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if t, ok := v.(*time.Time); ok {
		return t == nil
	}
	if _, ok := v.(time.Time); ok {
		return false
	}
	return isNullToken(v)
}

// DateTimeReconciler wraps ParseDateTimePair and logs unparseable input
type DateTimeReconciler struct {
	logger *zap.Logger
}

// NewDateTimeReconciler creates a reconciler
func NewDateTimeReconciler(logger *zap.Logger) *DateTimeReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DateTimeReconciler{logger: logger}
}

// Reconcile parses a date/time pair. Blank dates are silent; non-blank values
// that fail to parse are logged at warn level.
func (r *DateTimeReconciler) Reconcile(recordID string, dateValue, timeValue interface{}) (DateTimeTriple, bool) {
	triple, ok := ParseDateTimePair(dateValue, timeValue)
	if !ok && !isBlank(dateValue) {
		r.logger.Warn("Could not parse datetime",
			zap.String("recordId", recordID),
			zap.Any("date", dateValue),
			zap.Any("time", timeValue))
	}
	return triple, ok
}
