// Package season maps between sequential "S<number>" season codes and the
// calendar months they cover. The ladder runs one season per calendar month.
package season

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The season cadence is anchored at a known point in time: 2024-08 was S32.
// Everything else is month arithmetic relative to that anchor.
const (
	BaseYear   = 2024
	BaseMonth  = 8
	BaseSeason = 32
)

const dateLayout = "2006-01-02"

var codePattern = regexp.MustCompile(`^[Ss](\d+)$`)

// Info is the resolved calendar range of one season.
type Info struct {
	Code         string `json:"code"`
	SeasonNumber int    `json:"seasonNumber"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Start        string `json:"start"` // YYYY-MM-DD, first day of the month
	End          string `json:"end"`   // YYYY-MM-DD, last day of the month
}

// ParseNumber extracts the numeric part of a season code such as "S32".
// The prefix letter is case-insensitive and surrounding whitespace is ignored.
func ParseNumber(code string) (int, bool) {
	m := codePattern.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// addMonths shifts a year/month pair by delta months, carrying across year
// boundaries in both directions.
func addMonths(year, month, delta int) (int, int) {
	total := year*12 + (month - 1) + delta
	y := total / 12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, m + 1
}

// NumberToYearMonth resolves a season number to its calendar year and month.
func NumberToYearMonth(seasonNumber int) (year, month int) {
	return addMonths(BaseYear, BaseMonth, seasonNumber-BaseSeason)
}

// YearMonthToNumber is the inverse of NumberToYearMonth.
func YearMonthToNumber(year, month int) int {
	return (year-BaseYear)*12 + (month - BaseMonth) + BaseSeason
}

// Lookup resolves a season code to its calendar info. It returns nil when the
// code does not match the S<number> pattern; callers treat nil as "invalid
// code", not as an error.
func Lookup(code string) *Info {
	n, ok := ParseNumber(code)
	if !ok {
		return nil
	}

	year, month := NumberToYearMonth(n)

	// Dates are naive calendar dates. UTC here is only a fixed zone for the
	// arithmetic; nothing is ever converted between zones.
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)

	return &Info{
		Code:         fmt.Sprintf("S%d", n),
		SeasonNumber: n,
		Year:         year,
		Month:        month,
		Start:        start.Format(dateLayout),
		End:          end.Format(dateLayout),
	}
}

// CurrentCode returns the season code for the current month.
func CurrentCode() string {
	return codeAt(time.Now())
}

func codeAt(t time.Time) string {
	return fmt.Sprintf("S%d", YearMonthToNumber(t.Year(), int(t.Month())))
}

// RecentCodes returns count consecutive season codes starting at from (or the
// current season when from is empty), most recent first. A non-positive count
// or an unparseable starting code yields an empty list.
func RecentCodes(count int, from string) []string {
	if from == "" {
		from = CurrentCode()
	}
	n, ok := ParseNumber(from)
	if !ok || count <= 0 {
		return []string{}
	}
	codes := make([]string, count)
	for i := range codes {
		codes[i] = fmt.Sprintf("S%d", n-i)
	}
	return codes
}

// CodeFromDate derives the season code for the month a date falls in. The
// date may be YYYY-MM-DD or an ISO timestamp; see NormalizeDate.
func CodeFromDate(dateStr string) string {
	t, err := time.Parse(dateLayout, NormalizeDate(dateStr))
	if err != nil {
		return ""
	}
	return codeAt(t)
}

// NormalizeDate reduces a date string to its YYYY-MM-DD prefix. Stored dates
// may be plain dates or ISO-8601 timestamps; the calendar day is always the
// part before the first 'T', with no timezone conversion.
func NormalizeDate(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
