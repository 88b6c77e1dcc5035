package risk

import (
	"math"
	"time"

	"github.com/rzzdr/options-risk-engine/pkg/models"
)

// yearHours converts between seconds-to-expiry and years for pricing inputs
const yearSeconds = 365.25 * 24 * 3600

// secondSundayOfMarch returns the calendar day of the second Sunday of March
func secondSundayOfMarch(year int) time.Time {
	first := time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	offset := (7 - int(first.Weekday())) % 7
	return first.AddDate(0, 0, offset+7)
}

// firstSundayOfNovember returns the calendar day of the first Sunday of November
func firstSundayOfNovember(year int) time.Time {
	first := time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	offset := (7 - int(first.Weekday())) % 7
	return first.AddDate(0, 0, offset)
}

// isEasternDST reports whether US-Eastern daylight saving time is in effect on
// the given calendar date: from the second Sunday of March (inclusive) to the
// first Sunday of November (exclusive). Computed arithmetically so that no
// timezone database is needed at runtime.
func isEasternDST(d models.Date) bool {
	day := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	start := secondSundayOfMarch(d.Year)
	end := firstSundayOfNovember(d.Year)
	return !day.Before(start) && day.Before(end)
}

// ExpiryCloseUTC returns the UTC instant of the 4:00 PM US-Eastern equity
// close on the option's expiry date: 20:00 UTC during DST, 21:00 UTC otherwise.
func ExpiryCloseUTC(d models.Date) time.Time {
	hour := 21
	if isEasternDST(d) {
		hour = 20
	}
	return time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, time.UTC)
}

// TimeToExpiry returns the time remaining until the settlement instant in
// years. Negative when the close has passed.
func TimeToExpiry(close, now time.Time) float64 {
	return close.Sub(now).Seconds() / yearSeconds
}

// DaysToExpiry returns the whole days remaining until the settlement instant,
// floored and clamped at zero: an option settling later today reports 0.
func DaysToExpiry(close, now time.Time) int {
	days := int(math.Floor(close.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
