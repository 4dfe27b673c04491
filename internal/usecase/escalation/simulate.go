package escalation

import (
	"fmt"
	"time"
)

// At places clock's time of day on the calendar date day (YYYY-MM-DD) in loc,
// so a run can replay any date while scheduled emails still compare against a
// realistic moment of that day.
func At(day string, clock time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(time.DateOnly, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", day, err)
	}
	c := clock.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
}
