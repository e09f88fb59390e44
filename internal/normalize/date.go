package normalize

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	dateShift  = 11 * 24 * time.Hour
	dateLayout = "2006-01-02T15-04-05"
	dateMillis = ".000"
)

var monthAbbrev = map[string]string{
	"jan": "Jan", "feb": "Feb", "mar": "Mar", "apr": "Apr", "may": "May", "jun": "Jun",
	"jul": "Jul", "aug": "Aug", "sep": "Sep", "oct": "Oct", "nov": "Nov", "dec": "Dec",
}

var weekdays = map[string]struct{}{
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

// ShiftDate parses an RFC 2822 date, moves it 11 days forward and formats it
// as YYYY-MM-DDTHH-MM-SS.000 in the date's own offset. Input that does not
// parse is returned unchanged.
func ShiftDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	t, err := mail.ParseDate(raw)
	if err != nil {
		var ok bool
		if t, ok = parseLooseDate(raw); !ok {
			return raw
		}
	}
	// Fixed offset: the wall clock moves by exactly 11 days.
	_, offset := t.Zone()
	t = t.In(time.FixedZone("", offset)).Add(dateShift)
	return t.Format(dateLayout) + dateMillis
}

// parseLooseDate accepts the forms feeds emit that net/mail rejects: full
// month names, the military Z zone and a missing zone, read as UTC wall
// clock. The fields are rebuilt into canonical RFC 5322 and parsed again.
func parseLooseDate(raw string) (time.Time, bool) {
	fields := strings.Fields(strings.ReplaceAll(raw, ",", " "))
	if len(fields) > 0 && len(fields[0]) >= 3 {
		if _, ok := weekdays[strings.ToLower(fields[0][:3])]; ok {
			fields = fields[1:]
		}
	}
	if len(fields) != 4 && len(fields) != 5 {
		return time.Time{}, false
	}

	day, month, year, clock := fields[0], fields[1], fields[2], fields[3]
	if len(month) < 3 {
		return time.Time{}, false
	}
	mon, ok := monthAbbrev[strings.ToLower(month[:3])]
	if !ok {
		return time.Time{}, false
	}
	zone := "+0000"
	if len(fields) == 5 && !strings.EqualFold(fields[4], "Z") {
		zone = fields[4]
	}

	t, err := mail.ParseDate(fmt.Sprintf("%s %s %s %s %s", day, mon, year, clock, zone))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
