package pagination

import (
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// DateLayout is the layout of the date inputs on every filter form.
const DateLayout = "2006-01-02"

// Dates is a list's date filter: either one day or an inclusive range.
// Zero values mean unset.
type Dates struct {
	Single time.Time
	Start  time.Time
	End    time.Time
}

// DatesFromContext reads date, start_date and end_date. Malformed values
// are ignored.
func DatesFromContext(c echo.Context) Dates {
	return Dates{
		Single: parseDay(c.QueryParam("date")),
		Start:  parseDay(c.QueryParam("start_date")),
		End:    parseDay(c.QueryParam("end_date")),
	}
}

func parseDay(s string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsRange reports whether both range ends are set. A half-open range is
// not sent at all.
func (d Dates) IsRange() bool {
	return !d.Start.IsZero() && !d.End.IsZero()
}

// Active reports whether any date filter applies.
func (d Dates) Active() bool {
	return !d.Single.IsZero() || d.IsRange()
}

// Apply writes the filter into q. A single day wins over a range. The
// backend names the single-day parameter differently per endpoint, and the
// lab-order list wants DD-MM-YYYY, so both are parameters.
func (d Dates) Apply(q url.Values, singleKey, layout string) {
	switch {
	case !d.Single.IsZero():
		q.Set(singleKey, d.Single.Format(layout))
	case d.IsRange():
		q.Set("start_date", d.Start.Format(layout))
		q.Set("end_date", d.End.Format(layout))
	}
}

// Form returns the filter as it appears in the page's own query string.
func (d Dates) Form() map[string]string {
	out := map[string]string{"date": "", "start_date": "", "end_date": ""}
	if !d.Single.IsZero() {
		out["date"] = d.Single.Format(DateLayout)
	}
	if !d.Start.IsZero() {
		out["start_date"] = d.Start.Format(DateLayout)
	}
	if !d.End.IsZero() {
		out["end_date"] = d.End.Format(DateLayout)
	}
	return out
}
