package labreport

import (
	"fmt"
	"strings"
	"time"
)

// Age is a calendar age broken into years, months and days.
type Age struct {
	Years  int
	Months int
	Days   int
}

// String renders the age the way it is printed on reports.
func (a Age) String() string {
	return fmt.Sprintf("%d Tahun %d Bulan %d Hari", a.Years, a.Months, a.Days)
}

// AgeAt computes the age on now of someone born on birth. A negative day
// difference borrows the length of the month before now's month; a negative
// month difference borrows a year. Birth dates after now give a zero age.
func AgeAt(birth, now time.Time) Age {
	birth = dateOnly(birth)
	now = dateOnly(now)
	if birth.After(now) {
		return Age{}
	}

	years := now.Year() - birth.Year()
	months := int(now.Month()) - int(birth.Month())
	days := now.Day() - birth.Day()

	if days < 0 {
		months--
		// Day 0 of now's month is the last day of the previous month.
		prevLen := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, time.UTC).Day()
		days = now.Day() + prevLen - min(birth.Day(), prevLen)
	}
	if months < 0 {
		years--
		months += 12
	}
	return Age{Years: years, Months: months, Days: days}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"02-01-2006",
}

// ParseDate accepts the date formats the backend is known to send. Values
// without a zone are read as WIB.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, WIB); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// AgeString parses birth and formats the age at now, or returns "-" when
// the birth date is missing or malformed.
func AgeString(birth string, now time.Time) string {
	t, err := ParseDate(birth)
	if err != nil {
		return "-"
	}
	return AgeAt(t.In(WIB), now.In(WIB)).String()
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDateTime renders t as "02 Januari 2006 15:04".
func FormatDateTime(t time.Time) string {
	return fmt.Sprintf("%02d %s %d %02d:%02d", t.Day(), indonesianMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// FormatDate renders t as "02 Januari 2006".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// MonthName returns the Indonesian name of month m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return indonesianMonths[m-1]
}
