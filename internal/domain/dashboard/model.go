package dashboard

import (
	"strings"
	"time"

	"github.com/fanscosa/cosa-web/internal/domain/setting"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

// FirstYear is the first year offered in the monthly chart selector.
const FirstYear = 2024

// Piece names, reported in Snapshot.Missing when a fetch fails.
const (
	PiecePatients    = "patients"
	PieceResults     = "results"
	PieceValidated   = "validated"
	PieceUnvalidated = "unvalidated"
	PieceMonthly     = "monthly"
	PieceDevices     = "devices"
	PieceSetting     = "setting"
)

// MonthTotal is one row of counts_total_results_month.
type MonthTotal struct {
	Month apiclient.FlexInt `json:"month"`
	Total apiclient.FlexInt `json:"total"`
}

// DeviceStatus is the last known connection state of one analyzer.
type DeviceStatus struct {
	ID         apiclient.FlexInt `json:"id"`
	DeviceID   string            `json:"deviceId"`
	Timestamp  string            `json:"timestamp"`
	Status     string            `json:"status"`
	Details    string            `json:"details"`
	DeviceType string            `json:"deviceType"`
}

func (d DeviceStatus) Connected() bool {
	return strings.EqualFold(d.Status, "connected")
}

// Counts are the four headline numbers.
type Counts struct {
	Patients    int `json:"patients"`
	Results     int `json:"results"`
	Validated   int `json:"validated"`
	Unvalidated int `json:"unvalidated"`
}

// Snapshot is everything the overview shows at one instant. Pieces that
// could not be fetched keep their zero value and are listed in Missing.
type Snapshot struct {
	Year        int              `json:"year"`
	Counts      Counts           `json:"counts"`
	Monthly     [12]int          `json:"monthly"`
	Devices     []DeviceStatus   `json:"devices"`
	Setting     *setting.Setting `json:"setting,omitempty"`
	Missing     []string         `json:"missing,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Has reports whether piece was fetched.
func (s *Snapshot) Has(piece string) bool {
	for _, m := range s.Missing {
		if m == piece {
			return false
		}
	}
	return true
}

// MonthlySeries spreads backend rows over twelve months. Unknown months are
// ignored and absent months stay 0.
func MonthlySeries(rows []MonthTotal) [12]int {
	var out [12]int
	for _, r := range rows {
		m := r.Month.Int()
		if m < 1 || m > 12 {
			continue
		}
		out[m-1] = r.Total.Int()
	}
	return out
}

// Years lists the selectable chart years, FirstYear through now's year.
func Years(now time.Time) []int {
	var ys []int
	for y := FirstYear; y <= now.Year(); y++ {
		ys = append(ys, y)
	}
	if len(ys) == 0 {
		ys = append(ys, now.Year())
	}
	return ys
}

// ClampYear returns year when it is selectable and now's year otherwise.
func ClampYear(year int, now time.Time) int {
	if year < FirstYear || year > now.Year() {
		return now.Year()
	}
	return year
}
