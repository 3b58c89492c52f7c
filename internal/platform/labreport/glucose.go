package labreport

// Glucose reference limits in mg/dL.
const (
	GlucoseLow  = 70.0
	GlucoseHigh = 140.0

	ReferenceRange = "70 - 140 mg/dL"
	DefaultUnit    = "mg/dL"
)

// Status is the interpretation printed next to a glucose value.
type Status string

const (
	StatusLow    Status = "LOW"
	StatusNormal Status = "NORMAL"
	StatusHigh   Status = "HIGH"
)

// Classify interprets a glucose value: below 70 is LOW, above 140 is HIGH,
// the bounds themselves are NORMAL.
func Classify(v float64) Status {
	switch {
	case v < GlucoseLow:
		return StatusLow
	case v > GlucoseHigh:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// CSSClass returns the style hook used by the report and result tables.
func (s Status) CSSClass() string {
	switch s {
	case StatusLow:
		return "status-low"
	case StatusHigh:
		return "status-high"
	}
	return "status-normal"
}
