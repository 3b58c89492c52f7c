// Package labreport turns a glucose test result into the printable
// laboratory report: patient block, result table with interpretation,
// methodology, signatures and a QR code of the medical record number.
package labreport

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTmpl = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// Defaults printed when the result leaves a field empty.
const (
	DefaultMethod = "Enzymatic (Hexokinase)"
	DefaultDevice = "Automated Clinical Analyzer"
	DefaultDoctor = "Self-referred"
	DefaultPhone  = "(061) 7952068"
)

// WIB is Western Indonesia Time, used for every printed timestamp.
var WIB = time.FixedZone("WIB", 7*60*60)

// Record is the subset of a glucose test needed to print it.
type Record struct {
	ID                 int
	LabNumber          string
	PatientCode        string
	PatientName        string
	PatientNIK         string
	PatientNoRM        string
	PatientBarcode     string
	PatientGender      string
	PatientPhone       string
	PatientDateOfBirth string
	ReferralDoctor     string
	DateTime           string
	GlucoseValue       float64
	Unit               string
	DeviceName         string
	Method             string
	Note               string
	UserValidation     string
}

// Hospital is the letterhead printed at the top of the report.
type Hospital struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Report is the fully resolved view model of one printed report.
type Report struct {
	Hospital     Hospital
	QRContent    string
	QRImage      template.URL
	PatientCode  string
	PatientName  string
	Gender       string
	Age          string
	Phone        string
	NIK          string
	TestDate     string
	LabNumber    string
	Doctor       string
	Value        string
	Unit         string
	Reference    string
	Status       Status
	Method       string
	Device       string
	Note         string
	LabDirector  string
	Analyst      string
	PrintedAt    string
	CopyrightYr  int
}

// Builder resolves records into reports.
type Builder struct {
	LabDirector string
	Fallback    Hospital
	Location    *time.Location
}

func (b *Builder) location() *time.Location {
	if b.Location != nil {
		return b.Location
	}
	return WIB
}

// Build resolves defaults, computes age and status and renders the QR code.
// The QR block is left empty when neither the medical record number nor the
// barcode is known.
func (b *Builder) Build(r Record, h Hospital, now time.Time) (*Report, error) {
	now = now.In(b.location())

	hosp := Hospital{
		Name:    firstNonEmpty(h.Name, b.Fallback.Name),
		Address: firstNonEmpty(h.Address, b.Fallback.Address),
		Phone:   firstNonEmpty(h.Phone, b.Fallback.Phone, DefaultPhone),
		Email:   firstNonEmpty(h.Email, b.Fallback.Email, "-"),
	}

	rep := &Report{
		Hospital:    hosp,
		QRContent:   firstNonEmpty(r.PatientNoRM, r.PatientBarcode),
		PatientCode: r.PatientCode,
		PatientName: r.PatientName,
		Gender:      r.PatientGender,
		Age:         AgeString(r.PatientDateOfBirth, now),
		Phone:       r.PatientPhone,
		NIK:         r.PatientNIK,
		TestDate:    "Not Available",
		LabNumber:   r.LabNumber,
		Doctor:      firstNonEmpty(r.ReferralDoctor, DefaultDoctor),
		Value:       formatValue(r.GlucoseValue),
		Unit:        firstNonEmpty(r.Unit, DefaultUnit),
		Reference:   ReferenceRange,
		Status:      Classify(r.GlucoseValue),
		Method:      firstNonEmpty(r.Method, DefaultMethod),
		Device:      firstNonEmpty(r.DeviceName, DefaultDevice),
		Note:        r.Note,
		LabDirector: b.LabDirector,
		Analyst:     r.UserValidation,
		PrintedAt:   FormatDateTime(now),
		CopyrightYr: now.Year(),
	}

	if t, err := ParseDate(r.DateTime); err == nil {
		rep.TestDate = FormatDateTime(t.In(b.location()))
	}

	if rep.QRContent != "" {
		img, err := QRDataURI(rep.QRContent, 160)
		if err != nil {
			return nil, err
		}
		rep.QRImage = img
	}
	return rep, nil
}

// Render writes the report as a standalone HTML document.
func Render(w io.Writer, rep *Report) error {
	if err := reportTmpl.ExecuteTemplate(w, "report.html", rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// RenderBytes renders into memory, for archiving.
func RenderBytes(rep *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, rep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatValue(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
