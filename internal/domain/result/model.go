package result

import (
	"net/url"
	"strconv"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// GlucoseTest is one analyzer measurement with the patient fields the
// backend joins onto it.
type GlucoseTest struct {
	ID                    apiclient.FlexInt    `json:"id"`
	PatientID             apiclient.FlexInt    `json:"patient_id"`
	PatientCode           apiclient.FlexString `json:"patient_code"`
	LabNumber             string               `json:"lab_number"`
	PatientName           string               `json:"patient_name"`
	DateTime              string               `json:"date_time"`
	GlucoseValue          apiclient.FlexFloat  `json:"glucos_value"`
	Unit                  string               `json:"unit"`
	DeviceName            string               `json:"device_name"`
	Method                string               `json:"metode"`
	IsValidation          apiclient.FlexInt    `json:"is_validation"`
	UserValidation        string               `json:"user_validation"`
	SampleID              apiclient.FlexString `json:"sample_id"`
	Note                  string               `json:"note"`
	Gender                string               `json:"gender"`
	PatientNIK            apiclient.FlexString `json:"patient_nik"`
	PatientNoRM           apiclient.FlexString `json:"patient_no_rm"`
	PatientReferralDoctor string               `json:"patient_referral_doctor"`
	PatientDateOfBirth    string               `json:"patient_date_of_birth"`
	PatientGender         string               `json:"patient_gender"`
	PatientNumberPhone    apiclient.FlexString `json:"patient_number_phone"`
	PatientBarcode        apiclient.FlexString `json:"patient_barcode"`
	CreatedAt             string               `json:"created_at"`
	UpdatedAt             string               `json:"updated_at"`
}

// Validated reports whether the result has been signed off. Validation is
// one way: there is no transition back to unvalidated.
func (g *GlucoseTest) Validated() bool {
	return g.IsValidation.Int() == 1
}

func (g *GlucoseTest) Status() labreport.Status {
	return labreport.Classify(g.GlucoseValue.Float64())
}

// Record converts the row into the printable report input.
func (g *GlucoseTest) Record() labreport.Record {
	gender := g.PatientGender
	if gender == "" {
		gender = g.Gender
	}
	return labreport.Record{
		ID:                 g.ID.Int(),
		LabNumber:          g.LabNumber,
		PatientCode:        g.PatientCode.String(),
		PatientName:        g.PatientName,
		PatientNIK:         g.PatientNIK.String(),
		PatientNoRM:        g.PatientNoRM.String(),
		PatientBarcode:     g.PatientBarcode.String(),
		PatientGender:      gender,
		PatientPhone:       g.PatientNumberPhone.String(),
		PatientDateOfBirth: g.PatientDateOfBirth,
		ReferralDoctor:     g.PatientReferralDoctor,
		DateTime:           g.DateTime,
		GlucoseValue:       g.GlucoseValue.Float64(),
		Unit:               g.Unit,
		DeviceName:         g.DeviceName,
		Method:             g.Method,
		Note:               g.Note,
		UserValidation:     g.UserValidation,
	}
}

// Validation filter values.
const (
	FilterUnvalidated = "0"
	FilterValidated   = "1"
)

// ListParams filters the results list.
type ListParams struct {
	pagination.Params
	Dates      pagination.Dates
	Validation string
}

// Searching reports whether any filter narrows the list.
func (p ListParams) Searching() bool {
	return p.Search != "" || p.Dates.Active() || p.Validation != ""
}

// Query encodes the params for GET /api/test-glucosa.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	p.Dates.Apply(q, "date_time", pagination.DateLayout)
	if p.Validation == FilterUnvalidated || p.Validation == FilterValidated {
		q.Set("is_validation", p.Validation)
	}
	return q
}

// HistoryParams filters the results of one patient or one lab order.
type HistoryParams struct {
	pagination.Params
	LabNumber string
	Dates     pagination.Dates
}

func (p HistoryParams) Searching() bool {
	return p.LabNumber != "" || p.Dates.Active()
}

func (p HistoryParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.LabNumber != "" {
		q.Set("lab_number", p.LabNumber)
	}
	p.Dates.Apply(q, "date", pagination.DateLayout)
	return q
}

// ListResult is one page of results. Total counts every row; Filtered counts
// the rows matching the filters.
type ListResult struct {
	Items    []GlucoseTest
	Total    int
	Filtered int
}

// Count is the number the pager should use.
func (r *ListResult) Count(searching bool) int {
	if searching {
		return r.Filtered
	}
	return r.Total
}

// Notifications are results that arrived since they were last opened.
type Notifications struct {
	Total    apiclient.FlexInt `json:"total"`
	DataList []GlucoseTest     `json:"dataList"`
}
