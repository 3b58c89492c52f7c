package laborder

import (
	"net/url"
	"strconv"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// ListDateLayout is the date format the bridging endpoint filters on.
const ListDateLayout = "02-01-2006"

// Order status filter values.
const (
	FilterNotOrdered = "0"
	FilterOrdered    = "1"
)

// LabOrder is a patient mapped from the hospital information system to a
// glucose test order.
type LabOrder struct {
	ID             apiclient.FlexInt    `json:"id"`
	PatientID      apiclient.FlexInt    `json:"patient_id"`
	PatientCode    apiclient.FlexString `json:"patient_code"`
	NoRM           apiclient.FlexString `json:"no_rm"`
	NoRegistrasi   apiclient.FlexString `json:"no_registrasi"`
	ReferralDoctor string               `json:"referral_doctor"`
	LabNumber      string               `json:"lab_number"`
	Barcode        apiclient.FlexString `json:"barcode"`
	Room           string               `json:"room"`
	NIK            apiclient.FlexString `json:"nik"`
	Name           string               `json:"name"`
	Gender         string               `json:"gender"`
	Note           string               `json:"note"`
	PlaceOfBirth   string               `json:"place_of_birth"`
	DateOfBirth    string               `json:"date_of_birth"`
	Address        string               `json:"address"`
	NumberPhone    apiclient.FlexString `json:"number_phone"`
	Email          string               `json:"email"`
	Status         string               `json:"status"`
	IsOrder        apiclient.FlexInt    `json:"is_order"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}

func (o *LabOrder) Ordered() bool { return o.IsOrder == 1 }

func (o *LabOrder) OrderLabel() string {
	if o.Ordered() {
		return "Ordered"
	}
	return "Not Ordered"
}

func (o *LabOrder) BirthDateInput() string {
	t, err := labreport.ParseDate(o.DateOfBirth)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Form is the lab-order editor. The patient block is copied from the picked
// patient or typed in for a new one.
type Form struct {
	PatientID      int    `form:"patient_id" json:"-"`
	NoRegistrasi   string `form:"no_registrasi" json:"no_registrasi" validate:"required"`
	ReferralDoctor string `form:"referral_doctor" json:"referral_doctor" validate:"required"`
	LabNumber      string `form:"lab_number" json:"lab_number" validate:"required"`
	Room           string `form:"room" json:"room" validate:"required"`
	NoRM           string `form:"no_rm" json:"no_rm" validate:"required"`
	NIK            string `form:"nik" json:"nik" validate:"required,nik"`
	Name           string `form:"name" json:"name" validate:"required"`
	Gender         string `form:"gender" json:"gender" validate:"required"`
	PlaceOfBirth   string `form:"place_of_birth" json:"place_of_birth" validate:"required"`
	DateOfBirth    string `form:"date_of_birth" json:"date_of_birth" validate:"required"`
	Address        string `form:"address" json:"address" validate:"required"`
	NumberPhone    string `form:"number_phone" json:"number_phone" validate:"omitempty,phoneid"`
	Email          string `form:"email" json:"email" validate:"omitempty,emailbasic"`
	Note           string `form:"note" json:"note"`
}

func FormFrom(o *LabOrder) Form {
	return Form{
		PatientID:      o.PatientID.Int(),
		NoRegistrasi:   o.NoRegistrasi.String(),
		ReferralDoctor: o.ReferralDoctor,
		LabNumber:      o.LabNumber,
		Room:           o.Room,
		NoRM:           o.NoRM.String(),
		NIK:            o.NIK.String(),
		Name:           o.Name,
		Gender:         o.Gender,
		PlaceOfBirth:   o.PlaceOfBirth,
		DateOfBirth:    o.BirthDateInput(),
		Address:        o.Address,
		NumberPhone:    o.NumberPhone.String(),
		Email:          o.Email,
		Note:           o.Note,
	}
}

// patientRef is nil when no existing patient was picked.
func (f *Form) patientRef() *int {
	if f.PatientID <= 0 {
		return nil
	}
	id := f.PatientID
	return &id
}

type createPayload struct {
	*Form
	PatientID    *int `json:"patient_id"`
	IsNewPatient bool `json:"is_new_patient"`
}

type updatePayload struct {
	ID int `json:"id"`
	*Form
	PatientID *int `json:"patient_id"`
}

// ListParams filters the lab-order list.
type ListParams struct {
	pagination.Params
	Dates   pagination.Dates
	IsOrder string
}

func (p ListParams) Searching() bool {
	return p.Search != "" || p.Dates.Active() || p.IsOrder != ""
}

func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	p.Dates.Apply(q, "date", ListDateLayout)
	if p.IsOrder == FilterNotOrdered || p.IsOrder == FilterOrdered {
		q.Set("is_order", p.IsOrder)
	}
	return q
}

// ListResult is one page of lab orders.
type ListResult struct {
	Items    []LabOrder
	Total    int
	Filtered int
}

func (r *ListResult) Count(searching bool) int {
	if searching {
		return r.Filtered
	}
	return r.Total
}
