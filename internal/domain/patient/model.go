package patient

import (
	"time"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
)

// Genders offered on the patient forms.
var Genders = []string{"Laki-Laki", "Perempuan"}

// Patient is a registered patient as the backend returns it.
type Patient struct {
	ID           apiclient.FlexInt    `json:"id"`
	PatientCode  apiclient.FlexString `json:"patient_code"`
	Barcode      apiclient.FlexString `json:"barcode"`
	NIK          apiclient.FlexString `json:"nik"`
	NoRM         apiclient.FlexString `json:"no_rm"`
	Name         string               `json:"name"`
	Gender       string               `json:"gender"`
	PlaceOfBirth string               `json:"place_of_birth"`
	DateOfBirth  string               `json:"date_of_birth"`
	Address      string               `json:"address"`
	NumberPhone  apiclient.FlexString `json:"number_phone"`
	Email        string               `json:"email"`
	CreatedAt    string               `json:"created_at,omitempty"`
	UpdatedAt    string               `json:"updated_at,omitempty"`
}

// BirthDateInput is the birth date in the layout of a date input, or ""
// when unknown.
func (p *Patient) BirthDateInput() string {
	t, err := labreport.ParseDate(p.DateOfBirth)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Age is the calendar age at now, "-" when the birth date is unknown.
func (p *Patient) Age(now time.Time) string {
	return labreport.AgeString(p.DateOfBirth, now)
}

// Form holds the editable patient fields. Phone and email are optional but
// must be well formed when given.
type Form struct {
	NIK          string `form:"nik" json:"nik" validate:"required,nik"`
	Name         string `form:"name" json:"name" validate:"required"`
	Gender       string `form:"gender" json:"gender" validate:"required"`
	PlaceOfBirth string `form:"place_of_birth" json:"place_of_birth" validate:"required"`
	DateOfBirth  string `form:"date_of_birth" json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Address      string `form:"address" json:"address" validate:"required"`
	NumberPhone  string `form:"number_phone" json:"number_phone" validate:"omitempty,phoneid"`
	Email        string `form:"email" json:"email" validate:"omitempty,emailbasic"`
}

// FormFrom prefills the edit form.
func FormFrom(p *Patient) Form {
	return Form{
		NIK:          p.NIK.String(),
		Name:         p.Name,
		Gender:       p.Gender,
		PlaceOfBirth: p.PlaceOfBirth,
		DateOfBirth:  p.BirthDateInput(),
		Address:      p.Address,
		NumberPhone:  p.NumberPhone.String(),
		Email:        p.Email,
	}
}

// SearchHit is the compact patient shape returned to the lab-order form.
type SearchHit struct {
	ID           int    `json:"id"`
	NoRM         string `json:"no_rm"`
	NIK          string `json:"nik"`
	Name         string `json:"name"`
	Gender       string `json:"gender"`
	PlaceOfBirth string `json:"place_of_birth"`
	DateOfBirth  string `json:"date_of_birth"`
	Address      string `json:"address"`
	NumberPhone  string `json:"number_phone"`
	Email        string `json:"email"`
}

func (p *Patient) Hit() SearchHit {
	return SearchHit{
		ID:           p.ID.Int(),
		NoRM:         p.NoRM.String(),
		NIK:          p.NIK.String(),
		Name:         p.Name,
		Gender:       p.Gender,
		PlaceOfBirth: p.PlaceOfBirth,
		DateOfBirth:  p.BirthDateInput(),
		Address:      p.Address,
		NumberPhone:  p.NumberPhone.String(),
		Email:        p.Email,
	}
}
