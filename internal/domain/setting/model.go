package setting

import (
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
)

// Setting is the hospital profile printed on reports and shown on the
// dashboard map.
type Setting struct {
	ID        apiclient.FlexInt   `json:"id"`
	Name      string              `json:"name"`
	Address   string              `json:"address"`
	Email     string              `json:"email"`
	Phone     string              `json:"phone"`
	Maps      string              `json:"maps"`
	Lat       apiclient.FlexFloat `json:"lat"`
	Lng       apiclient.FlexFloat `json:"lng"`
	CreatedAt string              `json:"created_at,omitempty"`
	UpdatedAt string              `json:"updated_at,omitempty"`
}

// Hospital converts the setting into a report header.
func (s *Setting) Hospital() labreport.Hospital {
	if s == nil {
		return labreport.Hospital{}
	}
	return labreport.Hospital{Name: s.Name, Address: s.Address, Phone: s.Phone, Email: s.Email}
}

// HasLocation reports whether coordinates are known.
func (s *Setting) HasLocation() bool {
	return s != nil && (s.Lat != 0 || s.Lng != 0)
}

// Form is the editable part of the setting.
type Form struct {
	Name    string `form:"name" json:"name" validate:"required"`
	Address string `form:"address" json:"address" validate:"required"`
	Email   string `form:"email" json:"email" validate:"required,emailbasic"`
	Phone   string `form:"phone" json:"phone" validate:"required"`
	Maps    string `form:"maps" json:"maps" validate:"required"`
}

// FormFrom prefills the edit form.
func FormFrom(s *Setting) Form {
	if s == nil {
		return Form{}
	}
	return Form{Name: s.Name, Address: s.Address, Email: s.Email, Phone: s.Phone, Maps: s.Maps}
}

// updatePayload is the body of PUT /api/setting/{id}.
type updatePayload struct {
	ID int `json:"id"`
	Form
}
