package activitylog

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// MenuKey selects the audit trail on /dashboard.
const MenuKey = "activity_log"

// Entry is one backend API call recorded by the audit trail.
type Entry struct {
	ID          apiclient.FlexInt    `json:"id"`
	UserID      apiclient.FlexInt    `json:"user_id"`
	Name        string               `json:"name"`
	Method      string               `json:"method"`
	Endpoint    string               `json:"endpoint"`
	RequestBody string               `json:"request_body"`
	StatusCode  apiclient.FlexString `json:"status_code"`
	IPAddress   string               `json:"ip_address"`
	CreatedAt   string               `json:"created_at"`
}

// StatusClass is the badge style for the response code.
func (e *Entry) StatusClass() string {
	code, err := strconv.Atoi(e.StatusCode.String())
	switch {
	case err != nil:
		return "neutral"
	case code >= 200 && code < 300:
		return "success"
	case code >= 400 && code < 500:
		return "warning"
	case code >= 500:
		return "danger"
	}
	return "neutral"
}

// MethodClass is the badge style for the HTTP method.
func (e *Entry) MethodClass() string {
	switch strings.ToUpper(e.Method) {
	case "GET":
		return "info"
	case "POST":
		return "success"
	case "PUT":
		return "warning"
	case "DELETE":
		return "danger"
	case "PATCH":
		return "accent"
	}
	return "neutral"
}

func (e *Entry) createdAt() (time.Time, bool) {
	t, err := labreport.ParseDate(e.CreatedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(labreport.WIB), true
}

// When renders the timestamp as dd/mm/yyyy hh:mm:ss in WIB, or the raw
// value when it cannot be parsed.
func (e *Entry) When() string {
	t, ok := e.createdAt()
	if !ok {
		return e.CreatedAt
	}
	return t.Format("02/01/2006 15:04:05")
}

// Matches re-applies the filters to a row, since the backend does not
// honour every one of them.
func (e *Entry) Matches(p Params) bool {
	if s := strings.ToLower(p.Search); s != "" {
		hit := strings.Contains(strings.ToLower(e.Endpoint), s) ||
			strings.Contains(strings.ToLower(e.Method), s) ||
			strings.Contains(strings.ToLower(e.IPAddress), s) ||
			strings.Contains(strings.ToLower(e.Name), s)
		if !hit {
			return false
		}
	}
	if !p.Date.IsZero() {
		t, ok := e.createdAt()
		if !ok || t.Format(pagination.DateLayout) != p.Date.Format(pagination.DateLayout) {
			return false
		}
	}
	return true
}

// Params filters the audit trail.
type Params struct {
	pagination.Params
	Date time.Time
}

func (p Params) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if !p.Date.IsZero() {
		q.Set("created_at", p.Date.Format(pagination.DateLayout))
	}
	return q
}
