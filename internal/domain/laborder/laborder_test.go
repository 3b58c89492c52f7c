package laborder

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/domain/result"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

type mockRepo struct {
	orders   map[int]*LabOrder
	lastList ListParams
	created  *Form
	updated  *Form
	listErr  error
	err      error
}

func (m *mockRepo) List(_ context.Context, p ListParams) (*ListResult, error) {
	m.lastList = p
	if m.listErr != nil {
		return nil, m.listErr
	}
	res := &ListResult{Total: 20, Filtered: len(m.orders)}
	for _, o := range m.orders {
		res.Items = append(res.Items, *o)
	}
	return res, nil
}

func (m *mockRepo) Get(_ context.Context, id int) (*LabOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Message: "Data not found"}
	}
	return o, nil
}

func (m *mockRepo) Create(_ context.Context, f *Form) error {
	m.created = f
	return m.err
}

func (m *mockRepo) Update(_ context.Context, _ int, f *Form) error {
	m.updated = f
	return m.err
}

type mockResults struct {
	last   result.HistoryParams
	lastID int
}

func (m *mockResults) ListByLabOrder(_ context.Context, id int, p result.HistoryParams) (*result.ListResult, error) {
	m.last, m.lastID = p, id
	return &result.ListResult{
		Items: []result.GlucoseTest{{LabNumber: "LAB-9", DateTime: "2024-06-15 08:30:00", GlucoseValue: 180}},
		Total: 3, Filtered: 1,
	}, nil
}

type captureRenderer struct {
	name string
	data interface{}
}

func (r *captureRenderer) Render(_ io.Writer, name string, data interface{}, _ echo.Context) error {
	r.name, r.data = name, data
	return nil
}

func sampleOrder() *LabOrder {
	return &LabOrder{
		ID: 9, PatientID: 7, LabNumber: "LAB-9", Barcode: "BC-9", NoRM: "RM-9",
		NoRegistrasi: "REG-9", Name: "Budi", Gender: "Laki-Laki", DateOfBirth: "2000-01-01", IsOrder: 1,
	}
}

func newTestHandler(repo *mockRepo, results *mockResults) (*Handler, *echo.Echo, *captureRenderer) {
	e := echo.New()
	e.Validator = validation.New()
	r := &captureRenderer{}
	e.Renderer = r
	h := NewHandler(NewService(repo, results), session.NewManager(session.Config{}), zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	return h, e, r
}

func validForm() url.Values {
	return url.Values{
		"patient_id":      {"7"},
		"no_registrasi":   {"REG-1"},
		"referral_doctor": {"dr. Sari"},
		"lab_number":      {"LAB-1"},
		"room":            {"Melati"},
		"no_rm":           {"RM-1"},
		"nik":             {"1234567890123456"},
		"name":            {"Budi"},
		"gender":          {"Laki-Laki"},
		"place_of_birth":  {"Medan"},
		"date_of_birth":   {"2000-01-01"},
		"address":         {"Lubuk Pakam"},
	}
}

func post(e *echo.Echo, path, id string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func TestListParams_Query(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	p := ListParams{
		Params:  pagination.Params{Page: 1, Limit: 10},
		Dates:   pagination.Dates{Start: day, End: day.AddDate(0, 0, 2)},
		IsOrder: FilterOrdered,
	}
	got := p.Query().Encode()
	want := "end_date=07-06-2024&is_order=1&limit=10&page=1&start_date=05-06-2024"
	if got != want {
		t.Errorf("Query = %s, want %s", got, want)
	}
	if !p.Searching() {
		t.Error("expected Searching with filters set")
	}
}

func TestAPIRepo_ListTotals(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"success","data":{"mappingPatients":[{"id":1,"is_order":"1","no_registrasi":123}],"pagination":{"total":"50","totalSearch":4}}}`))
	}))
	defer ts.Close()
	repo := NewAPIRepo(apiclient.New(apiclient.Config{BaseURL: ts.URL}))

	res, err := repo.List(context.Background(), ListParams{Params: pagination.Params{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v1/bridging/mapping-patient" {
		t.Errorf("path = %s", gotPath)
	}
	if res.Total != 50 || res.Filtered != 4 || !res.Items[0].Ordered() || res.Items[0].NoRegistrasi != "123" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAPIRepo_CreateMarksNewPatient(t *testing.T) {
	var body map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer ts.Close()
	repo := NewAPIRepo(apiclient.New(apiclient.Config{BaseURL: ts.URL}))

	if err := repo.Create(context.Background(), &Form{LabNumber: "LAB-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["is_new_patient"] != true || body["patient_id"] != nil || body["lab_number"] != "LAB-1" {
		t.Errorf("unexpected body %v", body)
	}

	if err := repo.Create(context.Background(), &Form{PatientID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["is_new_patient"] != false || body["patient_id"] != float64(7) {
		t.Errorf("unexpected body %v", body)
	}
}

func TestPage_ListBackendFailure(t *testing.T) {
	repo := &mockRepo{listErr: &apiclient.Error{Kind: apiclient.KindServer, Message: "down"}}
	h, e, r := newTestHandler(repo, &mockResults{})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=lab-orders", nil), httptest.NewRecorder())

	if err := h.Page(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := r.data.(listView)
	if r.name != "lab_orders" || v.Error == "" || len(v.Items) != 0 {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestPage_ListSummaryWhenFiltering(t *testing.T) {
	repo := &mockRepo{orders: map[int]*LabOrder{9: sampleOrder()}}
	h, e, r := newTestHandler(repo, &mockResults{})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=lab-orders&is_order=1&date=2024-06-15", nil), httptest.NewRecorder())

	if err := h.Page(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := r.data.(listView)
	if v.Summary != "Total Hasil Pencarian: 1 dari 20 data" || v.Pager.Total != 1 {
		t.Errorf("unexpected summary %q total %d", v.Summary, v.Pager.Total)
	}
	if repo.lastList.IsOrder != FilterOrdered || repo.lastList.Dates.Single.IsZero() {
		t.Errorf("filters not passed: %+v", repo.lastList)
	}
}

func TestPage_DetailDefaultsLabNumber(t *testing.T) {
	results := &mockResults{}
	h, e, r := newTestHandler(&mockRepo{orders: map[int]*LabOrder{9: sampleOrder()}}, results)
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=lab-orders&id=9", nil), httptest.NewRecorder())

	if err := h.Page(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := r.data.(detailView)
	if r.name != "lab_order_detail" || v.Order.LabNumber != "LAB-9" {
		t.Fatalf("unexpected view %s", r.name)
	}
	if results.last.LabNumber != "LAB-9" || results.lastID != 9 {
		t.Errorf("expected lab number default, got %+v", results.last)
	}
	if v.Chart == "" || v.Barcode == "" || v.Age != "24 Tahun 5 Bulan 14 Hari" {
		t.Errorf("unexpected detail %q %q", v.Age, v.Barcode)
	}
}

func TestPage_DetailNotFound(t *testing.T) {
	h, e, _ := newTestHandler(&mockRepo{orders: map[int]*LabOrder{}}, &mockResults{})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=lab-orders&id=4", nil), httptest.NewRecorder())

	if err := h.Page(c); err == nil {
		t.Error("expected not found error")
	}
}

func TestCreate_Success(t *testing.T) {
	repo := &mockRepo{}
	h, e, _ := newTestHandler(repo, &mockResults{})
	c, rec := post(e, "/dashboard/lab-orders", "", validForm())

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != listPath {
		t.Errorf("expected redirect, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if repo.created == nil || repo.created.PatientID != 7 {
		t.Errorf("unexpected created form %+v", repo.created)
	}
}

func TestCreate_RequiredFields(t *testing.T) {
	repo := &mockRepo{}
	h, e, r := newTestHandler(repo, &mockResults{})
	form := validForm()
	form.Del("room")
	form.Set("referral_doctor", "  ")
	c, rec := post(e, "/dashboard/lab-orders", "", form)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	v := r.data.(formView)
	if v.Errors["room"] == "" || v.Errors["referral_doctor"] == "" || repo.created != nil {
		t.Errorf("unexpected errors %v", v.Errors)
	}
}

func TestUpdate_BackendErrorFlashes(t *testing.T) {
	repo := &mockRepo{err: &apiclient.Error{Kind: apiclient.KindServer, Message: "Lab number already used"}}
	h, e, _ := newTestHandler(repo, &mockResults{})
	c, rec := post(e, "/dashboard/lab-orders/9", "9", validForm())

	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || repo.updated == nil {
		t.Errorf("expected redirect after backend error, got %d", rec.Code)
	}
}
