package account

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

type mockRepo struct {
	accounts map[int]*Account
	roles    []Role
	rolesErr error
	roleErr  error
	created  *CreateForm
	updated  *EditForm
	deleted  int
	err      error
}

func (m *mockRepo) List(context.Context, pagination.Params) ([]Account, int, error) {
	var out []Account
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, len(out), m.err
}

func (m *mockRepo) Get(_ context.Context, id int) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, &apiclient.Error{Kind: apiclient.KindNotFound, Message: "User not found"}
	}
	return a, nil
}

func (m *mockRepo) Roles(context.Context) ([]Role, error) { return m.roles, m.rolesErr }

func (m *mockRepo) Role(_ context.Context, id int) (*Role, error) {
	if m.roleErr != nil {
		return nil, m.roleErr
	}
	for i := range m.roles {
		if m.roles[i].ID.Int() == id {
			return &m.roles[i], nil
		}
	}
	return &Role{}, nil
}

func (m *mockRepo) Create(_ context.Context, f *CreateForm) error {
	m.created = f
	return m.err
}

func (m *mockRepo) Update(_ context.Context, _ int, f *EditForm) error {
	m.updated = f
	return m.err
}

func (m *mockRepo) Delete(_ context.Context, id int) error {
	m.deleted = id
	return m.err
}

type captureRenderer struct {
	name string
	data interface{}
}

func (r *captureRenderer) Render(_ io.Writer, name string, data interface{}, _ echo.Context) error {
	r.name, r.data = name, data
	return nil
}

func newRepo() *mockRepo {
	return &mockRepo{
		accounts: map[int]*Account{
			3: {User: User{ID: 3, Name: "Analis", Email: "analis@rs.id"}, Roles: []Role{{ID: 2, Name: "Analyst"}}},
		},
		roles: []Role{{ID: 1, Name: "Admin"}, {ID: 2, Name: "Analyst"}},
	}
}

func newTestHandler(repo *mockRepo) (*Handler, *echo.Echo, *captureRenderer) {
	e := echo.New()
	e.Validator = validation.New()
	r := &captureRenderer{}
	e.Renderer = r
	return NewHandler(NewService(repo), session.NewManager(session.Config{}), zerolog.Nop()), e, r
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

func TestAccount_Roles(t *testing.T) {
	a := Account{}
	if a.RoleName() != "No Role" || a.RoleID() != "" {
		t.Errorf("unexpected defaults %q %q", a.RoleName(), a.RoleID())
	}
	a.Roles = []Role{{ID: 4, Name: "Doctor"}}
	if a.RoleName() != "Doctor" || a.RoleID() != "4" {
		t.Errorf("unexpected role %q %q", a.RoleName(), a.RoleID())
	}
}

func TestService_RoleName(t *testing.T) {
	svc := NewService(newRepo())
	if name, _ := svc.RoleName(context.Background(), 2); name != "Analyst" {
		t.Errorf("RoleName = %q", name)
	}
	if name, _ := svc.RoleName(context.Background(), 0); name != DefaultRoleName {
		t.Errorf("RoleName(0) = %q", name)
	}
	repo := newRepo()
	repo.roleErr = errors.New("boom")
	name, err := NewService(repo).RoleName(context.Background(), 2)
	if err == nil || name != DefaultRoleName {
		t.Errorf("expected fallback with error, got %q %v", name, err)
	}
}

func TestList(t *testing.T) {
	h, e, r := newTestHandler(newRepo())
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=account_setting", nil), httptest.NewRecorder())
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := r.data.(listView)
	if r.name != "accounts" || len(v.Items) != 1 || v.Pager.Total != 1 {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestEditForm_Prefills(t *testing.T) {
	h, e, r := newTestHandler(newRepo())
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=edit_account_setting&id=3", nil), httptest.NewRecorder())
	if err := h.EditForm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := r.data.(formView)
	f := v.Form.(EditForm)
	if !v.Edit || f.RoleID != "2" || f.Email != "analis@rs.id" || f.Password != "" || len(v.Roles) != 2 {
		t.Errorf("unexpected form %+v", v)
	}
}

func TestEditForm_UnknownUser(t *testing.T) {
	h, e, _ := newTestHandler(newRepo())
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?menu=edit_account_setting&id=99", nil), rec)
	if err := h.EditForm(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != listPath {
		t.Errorf("expected redirect to list, got %d", rec.Code)
	}
}

func TestCreate_ShortPassword(t *testing.T) {
	repo := newRepo()
	h, e, r := newTestHandler(repo)
	c, rec := post(e, "/dashboard/accounts", "", url.Values{
		"name": {"Baru"}, "email": {"baru@rs.id"}, "password": {"123"}, "role_id": {"1"},
	})
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || repo.created != nil {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	v := r.data.(formView)
	if v.Errors["password"] == "" || v.Form.(CreateForm).Password != "" {
		t.Errorf("password must fail and not be echoed: %+v", v)
	}
}

func TestCreate_Success(t *testing.T) {
	repo := newRepo()
	h, e, _ := newTestHandler(repo)
	c, rec := post(e, "/dashboard/accounts", "", url.Values{
		"name": {"Baru"}, "email": {"baru@rs.id"}, "password": {" secret "}, "role_id": {"1"},
	})
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || repo.created == nil || repo.created.Password != " secret " {
		t.Errorf("expected untrimmed password to be sent, got %+v", repo.created)
	}
}

func TestUpdate_BlankPasswordOmitted(t *testing.T) {
	repo := newRepo()
	h, e, _ := newTestHandler(repo)
	c, rec := post(e, "/dashboard/accounts/3", "3", url.Values{
		"name": {"Analis"}, "email": {"analis@rs.id"}, "password": {"   "}, "role_id": {"2"},
	})
	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || repo.updated == nil {
		t.Fatalf("expected success, got %d", rec.Code)
	}
	body, _ := json.Marshal(repo.updated)
	if strings.Contains(string(body), "password") {
		t.Errorf("password must be omitted, got %s", body)
	}
}

func TestDelete_BackendMessage(t *testing.T) {
	repo := newRepo()
	repo.err = &apiclient.Error{Kind: apiclient.KindServer, Message: "Cannot delete yourself"}
	h, e, _ := newTestHandler(repo)
	c, rec := post(e, "/dashboard/accounts/3/delete", "3", url.Values{})
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || repo.deleted != 3 {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
}

func TestAPIRepo_List(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"users":[{"user":{"id":1,"name":"Admin","email":"a@rs.id"},"roles":[{"id":1,"name":"Admin"}],"permissions":[]}],"pagination":{"totalUsers":1}}}`))
	}))
	defer ts.Close()
	repo := NewAPIRepo(apiclient.New(apiclient.Config{BaseURL: ts.URL}))
	items, total, err := repo.List(context.Background(), pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].User.Name != "Admin" || items[0].RoleName() != "Admin" {
		t.Errorf("unexpected result %d %+v", total, items)
	}
}
