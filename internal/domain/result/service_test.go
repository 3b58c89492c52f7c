package result

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/domain/setting"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/blobstore"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/internal/platform/websocket"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// -- Mock Repository --

type mockRepo struct {
	mu            sync.Mutex
	rows          map[int]*GlucoseTest
	validateCalls int
	validateWho   string
	validateErr   error
	seen          []int
	lastParams    ListParams
	newTotal      int
}

func newMockRepo(rows ...GlucoseTest) *mockRepo {
	m := &mockRepo{rows: map[int]*GlucoseTest{}}
	for i := range rows {
		r := rows[i]
		m.rows[r.ID.Int()] = &r
	}
	return m
}

func (m *mockRepo) List(_ context.Context, p ListParams) (*ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastParams = p
	var items []GlucoseTest
	for _, r := range m.rows {
		if p.Search == "" || strings.Contains(r.LabNumber, p.Search) {
			items = append(items, *r)
		}
	}
	return &ListResult{Items: items, Total: len(m.rows), Filtered: len(items)}, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID int, _ HistoryParams) (*ListResult, error) {
	var items []GlucoseTest
	for _, r := range m.rows {
		if r.PatientID.Int() == patientID {
			items = append(items, *r)
		}
	}
	return &ListResult{Items: items, Total: len(items), Filtered: len(items)}, nil
}

func (m *mockRepo) ListByLabOrder(_ context.Context, _ int, _ HistoryParams) (*ListResult, error) {
	return &ListResult{}, nil
}

func (m *mockRepo) Validate(_ context.Context, id int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validateCalls++
	if m.validateErr != nil {
		return "", m.validateErr
	}
	m.rows[id].IsValidation = 1
	return m.validateWho, nil
}

func (m *mockRepo) NewResults(_ context.Context) (*Notifications, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Notifications{Total: apiclient.FlexInt(m.newTotal)}, nil
}

func (m *mockRepo) MarkSeen(_ context.Context, id int) error {
	m.seen = append(m.seen, id)
	return nil
}

type mockSettings struct {
	s   *setting.Setting
	err error
}

func (m *mockSettings) Get(_ context.Context) (*setting.Setting, error) {
	return m.s, m.err
}

type recordingPublisher struct {
	events []websocket.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev websocket.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func sampleRows() []GlucoseTest {
	return []GlucoseTest{
		{ID: 1, PatientID: 42, LabNumber: "LAB-0001", PatientName: "Budi", GlucoseValue: 152, PatientNoRM: "RM-1"},
		{ID: 2, PatientID: 42, LabNumber: "LAB-0002", PatientName: "Budi", GlucoseValue: 90, IsValidation: 1, UserValidation: "Analis"},
	}
}

func newTestService(repo *mockRepo, settings SettingSource) *Service {
	if settings == nil {
		settings = &mockSettings{s: &setting.Setting{Name: "RSUD Amri Tambunan"}}
	}
	builder := &labreport.Builder{LabDirector: "Dr. Andi", Fallback: labreport.Hospital{Name: "Fallback Hospital"}}
	svc := NewService(repo, settings, builder, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, labreport.WIB) }
	return svc
}

// -- Service Tests --

func TestFind(t *testing.T) {
	svc := newTestService(newMockRepo(sampleRows()...), nil)
	row, err := svc.Find(context.Background(), 2, "LAB-0002")
	if err != nil || row.LabNumber != "LAB-0002" {
		t.Fatalf("Find = %+v, %v", row, err)
	}
	if _, err := svc.Find(context.Background(), 9, "LAB-0009"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// pagedRepo serves List like the backend does: one page at a time.
type pagedRepo struct {
	*mockRepo
	all   []GlucoseTest
	pages []int
}

func (r *pagedRepo) List(_ context.Context, p ListParams) (*ListResult, error) {
	r.pages = append(r.pages, p.Page)
	start := p.Offset()
	if start > len(r.all) {
		start = len(r.all)
	}
	end := start + p.Limit
	if end > len(r.all) {
		end = len(r.all)
	}
	return &ListResult{Items: r.all[start:end], Total: len(r.all), Filtered: len(r.all)}, nil
}

func newPagedRepo(n int) *pagedRepo {
	r := &pagedRepo{mockRepo: newMockRepo()}
	for i := 1; i <= n; i++ {
		r.all = append(r.all, GlucoseTest{ID: apiclient.FlexInt(i), LabNumber: "LAB-0001"})
	}
	return r
}

func TestFind_PagesPastFirstPage(t *testing.T) {
	repo := newPagedRepo(150)
	svc := NewService(repo, &mockSettings{}, &labreport.Builder{}, zerolog.Nop())

	row, err := svc.Find(context.Background(), 140, "LAB-0001")
	if err != nil || row.ID.Int() != 140 {
		t.Fatalf("Find = %+v, %v", row, err)
	}
	if len(repo.pages) != 2 || repo.pages[1] != 2 {
		t.Errorf("expected pages [1 2], got %v", repo.pages)
	}
}

func TestFind_StopsAtLastPage(t *testing.T) {
	repo := newPagedRepo(150)
	svc := NewService(repo, &mockSettings{}, &labreport.Builder{}, zerolog.Nop())

	if _, err := svc.Find(context.Background(), 999, "LAB-0001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.pages) != 2 {
		t.Errorf("expected 2 page requests, got %v", repo.pages)
	}
}

func TestFind_BoundedPaging(t *testing.T) {
	repo := newPagedRepo(maxFindPages*pagination.MaxLimit + 50)
	svc := NewService(repo, &mockSettings{}, &labreport.Builder{}, zerolog.Nop())

	if _, err := svc.Find(context.Background(), -1, "LAB-0001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.pages) != maxFindPages {
		t.Errorf("expected %d page requests, got %d", maxFindPages, len(repo.pages))
	}
}

func TestNotifications_PublishesWhenCountGrows(t *testing.T) {
	repo := newMockRepo()
	pub := &recordingPublisher{}
	svc := newTestService(repo, nil)
	svc.SetPublisher(pub)
	ctx := context.Background()

	repo.newTotal = 2
	if _, err := svc.Notifications(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("first observation should not publish, got %d events", len(pub.events))
	}

	_, _ = svc.Notifications(ctx)
	repo.newTotal = 1
	_, _ = svc.Notifications(ctx)
	if len(pub.events) != 0 {
		t.Fatalf("unchanged or smaller count should not publish, got %d events", len(pub.events))
	}

	repo.newTotal = 4
	n, _ := svc.Notifications(ctx)
	if n.Total.Int() != 4 {
		t.Errorf("total = %d", n.Total.Int())
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != websocket.EventNewResults || ev.Topic != websocket.TopicDashboard || ev.Message != "4" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestValidate_Success(t *testing.T) {
	repo := newMockRepo(sampleRows()...)
	repo.validateWho = "Analis Satu"
	pub := &recordingPublisher{}
	svc := newTestService(repo, nil)
	svc.SetPublisher(pub)

	row, err := svc.Validate(context.Background(), 1, "LAB-0001", "Session User")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.Validated() || row.UserValidation != "Analis Satu" {
		t.Errorf("unexpected row %+v", row)
	}
	if len(pub.events) != 1 || pub.events[0].Type != websocket.EventResultValidated || pub.events[0].Message != "LAB-0001" {
		t.Errorf("unexpected events %+v", pub.events)
	}
}

func TestValidate_FallsBackToSessionUser(t *testing.T) {
	repo := newMockRepo(sampleRows()...)
	row, err := newTestService(repo, nil).Validate(context.Background(), 1, "LAB-0001", "Session User")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.UserValidation != "Session User" {
		t.Errorf("UserValidation = %q", row.UserValidation)
	}
}

func TestValidate_AlreadyValidatedIsNotResent(t *testing.T) {
	repo := newMockRepo(sampleRows()...)
	_, err := newTestService(repo, nil).Validate(context.Background(), 2, "LAB-0002", "x")
	if !errors.Is(err, ErrAlreadyValidated) {
		t.Fatalf("expected ErrAlreadyValidated, got %v", err)
	}
	if repo.validateCalls != 0 {
		t.Errorf("expected no backend call, got %d", repo.validateCalls)
	}
}

func TestValidate_Twice(t *testing.T) {
	repo := newMockRepo(sampleRows()...)
	svc := newTestService(repo, nil)
	if _, err := svc.Validate(context.Background(), 1, "LAB-0001", "x"); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if _, err := svc.Validate(context.Background(), 1, "LAB-0001", "x"); !errors.Is(err, ErrAlreadyValidated) {
		t.Fatalf("second validate: expected ErrAlreadyValidated, got %v", err)
	}
	if repo.validateCalls != 1 {
		t.Errorf("expected exactly one backend call, got %d", repo.validateCalls)
	}
}

func TestValidate_BackendError(t *testing.T) {
	repo := newMockRepo(sampleRows()...)
	repo.validateErr = errors.New("boom")
	if _, err := newTestService(repo, nil).Validate(context.Background(), 1, "LAB-0001", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPrint_RendersAndArchives(t *testing.T) {
	store := blobstore.NewInMemoryBlobStore()
	svc := newTestService(newMockRepo(sampleRows()...), nil)
	svc.SetArchiver(labreport.NewArchiver(store))

	html, err := svc.Print(context.Background(), 1, "LAB-0001", "Analis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(html)
	for _, want := range []string{"LAB-0001", "RSUD Amri Tambunan", "HIGH", "data:image/png;base64,"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	items, total, err := store.ListByPatient(context.Background(), "42", 10, 0)
	if err != nil || total != 1 || items[0].LabNumber != "LAB-0001" {
		t.Errorf("expected archived report, got %d %v", total, err)
	}
}

func TestPrint_SettingFailureUsesFallback(t *testing.T) {
	svc := newTestService(newMockRepo(sampleRows()...), &mockSettings{err: errors.New("down")})
	html, err := svc.Print(context.Background(), 2, "LAB-0002", "Analis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(html), "Fallback Hospital") {
		t.Error("expected fallback letterhead")
	}
}

func TestListParams_Query(t *testing.T) {
	p := ListParams{Validation: "2"}
	p.Page, p.Limit = 1, 10
	if q := p.Query(); q.Get("is_validation") != "" || q.Get("search") != "" {
		t.Errorf("unexpected query %v", q)
	}
	if p.Searching() {
		t.Error("no filter set")
	}
}

func TestListResult_Count(t *testing.T) {
	r := &ListResult{Total: 40, Filtered: 3}
	if r.Count(false) != 40 || r.Count(true) != 3 {
		t.Error("Count mismatch")
	}
}

func TestRecord_GenderFallback(t *testing.T) {
	g := GlucoseTest{Gender: "female"}
	if g.Record().PatientGender != "female" {
		t.Error("expected gender fallback")
	}
	g.PatientGender = "male"
	if g.Record().PatientGender != "male" {
		t.Error("expected patient_gender to win")
	}
}
