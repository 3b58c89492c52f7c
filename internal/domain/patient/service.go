package patient

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fanscosa/cosa-web/internal/domain/result"
	"github.com/fanscosa/cosa-web/internal/platform/chart"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// MinSearchLength is the shortest query the patient picker sends.
const MinSearchLength = 3

// ResultSource lists the glucose results of one patient.
type ResultSource interface {
	ListByPatient(ctx context.Context, patientID int, p result.HistoryParams) (*result.ListResult, error)
}

type Service struct {
	repo    Repository
	results ResultSource
}

func NewService(repo Repository, results ResultSource) *Service {
	return &Service{repo: repo, results: results}
}

func (s *Service) List(ctx context.Context, p pagination.Params) ([]Patient, int, error) {
	return s.repo.List(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, f *Form) error {
	return s.repo.Create(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int, f *Form) error {
	return s.repo.Update(ctx, id, f)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// Search backs the patient picker. Queries shorter than MinSearchLength
// return nothing without calling the backend.
func (s *Service) Search(ctx context.Context, q string) ([]SearchHit, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinSearchLength {
		return []SearchHit{}, nil
	}
	patients, _, err := s.repo.List(ctx, pagination.Params{Page: 1, Limit: pagination.DefaultLimit, Search: q})
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(patients))
	for i := range patients {
		hits = append(hits, patients[i].Hit())
	}
	return hits, nil
}

func (s *Service) Results(ctx context.Context, patientID int, p result.HistoryParams) (*result.ListResult, error) {
	return s.results.ListByPatient(ctx, patientID, p)
}

// HistoryPoints orders results oldest first for charting. Rows whose time
// cannot be read keep their relative order at the end.
func HistoryPoints(rows []result.GlucoseTest) []chart.Point {
	type dated struct {
		t   time.Time
		ok  bool
		row *result.GlucoseTest
	}
	ds := make([]dated, 0, len(rows))
	for i := range rows {
		t, err := labreport.ParseDate(rows[i].DateTime)
		ds = append(ds, dated{t: t, ok: err == nil, row: &rows[i]})
	}
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].ok != ds[j].ok {
			return ds[i].ok
		}
		return ds[i].ok && ds[i].t.Before(ds[j].t)
	})

	points := make([]chart.Point, 0, len(ds))
	for _, d := range ds {
		label := d.row.LabNumber
		if d.ok {
			label = d.t.In(labreport.WIB).Format("02/01 15:04")
		}
		points = append(points, chart.Point{Label: label, Value: d.row.GlucoseValue.Float64()})
	}
	return points
}
