package laborder

import (
	"context"

	"github.com/fanscosa/cosa-web/internal/domain/result"
)

// ResultSource lists the glucose results attached to one lab order.
type ResultSource interface {
	ListByLabOrder(ctx context.Context, labOrderID int, p result.HistoryParams) (*result.ListResult, error)
}

type Service struct {
	repo    Repository
	results ResultSource
}

func NewService(repo Repository, results ResultSource) *Service {
	return &Service{repo: repo, results: results}
}

func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	return s.repo.List(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int) (*LabOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, f *Form) error {
	return s.repo.Create(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int, f *Form) error {
	return s.repo.Update(ctx, id, f)
}

// Results lists the order's glucose tests. Without an explicit lab number
// filter the order's own lab number is used.
func (s *Service) Results(ctx context.Context, o *LabOrder, p result.HistoryParams) (*result.ListResult, error) {
	if p.LabNumber == "" {
		p.LabNumber = o.LabNumber
	}
	return s.results.ListByLabOrder(ctx, o.ID.Int(), p)
}
