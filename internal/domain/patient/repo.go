package patient

import (
	"context"

	"github.com/fanscosa/cosa-web/pkg/pagination"
)

type Repository interface {
	List(ctx context.Context, p pagination.Params) ([]Patient, int, error)
	Get(ctx context.Context, id int) (*Patient, error)
	Create(ctx context.Context, f *Form) error
	Update(ctx context.Context, id int, f *Form) error
	Delete(ctx context.Context, id int) error
}
