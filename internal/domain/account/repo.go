package account

import (
	"context"

	"github.com/fanscosa/cosa-web/pkg/pagination"
)

type Repository interface {
	List(ctx context.Context, p pagination.Params) ([]Account, int, error)
	Get(ctx context.Context, id int) (*Account, error)
	Roles(ctx context.Context) ([]Role, error)
	Role(ctx context.Context, id int) (*Role, error)
	Create(ctx context.Context, f *CreateForm) error
	Update(ctx context.Context, id int, f *EditForm) error
	Delete(ctx context.Context, id int) error
}
