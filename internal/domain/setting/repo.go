package setting

import "context"

type Repository interface {
	Get(ctx context.Context) (*Setting, error)
	Update(ctx context.Context, id int, f *Form) error
}
