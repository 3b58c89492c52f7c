package laborder

import "context"

// Repository is the backend surface for lab orders.
type Repository interface {
	List(ctx context.Context, p ListParams) (*ListResult, error)
	Get(ctx context.Context, id int) (*LabOrder, error)
	Create(ctx context.Context, f *Form) error
	Update(ctx context.Context, id int, f *Form) error
}
