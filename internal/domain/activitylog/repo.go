package activitylog

import "context"

type Repository interface {
	List(ctx context.Context, p Params) ([]Entry, int, error)
}
