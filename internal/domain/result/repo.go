package result

import "context"

type Repository interface {
	List(ctx context.Context, p ListParams) (*ListResult, error)
	ListByPatient(ctx context.Context, patientID int, p HistoryParams) (*ListResult, error)
	ListByLabOrder(ctx context.Context, labOrderID int, p HistoryParams) (*ListResult, error)
	// Validate marks the result validated and returns the validating user's
	// name when the backend reports it.
	Validate(ctx context.Context, id int) (string, error)
	NewResults(ctx context.Context) (*Notifications, error)
	MarkSeen(ctx context.Context, id int) error
}
