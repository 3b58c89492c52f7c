package dashboard

import (
	"context"

	"github.com/fanscosa/cosa-web/internal/domain/setting"
)

// Repository fetches the individual overview pieces.
type Repository interface {
	PatientCount(ctx context.Context) (int, error)
	ResultCount(ctx context.Context) (int, error)
	ValidatedCount(ctx context.Context) (int, error)
	UnvalidatedCount(ctx context.Context) (int, error)
	MonthlyTotals(ctx context.Context, year int) ([]MonthTotal, error)
	DeviceStatuses(ctx context.Context) ([]DeviceStatus, error)
	Setting(ctx context.Context) (*setting.Setting, error)
}
