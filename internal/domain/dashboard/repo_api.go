package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fanscosa/cosa-web/internal/domain/setting"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

type apiRepo struct {
	client   *apiclient.Client
	settings setting.Repository
}

func NewAPIRepo(client *apiclient.Client) Repository {
	return &apiRepo{client: client, settings: setting.NewAPIRepo(client)}
}

func (r *apiRepo) count(ctx context.Context, path string) (int, error) {
	var n apiclient.FlexInt
	if err := r.client.Get(ctx, path, nil, &n); err != nil {
		return 0, fmt.Errorf("count %s: %w", path, err)
	}
	return n.Int(), nil
}

func (r *apiRepo) PatientCount(ctx context.Context) (int, error) {
	return r.count(ctx, "/api/patients/counts")
}

func (r *apiRepo) ResultCount(ctx context.Context) (int, error) {
	return r.count(ctx, "/api/test-glucosa/counts_total_results")
}

func (r *apiRepo) ValidatedCount(ctx context.Context) (int, error) {
	return r.count(ctx, "/api/test-glucosa/counts_is_validation_done")
}

func (r *apiRepo) UnvalidatedCount(ctx context.Context) (int, error) {
	return r.count(ctx, "/api/test-glucosa/counts_is_validation_not_done")
}

func (r *apiRepo) MonthlyTotals(ctx context.Context, year int) ([]MonthTotal, error) {
	var rows []MonthTotal
	q := url.Values{"year": {strconv.Itoa(year)}}
	if err := r.client.Get(ctx, "/api/test-glucosa/counts_total_results_month", q, &rows); err != nil {
		return nil, fmt.Errorf("monthly totals %d: %w", year, err)
	}
	return rows, nil
}

func (r *apiRepo) DeviceStatuses(ctx context.Context) ([]DeviceStatus, error) {
	var devices []DeviceStatus
	if err := r.client.Get(ctx, "/api/connection-status/all-devices-status", nil, &devices); err != nil {
		return nil, fmt.Errorf("device statuses: %w", err)
	}
	return devices, nil
}

func (r *apiRepo) Setting(ctx context.Context) (*setting.Setting, error) {
	return r.settings.Get(ctx)
}
