package activitylog

import (
	"context"
	"fmt"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepo(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

func (r *apiRepo) List(ctx context.Context, p Params) ([]Entry, int, error) {
	var data struct {
		ActivityLogs []Entry `json:"activityLogs"`
		Pagination   struct {
			TotalActivityLogs apiclient.FlexInt `json:"totalActivityLogs"`
		} `json:"pagination"`
	}
	if err := r.client.Get(ctx, "/api/activity-log", p.Query(), &data); err != nil {
		return nil, 0, fmt.Errorf("list activity log: %w", err)
	}
	return data.ActivityLogs, data.Pagination.TotalActivityLogs.Int(), nil
}
