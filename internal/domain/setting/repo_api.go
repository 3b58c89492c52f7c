package setting

import (
	"context"
	"fmt"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

type apiRepo struct {
	client *apiclient.Client
}

// NewAPIRepo returns a Repository backed by the laboratory backend.
func NewAPIRepo(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

func (r *apiRepo) Get(ctx context.Context) (*Setting, error) {
	var s Setting
	if err := r.client.Get(ctx, "/api/setting", nil, &s); err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &s, nil
}

func (r *apiRepo) Update(ctx context.Context, id int, f *Form) error {
	body := updatePayload{ID: id, Form: *f}
	if err := r.client.Put(ctx, fmt.Sprintf("/api/setting/%d", id), body, nil); err != nil {
		return fmt.Errorf("update setting %d: %w", id, err)
	}
	return nil
}
