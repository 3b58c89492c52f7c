package result

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepo(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

// totals covers the several spellings the backend uses for list counts.
type totals struct {
	TotalTestPatients *apiclient.FlexInt `json:"totalTestPatients"`
	Total             *apiclient.FlexInt `json:"total"`
	TotalRecords      *apiclient.FlexInt `json:"total_records"`
	TotalFiltered     *apiclient.FlexInt `json:"totalFiltered"`
	TotalFilteredSnk  *apiclient.FlexInt `json:"total_filtered"`
	TotalSearch       *apiclient.FlexInt `json:"totalSearch"`
	Filtered          *apiclient.FlexInt `json:"filtered"`
}

func first(vals ...*apiclient.FlexInt) (int, bool) {
	for _, v := range vals {
		if v != nil {
			return v.Int(), true
		}
	}
	return 0, false
}

func (t totals) resolve(fallback int) (total, filtered int) {
	total, ok := first(t.TotalTestPatients, t.TotalRecords, t.Total)
	if !ok {
		total = fallback
	}
	filtered, ok = first(t.TotalFiltered, t.TotalFilteredSnk, t.TotalSearch, t.Filtered)
	if !ok {
		filtered = total
	}
	return total, filtered
}

func (r *apiRepo) List(ctx context.Context, p ListParams) (*ListResult, error) {
	var data struct {
		GlucosaTest []GlucoseTest `json:"glucosaTest"`
		Pagination  totals        `json:"pagination"`
	}
	if err := r.client.Get(ctx, "/api/test-glucosa", p.Query(), &data); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	res := &ListResult{Items: data.GlucosaTest}
	res.Total, res.Filtered = data.Pagination.resolve(len(data.GlucosaTest))
	return res, nil
}

func (r *apiRepo) ListByPatient(ctx context.Context, patientID int, p HistoryParams) (*ListResult, error) {
	return r.history(ctx, fmt.Sprintf("/api/test-glucosa/patient/%d", patientID), p)
}

func (r *apiRepo) ListByLabOrder(ctx context.Context, labOrderID int, p HistoryParams) (*ListResult, error) {
	return r.history(ctx, fmt.Sprintf("/api/test-glucosa/lab-order/%d", labOrderID), p)
}

// history reads the per-patient and per-order lists, which carry their
// pagination beside data rather than inside it.
func (r *apiRepo) history(ctx context.Context, path string, p HistoryParams) (*ListResult, error) {
	var items []GlucoseTest
	env, err := r.client.Do(ctx, http.MethodGet, path, p.Query(), nil, &items)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	var t totals
	if len(env.Pagination) > 0 {
		if err := json.Unmarshal(env.Pagination, &t); err != nil {
			return nil, fmt.Errorf("decode pagination of %s: %w", path, err)
		}
	}
	res := &ListResult{Items: items}
	res.Total, res.Filtered = t.resolve(len(items))
	return res, nil
}

func (r *apiRepo) Validate(ctx context.Context, id int) (string, error) {
	body := map[string]int{"is_validation": 1}
	env, err := r.client.Do(ctx, http.MethodPut, fmt.Sprintf("/api/test-glucosa/%d/validation", id), nil, body, nil)
	if err != nil {
		return "", fmt.Errorf("validate result %d: %w", id, err)
	}
	// The name sits beside data on some deployments and inside it on others.
	var who string
	if env.Field("user_validation", &who) && who != "" {
		return who, nil
	}
	var row struct {
		UserValidation string `json:"user_validation"`
	}
	if json.Unmarshal(env.Data, &row) == nil {
		return row.UserValidation, nil
	}
	return "", nil
}

func (r *apiRepo) NewResults(ctx context.Context) (*Notifications, error) {
	var n Notifications
	if err := r.client.Get(ctx, "/api/test-glucosa/counts_total_new_results", nil, &n); err != nil {
		return nil, fmt.Errorf("new results: %w", err)
	}
	return &n, nil
}

func (r *apiRepo) MarkSeen(ctx context.Context, id int) error {
	if err := r.client.Put(ctx, fmt.Sprintf("/api/test-glucosa/%d/status", id), struct{}{}, nil); err != nil {
		return fmt.Errorf("mark result %d seen: %w", id, err)
	}
	return nil
}
