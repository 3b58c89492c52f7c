package patient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

type apiRepo struct {
	client *apiclient.Client
}

func NewAPIRepo(client *apiclient.Client) Repository {
	return &apiRepo{client: client}
}

func (r *apiRepo) List(ctx context.Context, p pagination.Params) ([]Patient, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}

	var data struct {
		Patients   []Patient `json:"patients"`
		Pagination struct {
			TotalPatients apiclient.FlexInt `json:"totalPatients"`
		} `json:"pagination"`
	}
	if err := r.client.Get(ctx, "/api/patients", q, &data); err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	return data.Patients, data.Pagination.TotalPatients.Int(), nil
}

func (r *apiRepo) Get(ctx context.Context, id int) (*Patient, error) {
	var p Patient
	if err := r.client.Get(ctx, fmt.Sprintf("/api/patients/%d", id), nil, &p); err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return &p, nil
}

func (r *apiRepo) Create(ctx context.Context, f *Form) error {
	if err := r.client.Post(ctx, "/api/patients", f, nil); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (r *apiRepo) Update(ctx context.Context, id int, f *Form) error {
	body := struct {
		ID int `json:"id"`
		*Form
	}{ID: id, Form: f}
	if err := r.client.Put(ctx, fmt.Sprintf("/api/patients/%d", id), body, nil); err != nil {
		return fmt.Errorf("update patient %d: %w", id, err)
	}
	return nil
}

func (r *apiRepo) Delete(ctx context.Context, id int) error {
	if err := r.client.Delete(ctx, fmt.Sprintf("/api/patients/%d", id)); err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	return nil
}
