package laborder

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

type listPagination struct {
	TotalPatients *apiclient.FlexInt `json:"totalPatients"`
	Total         *apiclient.FlexInt `json:"total"`
	TotalFiltered *apiclient.FlexInt `json:"totalFiltered"`
	TotalSearch   *apiclient.FlexInt `json:"totalSearch"`
	Filtered      *apiclient.FlexInt `json:"filtered"`
}

func firstSet(vals ...*apiclient.FlexInt) (int, bool) {
	for _, v := range vals {
		if v != nil {
			return v.Int(), true
		}
	}
	return 0, false
}

func (r *apiRepo) List(ctx context.Context, p ListParams) (*ListResult, error) {
	var data struct {
		MappingPatients []LabOrder     `json:"mappingPatients"`
		Pagination      listPagination `json:"pagination"`
	}
	if err := r.client.Get(ctx, "/v1/bridging/mapping-patient", p.Query(), &data); err != nil {
		return nil, fmt.Errorf("list lab orders: %w", err)
	}
	res := &ListResult{Items: data.MappingPatients}
	res.Total, _ = firstSet(data.Pagination.TotalPatients, data.Pagination.Total)
	var ok bool
	if res.Filtered, ok = firstSet(data.Pagination.TotalFiltered, data.Pagination.TotalSearch, data.Pagination.Filtered); !ok {
		res.Filtered = len(data.MappingPatients)
	}
	return res, nil
}

func (r *apiRepo) Get(ctx context.Context, id int) (*LabOrder, error) {
	var o LabOrder
	if err := r.client.Get(ctx, fmt.Sprintf("/v1/bridging/mapping-patient/%d", id), nil, &o); err != nil {
		return nil, fmt.Errorf("get lab order %d: %w", id, err)
	}
	return &o, nil
}

func (r *apiRepo) Create(ctx context.Context, f *Form) error {
	ref := f.patientRef()
	body := createPayload{Form: f, PatientID: ref, IsNewPatient: ref == nil}
	if err := r.client.Post(ctx, "/api/v1/bridging/mapping-patient", body, nil); err != nil {
		return fmt.Errorf("create lab order: %w", err)
	}
	return nil
}

func (r *apiRepo) Update(ctx context.Context, id int, f *Form) error {
	body := updatePayload{ID: id, Form: f, PatientID: f.patientRef()}
	if err := r.client.Put(ctx, fmt.Sprintf("/api/lab-orders/%d", id), body, nil); err != nil {
		return fmt.Errorf("update lab order %d: %w", id, err)
	}
	return nil
}
