package account

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

func (r *apiRepo) List(ctx context.Context, p pagination.Params) ([]Account, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	var data struct {
		Users      []Account `json:"users"`
		Pagination struct {
			TotalUsers apiclient.FlexInt `json:"totalUsers"`
		} `json:"pagination"`
	}
	if err := r.client.Get(ctx, "/api/users", q, &data); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return data.Users, data.Pagination.TotalUsers.Int(), nil
}

func (r *apiRepo) Get(ctx context.Context, id int) (*Account, error) {
	var a Account
	if err := r.client.Get(ctx, fmt.Sprintf("/api/users/%d", id), nil, &a); err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &a, nil
}

func (r *apiRepo) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := r.client.Get(ctx, "/api/roles", nil, &roles); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (r *apiRepo) Role(ctx context.Context, id int) (*Role, error) {
	var role Role
	if err := r.client.Get(ctx, fmt.Sprintf("/api/roles/%d", id), nil, &role); err != nil {
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}
	return &role, nil
}

func (r *apiRepo) Create(ctx context.Context, f *CreateForm) error {
	if err := r.client.Post(ctx, "/auth/register", f, nil); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

func (r *apiRepo) Update(ctx context.Context, id int, f *EditForm) error {
	if err := r.client.Put(ctx, fmt.Sprintf("/api/users/detail_user/%d", id), f, nil); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}

func (r *apiRepo) Delete(ctx context.Context, id int) error {
	if err := r.client.Delete(ctx, fmt.Sprintf("/api/users/%d", id)); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}
