package account

import (
	"context"

	"github.com/fanscosa/cosa-web/pkg/pagination"
)

// DefaultRoleName is shown when the role of the signed-in user cannot be
// resolved.
const DefaultRoleName = "User"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, p pagination.Params) ([]Account, int, error) {
	return s.repo.List(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int) (*Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Roles(ctx context.Context) ([]Role, error) {
	return s.repo.Roles(ctx)
}

// RoleName resolves a role id to its name for the dashboard header.
func (s *Service) RoleName(ctx context.Context, id int) (string, error) {
	if id <= 0 {
		return DefaultRoleName, nil
	}
	role, err := s.repo.Role(ctx, id)
	if err != nil {
		return DefaultRoleName, err
	}
	if role.Name == "" {
		return DefaultRoleName, nil
	}
	return role.Name, nil
}

func (s *Service) Create(ctx context.Context, f *CreateForm) error {
	return s.repo.Create(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int, f *EditForm) error {
	return s.repo.Update(ctx, id, f)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
