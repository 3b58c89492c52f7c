package setting

import (
	"context"
	"errors"
)

// ErrNoSetting is returned when the backend has no setting row to update.
var ErrNoSetting = errors.New("setting has not been created")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Setting, error) {
	return s.repo.Get(ctx)
}

// Update saves the form against the setting row id.
func (s *Service) Update(ctx context.Context, id int, f *Form) error {
	if id <= 0 {
		return ErrNoSetting
	}
	return s.repo.Update(ctx, id, f)
}
