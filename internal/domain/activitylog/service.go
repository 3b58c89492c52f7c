package activitylog

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List fetches one page of the audit trail. The backend does not honour
// every filter, so the page is filtered again by search text and day. The
// total is the backend's.
func (s *Service) List(ctx context.Context, p Params) ([]Entry, int, error) {
	entries, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Entry, 0, len(entries))
	for i := range entries {
		if entries[i].Matches(p) {
			out = append(out, entries[i])
		}
	}
	return out, total, nil
}
