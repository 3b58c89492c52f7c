package result

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanscosa/cosa-web/internal/domain/setting"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/internal/platform/websocket"
	"github.com/fanscosa/cosa-web/pkg/pagination"
)

var (
	ErrAlreadyValidated = errors.New("result is already validated")
	ErrNotFound         = errors.New("result not found")
)

// SettingSource supplies the report letterhead.
type SettingSource interface {
	Get(ctx context.Context) (*setting.Setting, error)
}

type Service struct {
	repo      Repository
	settings  SettingSource
	builder   *labreport.Builder
	archiver  *labreport.Archiver
	publisher websocket.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time

	mu      sync.Mutex
	lastNew int
	seenNew bool
}

func NewService(repo Repository, settings SettingSource, builder *labreport.Builder, logger zerolog.Logger) *Service {
	return &Service{repo: repo, settings: settings, builder: builder, logger: logger, now: time.Now}
}

// SetArchiver enables keeping a copy of every printed report.
func (s *Service) SetArchiver(a *labreport.Archiver) {
	s.archiver = a
}

// SetPublisher notifies live dashboards about validations.
func (s *Service) SetPublisher(p websocket.EventPublisher) {
	s.publisher = p
}

func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	return s.repo.List(ctx, p)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int, p HistoryParams) (*ListResult, error) {
	return s.repo.ListByPatient(ctx, patientID, p)
}

func (s *Service) ListByLabOrder(ctx context.Context, labOrderID int, p HistoryParams) (*ListResult, error) {
	return s.repo.ListByLabOrder(ctx, labOrderID, p)
}

// maxFindPages bounds how far Find pages through a lab-number search.
const maxFindPages = 20

// Find locates one result. The backend has no single-result endpoint, so
// the list is searched by lab number, page by page, and the row matched by
// id.
func (s *Service) Find(ctx context.Context, id int, labNumber string) (*GlucoseTest, error) {
	p := ListParams{Params: pagination.Params{Page: 1, Limit: pagination.MaxLimit, Search: labNumber}}
	for ; p.Page <= maxFindPages; p.Page++ {
		res, err := s.repo.List(ctx, p)
		if err != nil {
			return nil, err
		}
		for i := range res.Items {
			if res.Items[i].ID.Int() == id {
				return &res.Items[i], nil
			}
		}
		if len(res.Items) < p.Limit || p.Page*p.Limit >= res.Count(true) {
			break
		}
	}
	return nil, ErrNotFound
}

// Validate signs off result id. An already validated result is rejected
// without calling the backend again. The validating user is the one the
// backend reports, or fallbackUser when it reports none.
func (s *Service) Validate(ctx context.Context, id int, labNumber, fallbackUser string) (*GlucoseTest, error) {
	row, err := s.Find(ctx, id, labNumber)
	if err != nil {
		return nil, err
	}
	if row.Validated() {
		return nil, ErrAlreadyValidated
	}

	who, err := s.repo.Validate(ctx, id)
	if err != nil {
		return nil, err
	}
	if who == "" {
		who = fallbackUser
	}
	row.IsValidation = 1
	row.UserValidation = who

	s.publishValidated(ctx, row)
	return row, nil
}

func (s *Service) publishValidated(ctx context.Context, row *GlucoseTest) {
	if s.publisher == nil {
		return
	}
	data, _ := json.Marshal(map[string]interface{}{
		"id":              row.ID.Int(),
		"lab_number":      row.LabNumber,
		"user_validation": row.UserValidation,
	})
	err := s.publisher.Publish(ctx, websocket.Event{
		Type:    websocket.EventResultValidated,
		Topic:   websocket.TopicDashboard,
		Message: row.LabNumber,
		Data:    data,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("lab_number", row.LabNumber).Msg("failed to publish validation event")
	}
}

// Print renders the report of one result. A missing setting falls back to
// the configured letterhead and a failed archive does not fail the print.
func (s *Service) Print(ctx context.Context, id int, labNumber, printedBy string) ([]byte, error) {
	row, err := s.Find(ctx, id, labNumber)
	if err != nil {
		return nil, err
	}

	var hospital labreport.Hospital
	if st, err := s.settings.Get(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("setting unavailable, printing with fallback letterhead")
	} else {
		hospital = st.Hospital()
	}

	rep, err := s.builder.Build(row.Record(), hospital, s.now())
	if err != nil {
		return nil, err
	}
	html, err := labreport.RenderBytes(rep)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		meta, err := s.archiver.Archive(ctx, strconv.Itoa(row.PatientID.Int()), row.LabNumber, printedBy, html)
		if err != nil {
			s.logger.Error().Err(err).Str("lab_number", row.LabNumber).Msg("failed to archive report")
		} else {
			s.logger.Info().Str("key", meta.Key).Str("lab_number", row.LabNumber).Msg("report archived")
		}
	}
	return html, nil
}

// Notifications returns the results not yet opened. When the count grows
// since the previous call, live dashboards are told about it.
func (s *Service) Notifications(ctx context.Context) (*Notifications, error) {
	n, err := s.repo.NewResults(ctx)
	if err != nil {
		return nil, err
	}
	s.observeNew(ctx, n.Total.Int())
	return n, nil
}

func (s *Service) observeNew(ctx context.Context, total int) {
	s.mu.Lock()
	grew := s.seenNew && total > s.lastNew
	s.lastNew, s.seenNew = total, true
	s.mu.Unlock()

	if !grew || s.publisher == nil {
		return
	}
	data, _ := json.Marshal(map[string]int{"total": total})
	err := s.publisher.Publish(ctx, websocket.Event{
		Type:    websocket.EventNewResults,
		Topic:   websocket.TopicDashboard,
		Message: strconv.Itoa(total),
		Data:    data,
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("total", total).Msg("failed to publish new results event")
	}
}

// OpenNotification marks a new result as seen.
func (s *Service) OpenNotification(ctx context.Context, id int) error {
	return s.repo.MarkSeen(ctx, id)
}
