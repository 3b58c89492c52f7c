package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

type Service struct {
	repo   Repository
	flight singleflight.Group
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Snapshot loads the overview for year on behalf of the token in ctx.
// Concurrent calls for the same token and year share one backend round
// trip, so the returned snapshot must be treated as read-only. Only an
// authentication failure fails the whole snapshot.
func (s *Service) Snapshot(ctx context.Context, year int) (*Snapshot, error) {
	year = ClampYear(year, s.now())
	key := flightKey(apiclient.TokenFromContext(ctx), year)

	ch := s.flight.DoChan(key, func() (interface{}, error) {
		// The shared fetch must outlive whichever caller started it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), apiclient.DefaultTimeout)
		defer cancel()
		return s.fetch(fctx, year)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Live adapts Snapshot to the websocket refresh callback.
func (s *Service) Live(ctx context.Context, year int) (interface{}, error) {
	snap, err := s.Snapshot(ctx, year)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func flightKey(token string, year int) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s:%d", hex.EncodeToString(sum[:8]), year)
}

func (s *Service) fetch(ctx context.Context, year int) (*Snapshot, error) {
	snap := &Snapshot{Year: year}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	piece := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			err := fn(gctx)
			if err == nil {
				return nil
			}
			if errors.Is(err, apiclient.ErrUnauthorized) {
				return err
			}
			s.logger.Warn().Err(err).Str("piece", name).Int("year", year).Msg("dashboard piece unavailable")
			mu.Lock()
			snap.Missing = append(snap.Missing, name)
			mu.Unlock()
			return nil
		})
	}

	piece(PiecePatients, func(ctx context.Context) (err error) {
		snap.Counts.Patients, err = s.repo.PatientCount(ctx)
		return err
	})
	piece(PieceResults, func(ctx context.Context) (err error) {
		snap.Counts.Results, err = s.repo.ResultCount(ctx)
		return err
	})
	piece(PieceValidated, func(ctx context.Context) (err error) {
		snap.Counts.Validated, err = s.repo.ValidatedCount(ctx)
		return err
	})
	piece(PieceUnvalidated, func(ctx context.Context) (err error) {
		snap.Counts.Unvalidated, err = s.repo.UnvalidatedCount(ctx)
		return err
	})
	piece(PieceMonthly, func(ctx context.Context) error {
		rows, err := s.repo.MonthlyTotals(ctx, year)
		if err != nil {
			return err
		}
		snap.Monthly = MonthlySeries(rows)
		return nil
	})
	piece(PieceDevices, func(ctx context.Context) error {
		devices, err := s.repo.DeviceStatuses(ctx)
		if err != nil {
			return err
		}
		snap.Devices = devices
		return nil
	})
	piece(PieceSetting, func(ctx context.Context) error {
		st, err := s.repo.Setting(ctx)
		if err != nil {
			return err
		}
		snap.Setting = st
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(snap.Missing)
	snap.GeneratedAt = s.now()
	return snap, nil
}
