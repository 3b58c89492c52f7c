package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fanscosa/cosa-web/internal/domain/result"
	"github.com/fanscosa/cosa-web/internal/domain/setting"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

// RoleSource names a role.
type RoleSource interface {
	RoleName(ctx context.Context, id int) (string, error)
}

// NotificationSource lists the results nobody has looked at yet.
type NotificationSource interface {
	Notifications(ctx context.Context) (*result.Notifications, error)
}

// SettingSource supplies the hospital setting shown in the sidebar.
type SettingSource interface {
	Get(ctx context.Context) (*setting.Setting, error)
}

type Service struct {
	repo          Repository
	roles         RoleSource
	notifications NotificationSource
	settings      SettingSource
	logger        zerolog.Logger
}

func NewService(repo Repository, roles RoleSource, notifications NotificationSource, settings SettingSource, logger zerolog.Logger) *Service {
	return &Service{repo: repo, roles: roles, notifications: notifications, settings: settings, logger: logger}
}

// Login exchanges credentials for a bearer token.
func (s *Service) Login(ctx context.Context, c *Credentials) (string, error) {
	return s.repo.Login(ctx, strings.TrimSpace(c.Email), c.Password)
}

// Identity verifies the token carried in ctx.
func (s *Service) Identity(ctx context.Context) (*apiclient.Identity, error) {
	return s.repo.VerifyToken(ctx)
}

// Shell verifies the token and loads the page chrome. Only a failed
// verification is an error; the role, the notifications and the setting
// degrade to defaults and a warning.
func (s *Service) Shell(ctx context.Context) (*Shell, error) {
	id, err := s.repo.VerifyToken(ctx)
	if err != nil {
		return nil, err
	}
	sh := &Shell{
		UserID:   id.ID.Int(),
		UserName: id.Name,
		Email:    id.Email,
		RoleName: "User",
		Notifications: result.Notifications{
			DataList: []result.GlucoseTest{},
		},
	}

	var mu sync.Mutex
	warn := func(msg string, err error) error {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		s.logger.Warn().Err(err).Int("user_id", sh.UserID).Msg(msg)
		mu.Lock()
		sh.Warnings = append(sh.Warnings, msg)
		mu.Unlock()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name, err := s.roles.RoleName(gctx, id.RoleID.Int())
		if err != nil {
			return warn("Failed to load user role.", err)
		}
		sh.RoleName = name
		return nil
	})
	g.Go(func() error {
		n, err := s.notifications.Notifications(gctx)
		if err != nil {
			return warn("Failed to load notifications.", err)
		}
		sh.Notifications = *n
		if sh.Notifications.DataList == nil {
			sh.Notifications.DataList = []result.GlucoseTest{}
		}
		return nil
	})
	g.Go(func() error {
		st, err := s.settings.Get(gctx)
		if err != nil {
			return warn("Failed to load settings.", err)
		}
		sh.Setting = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sh, nil
}
