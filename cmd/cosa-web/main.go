package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fanscosa/cosa-web/internal/config"
	"github.com/fanscosa/cosa-web/internal/domain/account"
	"github.com/fanscosa/cosa-web/internal/domain/activitylog"
	"github.com/fanscosa/cosa-web/internal/domain/auth"
	"github.com/fanscosa/cosa-web/internal/domain/dashboard"
	"github.com/fanscosa/cosa-web/internal/domain/laborder"
	"github.com/fanscosa/cosa-web/internal/domain/patient"
	"github.com/fanscosa/cosa-web/internal/domain/result"
	"github.com/fanscosa/cosa-web/internal/domain/setting"
	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
	"github.com/fanscosa/cosa-web/internal/platform/blobstore"
	"github.com/fanscosa/cosa-web/internal/platform/health"
	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/internal/platform/logging"
	"github.com/fanscosa/cosa-web/internal/platform/middleware"
	"github.com/fanscosa/cosa-web/internal/platform/session"
	"github.com/fanscosa/cosa-web/internal/platform/validation"
	"github.com/fanscosa/cosa-web/internal/platform/websocket"
	"github.com/fanscosa/cosa-web/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cosa-web",
		Short: "COSA APP glucose laboratory dashboard",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test the connection to the backend API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			client := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout, UserAgent: userAgent()})
			return checkBackend(cmd.Context(), client, cmd.OutOrStdout())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "cosa-web", health.Version)
		},
	}
}

func userAgent() string {
	return "cosa-web/" + health.Version
}

// checkBackend pings the backend once and reports the outcome on out.
func checkBackend(ctx context.Context, p health.Pinger, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		fmt.Fprintf(out, "backend unreachable: %s\n", apiclient.UserMessage(err))
		return fmt.Errorf("ping backend: %w", err)
	}
	fmt.Fprintf(out, "backend reachable (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Console:    cfg.IsDev(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}, os.Stdout)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build server")
		return err
	}

	go a.monitor.Run(ctx)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("backend", cfg.APIBaseURL).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// app is the assembled server. The monitor is started by the caller.
type app struct {
	echo    *echo.Echo
	monitor *health.Monitor
	menus   *web.MenuMux
	hub     *websocket.Hub
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	client := apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		UserAgent: userAgent(),
	}, apiclient.WithLogger(logger))

	sessions := session.NewManager(session.Config{
		HashKey:  []byte(cfg.SessionHashKey),
		BlockKey: []byte(cfg.SessionBlockKey),
		Secure:   cfg.SecureCookies(),
	})

	renderer, err := web.NewRenderer(sessions)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = validation.New()
	e.HTTPErrorHandler = web.HTTPErrorHandler(sessions, logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.CacheControl(middleware.DefaultCacheConfig()))
	e.Use(echomw.GzipWithConfig(echomw.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/dashboard/live")
		},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	monitor := health.NewMonitor(client, cfg.HealthInterval, logger)
	hub := websocket.NewHub(logger)

	// Services
	settingSvc := setting.NewService(setting.NewAPIRepo(client))

	builder := &labreport.Builder{
		LabDirector: cfg.ReportLabDirector,
		Fallback: labreport.Hospital{
			Name:    cfg.ReportFallbackName,
			Address: cfg.ReportFallbackAddr,
		},
	}
	resultSvc := result.NewService(result.NewAPIRepo(client), settingSvc, builder, logger)
	resultSvc.SetPublisher(hub)
	if archive != nil {
		resultSvc.SetArchiver(labreport.NewArchiver(archive))
	}

	patientSvc := patient.NewService(patient.NewAPIRepo(client), resultSvc)
	labOrderSvc := laborder.NewService(laborder.NewAPIRepo(client), resultSvc)
	accountSvc := account.NewService(account.NewAPIRepo(client))
	dashboardSvc := dashboard.NewService(dashboard.NewAPIRepo(client), logger)
	authSvc := auth.NewService(auth.NewAPIRepo(client), accountSvc, resultSvc, settingSvc, logger)

	// Handlers
	authHandler := auth.NewHandler(authSvc, sessions, logger)
	dashboardHandler := dashboard.NewHandler(dashboardSvc, logger)
	patientHandler := patient.NewHandler(patientSvc, sessions, logger)
	labOrderHandler := laborder.NewHandler(labOrderSvc, sessions, logger)
	resultHandler := result.NewHandler(resultSvc, sessions, logger)
	accountHandler := account.NewHandler(accountSvc, sessions, logger)
	activityHandler := activitylog.NewHandler(activitylog.NewService(activitylog.NewAPIRepo(client)), logger)
	settingHandler := setting.NewHandler(settingSvc, sessions)
	liveHandler := websocket.NewLiveHandler(hub, dashboardSvc.Live, cfg.DashboardRefresh, logger)

	// Public routes
	web.RegisterStatic(e)
	e.GET("/api/health-check", health.HealthCheck())
	e.GET("/api/backend-status", health.BackendStatus(monitor, hub.ClientCount))
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, auth.DashboardPath)
	})

	loginLimit := middleware.DefaultRateLimitConfig()
	loginLimit.RequestsPerSecond = cfg.LoginRateLimitRPS
	loginLimit.BurstSize = cfg.LoginRateLimitBurst
	authHandler.RegisterRoutes(e, middleware.RateLimit(loginLimit))

	// Dashboard
	menus := web.NewMenuMux("dashboard")
	menus.Handle("dashboard", dashboardHandler.Overview)
	menus.Handle(patient.MenuKey, patientHandler.Page)
	menus.Handle(laborder.MenuKey, labOrderHandler.Page)
	menus.Handle(result.MenuKey, resultHandler.Page)
	menus.Handle(account.MenuList, accountHandler.List)
	menus.Handle(account.MenuDetail, accountHandler.Detail)
	menus.Handle(account.MenuCreate, accountHandler.CreateForm)
	menus.Handle(account.MenuEdit, accountHandler.EditForm)
	menus.Handle(activitylog.MenuKey, activityHandler.Page)
	menus.Handle(setting.MenuKey, settingHandler.Page)

	dash := e.Group(auth.DashboardPath,
		health.RedirectWhenOffline(monitor),
		sessions.Middleware(),
		authHandler.ShellMiddleware(),
		middleware.Audit(logger, liveActivity(hub)),
	)
	dash.GET("", menus.Serve)
	dashboardHandler.RegisterRoutes(dash)
	patientHandler.RegisterRoutes(dash)
	labOrderHandler.RegisterRoutes(dash)
	resultHandler.RegisterRoutes(dash)
	accountHandler.RegisterRoutes(dash)
	settingHandler.RegisterRoutes(dash)
	liveHandler.RegisterRoutes(dash)
	if archive != nil {
		blobstore.NewBlobHandler(archive).RegisterRoutes(dash)
	}

	return &app{echo: e, monitor: monitor, menus: menus, hub: hub}, nil
}

// liveActivity tells open dashboards about every successful mutation so
// their counts refresh without waiting for the next tick.
func liveActivity(p websocket.EventPublisher) middleware.AuditRecorder {
	return middleware.AuditRecorderFunc(func(entry middleware.AuditEntry) error {
		if entry.StatusCode >= http.StatusBadRequest {
			return nil
		}
		return p.Publish(context.Background(), websocket.Event{
			Type:      websocket.EventActivity,
			Topic:     websocket.TopicDashboard,
			Timestamp: entry.Timestamp,
			Message:   entry.Action + " " + entry.Target,
		})
	})
}

// openArchive returns the printed-report store, or nil when archiving is
// disabled.
func openArchive(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	switch cfg.ReportArchive {
	case "memory":
		return blobstore.NewInMemoryBlobStore(), nil
	case "s3":
		store, err := blobstore.NewS3BlobStore(ctx, blobstore.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("open report archive: %w", err)
		}
		return store, nil
	}
	return nil, nil
}
