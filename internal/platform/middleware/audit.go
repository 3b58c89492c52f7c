package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry records one dashboard mutation: who did what to which record.
type AuditEntry struct {
	User       string
	Action     string // create, update, delete, validate, print, ...
	Target     string // patients, lab-orders, results, accounts, settings
	TargetID   string
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries beyond the log line.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every state-changing request under /dashboard/. The user is
// read from the "user_name" context value the dashboard shell sets, falling
// back to "unknown".
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditable(req.Method, req.URL.Path) {
				return next(c)
			}

			if err := next(c); err != nil {
				// Resolve the error here so the entry records the real status.
				c.Error(err)
			}

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       req.URL.Path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				User:       "unknown",
			}
			if u, ok := c.Get("user_name").(string); ok && u != "" {
				entry.User = u
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			entry.Target, entry.TargetID, entry.Action = parseDashboardPath(req.URL.Path)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user", entry.User).
				Str("action", entry.Action).
				Str("target", entry.Target).
				Str("target_id", entry.TargetID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("dashboard_mutation")

			return nil
		}
	}
}

func isAuditable(method, path string) bool {
	if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
		return false
	}
	return strings.HasPrefix(path, "/dashboard/")
}

// parseDashboardPath splits mutation paths of the form
//
//	/dashboard/<target>                  -> create
//	/dashboard/<target>/<id>/<action>    -> action
//	/dashboard/<target>/<id>             -> update
func parseDashboardPath(path string) (target, id, action string) {
	segs := strings.Split(strings.Trim(strings.TrimPrefix(path, "/dashboard/"), "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return "unknown", "", "unknown"
	}
	target = segs[0]
	switch len(segs) {
	case 1:
		return target, "", "create"
	case 2:
		return target, segs[1], "update"
	default:
		return target, segs[1], segs[2]
	}
}
