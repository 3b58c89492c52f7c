package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var (
	// Query strings are forwarded to the backend as search filters. These
	// are logged, not blocked; the backend owns its own escaping.
	suspiciousQuery = regexp.MustCompile(`(?i)('+\s*;\s*DROP\b|UNION\s+SELECT\b|'\s+OR\s+1\s*=\s*1)`)

	scriptQuery = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)
)

// SanitizeConfig configures Sanitize.
type SanitizeConfig struct {
	Skipper func(c echo.Context) bool
	// MaxHeaderBytes caps any single header value. Zero means 8 KiB.
	MaxHeaderBytes int
	Logger         zerolog.Logger
}

// Sanitize rejects requests whose path, headers or query carry traversal,
// null-byte, header-splitting or script patterns, and strips control
// characters from url-encoded form posts before handlers bind them.
func Sanitize(cfg SanitizeConfig) echo.MiddlewareFunc {
	if cfg.MaxHeaderBytes <= 0 {
		cfg.MaxHeaderBytes = 8 << 10
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}
			req := c.Request()

			if msg := checkPath(req.URL); msg != "" {
				return badRequest(msg)
			}
			if msg := checkHeaders(req.Header, cfg.MaxHeaderBytes); msg != "" {
				return badRequest(msg)
			}

			for key, values := range req.URL.Query() {
				if strings.ContainsRune(key, 0) || scriptQuery.MatchString(key) {
					return badRequest("Invalid query parameter")
				}
				for _, v := range values {
					switch {
					case strings.ContainsRune(v, 0):
						return badRequest("Null byte in query parameter")
					case scriptQuery.MatchString(v):
						return badRequest("Script in query parameter")
					case suspiciousQuery.MatchString(v):
						cfg.Logger.Warn().
							Str("param", key).
							Str("path", req.URL.Path).
							Str("remote_ip", c.RealIP()).
							Msg("suspicious query parameter")
					}
				}
			}

			if isFormPost(req) {
				if err := req.ParseForm(); err != nil {
					var he *echo.HTTPError
					if errors.As(err, &he) {
						return he
					}
					return badRequest("Malformed form data")
				}
				cleanValues(req.PostForm)
				cleanValues(req.Form)
			}

			return next(c)
		}
	}
}

// SanitizeWithLogger is Sanitize with the default limits.
func SanitizeWithLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return Sanitize(SanitizeConfig{Logger: logger})
}

func checkPath(u *url.URL) string {
	for _, p := range []string{u.Path, u.RawPath} {
		lower := strings.ToLower(p)
		if strings.Contains(p, "..") || strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e") {
			return "Path traversal detected"
		}
		if strings.ContainsRune(p, 0) || strings.Contains(lower, "%00") {
			return "Null byte in path"
		}
	}
	return ""
}

func checkHeaders(h http.Header, max int) string {
	for name, values := range h {
		for _, v := range values {
			if len(v) > max {
				return "Header too large: " + name
			}
			if strings.ContainsAny(v, "\r\n") {
				return "Invalid header: " + name
			}
		}
	}
	return ""
}

func isFormPost(req *http.Request) bool {
	if req.Method != http.MethodPost {
		return false
	}
	return strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}

func cleanValues(vals url.Values) {
	for k, vs := range vals {
		for i, v := range vs {
			vs[i] = stripControl(v)
		}
		vals[k] = vs
	}
}

// stripControl drops control characters except tab and line breaks.
// Passwords pass through here too, so surrounding spaces are kept.
func stripControl(s string) string {
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
