// Package session manages the browser side of authentication: the bearer
// token cookie, the remembered login email and one-shot flash messages.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"

	"github.com/fanscosa/cosa-web/internal/platform/apiclient"
)

const (
	TokenCookie    = "authToken"
	rememberCookie = "cosa_remember"
	flashCookie    = "cosa_flash"

	ShortLived = 24 * time.Hour
	LongLived  = 7 * 24 * time.Hour

	// LoginPath is where requests without a usable token are sent.
	LoginPath = "/login"
)

// Config holds session construction parameters.
type Config struct {
	HashKey  []byte
	BlockKey []byte
	Secure   bool
}

// Manager reads and writes session cookies.
type Manager struct {
	codec  *securecookie.SecureCookie
	secure bool
	now    func() time.Time
}

func NewManager(cfg Config) *Manager {
	hashKey := cfg.HashKey
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	var blockKey []byte
	if len(cfg.BlockKey) > 0 {
		blockKey = cfg.BlockKey
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(LongLived.Seconds()))
	return &Manager{codec: codec, secure: cfg.Secure, now: time.Now}
}

// SetToken stores the bearer token. The cookie lives 7 days with remember
// me, otherwise 1 day.
func (m *Manager) SetToken(c echo.Context, token string, remember bool) {
	ttl := ShortLived
	if remember {
		ttl = LongLived
	}
	c.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  m.now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Token returns the usable bearer token, if any. A JWT whose exp claim has
// passed is treated as absent; opaque tokens are accepted as-is and left for
// the backend to judge.
func (m *Manager) Token(c echo.Context) (string, bool) {
	ck, err := c.Cookie(TokenCookie)
	if err != nil {
		return "", false
	}
	tok := strings.TrimSpace(ck.Value)
	if tok == "" {
		return "", false
	}
	if Expired(tok, m.now()) {
		return "", false
	}
	return tok, true
}

// Clear removes the token cookie.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Expired reports whether tok is a JWT with an exp claim before now.
func Expired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// SetRememberedEmail keeps the login email for the next visit. Passwords are
// never stored.
func (m *Manager) SetRememberedEmail(c echo.Context, email string) error {
	encoded, err := m.codec.Encode(rememberCookie, email)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     rememberCookie,
		Value:    encoded,
		Path:     LoginPath,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (m *Manager) RememberedEmail(c echo.Context) string {
	ck, err := c.Cookie(rememberCookie)
	if err != nil {
		return ""
	}
	var email string
	if err := m.codec.Decode(rememberCookie, ck.Value, &email); err != nil {
		return ""
	}
	return email
}

func (m *Manager) ForgetEmail(c echo.Context) {
	c.SetCookie(&http.Cookie{Name: rememberCookie, Value: "", Path: LoginPath, MaxAge: -1})
}

// Middleware rejects requests without a usable token by redirecting to the
// login page, and otherwise puts the token on the request context so the API
// client can use it.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok, ok := m.Token(c)
			if !ok {
				m.Clear(c)
				return c.Redirect(http.StatusSeeOther, LoginPath)
			}
			c.Set("auth_token", tok)
			ctx := apiclient.WithToken(c.Request().Context(), tok)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
