// Package web holds the HTML side of the app: the page renderer, the
// /dashboard menu multiplexer, static assets and the error pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fanscosa/cosa-web/internal/platform/labreport"
	"github.com/fanscosa/cosa-web/internal/platform/session"
)

//go:embed templates
var templateFS embed.FS

// standalone pages render without the dashboard chrome.
var standalone = map[string]bool{"login": true, "offline": true, "error": true}

var titles = map[string]string{
	"login":            "Login",
	"offline":          "Offline",
	"error":            "Error",
	"dashboard":        "Dashboard",
	"patients":         "Patients",
	"patient_detail":   "Patient Detail",
	"patient_form":     "Patient",
	"lab_orders":       "Lab Orders",
	"lab_order_detail": "Lab Order Detail",
	"lab_order_form":   "Lab Order",
	"results":          "Glucose Test Results",
	"accounts":         "User Account",
	"account_detail":   "User Detail",
	"account_form":     "User",
	"activity_log":     "Activity Log",
	"settings":         "General Settings",
}

// Page is the value every template executes against.
type Page struct {
	Name  string
	Title string
	Menu  string
	Flash *session.Flash
	Shell interface{}
	Nav   []NavItem
	Year  int
	Data  interface{}
}

// Renderer implements echo.Renderer over the embedded templates. Every page
// is parsed together with the layout once, at construction.
type Renderer struct {
	pages    map[string]*template.Template
	sessions *session.Manager
	now      func() time.Time
}

func NewRenderer(sessions *session.Manager) (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}, sessions: sessions, now: time.Now}
	entries, err := fs.ReadDir(templateFS, "templates/pages")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/pages/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	menu := c.QueryParam("menu")
	if menu == "" {
		menu = "dashboard"
	}
	p := Page{
		Name:  name,
		Title: titles[name],
		Menu:  menu,
		Shell: c.Get("shell"),
		Nav:   navFor(menu),
		Year:  r.now().Year(),
		Data:  data,
	}
	if r.sessions != nil {
		p.Flash = r.sessions.PopFlash(c)
	}
	layout := "dashboard"
	if standalone[name] {
		layout = "base"
	}
	return t.ExecuteTemplate(w, layout, p)
}

var funcs = template.FuncMap{
	"datetime": func(s string) string {
		t, err := labreport.ParseDate(s)
		if err != nil || s == "" {
			return "-"
		}
		return labreport.FormatDateTime(t.In(labreport.WIB))
	},
	"date": func(s string) string {
		t, err := labreport.ParseDate(s)
		if err != nil || s == "" {
			return "-"
		}
		return labreport.FormatDate(t.In(labreport.WIB))
	},
	"orDash": func(s fmt.Stringer) string {
		if v := s.String(); v != "" {
			return v
		}
		return "-"
	},
	"textOrDash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
	"month": labreport.MonthName,
	"add":   func(a, b int) int { return a + b },
}
