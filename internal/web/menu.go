package web

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NavItem is one sidebar entry. Children form the settings sub menu.
type NavItem struct {
	Key      string
	Label    string
	Icon     string
	Active   bool
	Open     bool
	Children []NavItem
}

var navigation = []NavItem{
	{Key: "dashboard", Label: "Dashboard", Icon: "grid"},
	{Key: "patients", Label: "Patients", Icon: "users"},
	{Key: "lab-orders", Label: "Lab Orders", Icon: "clipboard"},
	{Key: "results", Label: "Results", Icon: "droplet"},
	{Key: "account_setting", Label: "User Account", Icon: "user-cog"},
	{Key: "settings", Label: "Settings", Icon: "settings", Children: []NavItem{
		{Key: "settings_general", Label: "General"},
		{Key: "activity_log", Label: "Activity Log"},
	}},
}

// aliases highlight the parent entry for sub views.
var aliases = map[string]string{
	"user_detail":            "account_setting",
	"create_account_setting": "account_setting",
	"edit_account_setting":   "account_setting",
}

func navFor(menu string) []NavItem {
	if a, ok := aliases[menu]; ok {
		menu = a
	}
	out := make([]NavItem, len(navigation))
	for i, item := range navigation {
		item.Active = item.Key == menu
		if len(item.Children) > 0 {
			children := make([]NavItem, len(item.Children))
			for j, ch := range item.Children {
				ch.Active = ch.Key == menu
				item.Open = item.Open || ch.Active
				children[j] = ch
			}
			item.Children = children
		}
		out[i] = item
	}
	return out
}

// MenuMux serves GET /dashboard, picking the view from the menu query
// parameter. An empty menu shows the overview.
type MenuMux struct {
	views    map[string]echo.HandlerFunc
	fallback string
}

func NewMenuMux(fallback string) *MenuMux {
	return &MenuMux{views: map[string]echo.HandlerFunc{}, fallback: fallback}
}

// Handle registers the view for a menu key. Registering a key twice panics.
func (m *MenuMux) Handle(key string, h echo.HandlerFunc) {
	if _, dup := m.views[key]; dup {
		panic("web: duplicate menu " + key)
	}
	m.views[key] = h
}

func (m *MenuMux) Keys() []string {
	keys := make([]string, 0, len(m.views))
	for k := range m.views {
		keys = append(keys, k)
	}
	return keys
}

func (m *MenuMux) Serve(c echo.Context) error {
	key := c.QueryParam("menu")
	if key == "" {
		key = m.fallback
	}
	h, ok := m.views[key]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Page not found")
	}
	return h(c)
}
