// Package pagination reads page/limit/search from requests and builds the
// pager shown under every list view.
package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps Offset well inside int range for any limit.
	MaxPage = 100000
)

// Params holds the paging parameters of a list request. Page is 1-based.
type Params struct {
	Page   int
	Limit  int
	Search string
}

// FromContext extracts paging parameters from the query string.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
}

// Offset is the zero-based index of the first row of the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Values returns page, limit and search as backend query parameters.
// An empty search is omitted.
func (p Params) Values() map[string]string {
	return map[string]string{
		"page":   strconv.Itoa(p.Page),
		"limit":  strconv.Itoa(p.Limit),
		"search": p.Search,
	}
}

// Link builds basePath?query with overrides applied. Empty values, from
// either source, are dropped.
func Link(basePath string, query url.Values, overrides map[string]string) string {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	for k, v := range overrides {
		if v == "" {
			q.Del(k)
			continue
		}
		q.Set(k, v)
	}
	if len(q) == 0 {
		return basePath
	}
	return basePath + "?" + q.Encode()
}

// PageLink is one numbered button in the pager. Gap marks an ellipsis.
type PageLink struct {
	Number  int
	URL     string
	Current bool
	Gap     bool
}

// View is the pager model rendered by the list templates.
type View struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
	From       int
	To         int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
	Pages      []PageLink
}

// window is how many page numbers are shown either side of the current one.
const window = 2

// NewView builds the pager for a list of total rows. The current query is
// preserved in every link so filters survive paging.
func NewView(basePath string, query url.Values, p Params, total int) View {
	if total < 0 {
		total = 0
	}
	pages := (total + p.Limit - 1) / p.Limit
	if pages < 1 {
		pages = 1
	}

	v := View{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < pages,
	}
	if total > 0 && p.Offset() < total {
		v.From = p.Offset() + 1
		v.To = min(p.Offset()+p.Limit, total)
	}

	link := func(n int) string {
		return Link(basePath, query, map[string]string{"page": strconv.Itoa(n)})
	}
	if v.HasPrev {
		v.PrevURL = link(p.Page - 1)
	}
	if v.HasNext {
		v.NextURL = link(p.Page + 1)
	}

	last := 0
	for n := 1; n <= pages; n++ {
		if n != 1 && n != pages && (n < p.Page-window || n > p.Page+window) {
			continue
		}
		if last != 0 && n > last+1 {
			v.Pages = append(v.Pages, PageLink{Gap: true})
		}
		v.Pages = append(v.Pages, PageLink{Number: n, URL: link(n), Current: n == p.Page})
		last = n
	}
	return v
}
