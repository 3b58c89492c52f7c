package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextFor(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(contextFor("/dashboard?menu=patients"))
	if p.Page != 1 || p.Limit != DefaultLimit || p.Search != "" {
		t.Errorf("unexpected defaults %+v", p)
	}
	if p.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset())
	}
}

func TestFromContext_Values(t *testing.T) {
	p := FromContext(contextFor("/dashboard?page=3&limit=25&search=%20budi%20"))
	if p.Page != 3 || p.Limit != 25 || p.Search != "budi" {
		t.Errorf("unexpected params %+v", p)
	}
	if p.Offset() != 50 {
		t.Errorf("expected offset 50, got %d", p.Offset())
	}
}

func TestFromContext_Clamps(t *testing.T) {
	p := FromContext(contextFor("/dashboard?page=-2&limit=1000"))
	if p.Page != 1 || p.Limit != MaxLimit {
		t.Errorf("unexpected params %+v", p)
	}
	p = FromContext(contextFor("/dashboard?page=abc&limit=0"))
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestFromContext_ClampsHugePage(t *testing.T) {
	p := FromContext(contextFor("/dashboard?page=100000000000000000&limit=100"))
	if p.Page != MaxPage {
		t.Fatalf("expected page %d, got %d", MaxPage, p.Page)
	}
	if p.Offset() != (MaxPage-1)*100 {
		t.Errorf("unexpected offset %d", p.Offset())
	}

	v := NewView("/dashboard", nil, p, 250)
	if v.From != 0 || v.To != 0 || v.HasNext {
		t.Errorf("page past the end: from=%d to=%d next=%v", v.From, v.To, v.HasNext)
	}
	if !v.HasPrev {
		t.Error("expected a link back")
	}
}

func TestLink_DropsEmpty(t *testing.T) {
	q := url.Values{"menu": {"results"}, "search": {""}, "start_date": {"2024-01-01"}, "end_date": {""}}
	got := Link("/dashboard", q, map[string]string{"page": "2"})
	want := "/dashboard?menu=results&page=2&start_date=2024-01-01"
	if got != want {
		t.Errorf("Link = %q, want %q", got, want)
	}
}

func TestLink_OverrideRemoves(t *testing.T) {
	q := url.Values{"menu": {"results"}, "search": {"LAB"}}
	if got := Link("/dashboard", q, map[string]string{"search": ""}); got != "/dashboard?menu=results" {
		t.Errorf("Link = %q", got)
	}
	if got := Link("/dashboard", nil, nil); got != "/dashboard" {
		t.Errorf("Link = %q", got)
	}
}

func TestNewView_FirstPage(t *testing.T) {
	q := url.Values{"menu": {"patients"}}
	v := NewView("/dashboard", q, Params{Page: 1, Limit: 10}, 35)

	if v.TotalPages != 4 || v.From != 1 || v.To != 10 {
		t.Errorf("unexpected view %+v", v)
	}
	if v.HasPrev || !v.HasNext {
		t.Error("first page should have next only")
	}
	if v.NextURL != "/dashboard?menu=patients&page=2" {
		t.Errorf("NextURL = %q", v.NextURL)
	}
	if len(v.Pages) != 4 || !v.Pages[0].Current {
		t.Errorf("unexpected pages %+v", v.Pages)
	}
}

func TestNewView_LastPartialPage(t *testing.T) {
	v := NewView("/dashboard", nil, Params{Page: 4, Limit: 10}, 35)
	if v.From != 31 || v.To != 35 || v.HasNext || !v.HasPrev {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestNewView_Empty(t *testing.T) {
	v := NewView("/dashboard", nil, Params{Page: 1, Limit: 10}, 0)
	if v.TotalPages != 1 || v.From != 0 || v.To != 0 || v.HasNext || v.HasPrev {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestNewView_WindowWithGaps(t *testing.T) {
	v := NewView("/dashboard", nil, Params{Page: 10, Limit: 10}, 200)

	var numbers []int
	gaps := 0
	for _, p := range v.Pages {
		if p.Gap {
			gaps++
			continue
		}
		numbers = append(numbers, p.Number)
	}
	want := []int{1, 8, 9, 10, 11, 12, 20}
	if len(numbers) != len(want) {
		t.Fatalf("pages = %v, want %v", numbers, want)
	}
	for i := range want {
		if numbers[i] != want[i] {
			t.Fatalf("pages = %v, want %v", numbers, want)
		}
	}
	if gaps != 2 {
		t.Errorf("expected 2 gaps, got %d", gaps)
	}
}
