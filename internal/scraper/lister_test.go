package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"empresascan/internal/client"
)

const detailLinkPattern = `/rapp/ficha/empresas\?id=`

// listingPage renders a minimal search-results page with detail links
// for the given IDs.
func listingPage(ids ...string) string {
	body := "<html><body><ul>"
	for _, id := range ids {
		body += fmt.Sprintf(`<li><a href="/rapp/ficha/empresas?id=%s">%s</a></li>`, id, id)
	}
	body += `<a href="/aviso-legal">Aviso legal</a>`
	body += "</ul></body></html>"
	return body
}

// newListingServer serves pre-rendered pages keyed by page number.
// Pages beyond the map return an empty result list.
func newListingServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		body, ok := pages[page]
		if !ok {
			body = listingPage()
		}
		_, _ = w.Write([]byte(body))
	}))
}

func newTestLister(t *testing.T, ts *httptest.Server, opts ...ListerOption) *Lister {
	t.Helper()

	c := client.New(5*time.Second, client.WithBackoff(1*time.Millisecond))
	base := []ListerOption{WithDelay(0)}
	l, err := NewLister(c, ts.URL+"/autonomos?page=%d", detailLinkPattern, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewLister: %v", err)
	}
	return l
}

// TestListerWalksPagination verifies the walk over multiple pages,
// dedup, and first-seen ordering.
func TestListerWalksPagination(t *testing.T) {
	t.Parallel()

	ts := newListingServer(t, map[string]string{
		"1": listingPage("B111", "B222"),
		"2": listingPage("B222", "B333"), // B222 repeats across pages
	})
	defer ts.Close()

	result, err := newTestLister(t, ts).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"B111", "B222", "B333"}
	if !reflect.DeepEqual(result.CompanyIDs, want) {
		t.Errorf("CompanyIDs = %v, want %v", result.CompanyIDs, want)
	}
	// Page 3 is empty and ends the walk; it still counts as fetched.
	if result.PagesListed != 3 {
		t.Errorf("PagesListed = %d, want 3", result.PagesListed)
	}
	if result.Stopped != nil {
		t.Errorf("expected natural end, got Stopped = %v", result.Stopped)
	}
}

// TestListerRespectsMaxPages verifies the page limit.
func TestListerRespectsMaxPages(t *testing.T) {
	t.Parallel()

	ts := newListingServer(t, map[string]string{
		"1": listingPage("B111"),
		"2": listingPage("B222"),
		"3": listingPage("B333"),
	})
	defer ts.Close()

	result, err := newTestLister(t, ts, WithMaxPages(2)).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"B111", "B222"}
	if !reflect.DeepEqual(result.CompanyIDs, want) {
		t.Errorf("CompanyIDs = %v, want %v", result.CompanyIDs, want)
	}
	if result.PagesListed != 2 {
		t.Errorf("PagesListed = %d, want 2", result.PagesListed)
	}
}

// TestListerKeepsPartialOnFailure verifies a mid-walk fetch failure
// stops the pagination but keeps the IDs collected so far.
func TestListerKeepsPartialOnFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(listingPage("B111", "B222")))
	}))
	defer ts.Close()

	result, err := newTestLister(t, ts).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"B111", "B222"}
	if !reflect.DeepEqual(result.CompanyIDs, want) {
		t.Errorf("CompanyIDs = %v, want %v", result.CompanyIDs, want)
	}
	if result.Stopped == nil {
		t.Error("expected Stopped to carry the fetch error")
	}
	if result.PagesListed != 1 {
		t.Errorf("PagesListed = %d, want 1", result.PagesListed)
	}
}

// TestListerDecodesEscapedIDs verifies URL-escaped id parameters come
// back decoded exactly once. A double decode would turn the "+" in
// "A+B" into a space and drop the company.
func TestListerDecodesEscapedIDs(t *testing.T) {
	t.Parallel()

	ts := newListingServer(t, map[string]string{
		"1": `<html><body>
<a href="/rapp/ficha/empresas?id=AB%2F123">ficha</a>
<a href="/rapp/ficha/empresas?id=A%2BB">ficha</a>
</body></html>`,
	})
	defer ts.Close()

	result, err := newTestLister(t, ts).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"AB/123", "A+B"}
	if !reflect.DeepEqual(result.CompanyIDs, want) {
		t.Errorf("CompanyIDs = %v, want %v", result.CompanyIDs, want)
	}
}

// TestListerIgnoresUnrelatedLinks verifies only detail links are collected.
func TestListerIgnoresUnrelatedLinks(t *testing.T) {
	t.Parallel()

	ts := newListingServer(t, map[string]string{
		"1": `<html><body>
<a href="/rapp/ficha/empresas?id=B999">ficha</a>
<a href="/otra/cosa?id=IGNORED">otra</a>
<a href="https://example.org/">externa</a>
</body></html>`,
	})
	defer ts.Close()

	result, err := newTestLister(t, ts).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"B999"}
	if !reflect.DeepEqual(result.CompanyIDs, want) {
		t.Errorf("CompanyIDs = %v, want %v", result.CompanyIDs, want)
	}
}

// TestNewListerInvalidPattern verifies pattern compilation errors surface.
func TestNewListerInvalidPattern(t *testing.T) {
	t.Parallel()

	c := client.New(5 * time.Second)
	if _, err := NewLister(c, "https://example.com/?page=%d", `(unclosed`); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestIDFromHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		href string
		want string
	}{
		{"plain id", "/rapp/ficha/empresas?id=B123", "B123"},
		{"id among other params", "/rapp/ficha/empresas?type=x&id=B456&p=2", "B456"},
		{"escaped id decoded once", "/rapp/ficha/empresas?id=AB%2F1", "AB/1"},
		{"escaped plus decoded once", "/rapp/ficha/empresas?id=A%2BB", "A+B"},
		{"no id parameter", "/rapp/ficha/empresas?x=1", ""},
		{"invalid escape falls back to raw match", "/rapp/ficha/empresas?id=B%ZZ9", "B%ZZ9"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := idFromHref(tt.href); got != tt.want {
				t.Errorf("idFromHref(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}
