package scrape

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/andybalholm/brotli"
)

func listingHTML(title, price, date, link string) string {
	return fmt.Sprintf(`<li class="s-item">
		<a class="s-item__link" href="%s"></a>
		<div class="s-item__title"><span>%s</span></div>
		<span class="s-item__price">%s</span>
		<span class="s-item__ended-date">%s</span>
	</li>`, link, title, price, date)
}

func searchPage(page, totalPages int) string {
	var body bytes.Buffer
	body.WriteString("<html><body><ul>")
	body.WriteString(listingHTML("Shop on eBay", "$20.00", "", "https://www.ebay.com/itm/0"))
	for i := 0; i < 2; i++ {
		body.WriteString(listingHTML(
			fmt.Sprintf("Charizard PSA 10 p%d-%d", page, i),
			"$1,234.56",
			"Sold Sep 27, 2025",
			fmt.Sprintf("https://www.ebay.com/itm/%d%d?hash=x", page, i),
		))
	}
	body.WriteString("</ul>")
	if page < totalPages {
		fmt.Fprintf(&body, `<a class="pagination__next" href="/sch?page=%d">Next</a>`, page+1)
	}
	body.WriteString("</body></html>")
	return body.String()
}

func newSearchServer(t *testing.T, totalPages int, encoding string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		html := searchPage(page, totalPages)

		switch encoding {
		case "br":
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write([]byte(html))
			_ = bw.Close()
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(buf.Bytes())
		case "gzip":
			var buf bytes.Buffer
			gw := gzip.NewWriter(&buf)
			_, _ = gw.Write([]byte(html))
			_ = gw.Close()
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(buf.Bytes())
		default:
			_, _ = w.Write([]byte(html))
		}
	}))
}

func TestStaticCollectPagination(t *testing.T) {
	server := newSearchServer(t, 3, "")
	defer server.Close()

	fetcher := NewStaticFetcher()
	got, err := fetcher.Collect(context.Background(), server.URL+"/sch?page=1", 2)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	// 2 real listings per page, 2 pages, placeholder dropped.
	if len(got) != 4 {
		t.Fatalf("got %d fragments, want 4", len(got))
	}
	if got[0].Title != "Charizard PSA 10 p1-0" || got[2].Title != "Charizard PSA 10 p2-0" {
		t.Errorf("fragments out of page order: %q then %q", got[0].Title, got[2].Title)
	}
	if got[0].PriceText != "$1,234.56" {
		t.Errorf("price text = %q", got[0].PriceText)
	}
	if got[0].SoldDate != "Sold Sep 27, 2025" {
		t.Errorf("sold date = %q", got[0].SoldDate)
	}
}

func TestStaticCollectEncodings(t *testing.T) {
	for _, encoding := range []string{"br", "gzip"} {
		t.Run(encoding, func(t *testing.T) {
			server := newSearchServer(t, 1, encoding)
			defer server.Close()

			got, err := NewStaticFetcher().Collect(context.Background(), server.URL+"/sch", 1)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			if len(got) != 2 {
				t.Errorf("got %d fragments, want 2", len(got))
			}
		})
	}
}

func TestStaticCollectServerErrorIsDegraded(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(searchPage(1, 2)))
	}))
	defer server.Close()

	got, err := NewStaticFetcher().Collect(context.Background(), server.URL+"/sch?page=1", 3)
	if err == nil {
		t.Fatal("expected error from the failed second page")
	}
	if len(got) != 2 {
		t.Errorf("degraded result has %d fragments, want the first page's 2", len(got))
	}
}
