package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"golang.org/x/text/encoding/korean"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
	"github.com/samvad-hq/samvad-report-harvester/pkg/httpclient"
)

const testListingURL = "https://finance.example.com/research/industry_list.naver?searchType=upjong"

type testRow struct {
	id, title, company, pdf, date string
}

func renderPage(rows []testRow, hasNext bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="type_1"><tr><th>분류</th><th>제목</th></tr>`)
	b.WriteString(`<tr><td colspan="6" class="blank_07"></td></tr>`)
	for _, r := range rows {
		detail := ""
		if r.id != "" {
			detail = fmt.Sprintf(`<a href="industry_read.naver?nid=%s&page=1">%s</a>`, r.id, r.title)
		} else {
			detail = r.title
		}
		pdf := ""
		if r.pdf != "" {
			pdf = fmt.Sprintf(`<a href="%s"><img src="ico.gif"></a>`, r.pdf)
		}
		fmt.Fprintf(&b, `<tr><td>에너지</td><td>%s</td><td>%s</td><td class="file">%s</td><td class="date">%s</td><td>100</td></tr>`,
			detail, r.company, pdf, r.date)
	}
	b.WriteString(`</table><table class="Nnavi"><tr><td class="on"><a href="#">1</a></td>`)
	if hasNext {
		b.WriteString(`<td class="pgR"><a href="?page=2">다음</a></td>`)
	}
	b.WriteString(`</tr></table></body></html>`)
	return b.String()
}

type stubResponse struct {
	status int
	body   []byte
	header http.Header
}

func (r stubResponse) Body() []byte        { return r.body }
func (r stubResponse) StatusCode() int     { return r.status }
func (r stubResponse) Header() http.Header { return r.header }

// pagedClient serves canned pages keyed by the page query parameter.
type pagedClient struct {
	t      *testing.T
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	err    error
	calls  map[string]int
	ua     []string
}

func (c *pagedClient) Get(_ context.Context, raw string, headers map[string]string) (httpclient.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	u, err := url.Parse(raw)
	if err != nil {
		c.t.Fatalf("bad url %q: %v", raw, err)
	}
	page := u.Query().Get("page")
	c.calls[page]++
	c.ua = append(c.ua, headers[HeaderUserAgent])
	if c.err != nil {
		return nil, c.err
	}
	status := http.StatusOK
	if s, ok := c.status[page]; ok {
		status = s
	}
	body, ok := c.pages[page]
	if !ok {
		body = renderPage(nil, false)
	}
	return stubResponse{status: status, body: []byte(body), header: http.Header{"Content-Type": {"text/html; charset=utf-8"}}}, nil
}

func newTestCrawler(t *testing.T, client HTTPClient, maxPages int) *Crawler {
	t.Helper()
	ext, err := NewExtractor(testListingURL, "nid", DefaultLayout())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	c, err := NewCrawler(Config{
		ListingURL: testListingURL,
		PageParam:  "page",
		MaxPages:   maxPages,
		UserAgent:  "UA",
	}, ext, client, nil)
	if err != nil {
		t.Fatalf("NewCrawler: %v", err)
	}
	return c
}

func TestExtractSkipsIncompleteRows(t *testing.T) {
	html := renderPage([]testRow{
		{id: "101", title: "Solar outlook", company: "Alpha Securities", pdf: "https://files.example.com/101.pdf", date: "24.03.15"},
		{id: "", title: "No detail link", company: "Beta", pdf: "https://files.example.com/x.pdf", date: "24.03.14"},
		{id: "103", title: "No attachment", company: "Gamma", pdf: "", date: "24.03.13"},
		{id: "104", title: "Relative pdf", company: "Delta", pdf: "/stock_research/104.pdf", date: "24.03.12"},
	}, true)

	doc, err := ParsePage([]byte(html), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	ext, err := NewExtractor(testListingURL, "nid", DefaultLayout())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	records := ext.Extract(doc)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	first := records[0]
	if first.ID != "101" || first.Title != "Solar outlook" || first.Company != "Alpha Securities" || first.RawDate != "24.03.15" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.DetailURL != "https://finance.example.com/research/industry_read.naver?nid=101&page=1" {
		t.Fatalf("unexpected detail url %q", first.DetailURL)
	}
	if records[1].ArtifactURL != "https://finance.example.com/stock_research/104.pdf" {
		t.Fatalf("relative artifact link not resolved: %q", records[1].ArtifactURL)
	}
	if !ext.HasNextPage(doc) {
		t.Fatalf("expected next page signal")
	}
}

func TestExtractRejectsPlaceholderArtifactLinks(t *testing.T) {
	html := renderPage([]testRow{
		{id: "201", title: "Fragment only", company: "A", pdf: "#", date: "24.03.15"},
		{id: "202", title: "Script link", company: "B", pdf: "javascript:void(0)", date: "24.03.15"},
		{id: "203", title: "Mail link", company: "C", pdf: "mailto:desk@example.com", date: "24.03.15"},
		{id: "204", title: "Self link", company: "D", pdf: testListingURL + "#top", date: "24.03.15"},
		{id: "205", title: "Blank", company: "E", pdf: "   ", date: "24.03.15"},
		{id: "206", title: "Real report", company: "F", pdf: "/stock_research/206.pdf", date: "24.03.15"},
	}, false)

	doc, err := ParsePage([]byte(html), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	ext, err := NewExtractor(testListingURL, "nid", DefaultLayout())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}

	records := ext.Extract(doc)
	if len(records) != 1 {
		t.Fatalf("expected only the real report, got %d: %+v", len(records), records)
	}
	if records[0].ID != "206" || records[0].ArtifactURL != "https://finance.example.com/stock_research/206.pdf" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestExtractNeverFailsOnGarbage(t *testing.T) {
	doc, err := ParsePage([]byte("<<not html at all"), "")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	ext, _ := NewExtractor(testListingURL, "nid", Layout{})
	if got := ext.Extract(doc); len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
	if ext.HasNextPage(doc) {
		t.Fatalf("expected no next page")
	}
	if got := ext.Extract(nil); got != nil {
		t.Fatalf("expected nil for nil document")
	}
}

func TestParsePageDecodesEUCKR(t *testing.T) {
	html := renderPage([]testRow{{id: "7", title: "태양광 전망", company: "한국증권", pdf: "/a.pdf", date: "24.01.02"}}, false)
	encoded, err := korean.EUCKR.NewEncoder().String(html)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	doc, err := ParsePage([]byte(encoded), "text/html; charset=euc-kr")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	ext, _ := NewExtractor(testListingURL, "nid", DefaultLayout())
	records := ext.Extract(doc)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Title != "태양광 전망" || records[0].Company != "한국증권" {
		t.Fatalf("text not decoded: %+v", records[0])
	}
}

func TestCrawlAllStopsAtEmptyPageWithoutFetchingNext(t *testing.T) {
	client := &pagedClient{t: t, pages: map[string]string{
		"1": renderPage([]testRow{{id: "1", title: "a", pdf: "/1.pdf"}, {id: "2", title: "b", pdf: "/2.pdf"}}, true),
		"2": renderPage([]testRow{{id: "3", title: "c", pdf: "/3.pdf"}}, true),
		"3": renderPage(nil, true),
		"4": renderPage([]testRow{{id: "4", title: "d", pdf: "/4.pdf"}}, false),
	}}
	c := newTestCrawler(t, client, 0)

	records, err := c.CrawlAll(context.Background())
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"1", "2", "3"} {
		if records[i].ID != want {
			t.Fatalf("record %d: expected id %s, got %s", i, want, records[i].ID)
		}
	}
	for page, want := range map[string]int{"1": 1, "2": 1, "3": 1, "4": 0} {
		if got := client.calls[page]; got != want {
			t.Fatalf("page %s fetched %d times, want %d", page, got, want)
		}
	}
	for _, ua := range client.ua {
		if ua != "UA" {
			t.Fatalf("expected User-Agent UA, got %q", ua)
		}
	}
}

func TestCrawlAllStopsWithoutNextSignal(t *testing.T) {
	client := &pagedClient{t: t, pages: map[string]string{
		"1": renderPage([]testRow{{id: "1", title: "a", pdf: "/1.pdf"}}, false),
		"2": renderPage([]testRow{{id: "2", title: "b", pdf: "/2.pdf"}}, false),
	}}
	c := newTestCrawler(t, client, 0)

	records, err := c.CrawlAll(context.Background())
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(records) != 1 || client.calls["2"] != 0 {
		t.Fatalf("expected crawl to stop at page 1, got %d records and %d page-2 fetches", len(records), client.calls["2"])
	}
}

func TestCrawlAllHonoursPageCap(t *testing.T) {
	client := &pagedClient{t: t, pages: map[string]string{
		"1": renderPage([]testRow{{id: "1", title: "a", pdf: "/1.pdf"}}, true),
		"2": renderPage([]testRow{{id: "2", title: "b", pdf: "/2.pdf"}}, true),
		"3": renderPage([]testRow{{id: "3", title: "c", pdf: "/3.pdf"}}, true),
	}}
	c := newTestCrawler(t, client, 2)

	records, err := c.CrawlAll(context.Background())
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(records) != 2 || client.calls["3"] != 0 {
		t.Fatalf("expected 2 records and no page-3 fetch, got %d records and %d fetches", len(records), client.calls["3"])
	}
}

func TestCrawlPageFailures(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		client := &pagedClient{t: t, status: map[string]int{"1": http.StatusServiceUnavailable}}
		c := newTestCrawler(t, client, 0)
		_, err := c.CrawlPage(context.Background(), 1)
		if !errors.Is(err, domain.ErrFetchFailed) {
			t.Fatalf("expected ErrFetchFailed, got %v", err)
		}
	})
	t.Run("transport", func(t *testing.T) {
		client := &pagedClient{t: t, err: errors.New("connection reset")}
		c := newTestCrawler(t, client, 0)
		_, err := c.CrawlAll(context.Background())
		if !errors.Is(err, domain.ErrFetchFailed) {
			t.Fatalf("expected ErrFetchFailed, got %v", err)
		}
		if client.calls["1"] != 1 {
			t.Fatalf("expected a single attempt, got %d", client.calls["1"])
		}
	})
	t.Run("invalid page", func(t *testing.T) {
		c := newTestCrawler(t, &pagedClient{t: t}, 0)
		if _, err := c.CrawlPage(context.Background(), 0); err == nil {
			t.Fatalf("expected error for page 0")
		}
	})
}

func TestPageURLKeepsExistingQuery(t *testing.T) {
	c := newTestCrawler(t, &pagedClient{t: t}, 0)
	u, err := url.Parse(c.PageURL(3))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Query().Get("page") != "3" || u.Query().Get("searchType") != "upjong" {
		t.Fatalf("unexpected page url %s", u)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		raw, want string
		layouts   []string
	}{
		{raw: "24.03.15", want: "2024-03-15", layouts: []string{"06.01.02"}},
		{raw: " 24.03.15 ", want: "2024-03-15"},
		{raw: "2023.12.01", want: "2023-12-01"},
		{raw: "not-a-date", want: ""},
		{raw: "", want: ""},
		{raw: "24.13.40", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizeDate(tc.raw, tc.layouts...); got != tc.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
