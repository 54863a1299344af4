package listing

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// Layout describes where records live in a listing page.
type Layout struct {
	RowSelector  string
	NextSelector string
	MinCells     int

	TitleCell    int
	CompanyCell  int
	ArtifactCell int
	DateCell     int
}

// DefaultLayout matches the research board table.
func DefaultLayout() Layout {
	return Layout{
		RowSelector:  "table.type_1 tr",
		NextSelector: "td.pgR a",
		MinCells:     5,
		TitleCell:    1,
		CompanyCell:  2,
		ArtifactCell: 3,
		DateCell:     4,
	}
}

// Extractor turns a parsed listing page into records. It never fails: rows
// without a detail id or an artifact link are skipped.
type Extractor struct {
	base    *url.URL
	idParam string
	layout  Layout
}

// NewExtractor builds an extractor resolving relative links against baseURL.
func NewExtractor(baseURL, idParam string, layout Layout) (*Extractor, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if strings.TrimSpace(idParam) == "" {
		return nil, fmt.Errorf("id param is empty")
	}
	if layout.RowSelector == "" {
		layout = DefaultLayout()
	}
	return &Extractor{base: base, idParam: idParam, layout: layout}, nil
}

// ParsePage decodes body to UTF-8 (using contentType and any meta charset) and parses it.
func ParsePage(body []byte, contentType string) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Extract returns the page's records in listing order.
func (e *Extractor) Extract(doc *goquery.Document) []domain.ListingRecord {
	if doc == nil {
		return nil
	}
	records := make([]domain.ListingRecord, 0)
	doc.Find(e.layout.RowSelector).Each(func(_ int, row *goquery.Selection) {
		if rec, ok := e.extractRow(row); ok {
			records = append(records, rec)
		}
	})
	return records
}

// HasNextPage reports whether the page carries a next-page link.
func (e *Extractor) HasNextPage(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	return doc.Find(e.layout.NextSelector).Length() > 0
}

func (e *Extractor) extractRow(row *goquery.Selection) (domain.ListingRecord, bool) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() < e.layout.MinCells {
		return domain.ListingRecord{}, false
	}

	titleCell := cells.Eq(e.layout.TitleCell)
	detailHref, ok := titleCell.Find("a[href]").First().Attr("href")
	if !ok {
		return domain.ListingRecord{}, false
	}
	detailURL, err := ResolveURL(e.base, detailHref)
	if err != nil {
		return domain.ListingRecord{}, false
	}
	id := e.recordID(detailURL)
	if id == "" {
		return domain.ListingRecord{}, false
	}

	artifactHref, _ := cells.Eq(e.layout.ArtifactCell).Find("a[href]").First().Attr("href")
	artifactURL, ok := e.artifactURL(artifactHref)
	if !ok {
		return domain.ListingRecord{}, false
	}

	return domain.ListingRecord{
		ID:          id,
		Title:       cleanText(titleCell.Text()),
		Company:     cleanText(cells.Eq(e.layout.CompanyCell).Text()),
		RawDate:     cleanText(cells.Eq(e.layout.DateCell).Text()),
		ArtifactURL: artifactURL,
		DetailURL:   detailURL,
	}, true
}

// artifactURL resolves an attachment link. Only absolute http(s) targets other
// than the listing page itself are usable.
func (e *Extractor) artifactURL(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	resolved, err := ResolveURL(e.base, href)
	if err != nil {
		return "", false
	}
	u, err := url.Parse(resolved)
	if err != nil || u.Host == "" {
		return "", false
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	if e.base != nil {
		page := *e.base
		page.Fragment = ""
		if u.String() == page.String() {
			return "", false
		}
	}
	return resolved, true
}

func (e *Extractor) recordID(detailURL string) string {
	u, err := url.Parse(detailURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get(e.idParam))
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
