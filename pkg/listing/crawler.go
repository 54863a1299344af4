package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
	"github.com/samvad-hq/samvad-report-harvester/pkg/httpclient"
)

// Config controls how listing pages are addressed and fetched.
type Config struct {
	ListingURL string
	PageParam  string
	MaxPages   int // 0 means unlimited
	UserAgent  string
}

// Page is the result of a single listing fetch.
type Page struct {
	Number  int
	Records []domain.ListingRecord
	HasNext bool
}

// Crawler walks the paginated listing. Each page index is fetched exactly once
// per crawl; records and the next-page signal come from the same document.
type Crawler struct {
	cfg       Config
	base      *url.URL
	client    HTTPClient
	extractor *Extractor
	log       Logger
}

// DefaultHTTPClient returns the resty-backed client used when none is injected.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(30 * time.Second) }

// NewCrawler validates cfg and wires the crawler.
func NewCrawler(cfg Config, extractor *Extractor, client HTTPClient, log Logger) (*Crawler, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.ListingURL))
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("listing url %q must be absolute", cfg.ListingURL)
	}
	if strings.TrimSpace(cfg.PageParam) == "" {
		return nil, fmt.Errorf("page param is empty")
	}
	if cfg.MaxPages < 0 {
		return nil, fmt.Errorf("max pages must not be negative")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &Crawler{
		cfg:       cfg,
		base:      base,
		client:    client,
		extractor: extractor,
		log:       ensureLogger(log),
	}, nil
}

// CrawlPage fetches page n (1-based) and returns its records in listing order.
func (c *Crawler) CrawlPage(ctx context.Context, n int) ([]domain.ListingRecord, error) {
	page, err := c.fetchPage(ctx, n)
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

// CrawlAll walks pages from 1 until a page yields no records, the page has no
// next-page link, or the configured page cap is reached.
func (c *Crawler) CrawlAll(ctx context.Context) ([]domain.ListingRecord, error) {
	var all []domain.ListingRecord
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.fetchPage(ctx, n)
		if err != nil {
			return nil, err
		}
		if len(page.Records) == 0 {
			c.log.InfoObj("listing exhausted", "listing_page", map[string]any{"page": n})
			break
		}
		all = append(all, page.Records...)

		if !page.HasNext {
			c.log.InfoObj("last listing page reached", "listing_page", map[string]any{
				"page":    n,
				"records": len(page.Records),
			})
			break
		}
		if c.cfg.MaxPages > 0 && n >= c.cfg.MaxPages {
			c.log.WarnObj("listing page cap reached", "listing_page", map[string]any{
				"page":      n,
				"max_pages": c.cfg.MaxPages,
			})
			break
		}
	}
	return all, nil
}

func (c *Crawler) fetchPage(ctx context.Context, n int) (Page, error) {
	if n < 1 {
		return Page{}, fmt.Errorf("invalid page number %d", n)
	}
	pageURL := c.PageURL(n)

	resp, err := c.client.Get(ctx, pageURL, Headers(c.cfg.UserAgent))
	if err != nil {
		return Page{}, fmt.Errorf("%w: listing page %d: %v", domain.ErrFetchFailed, n, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return Page{}, fmt.Errorf("%w: listing page %d returned status %d body: %s",
			domain.ErrFetchFailed, n, resp.StatusCode(), responseSnippet(body))
	}

	var contentType string
	if h := resp.Header(); h != nil {
		contentType = h.Get("Content-Type")
	}
	doc, err := ParsePage(body, contentType)
	if err != nil {
		return Page{}, fmt.Errorf("%w: listing page %d: %v", domain.ErrFetchFailed, n, err)
	}

	page := Page{
		Number:  n,
		Records: c.extractor.Extract(doc),
		HasNext: c.extractor.HasNextPage(doc),
	}
	c.log.InfoObj("listing page fetched", "listing_page", map[string]any{
		"page":     n,
		"records":  len(page.Records),
		"has_next": page.HasNext,
	})
	return page, nil
}

// PageURL returns the listing URL addressing page n.
func (c *Crawler) PageURL(n int) string {
	u := *c.base
	q := u.Query()
	q.Set(c.cfg.PageParam, strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}
