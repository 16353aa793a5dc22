package connector

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/job-scanner/internal/logging"
	"github.com/job-scanner/internal/ratelimit"
	"github.com/job-scanner/internal/retry"
	"github.com/job-scanner/internal/types"
)

const (
	crawlPageCap    = 50
	crawlFetchDelay = 1500 * time.Millisecond
)

// SitemapConnector crawls a sitemap.xml and scrapes each listed page for
// a job posting. Sub-page fetches are sequential, paced by a fixed delay
// plus a sliding window limiter, and a single broken page is logged and
// skipped rather than failing the source.
type SitemapConnector struct {
	client *Client
	window *ratelimit.Window
}

// NewSitemapConnector constructs the connector with its own request
// window.
func NewSitemapConnector(client *Client) *SitemapConnector {
	return &SitemapConnector{
		client: client,
		window: ratelimit.NewWindow(20, 5),
	}
}

func (c *SitemapConnector) Type() types.SourceType { return types.SourceSitemap }

type sitemapURLSet struct {
	URLs []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Fetch downloads the sitemap, filters entries, and scrapes each page.
func (c *SitemapConnector) Fetch(ctx context.Context, src types.SourceConfig) ([]types.RawJob, error) {
	logger := logging.FromContext(ctx)

	body, _, err := c.client.Get(ctx, src.Config.URL)
	if err != nil {
		return nil, err
	}

	var urlset sitemapURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return nil, fmt.Errorf("xml unmarshal sitemap: %w", err)
	}

	// An optional path pattern narrows the crawl to job pages on mixed
	// sitemaps.
	pattern := src.Config.Params["pathPattern"]

	var locs []sitemapURL
	for _, u := range urlset.URLs {
		if u.Loc == "" {
			continue
		}
		if pattern != "" && !strings.Contains(u.Loc, pattern) {
			continue
		}
		locs = append(locs, u)
		if len(locs) >= crawlPageCap {
			break
		}
	}

	logger.WithFields(map[string]interface{}{
		"sitemapEntries": len(urlset.URLs),
		"crawling":       len(locs),
	}).Info("Sitemap parsed")

	var jobs []types.RawJob
	for i, u := range locs {
		if i > 0 {
			if err := retry.Sleep(ctx, crawlFetchDelay); err != nil {
				return jobs, err
			}
		}
		if err := c.window.Wait(ctx); err != nil {
			return jobs, err
		}

		job, err := c.scrapePage(ctx, src, u)
		if err != nil {
			// One broken detail page must not abort the source.
			logger.WithError(err).WithField("url", u.Loc).Warn("Skipping broken page")
			continue
		}
		if job != nil {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

// scrapePage fetches one page and extracts the posting from standard meta
// tags, falling back to the document title.
func (c *SitemapConnector) scrapePage(ctx context.Context, src types.SourceConfig, u sitemapURL) (*types.RawJob, error) {
	body, _, err := c.client.Get(ctx, u.Loc)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		return nil, nil // not a posting page
	}

	description := metaContent(doc, `meta[property="og:description"]`)
	if description == "" {
		description = metaContent(doc, `meta[name="description"]`)
	}

	company := src.Config.Company
	if company == "" {
		company = src.Name
	}

	return &types.RawJob{
		SourceID:        src.ID,
		Source:          src.Type,
		Title:           title,
		Company:         company,
		DescriptionHTML: description,
		CanonicalURL:    u.Loc,
		PostedAt:        u.LastMod,
	}, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
