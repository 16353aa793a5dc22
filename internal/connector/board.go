package connector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/job-scanner/internal/logging"
	"github.com/job-scanner/internal/ratelimit"
	"github.com/job-scanner/internal/retry"
	"github.com/job-scanner/internal/types"
)

// Default selectors cover the common listing-page shape; sources with
// other markup override them via params.
const (
	defaultItemSelector     = "li.job, div.job-listing, article.job"
	defaultTitleSelector    = "h2, h3, .title"
	defaultLinkSelector     = "a"
	defaultCompanySelector  = ".company"
	defaultLocationSelector = ".location"
)

// BoardConnector scrapes a job board listing page. Optionally follows
// each posting link to pull the full description, capped and paced the
// same way as the sitemap crawl.
type BoardConnector struct {
	client *Client
	window *ratelimit.Window
}

// NewBoardConnector constructs the connector with its own request window.
func NewBoardConnector(client *Client) *BoardConnector {
	return &BoardConnector{
		client: client,
		window: ratelimit.NewWindow(20, 5),
	}
}

func (c *BoardConnector) Type() types.SourceType { return types.SourceBoard }

// Fetch scrapes the listing page into raw jobs.
func (c *BoardConnector) Fetch(ctx context.Context, src types.SourceConfig) ([]types.RawJob, error) {
	logger := logging.FromContext(ctx)

	body, _, err := c.client.Get(ctx, src.Config.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(src.Config.URL)
	if err != nil {
		return nil, fmt.Errorf("parse board url: %w", err)
	}

	sel := func(key, fallback string) string {
		if v := src.Config.Params[key]; v != "" {
			return v
		}
		return fallback
	}

	var jobs []types.RawJob
	doc.Find(sel("itemSelector", defaultItemSelector)).Each(func(_ int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find(sel("titleSelector", defaultTitleSelector)).First().Text())
		href, _ := item.Find(sel("linkSelector", defaultLinkSelector)).First().Attr("href")
		if title == "" || href == "" {
			return
		}

		link, err := base.Parse(href)
		if err != nil {
			return
		}

		company := strings.TrimSpace(item.Find(sel("companySelector", defaultCompanySelector)).First().Text())
		if company == "" {
			company = src.Config.Company
		}

		jobs = append(jobs, types.RawJob{
			SourceID:     src.ID,
			Source:       src.Type,
			Title:        title,
			Company:      company,
			LocationRaw:  strings.TrimSpace(item.Find(sel("locationSelector", defaultLocationSelector)).First().Text()),
			CanonicalURL: link.String(),
		})
	})

	logger.WithField("listings", len(jobs)).Info("Board page scraped")

	if src.Config.Params["fetchDetails"] == "true" {
		c.fillDescriptions(ctx, jobs)
	}
	return jobs, nil
}

// fillDescriptions follows each posting link for the full description.
// Failures leave the description empty; they never propagate.
func (c *BoardConnector) fillDescriptions(ctx context.Context, jobs []types.RawJob) {
	logger := logging.FromContext(ctx)

	limit := len(jobs)
	if limit > crawlPageCap {
		limit = crawlPageCap
	}

	for i := 0; i < limit; i++ {
		if i > 0 {
			if err := retry.Sleep(ctx, crawlFetchDelay); err != nil {
				return
			}
		}
		if err := c.window.Wait(ctx); err != nil {
			return
		}

		body, _, err := c.client.Get(ctx, jobs[i].CanonicalURL)
		if err != nil {
			logger.WithError(err).WithField("url", jobs[i].CanonicalURL).Warn("Skipping detail page")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			logger.WithError(err).WithField("url", jobs[i].CanonicalURL).Warn("Unparseable detail page")
			continue
		}

		if html, err := doc.Find("body").Html(); err == nil {
			jobs[i].DescriptionHTML = html
		}
	}
}
