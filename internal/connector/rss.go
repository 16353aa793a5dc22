package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/job-scanner/internal/types"
)

// RSSConnector handles generic RSS and Atom feeds via gofeed.
type RSSConnector struct {
	client *Client
	parser *gofeed.Parser
}

// NewRSSConnector constructs the feed connector.
func NewRSSConnector(client *Client) *RSSConnector {
	return &RSSConnector{client: client, parser: gofeed.NewParser()}
}

func (c *RSSConnector) Type() types.SourceType { return types.SourceRSS }

// Fetch downloads and parses the feed. Items missing a title or link are
// skipped; those two fields are load-bearing.
func (c *RSSConnector) Fetch(ctx context.Context, src types.SourceConfig) ([]types.RawJob, error) {
	body, _, err := c.client.Get(ctx, src.Config.URL)
	if err != nil {
		return nil, err
	}

	feed, err := c.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	jobs := make([]types.RawJob, 0, len(feed.Items))
	for _, item := range feed.Items {
		title, company := splitFeedTitle(item.Title)
		if title == "" || item.Link == "" {
			continue
		}

		description := item.Content
		if description == "" {
			description = item.Description
		}

		var postedAt string
		if item.PublishedParsed != nil {
			postedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		}

		jobs = append(jobs, types.RawJob{
			SourceID:        src.ID,
			Source:          src.Type,
			Title:           title,
			Company:         company,
			LocationRaw:     firstCategory(item),
			DescriptionHTML: description,
			CanonicalURL:    item.Link,
			PostedAt:        postedAt,
		})
	}
	return jobs, nil
}

// splitFeedTitle handles the common "Company: Job Title" feed convention.
// Without a separator the whole string is the title and the company stays
// empty.
func splitFeedTitle(raw string) (title, company string) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, ": "); idx > 0 {
		return strings.TrimSpace(raw[idx+2:]), strings.TrimSpace(raw[:idx])
	}
	return raw, ""
}

// firstCategory returns the first feed category that looks like a
// location hint, favoring region-tagged feeds.
func firstCategory(item *gofeed.Item) string {
	for _, cat := range item.Categories {
		if cat != "" {
			return cat
		}
	}
	return ""
}
