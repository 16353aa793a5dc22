package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/job-scanner/internal/types"
)

const (
	leverBaseURL  = "https://api.lever.co/v0/postings"
	leverPageSize = 100
	leverMaxPages = 5
)

// LeverConnector handles the Lever postings API, paginated via
// skip/limit. Pagination stops on a short page or after leverMaxPages,
// whichever comes first, bounding worst-case run time.
type LeverConnector struct {
	client  *Client
	baseURL string
}

// NewLeverConnector constructs the connector.
func NewLeverConnector(client *Client) *LeverConnector {
	return &LeverConnector{client: client, baseURL: leverBaseURL}
}

func (c *LeverConnector) Type() types.SourceType { return types.SourceLever }

type leverPosting struct {
	Text             string          `json:"text"`
	HostedURL        string          `json:"hostedUrl"`
	CreatedAt        int64           `json:"createdAt"` // ms epoch
	DescriptionPlain string          `json:"descriptionPlain"`
	Description      string          `json:"description"`
	Categories       leverCategories `json:"categories"`
	WorkplaceType    string          `json:"workplaceType"`
}

type leverCategories struct {
	Location   string `json:"location"`
	Team       string `json:"team"`
	Commitment string `json:"commitment"`
}

// Fetch pages through the company's postings.
func (c *LeverConnector) Fetch(ctx context.Context, src types.SourceConfig) ([]types.RawJob, error) {
	if src.Config.Company == "" {
		return nil, fmt.Errorf("lever source %s has no company", src.ID)
	}

	var jobs []types.RawJob
	for page := 0; page < leverMaxPages; page++ {
		endpoint := fmt.Sprintf("%s/%s?mode=json&limit=%d&skip=%d",
			c.baseURL, src.Config.Company, leverPageSize, page*leverPageSize)

		body, _, err := c.client.Get(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}

		var postings []leverPosting
		if err := json.Unmarshal(body, &postings); err != nil {
			return nil, fmt.Errorf("json unmarshal page %d: %w", page+1, err)
		}

		for _, p := range postings {
			if p.Text == "" || p.HostedURL == "" {
				continue
			}

			description := p.Description
			if description == "" {
				description = p.DescriptionPlain
			}

			location := p.Categories.Location
			if p.WorkplaceType != "" {
				location = location + " " + p.WorkplaceType
			}

			var postedAt string
			if p.CreatedAt > 0 {
				postedAt = time.UnixMilli(p.CreatedAt).UTC().Format(time.RFC3339)
			}

			jobs = append(jobs, types.RawJob{
				SourceID:        src.ID,
				Source:          src.Type,
				Title:           p.Text,
				Company:         src.Config.Company,
				LocationRaw:     location,
				DescriptionHTML: description,
				CanonicalURL:    p.HostedURL,
				PostedAt:        postedAt,
			})
		}

		if len(postings) < leverPageSize {
			break // Last page
		}
	}
	return jobs, nil
}
