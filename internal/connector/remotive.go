package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/job-scanner/internal/types"
)

const remotiveDefaultURL = "https://remotive.com/api/remote-jobs"

// RemotiveConnector handles Remotive-style JSON APIs: a single GET
// returning {"jobs": [...]}.
type RemotiveConnector struct {
	client *Client
}

// NewRemotiveConnector constructs the connector.
func NewRemotiveConnector(client *Client) *RemotiveConnector {
	return &RemotiveConnector{client: client}
}

func (c *RemotiveConnector) Type() types.SourceType { return types.SourceRemotive }

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	Location        string `json:"candidate_required_location"`
	PublicationDate string `json:"publication_date"`
	Description     string `json:"description"`
}

// Fetch queries the API once, applying any configured query params.
func (c *RemotiveConnector) Fetch(ctx context.Context, src types.SourceConfig) ([]types.RawJob, error) {
	endpoint := src.Config.APIURL
	if endpoint == "" {
		endpoint = remotiveDefaultURL
	}

	if len(src.Config.Params) > 0 {
		q := url.Values{}
		for k, v := range src.Config.Params {
			q.Set(k, v)
		}
		endpoint += "?" + q.Encode()
	}

	body, _, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp remotiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	jobs := make([]types.RawJob, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if j.Title == "" || j.URL == "" {
			continue
		}
		jobs = append(jobs, types.RawJob{
			SourceID:        src.ID,
			Source:          src.Type,
			Title:           j.Title,
			Company:         j.CompanyName,
			LocationRaw:     j.Location,
			DescriptionHTML: j.Description,
			CanonicalURL:    j.URL,
			PostedAt:        j.PublicationDate,
		})
	}
	return jobs, nil
}
