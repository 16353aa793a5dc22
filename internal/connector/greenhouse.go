package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/job-scanner/internal/types"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// GreenhouseConnector handles Greenhouse job board JSON APIs, keyed by
// board token.
type GreenhouseConnector struct {
	client  *Client
	baseURL string
}

// NewGreenhouseConnector constructs the connector.
func NewGreenhouseConnector(client *Client) *GreenhouseConnector {
	return &GreenhouseConnector{client: client, baseURL: greenhouseBaseURL}
}

func (c *GreenhouseConnector) Type() types.SourceType { return types.SourceGreenhouse }

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	Title       string             `json:"title"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
	UpdatedAt   string             `json:"updated_at"`
	Location    greenhouseLocation `json:"location"`
	CompanyName string             `json:"company_name"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// Fetch retrieves the public board. Company falls back to the configured
// company name, then the source name, when the payload omits it.
func (c *GreenhouseConnector) Fetch(ctx context.Context, src types.SourceConfig) ([]types.RawJob, error) {
	if src.Config.BoardToken == "" {
		return nil, fmt.Errorf("greenhouse source %s has no boardToken", src.ID)
	}

	endpoint := fmt.Sprintf("%s/%s/jobs?content=true", c.baseURL, src.Config.BoardToken)
	body, _, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp greenhouseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	jobs := make([]types.RawJob, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if j.Title == "" || j.AbsoluteURL == "" {
			continue
		}

		company := j.CompanyName
		if company == "" {
			company = src.Config.Company
		}
		if company == "" {
			company = src.Name
		}

		jobs = append(jobs, types.RawJob{
			SourceID:        src.ID,
			Source:          src.Type,
			Title:           j.Title,
			Company:         company,
			LocationRaw:     j.Location.Name,
			DescriptionHTML: j.Content,
			CanonicalURL:    j.AbsoluteURL,
			PostedAt:        j.UpdatedAt,
		})
	}
	return jobs, nil
}
