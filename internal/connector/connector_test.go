package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/job-scanner/internal/retry"
	"github.com/job-scanner/internal/types"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(5*time.Second, "job-scanner-test/1.0")
	c.SetRetryConfig(retry.Config{
		MaxAttempts:  1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	})
	return c
}

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Remote QA Jobs</title>
    <item>
      <title>Acme: Senior QA Engineer</title>
      <link>https://example.com/jobs/1</link>
      <description>Remote worldwide QA role</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <category>Remote</category>
    </item>
    <item>
      <title>Globex: SDET</title>
      <link>https://example.com/jobs/2</link>
      <description>Automation role</description>
    </item>
    <item>
      <title></title>
      <link>https://example.com/jobs/3</link>
      <description>Missing title, must be skipped</description>
    </item>
    <item>
      <title>Initech: Test Engineer</title>
      <link>https://example.com/jobs/4</link>
    </item>
  </channel>
</rss>`

func TestRSSConnector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFeed)
	}))
	defer srv.Close()

	conn := NewRSSConnector(testClient(t))
	jobs, err := conn.Fetch(context.Background(), types.SourceConfig{
		ID:     "rss-1",
		Type:   types.SourceRSS,
		Config: types.SourceSettings{URL: srv.URL},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 3, "item without a title must be skipped")

	assert.Equal(t, "Senior QA Engineer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "https://example.com/jobs/1", jobs[0].CanonicalURL)
	assert.Equal(t, "Remote", jobs[0].LocationRaw)
	assert.NotEmpty(t, jobs[0].PostedAt)
	assert.Equal(t, "rss-1", jobs[0].SourceID)
}

func TestRemotiveConnector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "qa", r.URL.Query().Get("search"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jobs": []map[string]string{
				{
					"url":                         "https://example.com/r/1",
					"title":                       "QA Engineer",
					"company_name":                "Acme",
					"candidate_required_location": "Worldwide",
					"publication_date":            "2026-08-01T00:00:00",
					"description":                 "<p>QA role</p>",
				},
				{
					"title": "No URL, must be skipped",
				},
			},
		})
	}))
	defer srv.Close()

	conn := NewRemotiveConnector(testClient(t))
	jobs, err := conn.Fetch(context.Background(), types.SourceConfig{
		ID:   "remotive-1",
		Type: types.SourceRemotive,
		Config: types.SourceSettings{
			APIURL: srv.URL,
			Params: map[string]string{"search": "qa"},
		},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "Worldwide", jobs[0].LocationRaw)
}

func TestGreenhouseConnector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jobs": []map[string]interface{}{
				{
					"title":        "QA Lead",
					"absolute_url": "https://boards.example.com/acme/jobs/10",
					"content":      "<p>Lead the QA team</p>",
					"updated_at":   "2026-08-01T00:00:00Z",
					"location":     map[string]string{"name": "Remote - EU"},
				},
			},
		})
	}))
	defer srv.Close()

	conn := NewGreenhouseConnector(testClient(t))
	conn.baseURL = srv.URL

	jobs, err := conn.Fetch(context.Background(), types.SourceConfig{
		ID:   "gh-1",
		Type: types.SourceGreenhouse,
		Name: "Acme board",
		Config: types.SourceSettings{
			BoardToken: "acme",
			Company:    "Acme",
		},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "QA Lead", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company, "configured company fills the missing payload field")
	assert.Equal(t, "Remote - EU", jobs[0].LocationRaw)
}

func TestGreenhouseConnectorRequiresToken(t *testing.T) {
	conn := NewGreenhouseConnector(testClient(t))
	_, err := conn.Fetch(context.Background(), types.SourceConfig{ID: "gh-2", Type: types.SourceGreenhouse})
	assert.Error(t, err)
}

func TestLeverConnectorPagination(t *testing.T) {
	var pagesServed int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		skip := r.URL.Query().Get("skip")

		var postings []map[string]interface{}
		count := leverPageSize // full first page
		if skip != "0" {
			count = 2 // short second page ends pagination
		}
		for i := 0; i < count; i++ {
			postings = append(postings, map[string]interface{}{
				"text":      fmt.Sprintf("QA Engineer %s-%d", skip, i),
				"hostedUrl": fmt.Sprintf("https://jobs.example.com/%s-%d", skip, i),
				"createdAt": 1756500000000,
				"categories": map[string]string{
					"location": "Remote",
				},
			})
		}
		json.NewEncoder(w).Encode(postings)
	}))
	defer srv.Close()

	conn := NewLeverConnector(testClient(t))
	conn.baseURL = srv.URL

	jobs, err := conn.Fetch(context.Background(), types.SourceConfig{
		ID:     "lever-1",
		Type:   types.SourceLever,
		Config: types.SourceSettings{Company: "acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, pagesServed, "short page must end pagination")
	assert.Len(t, jobs, leverPageSize+2)
	assert.Equal(t, "acme", jobs[0].Company)
}

func TestBoardConnector(t *testing.T) {
	page := `<html><body>
	  <ul>
	    <li class="job"><h2>QA Engineer</h2><a href="/jobs/1">view</a><span class="company">Acme</span><span class="location">Remote</span></li>
	    <li class="job"><h2>SDET</h2><a href="/jobs/2">view</a></li>
	    <li class="job"><h2></h2><a href="/jobs/3">view</a></li>
	  </ul>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	conn := NewBoardConnector(testClient(t))
	jobs, err := conn.Fetch(context.Background(), types.SourceConfig{
		ID:     "board-1",
		Type:   types.SourceBoard,
		Config: types.SourceSettings{URL: srv.URL, Company: "Fallback Co"},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2, "listing without a title must be skipped")

	assert.Equal(t, "QA Engineer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, srv.URL+"/jobs/1", jobs[0].CanonicalURL, "relative links resolve against the board url")
	assert.Equal(t, "Fallback Co", jobs[1].Company)
}

func TestSitemapConnector(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset>
  <url><loc>%s/careers/qa-engineer</loc><lastmod>2026-08-01</lastmod></url>
  <url><loc>%s/about</loc></url>
</urlset>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/careers/qa-engineer", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
		  <meta property="og:title" content="QA Engineer">
		  <meta property="og:description" content="Remote QA role">
		</head><body></body></html>`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	conn := NewSitemapConnector(testClient(t))
	jobs, err := conn.Fetch(context.Background(), types.SourceConfig{
		ID:   "sitemap-1",
		Type: types.SourceSitemap,
		Name: "Acme careers",
		Config: types.SourceSettings{
			URL:    srv.URL + "/sitemap.xml",
			Params: map[string]string{"pathPattern": "/careers/"},
		},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1, "pathPattern filters non-career pages")
	assert.Equal(t, "QA Engineer", jobs[0].Title)
	assert.Equal(t, "Remote QA role", jobs[0].DescriptionHTML)
	assert.Equal(t, "2026-08-01", jobs[0].PostedAt)
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry(testClient(t))

	t.Run("unsupported type is a data error", func(t *testing.T) {
		result := registry.Fetch(context.Background(), types.SourceConfig{
			ID:   "weird-1",
			Type: types.SourceType("carrier-pigeon"),
		})
		assert.False(t, result.OK)
		assert.Equal(t, types.ErrorUnsupportedSource, result.ErrorType)
	})

	t.Run("http 500 maps into the taxonomy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		result := registry.Fetch(context.Background(), types.SourceConfig{
			ID:     "rss-err",
			Type:   types.SourceRSS,
			Config: types.SourceSettings{URL: srv.URL},
		})
		assert.False(t, result.OK)
		assert.Equal(t, types.ErrorHTTP, result.ErrorType)
		assert.Equal(t, 500, result.HTTPStatus)
	})

	t.Run("happy path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, rssFeed)
		}))
		defer srv.Close()

		result := registry.Fetch(context.Background(), types.SourceConfig{
			ID:     "rss-ok",
			Type:   types.SourceRSS,
			Config: types.SourceSettings{URL: srv.URL},
		})
		assert.True(t, result.OK)
		assert.Len(t, result.Jobs, 3)
	})
}
