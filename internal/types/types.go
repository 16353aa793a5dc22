// Package types provides common type definitions for the job scanner system.
package types

// SourceType identifies which connector handles a configured source.
type SourceType string

const (
	// SourceRSS represents a generic RSS or Atom feed
	SourceRSS SourceType = "rss"
	// SourceRemotive represents a Remotive-style jobs JSON API
	SourceRemotive SourceType = "remotive"
	// SourceGreenhouse represents a Greenhouse job board JSON API
	SourceGreenhouse SourceType = "greenhouse"
	// SourceLever represents the Lever postings JSON API
	SourceLever SourceType = "lever"
	// SourceSitemap represents a sitemap.xml driven page crawl
	SourceSitemap SourceType = "sitemap"
	// SourceBoard represents a job board listing page HTML scrape
	SourceBoard SourceType = "board"
)

// WorkplaceType represents how a position is located
type WorkplaceType string

const (
	// WorkplaceRemote represents a fully remote position
	WorkplaceRemote WorkplaceType = "REMOTE"
	// WorkplaceHybrid represents a mixed office/remote position
	WorkplaceHybrid WorkplaceType = "HYBRID"
	// WorkplaceOnsite represents an office-only position
	WorkplaceOnsite WorkplaceType = "ONSITE"
	// WorkplaceUnknown is used when no pattern matched
	WorkplaceUnknown WorkplaceType = "UNKNOWN"
)

// RemoteScope represents the geographic eligibility of a remote position
type RemoteScope string

const (
	// ScopeWorldwide means the position is open globally
	ScopeWorldwide RemoteScope = "WORLDWIDE"
	// ScopeEU means the position is restricted to the EU/EEA
	ScopeEU RemoteScope = "EU"
	// ScopeEurope means the position is restricted to Europe
	ScopeEurope RemoteScope = "EUROPE"
	// ScopeEMEA means the position is restricted to the EMEA region
	ScopeEMEA RemoteScope = "EMEA"
	// ScopeCountryOnly means the position is restricted to a single country
	ScopeCountryOnly RemoteScope = "COUNTRY_ONLY"
	// ScopeMultiCountry means the position names a small set of countries
	ScopeMultiCountry RemoteScope = "MULTI_COUNTRY"
	// ScopeUnknown is used when no scope pattern matched or the
	// position is not remote
	ScopeUnknown RemoteScope = "UNKNOWN"
)

// ErrorType is the closed taxonomy of source fetch failures
type ErrorType string

const (
	// ErrorRateLimited represents an HTTP 429 from the provider
	ErrorRateLimited ErrorType = "RATE_LIMITED"
	// ErrorBlocked represents an HTTP 401/403 from the provider
	ErrorBlocked ErrorType = "BLOCKED"
	// ErrorHTTP represents any other non-2xx HTTP response
	ErrorHTTP ErrorType = "HTTP_ERROR"
	// ErrorTimeout represents a timed out or aborted request
	ErrorTimeout ErrorType = "TIMEOUT"
	// ErrorParse represents a malformed payload (JSON/XML/HTML)
	ErrorParse ErrorType = "PARSE_ERROR"
	// ErrorNetwork represents a transport level failure
	ErrorNetwork ErrorType = "NETWORK_ERROR"
	// ErrorUnsupportedSource represents a source type with no connector
	ErrorUnsupportedSource ErrorType = "UNSUPPORTED_SOURCE"
	// ErrorDisabled marks a source skipped by configuration, never a
	// real failure
	ErrorDisabled ErrorType = "DISABLED"
	// ErrorUnknown is the fallback category
	ErrorUnknown ErrorType = "UNKNOWN_ERROR"
)

// RunStatus represents the lifecycle state of a pipeline invocation
type RunStatus string

const (
	// RunStatusRunning represents an invocation that has not finished
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted represents a successfully finished invocation
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed represents an invocation that aborted
	RunStatusFailed RunStatus = "failed"
)

// SourceSettings holds the per-source connector parameters.
type SourceSettings struct {
	URL        string            `json:"url,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	BoardToken string            `json:"boardToken,omitempty"`
	APIURL     string            `json:"apiUrl,omitempty"`
	Company    string            `json:"company,omitempty"`
	// ExcludeTerms discard a listing when any term appears in the
	// combined title + company + description (case-insensitive).
	ExcludeTerms []string `json:"excludeTerms,omitempty"`
}

// SourceConfig describes one configured listing source. Loaded once per
// run from sources.json and never mutated.
type SourceConfig struct {
	ID      string         `json:"id"`
	Type    SourceType     `json:"type"`
	Name    string         `json:"name"`
	Enabled bool           `json:"enabled"`
	Config  SourceSettings `json:"config"`
}

// SourceList mirrors the sources.json input file.
type SourceList struct {
	SchemaVersion int            `json:"schemaVersion"`
	Sources       []SourceConfig `json:"sources"`
}

// RawJob is one listing as extracted by a connector, pre-normalization.
// Title and CanonicalURL are load-bearing; connectors drop items missing
// either. Everything else is optional.
type RawJob struct {
	SourceID        string     `json:"sourceId"`
	Source          SourceType `json:"source"`
	Title           string     `json:"title"`
	Company         string     `json:"company,omitempty"`
	LocationRaw     string     `json:"locationRaw,omitempty"`
	DescriptionHTML string     `json:"descriptionHtml,omitempty"`
	CanonicalURL    string     `json:"canonicalUrl"`
	PostedAt        string     `json:"postedAt,omitempty"`
}

// Classification is the derived workplace/scope decision for a listing.
type Classification struct {
	WorkplaceType     WorkplaceType `json:"workplaceType"`
	RemoteScope       RemoteScope   `json:"remoteScope"`
	EligibleCountries []string      `json:"eligibleCountries"`
	ScopeText         string        `json:"scopeText,omitempty"`
}

// NormalizedJob is the persisted listing entity. Identity is stable across
// runs: ID is a pure function of HashDedup, and CollectedAt never regresses
// on re-ingestion of the same hash.
type NormalizedJob struct {
	ID              string     `json:"id"`
	SourceID        string     `json:"sourceId"`
	Source          SourceType `json:"source"`
	CanonicalURL    string     `json:"canonicalUrl"`
	Title           string     `json:"title"`
	Company         string     `json:"company,omitempty"`
	LocationRaw     string     `json:"locationRaw,omitempty"`
	DescriptionText string     `json:"descriptionText,omitempty"`

	WorkplaceType     WorkplaceType `json:"workplaceType"`
	RemoteScope       RemoteScope   `json:"remoteScope"`
	EligibleCountries []string      `json:"eligibleCountries"`
	ScopeText         string        `json:"scopeText,omitempty"`

	PostedAt    string `json:"postedAt,omitempty"`
	CollectedAt string `json:"collectedAt"`
	HashDedup   string `json:"hashDedup"`

	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// JobSnapshot is the fully-replaced jobs.json output.
type JobSnapshot struct {
	SchemaVersion int             `json:"schemaVersion"`
	UpdatedAt     string          `json:"updatedAt"`
	Jobs          []NormalizedJob `json:"jobs"`
}

// RunStats summarizes one run for the meta snapshot.
type RunStats struct {
	New           int `json:"new"`
	Updated       int `json:"updated"`
	Total         int `json:"total"`
	SourcesOk     int `json:"sourcesOk"`
	SourcesFailed int `json:"sourcesFailed"`
}

// SourceResult records the fetch outcome for one configured source,
// enabled or not. It is the durable health record consumed by the
// dashboard layer.
type SourceResult struct {
	SourceID   string     `json:"sourceId"`
	Name       string     `json:"name"`
	Type       SourceType `json:"type"`
	URL        string     `json:"url,omitempty"`
	Enabled    bool       `json:"enabled"`
	OK         bool       `json:"ok"`
	HTTPStatus int        `json:"httpStatus,omitempty"`
	ErrorType  ErrorType  `json:"errorType,omitempty"`
	Message    string     `json:"message,omitempty"`
	ItemCount  int        `json:"itemCount"`
	DurationMs int64      `json:"durationMs"`
	FetchedAt  string     `json:"fetchedAt"`
}

// MetaSnapshot is the fully-replaced meta.json output.
type MetaSnapshot struct {
	SchemaVersion int            `json:"schemaVersion"`
	LastRunAt     string         `json:"lastRunAt"`
	LastRunStats  RunStats       `json:"lastRunStats"`
	SourceResults []SourceResult `json:"sourceResults"`
}

// RunRecord is one entry in the append-only invocation history.
type RunRecord struct {
	ID            string    `json:"id"`
	StartedAt     string    `json:"startedAt"`
	CompletedAt   string    `json:"completedAt,omitempty"`
	Status        RunStatus `json:"status"`
	TotalJobs     int       `json:"totalJobs"`
	SourcesOk     int       `json:"sourcesOk"`
	SourcesFailed int       `json:"sourcesFailed"`
	DurationMs    int64     `json:"durationMs"`
	Error         string    `json:"error,omitempty"`
}

// RunHistory mirrors the run-history JSON file.
type RunHistory struct {
	Runs []RunRecord `json:"runs"`
}

// FetchResult is what a connector returns for one source.
type FetchResult struct {
	Jobs       []RawJob
	OK         bool
	HTTPStatus int
	ErrorType  ErrorType
	Message    string
}

// SchemaVersion is the compatibility gate written into every snapshot.
const SchemaVersion = 1
