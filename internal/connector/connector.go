// Package connector implements one fetch+parse routine per source type
// and a registry that routes a source config to the right connector,
// normalizing failures into the closed error taxonomy.
package connector

import (
	"context"

	"github.com/job-scanner/internal/logging"
	"github.com/job-scanner/internal/types"
)

// Connector fetches and parses one source type into raw listings.
// Implementations issue network I/O and structured logging only; they
// never touch the persisted snapshots.
type Connector interface {
	Type() types.SourceType
	Fetch(ctx context.Context, src types.SourceConfig) ([]types.RawJob, error)
}

// Registry dispatches a source config to its connector. The lookup is a
// closed table: a type with no registered connector is a data error, not
// a crash.
type Registry struct {
	connectors map[types.SourceType]Connector
}

// NewRegistry builds a registry with all known connectors wired to the
// shared HTTP client.
func NewRegistry(client *Client) *Registry {
	r := &Registry{connectors: make(map[types.SourceType]Connector)}
	r.register(NewRSSConnector(client))
	r.register(NewRemotiveConnector(client))
	r.register(NewGreenhouseConnector(client))
	r.register(NewLeverConnector(client))
	r.register(NewSitemapConnector(client))
	r.register(NewBoardConnector(client))
	return r
}

func (r *Registry) register(c Connector) {
	r.connectors[c.Type()] = c
}

// Fetch routes src to its connector and folds the outcome into a
// FetchResult. All connector errors come back classified; nothing
// escapes as a raw error.
func (r *Registry) Fetch(ctx context.Context, src types.SourceConfig) types.FetchResult {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"sourceId": src.ID,
		"type":     string(src.Type),
	})

	conn, ok := r.connectors[src.Type]
	if !ok {
		logger.Warn("No connector for source type")
		return types.FetchResult{
			OK:        false,
			ErrorType: types.ErrorUnsupportedSource,
			Message:   "unsupported source type: " + string(src.Type),
		}
	}

	jobs, err := conn.Fetch(logging.WithLogger(ctx, logger), src)
	if err != nil {
		fe := Classify(err)
		logger.WithFields(map[string]interface{}{
			"errorType":  string(fe.Type),
			"httpStatus": fe.HTTPStatus,
		}).Error("Source fetch failed: " + fe.Message)
		return types.FetchResult{
			OK:         false,
			HTTPStatus: fe.HTTPStatus,
			ErrorType:  fe.Type,
			Message:    fe.Message,
		}
	}

	logger.WithField("items", len(jobs)).Info("Source fetch complete")
	return types.FetchResult{Jobs: jobs, OK: true, HTTPStatus: 200}
}
