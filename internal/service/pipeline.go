// Package service ties the pipeline together: quota gate, sequential
// source fetch loop, merge against the prior snapshot, and the final
// snapshot writes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/job-scanner/internal/classify"
	"github.com/job-scanner/internal/config"
	"github.com/job-scanner/internal/connector"
	"github.com/job-scanner/internal/logging"
	"github.com/job-scanner/internal/normalize"
	"github.com/job-scanner/internal/ratelimit"
	"github.com/job-scanner/internal/retry"
	"github.com/job-scanner/internal/runtracker"
	"github.com/job-scanner/internal/score"
	"github.com/job-scanner/internal/storage"
	"github.com/job-scanner/internal/types"
)

// ErrQuotaBlocked is returned when the daily run quota denies the run.
// It is an expected, controlled outcome, not a failure of the pipeline.
var ErrQuotaBlocked = errors.New("daily run quota reached")

// Pipeline executes one full ingestion run. Sources are fetched strictly
// sequentially with a jittered courtesy delay between them; the snapshot
// is built in memory and written only after the fetch loop finishes.
type Pipeline struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *connector.Registry
	tracker  *runtracker.Tracker
	store    *storage.Store

	// sleep and now are injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New wires a Pipeline from its parts.
func New(cfg *config.Config, logger *logging.Logger, registry *connector.Registry, tracker *runtracker.Tracker, store *storage.Store) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		tracker:  tracker,
		store:    store,
		sleep:    retry.Sleep,
		now:      time.Now,
	}
}

// SetClock overrides the pipeline's clock. Test hook.
func (p *Pipeline) SetClock(now func() time.Time) { p.now = now }

// SetSleep overrides the courtesy delay sleeper. Test hook.
func (p *Pipeline) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	p.sleep = sleep
}

// Run executes the full state machine: gate check, fetch loop, merge,
// write, complete. Per-source failures degrade data completeness but
// never the run; merge/write failures are fatal and mark the run failed.
func (p *Pipeline) Run(ctx context.Context) (*types.RunStats, error) {
	ctx = logging.WithLogger(ctx, p.logger)

	gate := p.tracker.CanRunToday()
	if !gate.Allowed {
		p.logger.Warn(gate.Message)
		return nil, fmt.Errorf("%w: %s", ErrQuotaBlocked, gate.Message)
	}
	p.logger.Info(gate.Message)

	if last := p.tracker.LastSuccessfulRun(); last != nil {
		p.logger.WithFields(map[string]interface{}{
			"lastRunId": last.ID,
			"startedAt": last.StartedAt,
			"totalJobs": last.TotalJobs,
		}).Info("Previous successful run")
	}

	sources, err := config.LoadSources(p.cfg.Paths.SourcesFile)
	if err != nil {
		return nil, err
	}

	prior, err := p.store.LoadJobSnapshot(p.cfg.Paths.JobsFile)
	if err != nil {
		return nil, fmt.Errorf("load prior snapshot: %w", err)
	}
	priorByHash := make(map[string]*types.NormalizedJob, len(prior.Jobs))
	for i := range prior.Jobs {
		priorByHash[prior.Jobs[i].HashDedup] = &prior.Jobs[i]
	}

	runID, err := p.tracker.StartRun()
	if err != nil {
		return nil, err
	}
	runStart := p.now()
	runStartISO := runStart.UTC().Format(time.RFC3339)
	p.logger.WithFields(map[string]interface{}{
		"runId":   runID,
		"sources": len(sources.Sources),
	}).Info("Ingestion run started")

	// Fetch loop. Merge happens inline, in source-config order, so the
	// final job order is insertion order after dedup.
	var (
		jobs          []types.NormalizedJob
		seenHash      = make(map[string]bool)
		sourceResults = make([]types.SourceResult, 0, len(sources.Sources))
		stats         types.RunStats
		firstFetch    = true
	)

	for _, src := range sources.Sources {
		if !src.Enabled {
			sourceResults = append(sourceResults, types.SourceResult{
				SourceID:  src.ID,
				Name:      src.Name,
				Type:      src.Type,
				URL:       src.Config.URL,
				Enabled:   false,
				OK:        false,
				ErrorType: types.ErrorDisabled,
				Message:   "source disabled in configuration",
				FetchedAt: p.now().UTC().Format(time.RFC3339),
			})
			continue
		}

		// Courtesy delay between sources, skipped before the first.
		if !firstFetch {
			delay := retry.AddJitter(ratelimit.CourtesyDelay(src.Type), 20)
			if err := p.sleep(ctx, delay); err != nil {
				break
			}
		}
		firstFetch = false

		fetchStart := p.now()
		result := p.fetchSource(ctx, src)
		duration := p.now().Sub(fetchStart)

		accepted := 0
		if result.OK {
			accepted = p.mergeSource(src, result.Jobs, priorByHash, seenHash, &jobs, &stats, runStartISO)
			stats.SourcesOk++
		} else {
			stats.SourcesFailed++
		}

		sourceResults = append(sourceResults, types.SourceResult{
			SourceID:   src.ID,
			Name:       src.Name,
			Type:       src.Type,
			URL:        src.Config.URL,
			Enabled:    true,
			OK:         result.OK,
			HTTPStatus: result.HTTPStatus,
			ErrorType:  result.ErrorType,
			Message:    result.Message,
			ItemCount:  accepted,
			DurationMs: duration.Milliseconds(),
			FetchedAt:  fetchStart.UTC().Format(time.RFC3339),
		})
	}

	stats.Total = len(jobs)

	// Write phase. Failures here are fatal: serving stale data without
	// signal is worse than a crashed process.
	snapshot := &types.JobSnapshot{
		SchemaVersion: types.SchemaVersion,
		UpdatedAt:     runStartISO,
		Jobs:          jobs,
	}
	meta := &types.MetaSnapshot{
		SchemaVersion: types.SchemaVersion,
		LastRunAt:     runStartISO,
		LastRunStats:  stats,
		SourceResults: sourceResults,
	}

	if err := p.writeSnapshots(snapshot, meta); err != nil {
		if failErr := p.tracker.FailRun(runID, err); failErr != nil {
			p.logger.WithError(failErr).Error("Could not record failed run")
		}
		return nil, err
	}

	if err := p.tracker.CompleteRun(runID, stats.Total, stats.SourcesOk, stats.SourcesFailed); err != nil {
		return nil, err
	}

	p.logger.WithFields(map[string]interface{}{
		"runId":         runID,
		"new":           stats.New,
		"updated":       stats.Updated,
		"total":         stats.Total,
		"sourcesOk":     stats.SourcesOk,
		"sourcesFailed": stats.SourcesFailed,
		"durationMs":    p.now().Sub(runStart).Milliseconds(),
	}).Info("Ingestion run complete")

	return &stats, nil
}

// fetchSource dispatches one source, converting panics into a failed
// result so a single source crash never aborts the run.
func (p *Pipeline) fetchSource(ctx context.Context, src types.SourceConfig) (result types.FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(map[string]interface{}{
				"sourceId": src.ID,
				"panic":    fmt.Sprint(r),
			}).Error("Connector panicked")
			result = types.FetchResult{
				OK:        false,
				ErrorType: types.ErrorUnknown,
				Message:   fmt.Sprintf("connector panic: %v", r),
			}
		}
	}()
	return p.registry.Fetch(ctx, src)
}

// mergeSource folds one source's raw listings into the snapshot being
// built. Red-flagged and duplicate listings are dropped; everything else
// is normalized, classified, and scored. Classification and scoring run
// unconditionally even for previously-seen hashes so rule improvements
// apply retroactively.
func (p *Pipeline) mergeSource(
	src types.SourceConfig,
	raws []types.RawJob,
	priorByHash map[string]*types.NormalizedJob,
	seenHash map[string]bool,
	jobs *[]types.NormalizedJob,
	stats *types.RunStats,
	runStartISO string,
) int {
	accepted := 0
	excluded := 0

	for _, raw := range raws {
		if containsExcludeTerm(raw, src.Config.ExcludeTerms) {
			excluded++
			continue
		}

		hash := normalize.DedupHash(raw.Company, raw.Title, raw.CanonicalURL)
		if seenHash[hash] {
			continue // duplicate source overlap within this run
		}
		seenHash[hash] = true

		job := types.NormalizedJob{
			ID:              normalize.StableUUID(hash),
			SourceID:        raw.SourceID,
			Source:          raw.Source,
			CanonicalURL:    strings.TrimSpace(raw.CanonicalURL),
			Title:           strings.TrimSpace(raw.Title),
			Company:         strings.TrimSpace(raw.Company),
			LocationRaw:     strings.TrimSpace(raw.LocationRaw),
			DescriptionText: normalize.CleanHTMLToText(raw.DescriptionHTML),
			PostedAt:        raw.PostedAt,
			CollectedAt:     runStartISO,
			HashDedup:       hash,
		}

		// collectedAt never regresses for a known posting.
		if existing, ok := priorByHash[hash]; ok {
			job.CollectedAt = existing.CollectedAt
			stats.Updated++
		} else {
			stats.New++
		}

		cls := classify.Classify(job.Title, job.LocationRaw, job.DescriptionText)
		job.WorkplaceType = cls.WorkplaceType
		job.RemoteScope = cls.RemoteScope
		job.EligibleCountries = cls.EligibleCountries
		job.ScopeText = cls.ScopeText

		rated := score.Score(&job)
		job.Score = rated.Score
		job.Reasons = rated.Reasons

		*jobs = append(*jobs, job)
		accepted++
	}

	if excluded > 0 {
		p.logger.WithFields(map[string]interface{}{
			"sourceId": src.ID,
			"excluded": excluded,
		}).Info("Listings dropped by exclude terms")
	}
	return accepted
}

func (p *Pipeline) writeSnapshots(snapshot *types.JobSnapshot, meta *types.MetaSnapshot) error {
	if err := p.store.SaveJobSnapshot(p.cfg.Paths.JobsFile, snapshot); err != nil {
		return fmt.Errorf("write jobs snapshot: %w", err)
	}
	if err := p.store.SaveMetaSnapshot(p.cfg.Paths.MetaFile, meta); err != nil {
		return fmt.Errorf("write meta snapshot: %w", err)
	}
	return nil
}

// containsExcludeTerm reports whether any configured exclusion term
// appears in the combined title, company, and description text.
func containsExcludeTerm(raw types.RawJob, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	combined := strings.ToLower(raw.Title + " " + raw.Company + " " + raw.DescriptionHTML)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
