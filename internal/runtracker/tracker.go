// Package runtracker maintains the append-only history of pipeline
// invocations and enforces the daily run quota.
package runtracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/job-scanner/internal/logging"
	"github.com/job-scanner/internal/storage"
	"github.com/job-scanner/internal/types"
)

// GateResult is the outcome of the daily quota check.
type GateResult struct {
	Allowed  bool
	Message  string
	RunsUsed int
}

// Tracker owns the run-history file. It is the sole source of truth for
// the daily quota. The gate is advisory: it counts completed runs, it is
// not a lock.
type Tracker struct {
	store         *storage.Store
	path          string
	dailyLimit    int
	retentionDays int
	logger        *logging.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates a Tracker backed by the given history file.
func New(store *storage.Store, path string, dailyLimit, retentionDays int, logger *logging.Logger) *Tracker {
	return &Tracker{
		store:         store,
		path:          path,
		dailyLimit:    dailyLimit,
		retentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}
}

// SetClock overrides the tracker's clock. Test hook.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// load reads the history file. Read errors fail open to an empty history
// so a corrupted file does not block future runs.
func (t *Tracker) load() types.RunHistory {
	var history types.RunHistory
	if err := t.store.ReadJSON(t.path, &history); err != nil {
		t.logger.WithError(err).Warn("Run history unreadable, starting with empty history")
		return types.RunHistory{}
	}
	return history
}

// save prunes records past retention and writes the history file. Write
// errors propagate: failing to persist run history is a fatal
// configuration problem, not a recoverable one.
func (t *Tracker) save(history types.RunHistory) error {
	cutoff := t.now().AddDate(0, 0, -t.retentionDays)
	kept := history.Runs[:0]
	for _, run := range history.Runs {
		started, err := time.Parse(time.RFC3339, run.StartedAt)
		if err == nil && started.Before(cutoff) {
			continue
		}
		kept = append(kept, run)
	}
	history.Runs = kept

	if err := t.store.WriteJSON(t.path, history); err != nil {
		return fmt.Errorf("write run history: %w", err)
	}
	return nil
}

// localDate extracts the calendar-day portion of an ISO timestamp.
func localDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// CanRunToday counts completed runs started on the current calendar day
// and allows the run iff the count is under the daily limit. On deny the
// message carries a countdown to local midnight.
func (t *Tracker) CanRunToday() GateResult {
	history := t.load()
	today := localDate(t.now().Format(time.RFC3339))

	used := 0
	for _, run := range history.Runs {
		if run.Status == types.RunStatusCompleted && localDate(run.StartedAt) == today {
			used++
		}
	}

	if used < t.dailyLimit {
		return GateResult{
			Allowed:  true,
			Message:  fmt.Sprintf("%d of %d daily runs used", used, t.dailyLimit),
			RunsUsed: used,
		}
	}

	now := t.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	hoursLeft := int(midnight.Sub(now).Hours()) + 1

	return GateResult{
		Allowed:  false,
		Message:  fmt.Sprintf("daily run limit reached (%d/%d), resets in ~%dh", used, t.dailyLimit, hoursLeft),
		RunsUsed: used,
	}
}

// StartRun appends a new running record and persists it immediately, so a
// crash mid-run still shows up in history inspection.
func (t *Tracker) StartRun() (string, error) {
	now := t.now()
	runID := fmt.Sprintf("run-%s-%s",
		now.Format("20060102-150405"),
		strings.SplitN(uuid.NewString(), "-", 2)[0])

	history := t.load()
	history.Runs = append(history.Runs, types.RunRecord{
		ID:        runID,
		StartedAt: now.Format(time.RFC3339),
		Status:    types.RunStatusRunning,
	})

	if err := t.save(history); err != nil {
		return "", err
	}
	return runID, nil
}

// CompleteRun marks the record terminal completed and fills in stats.
// Unknown run ids log a warning and no-op: a bookkeeping miss must not
// abort an otherwise successful run.
func (t *Tracker) CompleteRun(runID string, totalJobs, sourcesOk, sourcesFailed int) error {
	return t.finish(runID, func(run *types.RunRecord) {
		run.Status = types.RunStatusCompleted
		run.TotalJobs = totalJobs
		run.SourcesOk = sourcesOk
		run.SourcesFailed = sourcesFailed
	})
}

// FailRun marks the record terminal failed with the error message.
func (t *Tracker) FailRun(runID string, runErr error) error {
	return t.finish(runID, func(run *types.RunRecord) {
		run.Status = types.RunStatusFailed
		if runErr != nil {
			run.Error = runErr.Error()
		}
	})
}

func (t *Tracker) finish(runID string, apply func(*types.RunRecord)) error {
	history := t.load()

	found := false
	for i := range history.Runs {
		if history.Runs[i].ID != runID {
			continue
		}
		found = true
		run := &history.Runs[i]

		now := t.now()
		run.CompletedAt = now.Format(time.RFC3339)
		if started, err := time.Parse(time.RFC3339, run.StartedAt); err == nil {
			run.DurationMs = now.Sub(started).Milliseconds()
		}
		apply(run)
		break
	}

	if !found {
		t.logger.WithField("runId", runID).Warn("Run record not found, skipping status update")
		return nil
	}

	return t.save(history)
}

// LastSuccessfulRun returns the most recent completed record, or nil.
func (t *Tracker) LastSuccessfulRun() *types.RunRecord {
	history := t.load()

	var latest *types.RunRecord
	for i := range history.Runs {
		run := &history.Runs[i]
		if run.Status != types.RunStatusCompleted {
			continue
		}
		if latest == nil || run.StartedAt > latest.StartedAt {
			latest = run
		}
	}
	return latest
}
