package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/netdevopsbr/proxbox/internal/netbox"
	"github.com/netdevopsbr/proxbox/pkg/metrics"
)

// Tracker opens and closes run records around sync passes. Tracking is
// best-effort: a run that cannot be recorded remotely still executes,
// it just leaves no trace in the inventory.
type Tracker struct {
	records Records
	log     *zap.SugaredLogger
}

func NewTracker(records Records) *Tracker {
	return &Tracker{
		records: records,
		log:     zap.S().Named("tracker"),
	}
}

// Run is one tracked sync pass. Finish is safe to call more than once;
// only the first call records the terminal state.
type Run struct {
	tracker  *Tracker
	syncType string
	process  netbox.SyncProcess
	journal  *Recorder
	started  time.Time
	done     bool
}

// Begin opens a run record for the given sync type. On remote failure
// the returned run is still usable and Finish degrades to metrics only.
func (t *Tracker) Begin(ctx context.Context, syncType string, tags []int) *Run {
	run := &Run{
		tracker:  t,
		syncType: syncType,
		journal:  NewRecorder(),
		started:  time.Now(),
	}
	process, err := t.records.CreateSyncProcess(ctx, syncType, tags)
	if err != nil {
		t.log.Warnf("failed to open run record for %s sync: %v", syncType, err)
		return run
	}
	run.process = process
	t.log.Infof("opened run record %s", process.Name)
	return run
}

// Journal exposes the run report recorder.
func (r *Run) Journal() *Recorder {
	return r.journal
}

// Finish closes the run with completed or failed depending on err. Each
// run reaches exactly one terminal state regardless of how the pass
// unwound, so Finish belongs in a defer right after Begin.
func (r *Run) Finish(ctx context.Context, err error) {
	if r.done {
		return
	}
	r.done = true

	status := netbox.StatusCompleted
	if err != nil {
		status = netbox.StatusFailed
		r.journal.Section("Failure")
		r.journal.Itemf("%v", err)
	}
	runtime := time.Since(r.started)
	metrics.IncreaseSyncRunsTotalMetric(r.syncType, status)

	if r.process.ID == 0 {
		return
	}
	if err := r.tracker.records.CompleteSyncProcess(ctx, r.process.ID, status, runtime); err != nil {
		r.tracker.log.Warnf("failed to close run record %s: %v", r.process.Name, err)
	}
	if !r.journal.Empty() {
		if err := r.tracker.records.CreateJournalEntry(ctx, r.process.ID, r.journal.String()); err != nil {
			r.tracker.log.Warnf("failed to attach journal to run %s: %v", r.process.Name, err)
		}
	}
	r.tracker.log.Infof("closed run record %s as %s after %.2fs", r.process.Name, status, runtime.Seconds())
}
