// Package monitor runs the interface status traversal on a schedule,
// persists each sweep, and reports operational state transitions between
// consecutive sweeps.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/vladracs/prismasase/core"
	"github.com/vladracs/prismasase/sdwan"
	sqlstore "github.com/vladracs/prismasase/store/sql"
)

// StatusRunner produces one full traversal of the tenant.
type StatusRunner interface {
	Run(ctx context.Context, sink sdwan.ReportSink) (sdwan.Report, error)
}

// SnapshotRecorder persists sweeps and recalls the previous one.
type SnapshotRecorder interface {
	RecordRun(ctx context.Context, runID string, entries []sdwan.StatusEntry) (string, int, error)
	RunStates(ctx context.Context, runID string) (map[string]string, error)
	LatestRunID(ctx context.Context) (string, error)
}

// Transition is one interface whose operational state changed between sweeps.
type Transition struct {
	ElementID     string
	ElementName   string
	InterfaceID   string
	InterfaceName string
	From          string
	To            string
}

// RunSummary describes one completed sweep.
type RunSummary struct {
	RunID          string
	Entries        int
	BranchFailures int
	Transitions    []Transition
}

type Config struct {
	Interval time.Duration
	// MaxRuns stops the loop after that many sweeps. Zero means run until
	// the context is canceled.
	MaxRuns int
	// TransitionJobID, when set together with an enqueuer, dispatches a job
	// for every sweep that observed transitions.
	TransitionJobID string
}

type Monitor struct {
	runner   StatusRunner
	store    SnapshotRecorder
	enqueuer core.JobEnqueuer
	logger   core.Logger

	interval time.Duration
	maxRuns  int
	jobID    string

	previous map[string]string
	seeded   bool
}

// New builds a monitor. The store and enqueuer are optional; without a store
// transitions are tracked in memory only.
func New(cfg Config, runner StatusRunner, store SnapshotRecorder, enqueuer core.JobEnqueuer, logger core.Logger) (*Monitor, error) {
	if runner == nil {
		return nil, core.NewBadInputError("monitor: status runner is required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = core.DefaultConfig().Monitor.Interval
	}
	return &Monitor{
		runner:   runner,
		store:    store,
		enqueuer: enqueuer,
		logger:   core.ResolveLogger("monitor", nil, logger),
		interval: interval,
		maxRuns:  cfg.MaxRuns,
		jobID:    cfg.TransitionJobID,
	}, nil
}

// RunOnce performs a single sweep: traverse, diff against the previous sweep,
// persist, and dispatch the transition job when configured.
func (m *Monitor) RunOnce(ctx context.Context) (RunSummary, error) {
	if err := m.seedPrevious(ctx); err != nil {
		m.logger.Warn("previous sweep unavailable, transitions start fresh", "error", err.Error())
	}

	report, err := m.runner.Run(ctx, nil)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		Entries:        len(report.Entries),
		BranchFailures: report.BranchFailures,
	}

	current := make(map[string]string, len(report.Entries))
	for _, entry := range report.Entries {
		key := sqlstore.StateKey(entry.ElementID, entry.InterfaceID)
		current[key] = entry.OperationalState
		before, seen := m.previous[key]
		if !seen || before == entry.OperationalState {
			continue
		}
		transition := Transition{
			ElementID:     entry.ElementID,
			ElementName:   entry.ElementName,
			InterfaceID:   entry.InterfaceID,
			InterfaceName: entry.InterfaceName,
			From:          before,
			To:            entry.OperationalState,
		}
		summary.Transitions = append(summary.Transitions, transition)
		m.logger.Info("interface state changed",
			"element_name", entry.ElementName,
			"interface_name", entry.InterfaceName,
			"from", before,
			"to", entry.OperationalState,
		)
	}

	if m.store != nil {
		runID, saved, err := m.store.RecordRun(ctx, "", report.Entries)
		if err != nil {
			return summary, err
		}
		summary.RunID = runID
		m.logger.Debug("sweep persisted", "run_id", runID, "rows", saved)
	}

	m.previous = current
	m.seeded = true

	if len(summary.Transitions) > 0 {
		m.dispatchTransitionJob(ctx, summary)
	}
	return summary, nil
}

// Run sweeps on the configured interval until the context is canceled or the
// run limit is reached. The first sweep happens immediately.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	runs := 0
	for {
		summary, err := m.RunOnce(ctx)
		if err != nil {
			m.logger.Error("sweep failed", "error", err.Error())
		} else {
			m.logger.Info("sweep completed",
				"run_id", summary.RunID,
				"entries", summary.Entries,
				"branch_failures", summary.BranchFailures,
				"transitions", len(summary.Transitions),
			)
		}
		runs++
		if m.maxRuns > 0 && runs >= m.maxRuns {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Monitor) seedPrevious(ctx context.Context) error {
	if m.seeded || m.previous != nil || m.store == nil {
		return nil
	}
	runID, err := m.store.LatestRunID(ctx)
	if err != nil {
		return err
	}
	if runID == "" {
		m.previous = map[string]string{}
		return nil
	}
	states, err := m.store.RunStates(ctx, runID)
	if err != nil {
		return err
	}
	m.previous = states
	return nil
}

func (m *Monitor) dispatchTransitionJob(ctx context.Context, summary RunSummary) {
	if m.enqueuer == nil || m.jobID == "" {
		return
	}
	changed := make([]string, 0, len(summary.Transitions))
	for _, transition := range summary.Transitions {
		changed = append(changed, fmt.Sprintf("%s:%s:%s:%s",
			transition.ElementID, transition.InterfaceID, transition.From, transition.To))
	}
	message := &core.JobExecutionMessage{
		JobID: m.jobID,
		Parameters: map[string]any{
			"run_id":      summary.RunID,
			"transitions": changed,
		},
		IdempotencyKey: m.jobID + ":" + summary.RunID,
		DedupPolicy:    "drop",
	}
	if err := m.enqueuer.Enqueue(ctx, message); err != nil {
		m.logger.Warn("transition job enqueue failed", "job_id", m.jobID, "error", err.Error())
	}
}
