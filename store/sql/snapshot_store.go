package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/vladracs/prismasase/sdwan"
)

// Snapshot is one persisted interface status observation.
type Snapshot struct {
	ID               string
	RunID            string
	SiteID           string
	ElementID        string
	ElementName      string
	InterfaceID      string
	InterfaceName    string
	AdminUp          bool
	OperationalState string
	CollectedAt      time.Time
}

// SnapshotFilter narrows List results. Zero fields are ignored.
type SnapshotFilter struct {
	RunID     string
	SiteID    string
	ElementID string
	From      *time.Time
	Page      int
	PerPage   int
}

// SnapshotPage is one page of snapshots, newest first.
type SnapshotPage struct {
	Items   []Snapshot
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

type SnapshotStore struct {
	db   *bun.DB
	repo repository.Repository[*snapshotRecord]
}

func NewSnapshotStore(db *bun.DB) (*SnapshotStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*snapshotRecord](db, snapshotHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid snapshot repository wiring: %w", err)
		}
	}
	return &SnapshotStore{db: db, repo: repo}, nil
}

// RecordRun persists one traversal run under a shared run id and returns the
// id with the number of rows written. A blank run id gets a fresh one.
func (s *SnapshotStore) RecordRun(ctx context.Context, runID string, entries []sdwan.StatusEntry) (string, int, error) {
	if s == nil || s.repo == nil {
		return "", 0, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		runID = uuid.NewString()
	}
	saved := 0
	for _, entry := range entries {
		collectedAt := entry.CollectedAt.UTC()
		if collectedAt.IsZero() {
			collectedAt = time.Now().UTC()
		}
		// Explicit insert time keeps run ordering unambiguous; the column
		// default only has second resolution on sqlite.
		record := &snapshotRecord{
			ID:               uuid.NewString(),
			RunID:            runID,
			SiteID:           strings.TrimSpace(entry.SiteID),
			ElementID:        strings.TrimSpace(entry.ElementID),
			ElementName:      strings.TrimSpace(entry.ElementName),
			InterfaceID:      strings.TrimSpace(entry.InterfaceID),
			InterfaceName:    strings.TrimSpace(entry.InterfaceName),
			AdminUp:          entry.AdminUp,
			OperationalState: entry.OperationalState,
			CollectedAt:      collectedAt,
			CreatedAt:        time.Now().UTC(),
		}
		if record.OperationalState == "" {
			record.OperationalState = sdwan.OperationalStateUnknown
		}
		if _, err := s.repo.Create(ctx, record); err != nil {
			return runID, saved, err
		}
		saved++
	}
	return runID, saved, nil
}

// List returns persisted snapshots, newest first.
func (s *SnapshotStore) List(ctx context.Context, filter SnapshotFilter) (SnapshotPage, error) {
	if s == nil || s.repo == nil {
		return SnapshotPage{}, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("collected_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if runID := strings.TrimSpace(filter.RunID); runID != "" {
		selectors = append(selectors, repository.SelectBy("run_id", "=", runID))
	}
	if siteID := strings.TrimSpace(filter.SiteID); siteID != "" {
		selectors = append(selectors, repository.SelectBy("site_id", "=", siteID))
	}
	if elementID := strings.TrimSpace(filter.ElementID); elementID != "" {
		selectors = append(selectors, repository.SelectBy("element_id", "=", elementID))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("collected_at", ">=", filter.From.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return SnapshotPage{}, err
	}
	items := make([]Snapshot, 0, len(records))
	for _, record := range records {
		items = append(items, snapshotRecordToDomain(record))
	}
	return SnapshotPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// RunStates returns the operational state of every interface observed in one
// run, keyed by StateKey.
func (s *SnapshotStore) RunStates(ctx context.Context, runID string) (map[string]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("sqlstore: run id is required")
	}
	records, _, err := s.repo.List(ctx, repository.SelectBy("run_id", "=", runID))
	if err != nil {
		return nil, err
	}
	states := make(map[string]string, len(records))
	for _, record := range records {
		states[StateKey(record.ElementID, record.InterfaceID)] = record.OperationalState
	}
	return states, nil
}

// LatestRunID returns the most recently recorded run id, or empty when the
// store has no snapshots yet.
func (s *SnapshotStore) LatestRunID(ctx context.Context) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	var runID string
	err := s.db.NewSelect().
		Model((*snapshotRecord)(nil)).
		Column("run_id").
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx, &runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}

// Prune deletes snapshots collected before the retention window.
func (s *SnapshotStore) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-ttl)
	res, err := s.db.NewDelete().
		Model((*snapshotRecord)(nil)).
		Where("collected_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// StateKey identifies one interface across runs.
func StateKey(elementID string, interfaceID string) string {
	return strings.TrimSpace(elementID) + "/" + strings.TrimSpace(interfaceID)
}

func snapshotRecordToDomain(record *snapshotRecord) Snapshot {
	if record == nil {
		return Snapshot{}
	}
	return Snapshot{
		ID:               record.ID,
		RunID:            record.RunID,
		SiteID:           record.SiteID,
		ElementID:        record.ElementID,
		ElementName:      record.ElementName,
		InterfaceID:      record.InterfaceID,
		InterfaceName:    record.InterfaceName,
		AdminUp:          record.AdminUp,
		OperationalState: record.OperationalState,
		CollectedAt:      record.CollectedAt,
	}
}
