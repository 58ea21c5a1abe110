package command

import (
	"context"
	"errors"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"

	"github.com/vladracs/prismasase/sdwan"
)

type stubStatusService struct {
	report sdwan.Report
	err    error
	called bool
}

func (s *stubStatusService) Run(ctx context.Context, sink sdwan.ReportSink) (sdwan.Report, error) {
	s.called = true
	return s.report, s.err
}

type stubInventoryService struct {
	machinesFn  func(ctx context.Context) ([]sdwan.Machine, error)
	unclaimedFn func(ctx context.Context) ([]sdwan.Machine, error)
}

func (s stubInventoryService) Machines(ctx context.Context) ([]sdwan.Machine, error) {
	return s.machinesFn(ctx)
}

func (s stubInventoryService) UnclaimedMachines(ctx context.Context) ([]sdwan.Machine, error) {
	return s.unclaimedFn(ctx)
}

type stubElementService struct {
	findFn   func(ctx context.Context, siteID string, name string) (sdwan.Element, error)
	rebootFn func(ctx context.Context, elementID string) (sdwan.OperationReceipt, error)
}

func (s stubElementService) FindElementByName(ctx context.Context, siteID string, name string) (sdwan.Element, error) {
	return s.findFn(ctx, siteID, name)
}

func (s stubElementService) RebootElement(ctx context.Context, elementID string) (sdwan.OperationReceipt, error) {
	return s.rebootFn(ctx, elementID)
}

type stubPruner struct {
	deleted int
	gotTTL  time.Duration
}

func (s *stubPruner) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	s.gotTTL = ttl
	return s.deleted, nil
}

func TestReportStatusCommand_ExecuteStoresReport(t *testing.T) {
	svc := &stubStatusService{report: sdwan.Report{
		Entries: []sdwan.StatusEntry{{ElementID: "e1", InterfaceID: "i1", OperationalState: "up"}},
	}}
	cmd := NewReportStatusCommand(svc)
	collector := gocmd.NewResult[sdwan.Report]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, ReportStatusMessage{}); err != nil {
		t.Fatalf("execute report: %v", err)
	}
	if !svc.called {
		t.Fatalf("expected status service invocation")
	}
	result, ok := collector.Load()
	if !ok || len(result.Entries) != 1 {
		t.Fatalf("expected stored report, got %#v", result)
	}
}

func TestReportStatusCommand_PropagatesRunError(t *testing.T) {
	svc := &stubStatusService{err: errors.New("controller unreachable")}
	if err := NewReportStatusCommand(svc).Execute(context.Background(), ReportStatusMessage{}); err == nil {
		t.Fatalf("expected run error")
	}
}

func TestFetchInventoryCommand_SelectsClaimedOrUnclaimed(t *testing.T) {
	svc := stubInventoryService{
		machinesFn: func(context.Context) ([]sdwan.Machine, error) {
			return []sdwan.Machine{{ID: "m1"}, {ID: "m2"}}, nil
		},
		unclaimedFn: func(context.Context) ([]sdwan.Machine, error) {
			return []sdwan.Machine{{ID: "m9", MachineState: "allocated"}}, nil
		},
	}
	cmd := NewFetchInventoryCommand(svc)

	collector := gocmd.NewResult[[]sdwan.Machine]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := cmd.Execute(ctx, FetchInventoryMessage{}); err != nil {
		t.Fatalf("execute inventory: %v", err)
	}
	machines, ok := collector.Load()
	if !ok || len(machines) != 2 {
		t.Fatalf("expected full inventory, got %#v", machines)
	}

	collector = gocmd.NewResult[[]sdwan.Machine]()
	ctx = gocmd.ContextWithResult(context.Background(), collector)
	if err := cmd.Execute(ctx, FetchInventoryMessage{UnclaimedOnly: true}); err != nil {
		t.Fatalf("execute unclaimed inventory: %v", err)
	}
	machines, ok = collector.Load()
	if !ok || len(machines) != 1 || machines[0].ID != "m9" {
		t.Fatalf("expected unclaimed inventory, got %#v", machines)
	}
}

func TestRebootElementCommand_ResolvesNameWhenIDMissing(t *testing.T) {
	svc := stubElementService{
		findFn: func(_ context.Context, siteID string, name string) (sdwan.Element, error) {
			if siteID != "s1" || name != "Elem1" {
				t.Fatalf("unexpected lookup %q %q", siteID, name)
			}
			return sdwan.Element{ID: "e1", SiteID: "s1", Name: "Elem1"}, nil
		},
		rebootFn: func(_ context.Context, elementID string) (sdwan.OperationReceipt, error) {
			if elementID != "e1" {
				t.Fatalf("unexpected reboot target %q", elementID)
			}
			return sdwan.OperationReceipt{ID: "op-1", Action: "reboot"}, nil
		},
	}
	cmd := NewRebootElementCommand(svc)
	collector := gocmd.NewResult[sdwan.OperationReceipt]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	msg := RebootElementMessage{ElementName: "Elem1", SiteID: "s1"}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(ctx, msg); err != nil {
		t.Fatalf("execute reboot: %v", err)
	}
	receipt, ok := collector.Load()
	if !ok || receipt.ID != "op-1" {
		t.Fatalf("expected stored receipt, got %#v", receipt)
	}
}

func TestRebootElementCommand_RejectsBlankTarget(t *testing.T) {
	if err := (RebootElementMessage{}).Validate(); err == nil {
		t.Fatalf("expected validation failure")
	}
	cmd := NewRebootElementCommand(stubElementService{
		findFn: func(context.Context, string, string) (sdwan.Element, error) {
			t.Fatalf("lookup must not run for a blank target")
			return sdwan.Element{}, nil
		},
		rebootFn: func(context.Context, string) (sdwan.OperationReceipt, error) {
			t.Fatalf("reboot must not run for a blank target")
			return sdwan.OperationReceipt{}, nil
		},
	})
	if err := cmd.Execute(context.Background(), RebootElementMessage{}); err == nil {
		t.Fatalf("expected execute failure")
	}
}

func TestPruneSnapshotsCommand_StoresDeletedCount(t *testing.T) {
	if err := (PruneSnapshotsMessage{}).Validate(); err == nil {
		t.Fatalf("expected validation failure for zero ttl")
	}

	pruner := &stubPruner{deleted: 4}
	cmd := NewPruneSnapshotsCommand(pruner)
	collector := gocmd.NewResult[int]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, PruneSnapshotsMessage{TTL: 24 * time.Hour}); err != nil {
		t.Fatalf("execute prune: %v", err)
	}
	if pruner.gotTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl %v", pruner.gotTTL)
	}
	deleted, ok := collector.Load()
	if !ok || deleted != 4 {
		t.Fatalf("expected stored count, got %d", deleted)
	}
}

func TestCommands_RequireDependencies(t *testing.T) {
	if err := (&ReportStatusCommand{}).Execute(context.Background(), ReportStatusMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
	if err := (&FetchInventoryCommand{}).Execute(context.Background(), FetchInventoryMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
	if err := (&RebootElementCommand{}).Execute(context.Background(), RebootElementMessage{ElementID: "e1"}); err == nil {
		t.Fatalf("expected dependency error")
	}
	if err := (&PruneSnapshotsCommand{}).Execute(context.Background(), PruneSnapshotsMessage{TTL: time.Hour}); err == nil {
		t.Fatalf("expected dependency error")
	}
}
