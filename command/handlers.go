package command

import (
	"context"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"

	"github.com/vladracs/prismasase/sdwan"
)

// StatusService runs one traversal sweep.
type StatusService interface {
	Run(ctx context.Context, sink sdwan.ReportSink) (sdwan.Report, error)
}

// InventoryService lists machine inventory.
type InventoryService interface {
	Machines(ctx context.Context) ([]sdwan.Machine, error)
	UnclaimedMachines(ctx context.Context) ([]sdwan.Machine, error)
}

// ElementService resolves and operates on elements.
type ElementService interface {
	FindElementByName(ctx context.Context, siteID string, name string) (sdwan.Element, error)
	RebootElement(ctx context.Context, elementID string) (sdwan.OperationReceipt, error)
}

// SnapshotPruner trims persisted snapshots.
type SnapshotPruner interface {
	Prune(ctx context.Context, ttl time.Duration) (int, error)
}

type ReportStatusCommand struct {
	service StatusService
}

func NewReportStatusCommand(service StatusService) *ReportStatusCommand {
	return &ReportStatusCommand{service: service}
}

func (c *ReportStatusCommand) Execute(ctx context.Context, msg ReportStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: status service is required")
	}
	report, err := c.service.Run(ctx, nil)
	if err != nil {
		return err
	}
	storeResult(ctx, report)
	return nil
}

type FetchInventoryCommand struct {
	service InventoryService
}

func NewFetchInventoryCommand(service InventoryService) *FetchInventoryCommand {
	return &FetchInventoryCommand{service: service}
}

func (c *FetchInventoryCommand) Execute(ctx context.Context, msg FetchInventoryMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: inventory service is required")
	}
	var (
		machines []sdwan.Machine
		err      error
	)
	if msg.UnclaimedOnly {
		machines, err = c.service.UnclaimedMachines(ctx)
	} else {
		machines, err = c.service.Machines(ctx)
	}
	if err != nil {
		return err
	}
	storeResult(ctx, machines)
	return nil
}

type RebootElementCommand struct {
	service ElementService
}

func NewRebootElementCommand(service ElementService) *RebootElementCommand {
	return &RebootElementCommand{service: service}
}

func (c *RebootElementCommand) Execute(ctx context.Context, msg RebootElementMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: element service is required")
	}
	elementID := strings.TrimSpace(msg.ElementID)
	if elementID == "" && strings.TrimSpace(msg.ElementName) == "" {
		return commandInvalidInputError("command: element id or element name is required")
	}
	if elementID == "" {
		element, err := c.service.FindElementByName(ctx, msg.SiteID, msg.ElementName)
		if err != nil {
			return err
		}
		elementID = element.ID
	}
	receipt, err := c.service.RebootElement(ctx, elementID)
	if err != nil {
		return err
	}
	storeResult(ctx, receipt)
	return nil
}

type PruneSnapshotsCommand struct {
	pruner SnapshotPruner
}

func NewPruneSnapshotsCommand(pruner SnapshotPruner) *PruneSnapshotsCommand {
	return &PruneSnapshotsCommand{pruner: pruner}
}

func (c *PruneSnapshotsCommand) Execute(ctx context.Context, msg PruneSnapshotsMessage) error {
	if c == nil || c.pruner == nil {
		return commandDependencyError("command: snapshot pruner is required")
	}
	deleted, err := c.pruner.Prune(ctx, msg.TTL)
	if err != nil {
		return err
	}
	storeResult(ctx, deleted)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
