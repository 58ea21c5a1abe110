// Package command exposes the controller operations as dispatchable command
// messages so callers can route them through a message bus or job runner.
package command

import (
	"fmt"
	"strings"
	"time"
)

const (
	TypeReportStatus   = "sase.command.status.report"
	TypeFetchInventory = "sase.command.inventory.fetch"
	TypeRebootElement  = "sase.command.element.reboot"
	TypePruneSnapshots = "sase.command.snapshots.prune"
)

// ReportStatusMessage requests one full element and interface status sweep.
type ReportStatusMessage struct{}

func (ReportStatusMessage) Type() string { return TypeReportStatus }

func (ReportStatusMessage) Validate() error { return nil }

// FetchInventoryMessage requests the machine inventory, optionally restricted
// to devices not yet claimed into the tenant.
type FetchInventoryMessage struct {
	UnclaimedOnly bool
}

func (FetchInventoryMessage) Type() string { return TypeFetchInventory }

func (FetchInventoryMessage) Validate() error { return nil }

// RebootElementMessage reboots one element, addressed by id or by name.
type RebootElementMessage struct {
	ElementID   string
	ElementName string
	SiteID      string
}

func (RebootElementMessage) Type() string { return TypeRebootElement }

func (m RebootElementMessage) Validate() error {
	if strings.TrimSpace(m.ElementID) == "" && strings.TrimSpace(m.ElementName) == "" {
		return fmt.Errorf("command: element id or element name is required")
	}
	return nil
}

// PruneSnapshotsMessage drops persisted snapshots older than the retention
// window.
type PruneSnapshotsMessage struct {
	TTL time.Duration
}

func (PruneSnapshotsMessage) Type() string { return TypePruneSnapshots }

func (m PruneSnapshotsMessage) Validate() error {
	if m.TTL <= 0 {
		return fmt.Errorf("command: retention window must be positive")
	}
	return nil
}
