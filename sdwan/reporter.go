package sdwan

import (
	"context"
	"strings"
	"time"

	"github.com/vladracs/prismasase/core"
)

// StatusEntry is one row of the element/interface status traversal.
type StatusEntry struct {
	SiteID           string
	ElementID        string
	ElementName      string
	InterfaceID      string
	InterfaceName    string
	AdminUp          bool
	OperationalState string
	CollectedAt      time.Time
}

// ReportSink receives traversal output in order. Implementations must not
// retain the entry past the call.
type ReportSink interface {
	Entry(entry StatusEntry)
}

// SinkFunc adapts a function to ReportSink.
type SinkFunc func(entry StatusEntry)

func (f SinkFunc) Entry(entry StatusEntry) { f(entry) }

// Report summarizes one traversal run.
type Report struct {
	Entries        []StatusEntry
	BranchFailures int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// StatusReporter drives the fixed three-level traversal: elements, then each
// element's interfaces, then each interface's status. Every dependent call
// checks its predecessor's result; a failing branch is logged and skipped
// while siblings continue.
type StatusReporter struct {
	service *Service
	logger  core.Logger
	now     func() time.Time
}

func NewStatusReporter(service *Service, logger core.Logger) (*StatusReporter, error) {
	if service == nil {
		return nil, core.NewBadInputError("sdwan: service is required")
	}
	return &StatusReporter{
		service: service,
		logger:  core.ResolveLogger("reporter", nil, logger),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run walks the tenant once. Only a failure to list elements aborts the run;
// everything below that is best-effort per branch.
func (r *StatusReporter) Run(ctx context.Context, sink ReportSink) (Report, error) {
	report := Report{StartedAt: r.now()}

	elements, err := r.service.Elements(ctx, "")
	if err != nil {
		return Report{}, err
	}

	for _, element := range elements {
		if strings.TrimSpace(element.ID) == "" || strings.TrimSpace(element.SiteID) == "" {
			// Unassigned elements have no site-scoped interface endpoint.
			continue
		}
		interfaces, err := r.service.Interfaces(ctx, element.SiteID, element.ID)
		if err != nil {
			report.BranchFailures++
			r.logger.Error("interface listing failed",
				"element_id", element.ID,
				"element_name", element.Name,
				"error", err.Error(),
			)
			continue
		}
		for _, port := range interfaces {
			status, err := r.service.InterfaceStatus(ctx, element.SiteID, element.ID, port.ID)
			if err != nil {
				report.BranchFailures++
				r.logger.Error("interface status fetch failed",
					"element_id", element.ID,
					"interface_id", port.ID,
					"error", err.Error(),
				)
				continue
			}
			entry := StatusEntry{
				SiteID:           element.SiteID,
				ElementID:        element.ID,
				ElementName:      element.Name,
				InterfaceID:      port.ID,
				InterfaceName:    port.Name,
				AdminUp:          port.AdminUp,
				OperationalState: status.OperationalState,
				CollectedAt:      r.now(),
			}
			report.Entries = append(report.Entries, entry)
			if sink != nil {
				sink.Entry(entry)
			}
		}
	}

	report.FinishedAt = r.now()
	return report, nil
}
