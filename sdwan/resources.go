// Package sdwan wraps the versioned SD-WAN endpoints with typed operations:
// tenant profile, sites, elements, interfaces, interface status, and the
// machine inventory.
package sdwan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vladracs/prismasase/client"
	"github.com/vladracs/prismasase/core"
)

// Versioned endpoint paths. The controller pins resource versions per
// endpoint, not per API release.
const (
	EndpointProfile       = "/sdwan/v2.1/api/profile"
	EndpointTenantSelf    = "/sdwan/v2.5/api/tenants/self"
	EndpointSites         = "/sdwan/v4.11/api/sites"
	EndpointElements      = "/sdwan/v3.2/api/elements"
	EndpointMachines      = "/sdwan/v2.5/api/machines"
	EndpointMachinesQuery = "/sdwan/v2.5/api/machines/query"
	endpointInterfacesFmt = "/sdwan/v4.20/api/sites/%s/elements/%s/interfaces"
	endpointIfStatusFmt   = "/sdwan/v3.8/api/sites/%s/elements/%s/interfaces/%s/status"
	endpointElementOpsFmt = "/sdwan/v2.0/api/elements/%s/operations"
)

// OperationalStateUnknown is reported when a status response omits the field.
const OperationalStateUnknown = "Unknown"

// Site is a branch location grouping elements.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Element is a managed ION appliance assigned to a site.
type Element struct {
	ID     string `json:"id"`
	SiteID string `json:"site_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	State  string `json:"state"`
}

// Interface is a network port on an element.
type Interface struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AdminUp bool   `json:"admin_up"`
	Type    string `json:"type"`
}

// InterfaceStatus is the operational view of one interface.
type InterfaceStatus struct {
	OperationalState string `json:"operational_state"`
	AdminState       string `json:"admin_state"`
}

// Machine is an inventory record, claimed or not.
type Machine struct {
	ID           string `json:"id"`
	ModelName    string `json:"model_name"`
	ImageVersion string `json:"image_version"`
	SerialNumber string `json:"sl_no"`
	MachineState string `json:"machine_state"`
	Connected    bool   `json:"connected"`
	ElementID    string `json:"em_element_id"`
}

// Service exposes the typed SD-WAN operations over the generic dispatcher.
type Service struct {
	api    *client.Client
	logger core.Logger
}

func NewService(api *client.Client, logger core.Logger) (*Service, error) {
	if api == nil {
		return nil, core.NewBadInputError("sdwan: api client is required")
	}
	return &Service{
		api:    api,
		logger: core.ResolveLogger("sdwan", nil, logger),
	}, nil
}

// Profile probes the tenant profile endpoints, newest first. A failing probe
// is not fatal to callers; they get the error and decide.
func (s *Service) Profile(ctx context.Context) (map[string]any, error) {
	var lastErr error
	for _, endpoint := range []string{EndpointTenantSelf, EndpointProfile} {
		result, err := s.api.Get(ctx, endpoint, nil)
		if err != nil {
			s.logger.Warn("profile probe failed", "endpoint", endpoint, "error", err.Error())
			lastErr = err
			continue
		}
		profile, ok := result.Payload.(map[string]any)
		if !ok {
			lastErr = core.NewRequestError(endpoint, result.StatusCode, "unexpected profile shape")
			continue
		}
		return profile, nil
	}
	return nil, lastErr
}

// Sites lists all sites in the tenant.
func (s *Service) Sites(ctx context.Context) ([]Site, error) {
	raw, err := s.api.ListItems(ctx, EndpointSites, nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[Site](raw, EndpointSites)
}

// Elements lists elements, optionally restricted to one site.
func (s *Service) Elements(ctx context.Context, siteID string) ([]Element, error) {
	var query map[string]string
	if siteID = strings.TrimSpace(siteID); siteID != "" {
		query = map[string]string{"site_id": siteID}
	}
	raw, err := s.api.ListItems(ctx, EndpointElements, query)
	if err != nil {
		return nil, err
	}
	return decodeItems[Element](raw, EndpointElements)
}

// Interfaces lists the ports of one element.
func (s *Service) Interfaces(ctx context.Context, siteID string, elementID string) ([]Interface, error) {
	if strings.TrimSpace(siteID) == "" || strings.TrimSpace(elementID) == "" {
		return nil, core.NewBadInputError("sdwan: site id and element id are required")
	}
	endpoint := fmt.Sprintf(endpointInterfacesFmt, siteID, elementID)
	raw, err := s.api.ListItems(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[Interface](raw, endpoint)
}

// InterfaceStatus fetches the operational state of one interface. The state
// defaults to "Unknown" when the controller omits it.
func (s *Service) InterfaceStatus(ctx context.Context, siteID string, elementID string, interfaceID string) (InterfaceStatus, error) {
	if strings.TrimSpace(siteID) == "" || strings.TrimSpace(elementID) == "" || strings.TrimSpace(interfaceID) == "" {
		return InterfaceStatus{}, core.NewBadInputError("sdwan: site, element, and interface ids are required")
	}
	endpoint := fmt.Sprintf(endpointIfStatusFmt, siteID, elementID, interfaceID)
	result, err := s.api.Get(ctx, endpoint, nil)
	if err != nil {
		return InterfaceStatus{}, err
	}
	var status InterfaceStatus
	if err := result.Decode(&status); err != nil {
		return InterfaceStatus{}, core.WrapRequestError(err, endpoint)
	}
	if strings.TrimSpace(status.OperationalState) == "" {
		status.OperationalState = OperationalStateUnknown
	}
	return status, nil
}

// Machines walks the full machine inventory, following pagination.
func (s *Service) Machines(ctx context.Context) ([]Machine, error) {
	raw, err := s.api.ListAll(ctx, EndpointMachines)
	if err != nil {
		return nil, err
	}
	return decodeItems[Machine](raw, EndpointMachines)
}

// UnclaimedMachines queries inventory records that have not been claimed into
// the tenant yet.
func (s *Service) UnclaimedMachines(ctx context.Context) ([]Machine, error) {
	query := map[string]any{
		"dest_page":             1,
		"limit":                 s.api.PageLimit(),
		"getDeleted":            false,
		"retrieved_fields_mask": false,
		"retrieved_fields":      []string{},
		"query_params":          map[string]any{"machine_state": map[string]any{"neq": "claimed"}},
		"sort_params":           map[string]any{"model_name": "asc"},
	}
	result, err := s.api.Post(ctx, EndpointMachinesQuery, query)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := result.Decode(&envelope); err != nil {
		return nil, core.WrapRequestError(err, EndpointMachinesQuery)
	}
	return decodeItems[Machine](envelope.Items, EndpointMachinesQuery)
}

func decodeItems[T any](raw []json.RawMessage, endpoint string) ([]T, error) {
	items := make([]T, 0, len(raw))
	for _, message := range raw {
		var item T
		if err := json.Unmarshal(message, &item); err != nil {
			return nil, core.WrapRequestError(err, endpoint)
		}
		items = append(items, item)
	}
	return items, nil
}
