package sdwan

import (
	"context"
	"fmt"
	"strings"

	"github.com/vladracs/prismasase/core"
)

// ElementOperation is the accepted payload of the element operations endpoint.
type ElementOperation struct {
	Action     string   `json:"action"`
	Parameters []string `json:"parameters"`
}

// OperationReceipt echoes what the controller accepted.
type OperationReceipt struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// RebootElement triggers a reboot of one element. The controller treats the
// operation as accepted on any 2xx status; some tenants return an empty body.
func (s *Service) RebootElement(ctx context.Context, elementID string) (OperationReceipt, error) {
	elementID = strings.TrimSpace(elementID)
	if elementID == "" {
		return OperationReceipt{}, core.NewBadInputError("sdwan: element id is required")
	}
	endpoint := fmt.Sprintf(endpointElementOpsFmt, elementID)
	result, err := s.api.Post(ctx, endpoint, ElementOperation{
		Action:     "reboot",
		Parameters: []string{},
	})
	if err != nil {
		return OperationReceipt{}, err
	}

	receipt := OperationReceipt{Action: "reboot"}
	if len(result.Raw) > 0 {
		if err := result.Decode(&receipt); err != nil {
			return OperationReceipt{}, core.WrapRequestError(err, endpoint)
		}
		if receipt.Action == "" {
			receipt.Action = "reboot"
		}
	}
	s.logger.Info("element reboot accepted", "element_id", elementID, "operation_id", receipt.ID)
	return receipt, nil
}

// FindElementByName resolves an element by display name, optionally scoped to
// a site. Names are unique per tenant in practice but not enforced; the first
// match wins.
func (s *Service) FindElementByName(ctx context.Context, siteID string, name string) (Element, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Element{}, core.NewBadInputError("sdwan: element name is required")
	}
	elements, err := s.Elements(ctx, siteID)
	if err != nil {
		return Element{}, err
	}
	for _, element := range elements {
		if element.Name == name {
			return element, nil
		}
	}
	return Element{}, core.NewBadInputError(fmt.Sprintf("sdwan: element %q not found", name))
}
