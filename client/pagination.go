package client

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/vladracs/prismasase/core"
)

// listEnvelope matches the shapes the API returns for collections. Most
// endpoints wrap results in "items"; a few older ones use "data" or a
// resource-named key, and some return a bare JSON array.
type listEnvelope struct {
	Items      []json.RawMessage `json:"items"`
	Data       []json.RawMessage `json:"data"`
	Machines   []json.RawMessage `json:"machines"`
	Next       string            `json:"next"`
	Page       *pageEnvelope     `json:"page"`
	Total      *int              `json:"total"`
	TotalCount *int              `json:"totalCount"`
}

type pageEnvelope struct {
	Next string `json:"next"`
}

func (e listEnvelope) items() []json.RawMessage {
	switch {
	case len(e.Items) > 0:
		return e.Items
	case len(e.Data) > 0:
		return e.Data
	case len(e.Machines) > 0:
		return e.Machines
	}
	return nil
}

func (e listEnvelope) nextCursor() string {
	if e.Next != "" {
		return e.Next
	}
	if e.Page != nil {
		return e.Page.Next
	}
	return ""
}

func (e listEnvelope) total() (int, bool) {
	if e.Total != nil {
		return *e.Total, true
	}
	if e.TotalCount != nil {
		return *e.TotalCount, true
	}
	return 0, false
}

func decodeListEnvelope(raw []byte) (listEnvelope, error) {
	// Bare arrays first: a handful of endpoints skip the envelope.
	var bare []json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return listEnvelope{Items: bare}, nil
	}
	var envelope listEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return listEnvelope{}, err
	}
	return envelope, nil
}

// ListItems fetches a single page and returns its raw items. Endpoints whose
// collections fit in one response use this.
func (c *Client) ListItems(ctx context.Context, path string, query map[string]string) ([]json.RawMessage, error) {
	result, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	envelope, err := decodeListEnvelope(result.Raw)
	if err != nil {
		return nil, core.WrapRequestError(err, path)
	}
	return envelope.items(), nil
}

// ListAll walks a paginated collection to completion: cursor pagination when
// the response carries a next token, offset/total otherwise, single page when
// neither appears.
func (c *Client) ListAll(ctx context.Context, path string) ([]json.RawMessage, error) {
	limit := strconv.Itoa(c.PageLimit())
	query := map[string]string{"limit": limit}

	var items []json.RawMessage
	lastCursor := ""
	for {
		result, err := c.Get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		envelope, err := decodeListEnvelope(result.Raw)
		if err != nil {
			return nil, core.WrapRequestError(err, path)
		}
		page := envelope.items()
		items = append(items, page...)

		// An empty page cannot advance the offset and a repeated cursor
		// cannot advance the window, even when the reported total says
		// more remains. Stop instead of re-issuing the same request.
		if len(page) == 0 {
			return items, nil
		}
		if cursor := envelope.nextCursor(); cursor != "" {
			if cursor == lastCursor {
				return items, nil
			}
			lastCursor = cursor
			query = map[string]string{"limit": limit, "cursor": cursor}
			continue
		}
		if total, ok := envelope.total(); ok && len(items) < total {
			query = map[string]string{"limit": limit, "offset": strconv.Itoa(len(items))}
			continue
		}
		return items, nil
	}
}
