package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type snapshotRecord struct {
	bun.BaseModel `bun:"table:interface_snapshots,alias:ifs"`

	ID               string    `bun:"id,pk"`
	RunID            string    `bun:"run_id,notnull"`
	SiteID           string    `bun:"site_id,notnull"`
	ElementID        string    `bun:"element_id,notnull"`
	ElementName      string    `bun:"element_name"`
	InterfaceID      string    `bun:"interface_id,notnull"`
	InterfaceName    string    `bun:"interface_name"`
	AdminUp          bool      `bun:"admin_up,notnull"`
	OperationalState string    `bun:"operational_state,notnull"`
	CollectedAt      time.Time `bun:"collected_at,nullzero,notnull"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
