package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ReportStatusMessage]   = (*ReportStatusCommand)(nil)
	_ gocmd.Commander[FetchInventoryMessage] = (*FetchInventoryCommand)(nil)
	_ gocmd.Commander[RebootElementMessage]  = (*RebootElementCommand)(nil)
	_ gocmd.Commander[PruneSnapshotsMessage] = (*PruneSnapshotsCommand)(nil)
)
