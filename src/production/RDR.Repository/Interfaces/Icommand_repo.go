package interfaces

import (
	"context"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
)

// CommandRepository is the pending-command store.
type CommandRepository interface {
	// Enqueue stores a new PENDING command and returns its id.
	Enqueue(ctx context.Context, cmd rdrmodels.PendingCommand) (int64, error)

	// DequeueNext selects the oldest PENDING command for the device
	// (FIFO by created_at, then id), atomically transitions it to SENT
	// and returns it. Returns nil when no PENDING command exists.
	// Concurrent calls for the same device never return the same command.
	DequeueNext(ctx context.Context, deviceMac string) (*rdrmodels.PendingCommand, error)

	// MarkExecuted transitions a SENT command to EXECUTED. Returns false
	// when no SENT command with that id exists.
	MarkExecuted(ctx context.Context, commandID int64) (bool, error)
}
