package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

// Validation failures surfaced to callers. Both map to BadRequest at the
// HTTP boundary.
var (
	ErrMissingField       = errors.New("device_mac and command_type are required")
	ErrInvalidCommandKind = errors.New("invalid command_type")
)

// Service is the command queue manager: it owns enqueue validation, the
// per-sync dequeue, and the device acknowledgment transition. Storage sits
// behind the CommandRepository.
type Service struct {
	commands interfaces.CommandRepository

	// now is swapped out by tests
	now func() time.Time
}

// NewService creates a new command queue manager
func NewService(commands interfaces.CommandRepository) *Service {
	return &Service{commands: commands, now: time.Now}
}

// Enqueue validates and stores a new PENDING command, returning its id.
func (s *Service) Enqueue(ctx context.Context, deviceMac, commandType string, payload map[string]interface{}) (int64, error) {
	if deviceMac == "" || commandType == "" {
		return 0, ErrMissingField
	}
	if !rdrmodels.ValidCommandType(commandType) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCommandKind, commandType)
	}

	return s.commands.Enqueue(ctx, rdrmodels.PendingCommand{
		DeviceMac:   deviceMac,
		CommandType: commandType,
		Payload:     payload,
		CreatedAt:   s.now(),
	})
}

// DequeueNext claims the oldest PENDING command for the device, marking it
// SENT. Returns nil when the queue is empty.
func (s *Service) DequeueNext(ctx context.Context, deviceMac string) (*rdrmodels.PendingCommand, error) {
	return s.commands.DequeueNext(ctx, deviceMac)
}

// Acknowledge transitions a SENT command to EXECUTED. Returns false when no
// SENT command with that id exists; PENDING and EXECUTED commands are left
// alone, keeping the lifecycle forward-only.
func (s *Service) Acknowledge(ctx context.Context, commandID int64) (bool, error) {
	return s.commands.MarkExecuted(ctx, commandID)
}
