package sync

import (
	"context"
	"fmt"
	"time"

	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

// FallbackDeviceMac is used when a device omits its mac from the sync body.
const FallbackDeviceMac = "unknown"

// CommandQueue is the slice of the command queue manager the sync cycle
// needs: claim the next pending command for a device.
type CommandQueue interface {
	DequeueNext(ctx context.Context, deviceMac string) (*rdrmodels.PendingCommand, error)
}

// Publisher fans a device's live data out to subscribed viewers.
type Publisher interface {
	Publish(topic string, event api_models.RadarDataEvent)
}

// Service runs the device sync cycle: validate, filter, persist, record
// liveness, claim one command, broadcast, respond.
type Service struct {
	tracking     interfaces.TrackingRepository
	shadows      interfaces.ShadowRepository
	commands     CommandQueue
	publisher    Publisher
	logger       *logger.Logger
	nextInterval int

	// now is swapped out by tests
	now func() time.Time
}

// NewService creates a new sync service
func NewService(tracking interfaces.TrackingRepository, shadows interfaces.ShadowRepository, commands CommandQueue, publisher Publisher, log *logger.Logger, nextInterval int) *Service {
	return &Service{
		tracking:     tracking,
		shadows:      shadows,
		commands:     commands,
		publisher:    publisher,
		logger:       log,
		nextInterval: nextInterval,
		now:          time.Now,
	}
}

// SetClock overrides the service clock. Tests use this to pin timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Result is the outcome of one sync cycle.
type Result struct {
	Data      api_models.SyncData
	Persisted int
	Filtered  int
}

// Process runs one sync cycle. Storage failures surface as errors and leave
// no samples behind; everything else produces a Result.
func (s *Service) Process(ctx context.Context, req api_models.SyncRequest) (*Result, error) {
	now := s.now()

	deviceMac := req.DeviceMac
	if deviceMac == "" {
		deviceMac = FallbackDeviceMac
	}
	batchID := req.BatchID
	if batchID == "" {
		batchID = rdrmodels.NewBatchID(now)
	}
	targets := req.Targets
	if targets == nil {
		targets = []api_models.SyncTarget{}
	}

	// Ordinals follow arrival order and survive filtering: the i-th target
	// always gets target_id i+1 even when earlier targets are sentinels.
	samples := make([]rdrmodels.TrackingSample, 0, len(targets))
	filtered := 0
	for i, t := range targets {
		sample := rdrmodels.TrackingSample{
			DeviceMac:  deviceMac,
			BatchID:    batchID,
			TargetID:   i + 1,
			PosX:       t.X,
			PosY:       t.Y,
			Speed:      t.Speed,
			Resolution: t.Resolution,
			CreatedAt:  now,
		}
		if sample.IsSentinel() {
			s.logger.Logger.Debug().
				Str("device_mac", deviceMac).
				Str("batch_id", batchID).
				Int("target_id", sample.TargetID).
				Msg("Filtered empty target")
			filtered++
			continue
		}
		samples = append(samples, sample)
	}

	persisted, err := s.tracking.AppendSamples(ctx, samples)
	if err != nil {
		return nil, fmt.Errorf("failed to append samples: %w", err)
	}

	if err := s.shadows.RecordHeartbeat(ctx, deviceMac, now); err != nil {
		return nil, fmt.Errorf("failed to record heartbeat: %w", err)
	}

	cmd, err := s.commands.DequeueNext(ctx, deviceMac)
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue command: %w", err)
	}
	var pendingCmd *api_models.PendingCommandData
	if cmd != nil {
		pendingCmd = &api_models.PendingCommandData{
			CommandType: cmd.CommandType,
			Payload:     cmd.Payload,
			CommandID:   cmd.ID,
		}
	}

	// Viewers get the raw batch, sentinels included.
	s.publisher.Publish(deviceMac, api_models.RadarDataEvent{
		DeviceMac: deviceMac,
		Targets:   targets,
		Timestamp: float64(now.UnixMilli()) / 1000.0,
	})

	s.logger.Logger.Info().
		Str("device_mac", deviceMac).
		Str("batch_id", batchID).
		Int("valid_targets", persisted).
		Int("filtered_targets", filtered).
		Msg("Device sync processed")

	return &Result{
		Data: api_models.SyncData{
			NextInterval: s.nextInterval,
			ServerTime:   now.Unix(),
			PendingCmd:   pendingCmd,
		},
		Persisted: persisted,
		Filtered:  filtered,
	}, nil
}
