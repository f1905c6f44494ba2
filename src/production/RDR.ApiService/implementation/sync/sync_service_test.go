package sync_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncservice "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/sync"
	config "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Config"
	logger "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Logger"
	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	api_models "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models/api"
	implementation "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

// recordingPublisher captures broadcast events for inspection.
type recordingPublisher struct {
	mu     sync.Mutex
	events []api_models.RadarDataEvent
	topics []string
}

func (p *recordingPublisher) Publish(topic string, event api_models.RadarDataEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
}

// failingTracking rejects every write, standing in for a storage outage.
type failingTracking struct{}

func (failingTracking) AppendSamples(ctx context.Context, samples []rdrmodels.TrackingSample) (int, error) {
	return 0, errors.New("connection refused")
}

func (failingTracking) GetHistory(ctx context.Context, params interfaces.TrackingQueryParams) ([]rdrmodels.TrackingSample, error) {
	return nil, errors.New("connection refused")
}

type fixture struct {
	service   *syncservice.Service
	tracking  *implementation.MemoryTrackingRepository
	shadows   *implementation.MemoryShadowRepository
	commands  *implementation.MemoryCommandRepository
	publisher *recordingPublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		tracking:  implementation.NewMemoryTrackingRepository(),
		shadows:   implementation.NewMemoryShadowRepository(),
		commands:  implementation.NewMemoryCommandRepository(),
		publisher: &recordingPublisher{},
		now:       time.Date(2025, 6, 1, 13, 45, 9, 500000000, time.UTC),
	}
	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json"})
	f.service = syncservice.NewService(f.tracking, f.shadows, f.commands, f.publisher, log, 1000)
	f.service.SetClock(func() time.Time { return f.now })
	return f
}

func TestProcessFiltersSentinelsKeepsOrdinals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Process(ctx, api_models.SyncRequest{
		DeviceMac: "AA:BB:CC:DD:EE:FF",
		BatchID:   "batch_x",
		Targets: []api_models.SyncTarget{
			{},
			{X: 5, Y: 3, Speed: 10, Resolution: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, 1, res.Filtered)

	stored, err := f.tracking.GetHistory(ctx, interfaces.TrackingQueryParams{
		DeviceMac: "AA:BB:CC:DD:EE:FF",
		From:      f.now.Add(-time.Minute),
		To:        f.now.Add(time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// The surviving target keeps its arrival ordinal even though the first
	// slot was a sentinel.
	assert.Equal(t, 2, stored[0].TargetID)
	assert.Equal(t, "batch_x", stored[0].BatchID)
	assert.Equal(t, 5, stored[0].PosX)
}

func TestProcessDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Process(ctx, api_models.SyncRequest{
		Targets: []api_models.SyncTarget{{X: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, 1000, res.Data.NextInterval)
	assert.Equal(t, f.now.Unix(), res.Data.ServerTime)
	assert.Nil(t, res.Data.PendingCmd)

	stored, err := f.tracking.GetHistory(ctx, interfaces.TrackingQueryParams{
		DeviceMac: syncservice.FallbackDeviceMac,
		From:      f.now.Add(-time.Minute),
		To:        f.now.Add(time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "batch_20250601134509", stored[0].BatchID)

	// Even a mac-less device gets a heartbeat under the fallback identity.
	shadow, err := f.shadows.GetShadow(ctx, syncservice.FallbackDeviceMac)
	require.NoError(t, err)
	require.NotNil(t, shadow)
	require.NotNil(t, shadow.LastHeartbeat)
	assert.True(t, shadow.LastHeartbeat.Equal(f.now))
}

func TestProcessEmptyBatchStillHeartbeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Process(ctx, api_models.SyncRequest{DeviceMac: "AA:BB"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Persisted)
	assert.Equal(t, 0, res.Filtered)

	shadow, err := f.shadows.GetShadow(ctx, "AA:BB")
	require.NoError(t, err)
	require.NotNil(t, shadow)
	assert.NotNil(t, shadow.LastHeartbeat)
}

func TestProcessDeliversCommandOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.commands.Enqueue(ctx, rdrmodels.PendingCommand{
		DeviceMac:   "AA:BB",
		CommandType: rdrmodels.CommandSetMode,
		Payload:     map[string]interface{}{"mode": "multi"},
		CreatedAt:   f.now,
	})
	require.NoError(t, err)

	res, err := f.service.Process(ctx, api_models.SyncRequest{DeviceMac: "AA:BB"})
	require.NoError(t, err)
	require.NotNil(t, res.Data.PendingCmd)
	assert.Equal(t, rdrmodels.CommandSetMode, res.Data.PendingCmd.CommandType)
	assert.Equal(t, id, res.Data.PendingCmd.CommandID)
	assert.Equal(t, "multi", res.Data.PendingCmd.Payload["mode"])

	// The next sync cycle finds nothing pending.
	res, err = f.service.Process(ctx, api_models.SyncRequest{DeviceMac: "AA:BB"})
	require.NoError(t, err)
	assert.Nil(t, res.Data.PendingCmd)
}

func TestProcessBroadcastsRawTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	targets := []api_models.SyncTarget{{}, {X: 5, Y: 3, Speed: 10, Resolution: 1}}
	_, err := f.service.Process(ctx, api_models.SyncRequest{DeviceMac: "AA:BB", Targets: targets})
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "AA:BB", f.publisher.topics[0])

	event := f.publisher.events[0]
	assert.Equal(t, "AA:BB", event.DeviceMac)

	// Viewers receive the batch exactly as sent, sentinel included.
	require.Len(t, event.Targets, 2)
	assert.Equal(t, targets, event.Targets)
	assert.InDelta(t, float64(f.now.UnixMilli())/1000.0, event.Timestamp, 0.0001)
}

func TestProcessStorageFailure(t *testing.T) {
	f := newFixture(t)
	log := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "json"})
	broken := syncservice.NewService(failingTracking{}, f.shadows, f.commands, f.publisher, log, 1000)

	res, err := broken.Process(context.Background(), api_models.SyncRequest{
		DeviceMac: "AA:BB",
		Targets:   []api_models.SyncTarget{{X: 1}},
	})
	require.Error(t, err)
	assert.Nil(t, res)

	// Nothing was broadcast and no heartbeat was recorded for the failed cycle.
	assert.Empty(t, f.publisher.events)
	shadow, err := f.shadows.GetShadow(context.Background(), "AA:BB")
	require.NoError(t, err)
	assert.Nil(t, shadow)
}

func TestConcurrentSyncsClaimCommandAtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.commands.Enqueue(ctx, rdrmodels.PendingCommand{
		DeviceMac:   "AA:BB",
		CommandType: rdrmodels.CommandReboot,
		CreatedAt:   f.now,
	})
	require.NoError(t, err)

	const workers = 16
	results := make(chan *api_models.PendingCommandData, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.service.Process(ctx, api_models.SyncRequest{DeviceMac: "AA:BB"})
			assert.NoError(t, err)
			results <- res.Data.PendingCmd
		}()
	}
	wg.Wait()
	close(results)

	delivered := 0
	for cmd := range results {
		if cmd != nil {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered, "a command must reach exactly one sync response")
}
