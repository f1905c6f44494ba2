package implementation

import (
	"context"
	"sort"
	"sync"
	"time"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

// In-memory repositories backing STORAGE_MODE=memory and the unit tests.
// Same contracts as the Postgres/Mongo implementations, no persistence.

type MemoryTrackingRepository struct {
	mu      sync.Mutex
	samples []rdrmodels.TrackingSample
}

var _ interfaces.TrackingRepository = (*MemoryTrackingRepository)(nil)

func NewMemoryTrackingRepository() *MemoryTrackingRepository {
	return &MemoryTrackingRepository{}
}

func (r *MemoryTrackingRepository) AppendSamples(ctx context.Context, samples []rdrmodels.TrackingSample) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, samples...)
	return len(samples), nil
}

func (r *MemoryTrackingRepository) GetHistory(ctx context.Context, params interfaces.TrackingQueryParams) ([]rdrmodels.TrackingSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []rdrmodels.TrackingSample
	for _, s := range r.samples {
		if s.DeviceMac != params.DeviceMac {
			continue
		}
		if s.CreatedAt.Before(params.From) || s.CreatedAt.After(params.To) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type MemoryShadowRepository struct {
	mu      sync.Mutex
	shadows map[string]*rdrmodels.DeviceShadow
}

var _ interfaces.ShadowRepository = (*MemoryShadowRepository)(nil)

func NewMemoryShadowRepository() *MemoryShadowRepository {
	return &MemoryShadowRepository{shadows: make(map[string]*rdrmodels.DeviceShadow)}
}

func (r *MemoryShadowRepository) getOrCreate(deviceMac string) *rdrmodels.DeviceShadow {
	shadow, ok := r.shadows[deviceMac]
	if !ok {
		shadow = &rdrmodels.DeviceShadow{DeviceMac: deviceMac}
		r.shadows[deviceMac] = shadow
	}
	return shadow
}

func (r *MemoryShadowRepository) RecordHeartbeat(ctx context.Context, deviceMac string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hb := at
	r.getOrCreate(deviceMac).LastHeartbeat = &hb
	return nil
}

func (r *MemoryShadowRepository) IncrementViewers(ctx context.Context, deviceMac string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCreate(deviceMac).ActiveViewers++
	return nil
}

func (r *MemoryShadowRepository) DecrementViewers(ctx context.Context, deviceMac string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	shadow, ok := r.shadows[deviceMac]
	if !ok || shadow.ActiveViewers == 0 {
		return nil
	}
	shadow.ActiveViewers--
	return nil
}

func (r *MemoryShadowRepository) GetShadow(ctx context.Context, deviceMac string) (*rdrmodels.DeviceShadow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shadow, ok := r.shadows[deviceMac]
	if !ok {
		return nil, nil
	}
	cp := *shadow
	return &cp, nil
}

func (r *MemoryShadowRepository) ListShadows(ctx context.Context) ([]rdrmodels.DeviceShadow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	macs := make([]string, 0, len(r.shadows))
	for mac := range r.shadows {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	out := make([]rdrmodels.DeviceShadow, 0, len(macs))
	for _, mac := range macs {
		out = append(out, *r.shadows[mac])
	}
	return out, nil
}

type MemoryCommandRepository struct {
	mu       sync.Mutex
	nextID   int64
	commands []*rdrmodels.PendingCommand
}

var _ interfaces.CommandRepository = (*MemoryCommandRepository)(nil)

func NewMemoryCommandRepository() *MemoryCommandRepository {
	return &MemoryCommandRepository{}
}

func (r *MemoryCommandRepository) Enqueue(ctx context.Context, cmd rdrmodels.PendingCommand) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	cmd.ID = r.nextID
	cmd.Status = rdrmodels.StatusPending
	if cmd.Payload == nil {
		cmd.Payload = map[string]interface{}{}
	}
	r.commands = append(r.commands, &cmd)
	return cmd.ID, nil
}

// DequeueNext holds the lock across select-and-transition, which gives the
// same at-most-once guarantee the SQL implementation gets from its
// conditional update.
func (r *MemoryCommandRepository) DequeueNext(ctx context.Context, deviceMac string) (*rdrmodels.PendingCommand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest *rdrmodels.PendingCommand
	for _, cmd := range r.commands {
		if cmd.DeviceMac != deviceMac || cmd.Status != rdrmodels.StatusPending {
			continue
		}
		if oldest == nil || cmd.CreatedAt.Before(oldest.CreatedAt) ||
			(cmd.CreatedAt.Equal(oldest.CreatedAt) && cmd.ID < oldest.ID) {
			oldest = cmd
		}
	}
	if oldest == nil {
		return nil, nil
	}

	oldest.Status = rdrmodels.StatusSent
	cp := *oldest
	return &cp, nil
}

func (r *MemoryCommandRepository) MarkExecuted(ctx context.Context, commandID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cmd := range r.commands {
		if cmd.ID == commandID && cmd.Status == rdrmodels.StatusSent {
			cmd.Status = rdrmodels.StatusExecuted
			return true, nil
		}
	}
	return false, nil
}

type MemoryGuardEventRepository struct {
	mu     sync.Mutex
	events []rdrmodels.GuardEvent
}

var _ interfaces.GuardEventRepository = (*MemoryGuardEventRepository)(nil)

func NewMemoryGuardEventRepository() *MemoryGuardEventRepository {
	return &MemoryGuardEventRepository{}
}

// Add seeds an event. The pipeline that produces guard events lives outside
// this service, so the memory backend takes them pre-built.
func (r *MemoryGuardEventRepository) Add(event rdrmodels.GuardEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *MemoryGuardEventRepository) GetEvents(ctx context.Context, params interfaces.GuardEventQueryParams) ([]rdrmodels.GuardEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []rdrmodels.GuardEvent
	for _, e := range r.events {
		if e.DeviceMac != params.DeviceMac {
			continue
		}
		if e.StartTime.Before(params.From) || e.EndTime.After(params.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}
