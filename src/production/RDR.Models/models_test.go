package rdrmodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSentinel(t *testing.T) {
	assert.True(t, TrackingSample{}.IsSentinel())
	assert.False(t, TrackingSample{PosX: 1}.IsSentinel())
	assert.False(t, TrackingSample{PosY: -3}.IsSentinel())
	assert.False(t, TrackingSample{Speed: 10}.IsSentinel())
	assert.False(t, TrackingSample{Resolution: 1}.IsSentinel())
}

func TestNewBatchID(t *testing.T) {
	at := time.Date(2025, 6, 1, 13, 45, 9, 0, time.UTC)
	assert.Equal(t, "batch_20250601134509", NewBatchID(at))
}

func TestOnlineBoundary(t *testing.T) {
	now := time.Now()
	ttl := 300 * time.Second

	exactly := now.Add(-ttl)
	justInside := now.Add(-ttl + time.Millisecond)

	assert.False(t, DeviceShadow{LastHeartbeat: &exactly}.Online(now, ttl), "heartbeat exactly ttl old is offline")
	assert.True(t, DeviceShadow{LastHeartbeat: &justInside}.Online(now, ttl))
	assert.False(t, DeviceShadow{}.Online(now, ttl), "no heartbeat means offline")
}

func TestValidCommandType(t *testing.T) {
	assert.True(t, ValidCommandType(CommandReboot))
	assert.True(t, ValidCommandType(CommandSetMode))
	assert.True(t, ValidCommandType(CommandSetZone))
	assert.False(t, ValidCommandType("FORMAT_DISK"))
	assert.False(t, ValidCommandType("reboot"))
	assert.False(t, ValidCommandType(""))
}

func TestFormatTimestamp(t *testing.T) {
	at := time.Date(2025, 6, 1, 13, 45, 9, 123000000, time.UTC)
	assert.Equal(t, "2025-06-01T13:45:09Z", FormatTimestamp(at))
}

func TestParseTimestamp(t *testing.T) {
	naive, err := ParseTimestamp("2025-06-01T13:45:09Z")
	require.NoError(t, err)
	assert.Equal(t, 2025, naive.Year())
	assert.Equal(t, 9, naive.Second())

	withOffset, err := ParseTimestamp("2025-06-01T13:45:09+02:00")
	require.NoError(t, err)
	assert.Equal(t, 13, withOffset.Hour())

	_, err = ParseTimestamp("June 1st")
	require.Error(t, err)
}
