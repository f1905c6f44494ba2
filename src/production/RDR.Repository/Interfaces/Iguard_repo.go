package interfaces

import (
	"context"
	"time"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
)

// GuardEventQueryParams represents parameters for guard event queries
type GuardEventQueryParams struct {
	DeviceMac string
	From      time.Time
	To        time.Time
}

// GuardEventRepository reads zone-dwell events produced by the analysis
// pipeline. This service never writes them.
type GuardEventRepository interface {
	// GetEvents returns events in the window, descending by start_time.
	GetEvents(ctx context.Context, params GuardEventQueryParams) ([]rdrmodels.GuardEvent, error)
}
