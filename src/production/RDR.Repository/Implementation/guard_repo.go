package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

type PostgresGuardEventRepository struct {
	db *sql.DB
}

var _ interfaces.GuardEventRepository = (*PostgresGuardEventRepository)(nil)

func NewPostgresGuardEventRepository(db *sql.DB) *PostgresGuardEventRepository {
	return &PostgresGuardEventRepository{db: db}
}

func (r *PostgresGuardEventRepository) GetEvents(ctx context.Context, params interfaces.GuardEventQueryParams) ([]rdrmodels.GuardEvent, error) {
	query := `
		SELECT event_id, device_mac, zone_id, start_time, end_time, duration, max_speed, snapshot_points
		FROM guard_events
		WHERE device_mac = $1 AND start_time >= $2 AND end_time <= $3
		ORDER BY start_time DESC
	`

	rows, err := r.db.QueryContext(ctx, query, params.DeviceMac, params.From, params.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []rdrmodels.GuardEvent
	for rows.Next() {
		var event rdrmodels.GuardEvent
		var snapshotJSON []byte

		if err := rows.Scan(&event.EventID, &event.DeviceMac, &event.ZoneID, &event.StartTime, &event.EndTime, &event.Duration, &event.MaxSpeed, &snapshotJSON); err != nil {
			return nil, err
		}

		if len(snapshotJSON) > 0 {
			if err := json.Unmarshal(snapshotJSON, &event.SnapshotPoints); err != nil {
				return nil, fmt.Errorf("failed to unmarshal snapshot_points: %w", err)
			}
		}

		events = append(events, event)
	}

	return events, rows.Err()
}
