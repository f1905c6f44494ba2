package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

type PostgresShadowRepository struct {
	db *sql.DB
}

var _ interfaces.ShadowRepository = (*PostgresShadowRepository)(nil)

func NewPostgresShadowRepository(db *sql.DB) *PostgresShadowRepository {
	return &PostgresShadowRepository{db: db}
}

// RecordHeartbeat upserts the device's last heartbeat (idempotent upsert)
func (r *PostgresShadowRepository) RecordHeartbeat(ctx context.Context, deviceMac string, at time.Time) error {
	query := `
		INSERT INTO device_shadow (device_mac, last_heartbeat, active_viewers)
		VALUES ($1, $2, 0)
		ON CONFLICT (device_mac)
		DO UPDATE SET last_heartbeat = EXCLUDED.last_heartbeat
	`
	_, err := r.db.ExecContext(ctx, query, deviceMac, at)
	return err
}

func (r *PostgresShadowRepository) IncrementViewers(ctx context.Context, deviceMac string) error {
	query := `
		INSERT INTO device_shadow (device_mac, active_viewers)
		VALUES ($1, 1)
		ON CONFLICT (device_mac)
		DO UPDATE SET active_viewers = device_shadow.active_viewers + 1
	`
	_, err := r.db.ExecContext(ctx, query, deviceMac)
	return err
}

// DecrementViewers clamps at zero; a decrement for an unknown device is a no-op.
func (r *PostgresShadowRepository) DecrementViewers(ctx context.Context, deviceMac string) error {
	query := `
		UPDATE device_shadow
		SET active_viewers = GREATEST(active_viewers - 1, 0)
		WHERE device_mac = $1
	`
	_, err := r.db.ExecContext(ctx, query, deviceMac)
	return err
}

func (r *PostgresShadowRepository) GetShadow(ctx context.Context, deviceMac string) (*rdrmodels.DeviceShadow, error) {
	query := `
		SELECT device_mac, last_heartbeat, firmware_ver, track_mode, bluetooth_state, zone_config, active_viewers
		FROM device_shadow WHERE device_mac = $1
	`
	shadow, err := scanShadow(r.db.QueryRowContext(ctx, query, deviceMac))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return shadow, nil
}

func (r *PostgresShadowRepository) ListShadows(ctx context.Context) ([]rdrmodels.DeviceShadow, error) {
	query := `
		SELECT device_mac, last_heartbeat, firmware_ver, track_mode, bluetooth_state, zone_config, active_viewers
		FROM device_shadow ORDER BY device_mac
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shadows []rdrmodels.DeviceShadow
	for rows.Next() {
		shadow, err := scanShadow(rows)
		if err != nil {
			return nil, err
		}
		shadows = append(shadows, *shadow)
	}

	return shadows, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShadow(row rowScanner) (*rdrmodels.DeviceShadow, error) {
	var shadow rdrmodels.DeviceShadow
	var lastHeartbeat sql.NullTime
	var firmwareVer, trackMode sql.NullString
	var bluetoothState sql.NullBool
	var zoneJSON []byte

	err := row.Scan(&shadow.DeviceMac, &lastHeartbeat, &firmwareVer, &trackMode, &bluetoothState, &zoneJSON, &shadow.ActiveViewers)
	if err != nil {
		return nil, err
	}

	if lastHeartbeat.Valid {
		hb := lastHeartbeat.Time
		shadow.LastHeartbeat = &hb
	}
	shadow.FirmwareVer = firmwareVer.String
	shadow.TrackMode = trackMode.String
	shadow.BluetoothState = bluetoothState.Bool

	if len(zoneJSON) > 0 {
		if err := json.Unmarshal(zoneJSON, &shadow.ZoneConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal zone_config: %w", err)
		}
	}

	return &shadow, nil
}
