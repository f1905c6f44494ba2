package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	rdrmodels "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Models"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

type PostgresCommandRepository struct {
	db *sql.DB
}

var _ interfaces.CommandRepository = (*PostgresCommandRepository)(nil)

func NewPostgresCommandRepository(db *sql.DB) *PostgresCommandRepository {
	return &PostgresCommandRepository{db: db}
}

func (r *PostgresCommandRepository) Enqueue(ctx context.Context, cmd rdrmodels.PendingCommand) (int64, error) {
	query := `
		INSERT INTO pending_commands (device_mac, command_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	payloadJSON, err := json.Marshal(ensurePayloadNotNull(cmd.Payload))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, cmd.DeviceMac, cmd.CommandType, payloadJSON, rdrmodels.StatusPending, cmd.CreatedAt).Scan(&id)
	return id, err
}

// DequeueNext selects and transitions the oldest PENDING command in one
// statement. FOR UPDATE SKIP LOCKED keeps concurrent syncs for the same
// device from both claiming the same command.
func (r *PostgresCommandRepository) DequeueNext(ctx context.Context, deviceMac string) (*rdrmodels.PendingCommand, error) {
	query := `
		UPDATE pending_commands SET status = $1
		WHERE id = (
			SELECT id FROM pending_commands
			WHERE device_mac = $2 AND status = $3
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, device_mac, command_type, payload, status, created_at
	`

	var cmd rdrmodels.PendingCommand
	var payloadJSON []byte

	err := r.db.QueryRowContext(ctx, query, rdrmodels.StatusSent, deviceMac, rdrmodels.StatusPending).
		Scan(&cmd.ID, &cmd.DeviceMac, &cmd.CommandType, &payloadJSON, &cmd.Status, &cmd.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(payloadJSON, &cmd.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &cmd, nil
}

func (r *PostgresCommandRepository) MarkExecuted(ctx context.Context, commandID int64) (bool, error) {
	query := `UPDATE pending_commands SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, rdrmodels.StatusExecuted, commandID, rdrmodels.StatusSent)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func ensurePayloadNotNull(payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return map[string]interface{}{}
	}
	return payload
}
