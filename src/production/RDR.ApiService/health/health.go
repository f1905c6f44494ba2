package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	config "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Config"
)

// HealthChecker provides health check functionality. Either store may be
// nil (memory mode); its check is then reported as skipped.
type HealthChecker struct {
	db    *sql.DB
	mongo *mongo.Client
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB, mongoClient *mongo.Client) *HealthChecker {
	return &HealthChecker{db: db, mongo: mongoClient}
}

// PingPostgres checks if the PostgreSQL connection is healthy
func (h *HealthChecker) PingPostgres(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return h.db.PingContext(ctx)
}

// PingMongo checks if the MongoDB connection is healthy
func (h *HealthChecker) PingMongo(ctx context.Context) error {
	if h.mongo == nil {
		return fmt.Errorf("mongo client is nil")
	}
	return h.mongo.Ping(ctx, readpref.Primary())
}

// GetHealthStatus returns the current health status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	checks := make(map[string]interface{})
	overall := "ok"

	if h.db == nil {
		checks["postgres"] = map[string]interface{}{"status": "skipped"}
	} else if err := h.PingPostgres(ctx); err != nil {
		checks["postgres"] = map[string]interface{}{"status": "error", "error": err.Error()}
		overall = "degraded"
	} else {
		checks["postgres"] = map[string]interface{}{"status": "ok"}
	}

	if h.mongo == nil {
		checks["mongodb"] = map[string]interface{}{"status": "skipped"}
	} else if err := h.PingMongo(ctx); err != nil {
		checks["mongodb"] = map[string]interface{}{"status": "error", "error": err.Error()}
		overall = "degraded"
	} else {
		checks["mongodb"] = map[string]interface{}{"status": "ok"}
	}

	return map[string]interface{}{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
}

// ConnectPostgresWithTimeout creates a PostgreSQL connection with a timeout context
func ConnectPostgresWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// ConnectMongoWithTimeout creates a MongoDB client with a timeout context
func ConnectMongoWithTimeout(cfg *config.Config, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.Mongo.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to ping MongoDB: %w", err)
	}

	return client, nil
}

// DatabaseManager handles database operations
type DatabaseManager struct {
	db *sql.DB
}

// NewDatabaseManager creates a new database manager
func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// CreateTables creates the required tables if they don't exist
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	createShadowTable := `
		CREATE TABLE IF NOT EXISTS device_shadow (
			device_mac VARCHAR(17) PRIMARY KEY,
			last_heartbeat TIMESTAMPTZ,
			firmware_ver VARCHAR(50),
			track_mode VARCHAR(10),
			bluetooth_state BOOLEAN NOT NULL DEFAULT FALSE,
			zone_config JSONB,
			active_viewers INTEGER NOT NULL DEFAULT 0
		)
	`

	createCommandsTable := `
		CREATE TABLE IF NOT EXISTS pending_commands (
			id BIGSERIAL PRIMARY KEY,
			device_mac VARCHAR(17) NOT NULL,
			command_type VARCHAR(20) NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			status VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ NOT NULL
		)
	`

	createGuardEventsTable := `
		CREATE TABLE IF NOT EXISTS guard_events (
			event_id BIGSERIAL PRIMARY KEY,
			device_mac VARCHAR(17) NOT NULL,
			zone_id SMALLINT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			duration INTEGER NOT NULL,
			max_speed SMALLINT NOT NULL,
			snapshot_points JSONB
		)
	`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_commands_mac_status ON pending_commands (device_mac, status)`,
		`CREATE INDEX IF NOT EXISTS idx_commands_created ON pending_commands (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_guard_mac_start ON guard_events (device_mac, start_time)`,
	}

	statements := append([]string{createShadowTable, createCommandsTable, createGuardEventsTable}, indexes...)
	for _, stmt := range statements {
		if _, err := dm.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}
