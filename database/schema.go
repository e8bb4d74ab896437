// database/schema.go
package database

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stations (
		id            VARCHAR(64)  NOT NULL PRIMARY KEY,
		name          VARCHAR(255) NOT NULL,
		standard_name VARCHAR(255) NOT NULL DEFAULT '',
		location_x    DOUBLE       NOT NULL DEFAULT 0,
		location_y    DOUBLE       NOT NULL DEFAULT 0,
		uri           VARCHAR(500) NOT NULL DEFAULT '',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS vehicles (
		id           VARCHAR(64)  NOT NULL PRIMARY KEY,
		short_name   VARCHAR(100) NOT NULL DEFAULT '',
		number       VARCHAR(32)  NOT NULL DEFAULT '',
		vehicle_type VARCHAR(32)  NOT NULL DEFAULT '',
		uri          VARCHAR(500) NOT NULL DEFAULT '',
		created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS departures (
		id                   BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		station_id           VARCHAR(64)  NOT NULL,
		station_name         VARCHAR(255) NOT NULL DEFAULT '',
		vehicle_id           VARCHAR(64)  NOT NULL,
		vehicle_name         VARCHAR(100) NOT NULL DEFAULT '',
		destination          VARCHAR(255) NOT NULL DEFAULT '',
		platform             VARCHAR(16)  NOT NULL DEFAULT '',
		scheduled_time       DATETIME     NOT NULL,
		actual_time          DATETIME     NULL,
		delay_seconds        INT          NOT NULL DEFAULT 0,
		canceled             BOOLEAN      NOT NULL DEFAULT FALSE,
		occupancy            VARCHAR(32)  NOT NULL DEFAULT '',
		departure_connection VARCHAR(500) NOT NULL DEFAULT '',
		recorded_at          DATETIME     NOT NULL,
		UNIQUE KEY uq_departures_key (station_id, vehicle_id, scheduled_time),
		KEY idx_departures_recorded_at (recorded_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS run_logs (
		id                 CHAR(36)    NOT NULL PRIMARY KEY,
		trigger_source     VARCHAR(16) NOT NULL,
		status             VARCHAR(16) NOT NULL,
		started_at         DATETIME(3) NOT NULL,
		finished_at        DATETIME(3) NOT NULL,
		duration_ms        BIGINT      NOT NULL DEFAULT 0,
		stations_requested INT         NOT NULL DEFAULT 0,
		stations_failed    INT         NOT NULL DEFAULT 0,
		rows_fetched       INT         NOT NULL DEFAULT 0,
		rows_written       INT         NOT NULL DEFAULT 0,
		rows_skipped       INT         NOT NULL DEFAULT 0,
		rows_failed        INT         NOT NULL DEFAULT 0,
		error_kind         VARCHAR(32) NOT NULL DEFAULT '',
		error_text         TEXT        NULL,
		KEY idx_run_logs_started_at (started_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the four tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return &StorageError{Op: "ensure schema", Err: err}
		}
	}
	return nil
}
