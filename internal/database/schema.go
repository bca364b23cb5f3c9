package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		name          VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		role          VARCHAR(32)  NOT NULL DEFAULT 'other',
		created_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id               BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		venue            VARCHAR(128) NOT NULL,
		slot_date        VARCHAR(32)  NOT NULL,
		slot_time        VARCHAR(32)  NOT NULL,
		attendees        INT          NOT NULL,
		organizer        VARCHAR(255) NOT NULL,
		email            VARCHAR(255) NOT NULL,
		purpose          TEXT         NOT NULL,
		purpose_category VARCHAR(32)  NOT NULL DEFAULT 'Other',
		status           ENUM('pending','confirmed','cancelled','reassigned') NOT NULL,
		priority_rank    INT          NOT NULL,
		venue_capacity   INT          NULL,
		original_venue   VARCHAR(128) NULL,
		moved_reason     VARCHAR(512) NULL,
		approved_by      VARCHAR(255) NULL,
		approval_date    DATETIME(6)  NULL,
		created_at       DATETIME(6)  NOT NULL,
		updated_at       DATETIME(6)  NOT NULL,
		KEY idx_reservations_slot (slot_date, slot_time, venue),
		KEY idx_reservations_email (email),
		KEY idx_reservations_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	// Single-row table locked first by every reservation transaction.
	`CREATE TABLE IF NOT EXISTS reservation_seq (
		id TINYINT UNSIGNED NOT NULL PRIMARY KEY
	) ENGINE=InnoDB`,
	`INSERT IGNORE INTO reservation_seq (id) VALUES (1)`,
}

// EnsureSchema creates the users and reservations tables if they are
// missing, along with the reservation_seq lock row.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
