package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Idempotent DDL for the menu store. The unique (restaurant_id, version)
// index is what makes concurrent version assignment safe; Persist retries on
// a conflict instead of handing out duplicate versions.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS restaurants (
		restaurant_id BIGSERIAL PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		location      VARCHAR(200) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants (name)`,
	`CREATE TABLE IF NOT EXISTS dietary_restrictions (
		restriction_id BIGSERIAL PRIMARY KEY,
		label          VARCHAR(50) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS menus (
		menu_id       BIGSERIAL PRIMARY KEY,
		restaurant_id BIGINT NOT NULL REFERENCES restaurants (restaurant_id) ON DELETE CASCADE,
		version       INTEGER NOT NULL,
		date          DATE NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_menus_restaurant_version ON menus (restaurant_id, version)`,
	`CREATE TABLE IF NOT EXISTS menu_sections (
		section_id    BIGSERIAL PRIMARY KEY,
		menu_id       BIGINT NOT NULL REFERENCES menus (menu_id) ON DELETE CASCADE,
		section_name  VARCHAR(100) NOT NULL,
		section_order INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		item_id                BIGSERIAL PRIMARY KEY,
		section_id             BIGINT NOT NULL REFERENCES menu_sections (section_id) ON DELETE CASCADE,
		name                   VARCHAR(100) NOT NULL,
		description            TEXT,
		price                  NUMERIC(10,2) NOT NULL,
		dietary_restriction_id BIGINT REFERENCES dietary_restrictions (restriction_id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processing_logs (
		log_id        BIGSERIAL PRIMARY KEY,
		menu_id       BIGINT NOT NULL REFERENCES menus (menu_id) ON DELETE CASCADE,
		status        VARCHAR(50) NOT NULL,
		error_message TEXT,
		timestamp     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// derived read views consumed by the reporting endpoints
	`CREATE OR REPLACE VIEW menu_items_per_restaurant AS
		SELECT r.restaurant_id, r.name AS restaurant_name, COUNT(i.item_id) AS item_count
		FROM restaurants r
		LEFT JOIN menus m ON m.restaurant_id = r.restaurant_id
		LEFT JOIN menu_sections s ON s.menu_id = m.menu_id
		LEFT JOIN menu_items i ON i.section_id = s.section_id
		GROUP BY r.restaurant_id, r.name`,
	`CREATE OR REPLACE VIEW dietary_restrictions_distribution AS
		SELECT d.label, COUNT(i.item_id) AS item_count
		FROM dietary_restrictions d
		LEFT JOIN menu_items i ON i.dietary_restriction_id = d.restriction_id
		GROUP BY d.label`,
	`CREATE OR REPLACE VIEW price_analysis_per_restaurant AS
		SELECT r.restaurant_id, r.name AS restaurant_name,
			MIN(i.price) AS min_price,
			MAX(i.price) AS max_price,
			ROUND(AVG(i.price), 2) AS avg_price
		FROM restaurants r
		JOIN menus m ON m.restaurant_id = r.restaurant_id
		JOIN menu_sections s ON s.menu_id = m.menu_id
		JOIN menu_items i ON i.section_id = s.section_id
		GROUP BY r.restaurant_id, r.name`,
}

// EnsureSchema applies the DDL statements in order. Safe to run on every
// startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Error("schema apply failed", "error", err)
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Info("database schema ensured", "statements", len(ddl))
	return nil
}
