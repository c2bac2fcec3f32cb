package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"menud/constants"
	"menud/internal/common"
	"menud/internal/llm"
)

// MinPriceSentinel replaces unparseable or non-positive prices instead of
// rejecting the item.
const MinPriceSentinel = 0.01

// versionConflictRetries bounds the retry loop when two uploads race to the
// same (restaurant, version) slot.
const versionConflictRetries = 3

const uniqueViolation = "23505"

type MenuRepository interface {
	Persist(ctx context.Context, menu *llm.StructuredMenu) (int64, error)
	ListMenuItemRows(ctx context.Context) ([]MenuItemRow, error)
}

// MenuItemRow is one flattened item for listings and exports.
type MenuItemRow struct {
	RestaurantName string
	MenuVersion    int
	MenuDate       time.Time
	SectionName    string
	SectionOrder   int
	ItemName       string
	Description    *string
	Price          float64
	DietaryLabel   *string
}

type menuRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewMenuRepository(pool *pgxpool.Pool, logger *slog.Logger) MenuRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &menuRepository{pool: pool, logger: logger}
}

// Persist writes one structured menu in a single transaction: dietary seed,
// restaurant resolution, versioned menu row, sections, items, and the
// success processing-log row. Everything commits together or not at all.
// A unique-index conflict on (restaurant_id, version) means another upload
// won the version slot; the whole transaction is retried a bounded number of
// times with a freshly computed version.
func (r *menuRepository) Persist(ctx context.Context, menu *llm.StructuredMenu) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= versionConflictRetries; attempt++ {
		menuID, err := r.persistOnce(ctx, menu)
		if err == nil {
			return menuID, nil
		}
		lastErr = err
		if !isVersionConflict(err) {
			break
		}
		r.logger.Warn("repository.persist.version_conflict",
			"restaurant", menu.Restaurant.Name, "attempt", attempt)
	}
	r.logger.Error("repository.persist.failed", "error", lastErr)
	return 0, fmt.Errorf("%w: %v", common.ErrPersist, lastErr)
}

func (r *menuRepository) persistOnce(ctx context.Context, menu *llm.StructuredMenu) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(ctx)
	}()

	restrictionIDs, err := seedDietaryRestrictions(ctx, tx)
	if err != nil {
		return 0, err
	}

	name := orDefault(menu.Restaurant.Name, "Unknown")
	location := orDefault(menu.Restaurant.Location, "Unknown")

	restaurantID, version, err := resolveRestaurant(ctx, tx, name, location)
	if err != nil {
		return 0, err
	}

	var menuID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO menus (restaurant_id, version, date) VALUES ($1, $2, $3) RETURNING menu_id`,
		restaurantID, version, time.Now(),
	).Scan(&menuID)
	if err != nil {
		return 0, fmt.Errorf("insert menu: %w", err)
	}

	for i, section := range menu.MenuSections {
		var sectionID int64
		err = tx.QueryRow(ctx,
			`INSERT INTO menu_sections (menu_id, section_name, section_order) VALUES ($1, $2, $3) RETURNING section_id`,
			menuID, orDefault(section.SectionName, "Unknown Section"), i+1,
		).Scan(&sectionID)
		if err != nil {
			return 0, fmt.Errorf("insert section %d: %w", i+1, err)
		}

		for _, item := range section.Items {
			restriction := constants.NoRestriction
			if item.DietaryRestrictionID != nil {
				restriction = constants.RestrictionForCode(*item.DietaryRestrictionID)
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO menu_items (section_id, name, description, price, dietary_restriction_id)
				 VALUES ($1, $2, $3, $4, $5)`,
				sectionID,
				orDefault(item.Name, "Unknown Item"),
				item.Description,
				CoercePrice(item.Price),
				restrictionIDs[string(restriction)],
			)
			if err != nil {
				return 0, fmt.Errorf("insert item: %w", err)
			}
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO processing_logs (menu_id, status, error_message, timestamp) VALUES ($1, $2, NULL, now())`,
		menuID, constants.LogStatusSuccessful,
	)
	if err != nil {
		return 0, fmt.Errorf("insert processing log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("repository.persist.ok",
		"menu_id", menuID,
		"restaurant_id", restaurantID,
		"version", version,
		"sections", len(menu.MenuSections),
	)
	return menuID, nil
}

// seedDietaryRestrictions inserts the fixed labels if absent and returns the
// label -> id lookup.
func seedDietaryRestrictions(ctx context.Context, tx pgx.Tx) (map[string]int64, error) {
	for _, label := range constants.DietaryLabels() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dietary_restrictions (label) VALUES ($1) ON CONFLICT (label) DO NOTHING`,
			label,
		); err != nil {
			return nil, fmt.Errorf("seed dietary restriction %q: %w", label, err)
		}
	}

	rows, err := tx.Query(ctx, `SELECT restriction_id, label FROM dietary_restrictions`)
	if err != nil {
		return nil, fmt.Errorf("load dietary restrictions: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64, 5)
	for rows.Next() {
		var id int64
		var label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		ids[label] = id
	}
	return ids, rows.Err()
}

// resolveRestaurant looks a restaurant up by exact name, reusing its id and
// computing the next version, or inserts a new one at version 1.
func resolveRestaurant(ctx context.Context, tx pgx.Tx, name, location string) (int64, int, error) {
	var restaurantID int64
	err := tx.QueryRow(ctx,
		`SELECT restaurant_id FROM restaurants WHERE name = $1`, name,
	).Scan(&restaurantID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx,
			`INSERT INTO restaurants (name, location) VALUES ($1, $2) RETURNING restaurant_id`,
			name, location,
		).Scan(&restaurantID)
		if err != nil {
			return 0, 0, fmt.Errorf("insert restaurant: %w", err)
		}
		return restaurantID, 1, nil
	case err != nil:
		return 0, 0, fmt.Errorf("lookup restaurant: %w", err)
	}

	var maxVersion int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM menus WHERE restaurant_id = $1`, restaurantID,
	).Scan(&maxVersion)
	if err != nil {
		return 0, 0, fmt.Errorf("compute version: %w", err)
	}
	return restaurantID, maxVersion + 1, nil
}

func (r *menuRepository) ListMenuItemRows(ctx context.Context) ([]MenuItemRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT re.name, m.version, m.date, s.section_name, s.section_order,
		       i.name, i.description, i.price, d.label
		FROM menu_items i
		JOIN menu_sections s ON s.section_id = i.section_id
		JOIN menus m ON m.menu_id = s.menu_id
		JOIN restaurants re ON re.restaurant_id = m.restaurant_id
		LEFT JOIN dietary_restrictions d ON d.restriction_id = i.dietary_restriction_id
		ORDER BY re.name, m.version, s.section_order, i.item_id`)
	if err != nil {
		r.logger.Error("repository.list_items.failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var result []MenuItemRow
	for rows.Next() {
		var row MenuItemRow
		if err := rows.Scan(
			&row.RestaurantName, &row.MenuVersion, &row.MenuDate,
			&row.SectionName, &row.SectionOrder,
			&row.ItemName, &row.Description, &row.Price, &row.DietaryLabel,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// CoercePrice parses a number-or-string price from the structured document.
// Unparseable or non-positive values become the minimum sentinel, never a
// rejection.
func CoercePrice(v any) float64 {
	var price float64
	switch t := v.(type) {
	case float64:
		price = t
	case int:
		price = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return MinPriceSentinel
		}
		price = parsed
	default:
		return MinPriceSentinel
	}
	if price <= 0 {
		return MinPriceSentinel
	}
	return price
}

func isVersionConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
