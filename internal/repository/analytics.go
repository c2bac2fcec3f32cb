package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RestaurantItemCount is one row of the menu_items_per_restaurant view.
type RestaurantItemCount struct {
	RestaurantID   int64  `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	ItemCount      int64  `json:"item_count"`
}

// DietaryDistribution is one row of the dietary_restrictions_distribution view.
type DietaryDistribution struct {
	Label     string `json:"label"`
	ItemCount int64  `json:"item_count"`
}

// PriceAnalysis is one row of the price_analysis_per_restaurant view.
type PriceAnalysis struct {
	RestaurantID   int64   `json:"restaurant_id"`
	RestaurantName string  `json:"restaurant_name"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	AvgPrice       float64 `json:"avg_price"`
}

// AnalyticsRepository reads the derived reporting views.
type AnalyticsRepository interface {
	ItemsPerRestaurant(ctx context.Context) ([]RestaurantItemCount, error)
	DietaryBreakdown(ctx context.Context) ([]DietaryDistribution, error)
	PriceAnalysisPerRestaurant(ctx context.Context) ([]PriceAnalysis, error)
}

type analyticsRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAnalyticsRepository(pool *pgxpool.Pool, logger *slog.Logger) AnalyticsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &analyticsRepository{pool: pool, logger: logger}
}

func (r *analyticsRepository) ItemsPerRestaurant(ctx context.Context) ([]RestaurantItemCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT restaurant_id, restaurant_name, item_count
		 FROM menu_items_per_restaurant
		 ORDER BY item_count DESC, restaurant_name`)
	if err != nil {
		r.logger.Error("analytics.items_per_restaurant.failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var result []RestaurantItemCount
	for rows.Next() {
		var row RestaurantItemCount
		if err := rows.Scan(&row.RestaurantID, &row.RestaurantName, &row.ItemCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) DietaryBreakdown(ctx context.Context) ([]DietaryDistribution, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT label, item_count
		 FROM dietary_restrictions_distribution
		 ORDER BY item_count DESC, label`)
	if err != nil {
		r.logger.Error("analytics.dietary_breakdown.failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var result []DietaryDistribution
	for rows.Next() {
		var row DietaryDistribution
		if err := rows.Scan(&row.Label, &row.ItemCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) PriceAnalysisPerRestaurant(ctx context.Context) ([]PriceAnalysis, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT restaurant_id, restaurant_name, min_price, max_price, avg_price
		 FROM price_analysis_per_restaurant
		 ORDER BY restaurant_name`)
	if err != nil {
		r.logger.Error("analytics.price_analysis.failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var result []PriceAnalysis
	for rows.Next() {
		var row PriceAnalysis
		if err := rows.Scan(&row.RestaurantID, &row.RestaurantName, &row.MinPrice, &row.MaxPrice, &row.AvgPrice); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
