package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"menud/internal/repository"
)

// Service is a tiny façade over the menu repository that produces XLSX bytes
// for exports.
type Service struct {
	menusRepo repository.MenuRepository
	logger    *slog.Logger
}

func NewService(menusRepo repository.MenuRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{menusRepo: menusRepo, logger: logger}
}

// ExportMenusXLSX returns an XLSX workbook (as bytes) with one row per menu
// item across all restaurants and versions, ordered the way the repository
// lists them.
func (s *Service) ExportMenusXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	items, err := s.menusRepo.ListMenuItemRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Menus"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Restaurant",
		"Menu Version",
		"Menu Date",
		"Section",
		"Item",
		"Description",
		"Price",
		"Dietary Restriction",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, item := range items {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, item.RestaurantName)
		write(2, item.MenuVersion)
		if !item.MenuDate.IsZero() {
			write(3, item.MenuDate.Format("2006-01-02"))
		} else {
			write(3, "")
		}
		write(4, item.SectionName)
		write(5, item.ItemName)
		if item.Description != nil {
			write(6, truncate(*item.Description, 140))
		} else {
			write(6, "")
		}
		write(7, item.Price)
		if item.DietaryLabel != nil {
			write(8, *item.DietaryLabel)
		} else {
			write(8, "")
		}

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // restaurant
	_ = f.SetColWidth(sheet, "B", "C", 14) // version, date
	_ = f.SetColWidth(sheet, "D", "E", 28) // section, item
	_ = f.SetColWidth(sheet, "F", "F", 48) // description
	_ = f.SetColWidth(sheet, "G", "G", 12) // price
	_ = f.SetColWidth(sheet, "H", "H", 22) // dietary

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
