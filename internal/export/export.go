// Package export renders an owner's transactions as CSV or XLSX.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"fintracker/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat defaults to CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", models.ErrValidation, s)
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

var header = []string{"Date", "Kind", "Category", "Amount", "Description", "Balance"}

// Load returns the owner's transactions, newest first.
func Load(ctx context.Context, db *gorm.DB, owner string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := db.WithContext(ctx).Where("owner = ?", owner).
		Order("occurred_at DESC, created_at DESC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

func row(t models.Transaction) []string {
	snapshot := ""
	if t.BalanceSnapshot.Valid {
		snapshot = t.BalanceSnapshot.Decimal.StringFixed(2)
	}
	return []string{
		t.OccurredAt.Format("2006-01-02"),
		string(t.Kind),
		t.Category,
		t.Amount.StringFixed(2),
		t.Description,
		snapshot,
	}
}

// Write renders txs in format f.
func Write(w io.Writer, f Format, txs []models.Transaction) error {
	if f == XLSX {
		return writeXLSX(w, txs)
	}
	return writeCSV(w, txs)
}

func writeCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write(row(t)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Transactions"

func writeXLSX(w io.Writer, txs []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for r, t := range txs {
		// amounts stay numeric so the sheet can sum them
		amount, _ := t.Amount.Float64()
		var snapshot any = ""
		if t.BalanceSnapshot.Valid {
			snapshot, _ = t.BalanceSnapshot.Decimal.Float64()
		}
		vals := []any{t.OccurredAt.Format("2006-01-02"), string(t.Kind), t.Category, amount, t.Description, snapshot}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return fmt.Errorf("write xlsx row: %w", err)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "C", 14)
	_ = f.SetColWidth(sheetName, "D", "D", 12)
	_ = f.SetColWidth(sheetName, "E", "E", 40)
	_ = f.SetColWidth(sheetName, "F", "F", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
