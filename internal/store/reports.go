package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockRegisterRow is one line of the stock register export, joined
// with catalog names.
type StockRegisterRow struct {
	GodownName   string
	GodownCode   string
	MaterialName string
	MaterialCode string
	Unit         string
	Quantity     decimal.Decimal
	UpdatedAt    time.Time
}

func (s *Store) ListStockRegister(ctx context.Context) ([]StockRegisterRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.name, g.code, m.name, m.code, m.unit, gs.quantity, gs.updated_at
		FROM godown_stocks gs
		JOIN godowns g ON g.id = gs.godown_id
		JOIN materials m ON m.id = gs.material_id
		ORDER BY g.name, m.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list stock register: %w", err)
	}
	defer rows.Close()

	var out []StockRegisterRow
	for rows.Next() {
		var r StockRegisterRow
		if err := rows.Scan(&r.GodownName, &r.GodownCode, &r.MaterialName, &r.MaterialCode, &r.Unit, &r.Quantity, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock register row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PayrollReportRow is one line of the monthly payroll export, joined
// with worker details.
type PayrollReportRow struct {
	WorkerName  string
	Trade       string
	Month       string
	DaysPresent decimal.Decimal
	DailyWage   decimal.Decimal
	WageAmount  decimal.Decimal
	Incentives  decimal.Decimal
	TotalAmount decimal.Decimal
	PaidOn      *time.Time
}

func (s *Store) ListPayrollReport(ctx context.Context, month string) ([]PayrollReportRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT w.name, w.trade, p.month, p.days_present, w.daily_wage,
		       p.wage_amount, p.incentives, p.total_amount, p.paid_on
		FROM payroll_records p
		JOIN workers w ON w.id = p.worker_id
		WHERE p.month = $1
		ORDER BY w.name
	`, month)
	if err != nil {
		return nil, fmt.Errorf("list payroll report: %w", err)
	}
	defer rows.Close()

	var out []PayrollReportRow
	for rows.Next() {
		var r PayrollReportRow
		if err := rows.Scan(&r.WorkerName, &r.Trade, &r.Month, &r.DaysPresent, &r.DailyWage, &r.WageAmount, &r.Incentives, &r.TotalAmount, &r.PaidOn); err != nil {
			return nil, fmt.Errorf("scan payroll report row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
