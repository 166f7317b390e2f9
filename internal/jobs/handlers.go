package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"contracting_system/internal/observability"
	"contracting_system/internal/payroll"
	"contracting_system/internal/store"
)

// StockReconcileResult is stored as the job result for inspection.
type StockReconcileResult struct {
	DriftPairs int       `json:"drift_pairs"`
	CheckedAt  time.Time `json:"checked_at"`
}

// NewStockReconcileHandler compares godown stock aggregates against
// batch remainders and reports any pair that has drifted apart.
func NewStockReconcileHandler(st *store.Store, metrics *observability.Metrics, logger *slog.Logger) Handler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		drifts, err := st.FindStockDrift(ctx)
		if err != nil {
			return nil, err
		}

		for _, d := range drifts {
			logger.Warn("stock drift detected",
				"godown_id", d.GodownID,
				"material_id", d.MaterialID,
				"aggregate", d.Aggregate.String(),
				"batch_sum", d.BatchSum.String(),
			)
		}
		if metrics != nil {
			metrics.StockDriftPairs.Set(float64(len(drifts)))
		}

		return StockReconcileResult{DriftPairs: len(drifts), CheckedAt: time.Now()}, nil
	}
}

// PayrollPreparePayload selects the month to prepare. An empty month
// means the previous calendar month.
type PayrollPreparePayload struct {
	Month string `json:"month,omitempty"`
}

// NewPayrollPrepareHandler creates payroll records for every active
// worker missing one for the target month.
func NewPayrollPrepareHandler(st *store.Store, logger *slog.Logger) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p PayrollPreparePayload
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
		}
		month := p.Month
		if month == "" {
			month = time.Now().AddDate(0, -1, 0).Format("2006-01")
		}

		result, err := payroll.RunMonth(ctx, st, month)
		if err != nil {
			return nil, err
		}

		logger.Info("payroll prepared",
			"month", month,
			"created", len(result.Created),
			"skipped", result.Skipped,
			"total", result.Total.String(),
		)
		return result, nil
	}
}
