// Package payroll computes monthly wage totals from attendance and
// incentive records. The HTTP payroll run and the scheduled monthly
// preparation job both go through RunMonth.
package payroll

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"contracting_system/internal/store"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ErrInvalidMonth is returned when the month is not in YYYY-MM form.
var ErrInvalidMonth = errors.New("month must be in YYYY-MM format")

// Storage is the slice of the store the payroll engine needs.
// *store.Store satisfies it.
type Storage interface {
	ListWorkers(ctx context.Context, projectID int32, activeOnly bool, limit, offset int) ([]store.Worker, error)
	CountAttendanceDays(ctx context.Context, workerID int32, month string) (decimal.Decimal, error)
	SumIncentives(ctx context.Context, workerID int32, month string) (decimal.Decimal, error)
	GetPayrollRecord(ctx context.Context, workerID int32, month string) (store.PayrollRecord, error)
	CreatePayrollRecord(ctx context.Context, p store.PayrollRecord) (store.PayrollRecord, error)
}

// RunResult summarizes a payroll run over a month.
type RunResult struct {
	Month    string                `json:"month"`
	Created  []store.PayrollRecord `json:"created"`
	Skipped  int                   `json:"skipped"`
	Total    decimal.Decimal       `json:"total"`
}

// ComputeForWorker builds an unpaid payroll record for one worker:
// attendance days times daily wage, plus incentives for the month.
func ComputeForWorker(ctx context.Context, st Storage, w store.Worker, month string) (store.PayrollRecord, error) {
	if !monthPattern.MatchString(month) {
		return store.PayrollRecord{}, ErrInvalidMonth
	}

	days, err := st.CountAttendanceDays(ctx, w.ID, month)
	if err != nil {
		return store.PayrollRecord{}, err
	}
	incentives, err := st.SumIncentives(ctx, w.ID, month)
	if err != nil {
		return store.PayrollRecord{}, err
	}

	wage := days.Mul(w.DailyWage)
	return store.PayrollRecord{
		WorkerID:    w.ID,
		Month:       month,
		DaysPresent: days,
		WageAmount:  wage,
		Incentives:  incentives,
		TotalAmount: wage.Add(incentives),
	}, nil
}

// RunMonth creates payroll records for every active worker that does
// not already have one for the month. Existing records are never
// recomputed, so a rerun after partial failure is safe.
func RunMonth(ctx context.Context, st Storage, month string) (RunResult, error) {
	if !monthPattern.MatchString(month) {
		return RunResult{}, ErrInvalidMonth
	}

	result := RunResult{Month: month, Total: decimal.Zero}

	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		workers, err := st.ListWorkers(ctx, 0, true, pageSize, offset)
		if err != nil {
			return RunResult{}, fmt.Errorf("list workers: %w", err)
		}
		if len(workers) == 0 {
			break
		}

		for _, w := range workers {
			if _, err := st.GetPayrollRecord(ctx, w.ID, month); err == nil {
				result.Skipped++
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				return RunResult{}, err
			}

			record, err := ComputeForWorker(ctx, st, w, month)
			if err != nil {
				return RunResult{}, fmt.Errorf("worker %d: %w", w.ID, err)
			}
			created, err := st.CreatePayrollRecord(ctx, record)
			if err != nil {
				return RunResult{}, fmt.Errorf("worker %d: %w", w.ID, err)
			}
			result.Created = append(result.Created, created)
			result.Total = result.Total.Add(created.TotalAmount)
		}

		if len(workers) < pageSize {
			break
		}
	}

	return result, nil
}
