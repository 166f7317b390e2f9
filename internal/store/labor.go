package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Labor registry, attendance, incentives and payroll.

func (s *Store) CreateWorker(ctx context.Context, w Worker) (Worker, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO workers (name, phone, trade, daily_wage, project_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, w.Name, w.Phone, w.Trade, w.DailyWage, w.ProjectID, w.Active).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return Worker{}, fmt.Errorf("create worker: %w", err)
	}
	return w, nil
}

func (s *Store) GetWorker(ctx context.Context, id int32) (Worker, error) {
	var w Worker
	err := s.db.QueryRow(ctx, `
		SELECT id, name, phone, trade, daily_wage, project_id, active, created_at
		FROM workers WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Phone, &w.Trade, &w.DailyWage, &w.ProjectID, &w.Active, &w.CreatedAt)
	if err != nil {
		return Worker{}, notFound(err)
	}
	return w, nil
}

func (s *Store) ListWorkers(ctx context.Context, projectID int32, activeOnly bool, limit, offset int) ([]Worker, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone, trade, daily_wage, project_id, active, created_at
		FROM workers
		WHERE ($1 = 0 OR project_id = $1)
		  AND (NOT $2 OR active)
		ORDER BY name
		LIMIT $3 OFFSET $4
	`, projectID, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var w Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Phone, &w.Trade, &w.DailyWage, &w.ProjectID, &w.Active, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

func (s *Store) UpdateWorker(ctx context.Context, w Worker) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE workers
		SET name = $2, phone = $3, trade = $4, daily_wage = $5, project_id = $6, active = $7
		WHERE id = $1
	`, w.ID, w.Name, w.Phone, w.Trade, w.DailyWage, w.ProjectID, w.Active)
	if err != nil {
		return fmt.Errorf("update worker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertAttendance marks one worker for one date. Re-marking the same
// (worker, date) overwrites the previous entry instead of duplicating it.
func (s *Store) UpsertAttendance(ctx context.Context, a AttendanceEntry) (AttendanceEntry, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO attendance_entries (worker_id, project_id, work_date, status, overtime_hours, marked_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (worker_id, work_date)
		DO UPDATE SET project_id = EXCLUDED.project_id, status = EXCLUDED.status,
		              overtime_hours = EXCLUDED.overtime_hours, marked_by = EXCLUDED.marked_by
		RETURNING id, created_at
	`, a.WorkerID, a.ProjectID, a.WorkDate, a.Status, a.OvertimeHours, a.MarkedBy).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return AttendanceEntry{}, fmt.Errorf("upsert attendance: %w", err)
	}
	return a, nil
}

func (s *Store) ListAttendance(ctx context.Context, workerID, projectID int32, from, to time.Time) ([]AttendanceEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, worker_id, project_id, work_date, status, overtime_hours, marked_by, created_at
		FROM attendance_entries
		WHERE ($1 = 0 OR worker_id = $1)
		  AND ($2 = 0 OR project_id = $2)
		  AND ($3::date IS NULL OR work_date >= $3)
		  AND ($4::date IS NULL OR work_date <= $4)
		ORDER BY work_date DESC, worker_id
	`, workerID, projectID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var entries []AttendanceEntry
	for rows.Next() {
		var a AttendanceEntry
		if err := rows.Scan(&a.ID, &a.WorkerID, &a.ProjectID, &a.WorkDate, &a.Status, &a.OvertimeHours, &a.MarkedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance entry: %w", err)
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// CountAttendanceDays sums a worker's presence for a month: Present counts
// 1 day, HalfDay counts 0.5, Absent counts 0.
func (s *Store) CountAttendanceDays(ctx context.Context, workerID int32, month string) (decimal.Decimal, error) {
	var days decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE status
			WHEN 'Present' THEN 1
			WHEN 'HalfDay' THEN 0.5
			ELSE 0 END), 0)
		FROM attendance_entries
		WHERE worker_id = $1 AND to_char(work_date, 'YYYY-MM') = $2
	`, workerID, month).Scan(&days)
	if err != nil {
		return decimal.Zero, fmt.Errorf("count attendance days: %w", err)
	}
	return days, nil
}

func (s *Store) CreateIncentive(ctx context.Context, e IncentiveEntry) (IncentiveEntry, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO incentive_entries (worker_id, month, amount, reason, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.WorkerID, e.Month, e.Amount, e.Reason, e.CreatedBy).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return IncentiveEntry{}, fmt.Errorf("create incentive: %w", err)
	}
	return e, nil
}

func (s *Store) ListIncentives(ctx context.Context, workerID int32, month string) ([]IncentiveEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, worker_id, month, amount, reason, created_by, created_at
		FROM incentive_entries
		WHERE ($1 = 0 OR worker_id = $1)
		  AND ($2 = '' OR month = $2)
		ORDER BY created_at DESC, id DESC
	`, workerID, month)
	if err != nil {
		return nil, fmt.Errorf("list incentives: %w", err)
	}
	defer rows.Close()

	var entries []IncentiveEntry
	for rows.Next() {
		var e IncentiveEntry
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.Month, &e.Amount, &e.Reason, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incentive entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumIncentives totals a worker's incentive adjustments for a month.
func (s *Store) SumIncentives(ctx context.Context, workerID int32, month string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM incentive_entries
		WHERE worker_id = $1 AND month = $2
	`, workerID, month).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum incentives: %w", err)
	}
	return total, nil
}

func (s *Store) CreatePayrollRecord(ctx context.Context, p PayrollRecord) (PayrollRecord, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO payroll_records
			(worker_id, month, days_present, wage_amount, incentives, total_amount, paid_on, paid_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, p.WorkerID, p.Month, p.DaysPresent, p.WageAmount, p.Incentives, p.TotalAmount, p.PaidOn, p.PaidBy).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return PayrollRecord{}, fmt.Errorf("create payroll record: %w", err)
	}
	return p, nil
}

func (s *Store) GetPayrollRecord(ctx context.Context, workerID int32, month string) (PayrollRecord, error) {
	var p PayrollRecord
	err := s.db.QueryRow(ctx, `
		SELECT id, worker_id, month, days_present, wage_amount, incentives, total_amount, paid_on, paid_by, created_at
		FROM payroll_records WHERE worker_id = $1 AND month = $2
	`, workerID, month).Scan(&p.ID, &p.WorkerID, &p.Month, &p.DaysPresent, &p.WageAmount, &p.Incentives, &p.TotalAmount, &p.PaidOn, &p.PaidBy, &p.CreatedAt)
	if err != nil {
		return PayrollRecord{}, notFound(err)
	}
	return p, nil
}

func (s *Store) ListPayrollRecords(ctx context.Context, month string, limit, offset int) ([]PayrollRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, worker_id, month, days_present, wage_amount, incentives, total_amount, paid_on, paid_by, created_at
		FROM payroll_records
		WHERE ($1 = '' OR month = $1)
		ORDER BY month DESC, worker_id
		LIMIT $2 OFFSET $3
	`, month, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payroll records: %w", err)
	}
	defer rows.Close()

	var records []PayrollRecord
	for rows.Next() {
		var p PayrollRecord
		if err := rows.Scan(&p.ID, &p.WorkerID, &p.Month, &p.DaysPresent, &p.WageAmount, &p.Incentives, &p.TotalAmount, &p.PaidOn, &p.PaidBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payroll record: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// MarkPayrollPaid stamps a payroll record as paid.
func (s *Store) MarkPayrollPaid(ctx context.Context, id int32, paidBy int32, paidOn time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE payroll_records SET paid_on = $2, paid_by = $3
		WHERE id = $1 AND paid_on IS NULL
	`, id, paidOn, paidBy)
	if err != nil {
		return fmt.Errorf("mark payroll paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
