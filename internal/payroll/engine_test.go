package payroll

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"contracting_system/internal/store"
)

// fakeStorage is an in-memory Storage keyed by worker id.
type fakeStorage struct {
	workers    []store.Worker
	days       map[int32]decimal.Decimal
	incentives map[int32]decimal.Decimal
	records    map[int32]store.PayrollRecord // worker id -> record for the month under test

	created    []store.PayrollRecord
	listCalls  int
	failCreate bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		days:       map[int32]decimal.Decimal{},
		incentives: map[int32]decimal.Decimal{},
		records:    map[int32]store.PayrollRecord{},
	}
}

func (f *fakeStorage) addWorker(id int32, wage, days, incentives string) {
	f.workers = append(f.workers, store.Worker{ID: id, Name: "w", Trade: "mason", DailyWage: dec(wage), Active: true})
	f.days[id] = dec(days)
	f.incentives[id] = dec(incentives)
}

func (f *fakeStorage) ListWorkers(_ context.Context, _ int32, activeOnly bool, limit, offset int) ([]store.Worker, error) {
	f.listCalls++
	if !activeOnly {
		return nil, errors.New("payroll must only consider active workers")
	}
	if offset >= len(f.workers) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.workers) {
		end = len(f.workers)
	}
	return f.workers[offset:end], nil
}

func (f *fakeStorage) CountAttendanceDays(_ context.Context, workerID int32, _ string) (decimal.Decimal, error) {
	return f.days[workerID], nil
}

func (f *fakeStorage) SumIncentives(_ context.Context, workerID int32, _ string) (decimal.Decimal, error) {
	return f.incentives[workerID], nil
}

func (f *fakeStorage) GetPayrollRecord(_ context.Context, workerID int32, _ string) (store.PayrollRecord, error) {
	if r, ok := f.records[workerID]; ok {
		return r, nil
	}
	return store.PayrollRecord{}, store.ErrNotFound
}

func (f *fakeStorage) CreatePayrollRecord(_ context.Context, p store.PayrollRecord) (store.PayrollRecord, error) {
	if f.failCreate {
		return store.PayrollRecord{}, errors.New("simulated insert failure")
	}
	p.ID = int32(len(f.created) + 1)
	f.created = append(f.created, p)
	f.records[p.WorkerID] = p
	return p, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeForWorker(t *testing.T) {
	f := newFakeStorage()
	f.addWorker(1, "650", "22.5", "1500")

	rec, err := ComputeForWorker(context.Background(), f, f.workers[0], "2026-07")
	if err != nil {
		t.Fatalf("ComputeForWorker: %v", err)
	}
	// 22.5 days (half days count 0.5) at 650/day.
	if !rec.WageAmount.Equal(dec("14625")) {
		t.Fatalf("wage = %s, want 14625", rec.WageAmount)
	}
	if !rec.TotalAmount.Equal(dec("16125")) {
		t.Fatalf("total = %s, want 16125", rec.TotalAmount)
	}
	if rec.PaidOn != nil || rec.PaidBy != nil {
		t.Fatal("computed record must start unpaid")
	}
}

func TestComputeForWorkerNoAttendance(t *testing.T) {
	f := newFakeStorage()
	f.addWorker(1, "650", "0", "0")

	rec, err := ComputeForWorker(context.Background(), f, f.workers[0], "2026-07")
	if err != nil {
		t.Fatalf("ComputeForWorker: %v", err)
	}
	if !rec.TotalAmount.IsZero() {
		t.Fatalf("total = %s, want 0", rec.TotalAmount)
	}
}

func TestComputeForWorkerBadMonth(t *testing.T) {
	f := newFakeStorage()
	f.addWorker(1, "650", "10", "0")

	for _, month := range []string{"2026-13", "2026-7", "July 2026", "", "2026-00"} {
		if _, err := ComputeForWorker(context.Background(), f, f.workers[0], month); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("month %q: err = %v, want ErrInvalidMonth", month, err)
		}
	}
}

func TestRunMonthCreatesRecords(t *testing.T) {
	f := newFakeStorage()
	f.addWorker(1, "650", "20", "0")
	f.addWorker(2, "800", "18", "500")

	res, err := RunMonth(context.Background(), f, "2026-07")
	if err != nil {
		t.Fatalf("RunMonth: %v", err)
	}
	if len(res.Created) != 2 || res.Skipped != 0 {
		t.Fatalf("created %d skipped %d, want 2 and 0", len(res.Created), res.Skipped)
	}
	// 20*650 + 18*800 + 500
	if !res.Total.Equal(dec("27900")) {
		t.Fatalf("total = %s, want 27900", res.Total)
	}
}

func TestRunMonthSkipsExistingRecords(t *testing.T) {
	f := newFakeStorage()
	f.addWorker(1, "650", "20", "0")
	f.addWorker(2, "800", "18", "0")
	f.records[1] = store.PayrollRecord{ID: 99, WorkerID: 1, Month: "2026-07", TotalAmount: dec("13000")}

	res, err := RunMonth(context.Background(), f, "2026-07")
	if err != nil {
		t.Fatalf("RunMonth: %v", err)
	}
	if res.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", res.Skipped)
	}
	if len(res.Created) != 1 || res.Created[0].WorkerID != 2 {
		t.Fatalf("created = %+v, want one record for worker 2", res.Created)
	}
	// Skipped records do not count toward the run total.
	if !res.Total.Equal(dec("14400")) {
		t.Fatalf("total = %s, want 14400", res.Total)
	}
}

func TestRunMonthRerunIsIdempotent(t *testing.T) {
	f := newFakeStorage()
	f.addWorker(1, "650", "20", "0")

	if _, err := RunMonth(context.Background(), f, "2026-07"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := RunMonth(context.Background(), f, "2026-07")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(res.Created) != 0 || res.Skipped != 1 {
		t.Fatalf("second run created %d skipped %d, want 0 and 1", len(res.Created), res.Skipped)
	}
	if len(f.created) != 1 {
		t.Fatalf("records inserted = %d, want 1", len(f.created))
	}
}

func TestRunMonthPagesThroughWorkers(t *testing.T) {
	f := newFakeStorage()
	for i := int32(1); i <= 450; i++ {
		f.addWorker(i, "500", "10", "0")
	}

	res, err := RunMonth(context.Background(), f, "2026-07")
	if err != nil {
		t.Fatalf("RunMonth: %v", err)
	}
	if len(res.Created) != 450 {
		t.Fatalf("created = %d, want 450", len(res.Created))
	}
	if f.listCalls < 3 {
		t.Fatalf("list calls = %d, want at least 3 pages", f.listCalls)
	}
}

func TestRunMonthBadMonth(t *testing.T) {
	f := newFakeStorage()
	if _, err := RunMonth(context.Background(), f, "last month"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("err = %v, want ErrInvalidMonth", err)
	}
}

func TestRunMonthPropagatesInsertFailure(t *testing.T) {
	f := newFakeStorage()
	f.addWorker(1, "650", "20", "0")
	f.failCreate = true

	if _, err := RunMonth(context.Background(), f, "2026-07"); err == nil {
		t.Fatal("expected insert failure to propagate")
	}
}
