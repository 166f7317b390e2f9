package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockBatch records a newly received lot. Start and remaining
// quantities begin equal.
func (s *Store) CreateStockBatch(ctx context.Context, b StockBatch) (StockBatch, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO stock_batches
			(material_id, godown_id, supplier_id, purchase_id, unit_price, purchase_date, start_qty, remaining_qty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, created_at
	`, b.MaterialID, b.GodownID, b.SupplierID, b.PurchaseID, b.UnitPrice, b.PurchaseDate, b.StartQty).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return StockBatch{}, fmt.Errorf("create stock batch: %w", err)
	}
	b.RemainingQty = b.StartQty
	return b, nil
}

// ListOpenBatchesForUpdate loads the allocatable batches for a material in
// FIFO order (oldest purchase first, batch id as the deterministic
// tie-break) and row-locks them for the remainder of the transaction.
// Batches with nothing remaining are filtered at query time.
func (s *Store) ListOpenBatchesForUpdate(ctx context.Context, materialID int32) ([]StockBatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, material_id, godown_id, supplier_id, purchase_id, unit_price, purchase_date, start_qty, remaining_qty, created_at
		FROM stock_batches
		WHERE material_id = $1 AND remaining_qty > 0
		ORDER BY purchase_date ASC, id ASC
		FOR UPDATE
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("list open batches: %w", err)
	}
	defer rows.Close()

	var batches []StockBatch
	for rows.Next() {
		var b StockBatch
		if err := rows.Scan(&b.ID, &b.MaterialID, &b.GodownID, &b.SupplierID, &b.PurchaseID, &b.UnitPrice, &b.PurchaseDate, &b.StartQty, &b.RemainingQty, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// ListBatchesByGodown returns all batches held in a godown, newest first.
func (s *Store) ListBatchesByGodown(ctx context.Context, godownID int32, limit, offset int) ([]StockBatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, material_id, godown_id, supplier_id, purchase_id, unit_price, purchase_date, start_qty, remaining_qty, created_at
		FROM stock_batches
		WHERE godown_id = $1
		ORDER BY purchase_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`, godownID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list batches by godown: %w", err)
	}
	defer rows.Close()

	var batches []StockBatch
	for rows.Next() {
		var b StockBatch
		if err := rows.Scan(&b.ID, &b.MaterialID, &b.GodownID, &b.SupplierID, &b.PurchaseID, &b.UnitPrice, &b.PurchaseDate, &b.StartQty, &b.RemainingQty, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// DeductBatchQuantity decrements a batch's remaining quantity. The guard in
// the WHERE clause keeps remaining_qty from going negative even if the
// caller's arithmetic is wrong.
func (s *Store) DeductBatchQuantity(ctx context.Context, batchID int32, qty decimal.Decimal) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE stock_batches
		SET remaining_qty = remaining_qty - $2
		WHERE id = $1 AND remaining_qty >= $2
	`, batchID, qty)
	if err != nil {
		return fmt.Errorf("deduct batch quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch %d: insufficient remaining quantity for deduction of %s", batchID, qty.String())
	}
	return nil
}

// UpsertGodownStock adds qty (positive or negative) to the denormalized
// (godown, material) aggregate.
func (s *Store) UpsertGodownStock(ctx context.Context, godownID, materialID int32, qty decimal.Decimal) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO godown_stocks (godown_id, material_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (godown_id, material_id)
		DO UPDATE SET quantity = godown_stocks.quantity + EXCLUDED.quantity, updated_at = now()
	`, godownID, materialID, qty)
	if err != nil {
		return fmt.Errorf("upsert godown stock: %w", err)
	}
	return nil
}

// DeductGodownStock decrements the aggregate for the godown the consumed
// batch lives in. Guarded the same way as the batch deduction.
func (s *Store) DeductGodownStock(ctx context.Context, godownID, materialID int32, qty decimal.Decimal) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE godown_stocks
		SET quantity = quantity - $3, updated_at = now()
		WHERE godown_id = $1 AND material_id = $2 AND quantity >= $3
	`, godownID, materialID, qty)
	if err != nil {
		return fmt.Errorf("deduct godown stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("godown %d material %d: aggregate stock below deduction of %s", godownID, materialID, qty.String())
	}
	return nil
}

// GetGodownStock returns the aggregate quantity for one (godown, material) pair.
func (s *Store) GetGodownStock(ctx context.Context, godownID, materialID int32) (GodownStock, error) {
	var gs GodownStock
	err := s.db.QueryRow(ctx, `
		SELECT godown_id, material_id, quantity, updated_at
		FROM godown_stocks WHERE godown_id = $1 AND material_id = $2
	`, godownID, materialID).Scan(&gs.GodownID, &gs.MaterialID, &gs.Quantity, &gs.UpdatedAt)
	if err != nil {
		return GodownStock{}, notFound(err)
	}
	return gs, nil
}

// ListGodownStock returns every aggregate row in a godown.
func (s *Store) ListGodownStock(ctx context.Context, godownID int32) ([]GodownStock, error) {
	rows, err := s.db.Query(ctx, `
		SELECT godown_id, material_id, quantity, updated_at
		FROM godown_stocks WHERE godown_id = $1
		ORDER BY material_id
	`, godownID)
	if err != nil {
		return nil, fmt.Errorf("list godown stock: %w", err)
	}
	defer rows.Close()

	var stocks []GodownStock
	for rows.Next() {
		var gs GodownStock
		if err := rows.Scan(&gs.GodownID, &gs.MaterialID, &gs.Quantity, &gs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan godown stock: %w", err)
		}
		stocks = append(stocks, gs)
	}
	return stocks, rows.Err()
}

// StockDrift reports (godown, material) pairs where the denormalized
// aggregate disagrees with the sum of batch remainders. Used by the
// reconciliation job; a healthy system returns no rows.
type StockDrift struct {
	GodownID   int32           `json:"godown_id"`
	MaterialID int32           `json:"material_id"`
	Aggregate  decimal.Decimal `json:"aggregate"`
	BatchSum   decimal.Decimal `json:"batch_sum"`
}

func (s *Store) FindStockDrift(ctx context.Context) ([]StockDrift, error) {
	rows, err := s.db.Query(ctx, `
		SELECT gs.godown_id, gs.material_id, gs.quantity,
		       COALESCE(SUM(sb.remaining_qty), 0) AS batch_sum
		FROM godown_stocks gs
		LEFT JOIN stock_batches sb
		       ON sb.godown_id = gs.godown_id AND sb.material_id = gs.material_id
		GROUP BY gs.godown_id, gs.material_id, gs.quantity
		HAVING gs.quantity <> COALESCE(SUM(sb.remaining_qty), 0)
	`)
	if err != nil {
		return nil, fmt.Errorf("find stock drift: %w", err)
	}
	defer rows.Close()

	var drifts []StockDrift
	for rows.Next() {
		var d StockDrift
		if err := rows.Scan(&d.GodownID, &d.MaterialID, &d.Aggregate, &d.BatchSum); err != nil {
			return nil, fmt.Errorf("scan stock drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

// InsertMaterialLedgerEntry appends one consumption record attributing a
// batch draw to a project.
func (s *Store) InsertMaterialLedgerEntry(ctx context.Context, e MaterialLedgerEntry) (MaterialLedgerEntry, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO material_ledger_entries
			(project_id, material_id, batch_id, request_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.ProjectID, e.MaterialID, e.BatchID, e.RequestID, e.Quantity, e.UnitPrice, e.LineTotal).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return MaterialLedgerEntry{}, fmt.Errorf("insert material ledger entry: %w", err)
	}
	return e, nil
}

// ListProjectLedger returns a project's material consumption, newest first.
func (s *Store) ListProjectLedger(ctx context.Context, projectID int32, from, to time.Time, limit, offset int) ([]MaterialLedgerEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, project_id, material_id, batch_id, request_id, quantity, unit_price, line_total, created_at
		FROM material_ledger_entries
		WHERE project_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`, projectID, nullableTime(from), nullableTime(to), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list project ledger: %w", err)
	}
	defer rows.Close()

	var entries []MaterialLedgerEntry
	for rows.Next() {
		var e MaterialLedgerEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.MaterialID, &e.BatchID, &e.RequestID, &e.Quantity, &e.UnitPrice, &e.LineTotal, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan material ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
