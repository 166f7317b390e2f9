package store

import (
	"context"
	"fmt"
)

// CreatePurchase records a received purchase line. Batch creation and the
// godown aggregate upsert are done by the handler in the same transaction.
func (s *Store) CreatePurchase(ctx context.Context, p Purchase) (Purchase, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO purchases
			(material_id, godown_id, supplier_id, quantity, unit_price, invoice_no, received_on, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, p.MaterialID, p.GodownID, p.SupplierID, p.Quantity, p.UnitPrice, p.InvoiceNo, p.ReceivedOn, p.Notes, p.CreatedBy).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Purchase{}, fmt.Errorf("create purchase: %w", err)
	}
	return p, nil
}

func (s *Store) GetPurchase(ctx context.Context, id int32) (Purchase, error) {
	var p Purchase
	err := s.db.QueryRow(ctx, `
		SELECT id, material_id, godown_id, supplier_id, quantity, unit_price, invoice_no, received_on, notes, created_by, created_at
		FROM purchases WHERE id = $1
	`, id).Scan(&p.ID, &p.MaterialID, &p.GodownID, &p.SupplierID, &p.Quantity, &p.UnitPrice, &p.InvoiceNo, &p.ReceivedOn, &p.Notes, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return Purchase{}, notFound(err)
	}
	return p, nil
}

func (s *Store) ListPurchases(ctx context.Context, godownID, supplierID int32, limit, offset int) ([]Purchase, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, material_id, godown_id, supplier_id, quantity, unit_price, invoice_no, received_on, notes, created_by, created_at
		FROM purchases
		WHERE ($1 = 0 OR godown_id = $1)
		  AND ($2 = 0 OR supplier_id = $2)
		ORDER BY received_on DESC, id DESC
		LIMIT $3 OFFSET $4
	`, godownID, supplierID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.MaterialID, &p.GodownID, &p.SupplierID, &p.Quantity, &p.UnitPrice, &p.InvoiceNo, &p.ReceivedOn, &p.Notes, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
