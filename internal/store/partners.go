package store

import (
	"context"
	"fmt"
)

// Customer and supplier directories. Plain parameterized CRUD.

func (s *Store) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO customers (name, phone, email, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.Name, c.Phone, c.Email, c.Address).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int32) (Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx, `
		SELECT id, name, phone, email, address, created_at
		FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt)
	if err != nil {
		return Customer{}, notFound(err)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, search string, limit, offset int) ([]Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone, email, address, created_at
		FROM customers
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) UpdateCustomer(ctx context.Context, c Customer) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE customers SET name = $2, phone = $3, email = $4, address = $5
		WHERE id = $1
	`, c.ID, c.Name, c.Phone, c.Email, c.Address)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateSupplier(ctx context.Context, sp Supplier) (Supplier, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO suppliers (name, phone, email, address, tax_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, sp.Name, sp.Phone, sp.Email, sp.Address, sp.TaxID).Scan(&sp.ID, &sp.CreatedAt)
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	return sp, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int32) (Supplier, error) {
	var sp Supplier
	err := s.db.QueryRow(ctx, `
		SELECT id, name, phone, email, address, tax_id, created_at
		FROM suppliers WHERE id = $1
	`, id).Scan(&sp.ID, &sp.Name, &sp.Phone, &sp.Email, &sp.Address, &sp.TaxID, &sp.CreatedAt)
	if err != nil {
		return Supplier{}, notFound(err)
	}
	return sp, nil
}

func (s *Store) ListSuppliers(ctx context.Context, search string, limit, offset int) ([]Supplier, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, phone, email, address, tax_id, created_at
		FROM suppliers
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var sp Supplier
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Phone, &sp.Email, &sp.Address, &sp.TaxID, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}

func (s *Store) UpdateSupplier(ctx context.Context, sp Supplier) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE suppliers SET name = $2, phone = $3, email = $4, address = $5, tax_id = $6
		WHERE id = $1
	`, sp.ID, sp.Name, sp.Phone, sp.Email, sp.Address, sp.TaxID)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
