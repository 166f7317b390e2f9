package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// CreateAllocationRequest inserts a Pending request header.
func (s *Store) CreateAllocationRequest(ctx context.Context, projectID int32, requestedBy *int32, notes *string) (AllocationRequest, error) {
	var req AllocationRequest
	err := s.db.QueryRow(ctx, `
		INSERT INTO allocation_requests (project_id, status, notes, requested_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, status, notes, requested_by, created_at, decided_at
	`, projectID, RequestStatusPending, notes, requestedBy).Scan(
		&req.ID, &req.ProjectID, &req.Status, &req.Notes, &req.RequestedBy, &req.CreatedAt, &req.DecidedAt,
	)
	if err != nil {
		return AllocationRequest{}, fmt.Errorf("create allocation request: %w", err)
	}
	return req, nil
}

// AddAllocationRequestItem appends an item line to a Pending request.
func (s *Store) AddAllocationRequestItem(ctx context.Context, requestID, materialID int32, requestedQty decimal.Decimal) (AllocationRequestItem, error) {
	var item AllocationRequestItem
	err := s.db.QueryRow(ctx, `
		INSERT INTO allocation_request_items (request_id, material_id, requested_qty)
		VALUES ($1, $2, $3)
		RETURNING id, request_id, material_id, requested_qty, allocated_qty, shortage_note
	`, requestID, materialID, requestedQty).Scan(
		&item.ID, &item.RequestID, &item.MaterialID, &item.RequestedQty, &item.AllocatedQty, &item.ShortageNote,
	)
	if err != nil {
		return AllocationRequestItem{}, fmt.Errorf("add allocation request item: %w", err)
	}
	return item, nil
}

// GetAllocationRequest loads a request header by id.
func (s *Store) GetAllocationRequest(ctx context.Context, id int32) (AllocationRequest, error) {
	var req AllocationRequest
	err := s.db.QueryRow(ctx, `
		SELECT id, project_id, status, notes, requested_by, created_at, decided_at
		FROM allocation_requests WHERE id = $1
	`, id).Scan(&req.ID, &req.ProjectID, &req.Status, &req.Notes, &req.RequestedBy, &req.CreatedAt, &req.DecidedAt)
	if err != nil {
		return AllocationRequest{}, notFound(err)
	}
	return req, nil
}

// GetAllocationRequestForUpdate loads a request header and row-locks it so
// two concurrent decisions on the same request serialize at the database.
func (s *Store) GetAllocationRequestForUpdate(ctx context.Context, id int32) (AllocationRequest, error) {
	var req AllocationRequest
	err := s.db.QueryRow(ctx, `
		SELECT id, project_id, status, notes, requested_by, created_at, decided_at
		FROM allocation_requests WHERE id = $1
		FOR UPDATE
	`, id).Scan(&req.ID, &req.ProjectID, &req.Status, &req.Notes, &req.RequestedBy, &req.CreatedAt, &req.DecidedAt)
	if err != nil {
		return AllocationRequest{}, notFound(err)
	}
	return req, nil
}

// ListAllocationRequestItems returns the item lines of a request, in
// insertion order.
func (s *Store) ListAllocationRequestItems(ctx context.Context, requestID int32) ([]AllocationRequestItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, material_id, requested_qty, allocated_qty, shortage_note
		FROM allocation_request_items WHERE request_id = $1
		ORDER BY id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list allocation request items: %w", err)
	}
	defer rows.Close()

	var items []AllocationRequestItem
	for rows.Next() {
		var item AllocationRequestItem
		if err := rows.Scan(&item.ID, &item.RequestID, &item.MaterialID, &item.RequestedQty, &item.AllocatedQty, &item.ShortageNote); err != nil {
			return nil, fmt.Errorf("scan allocation request item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetAllocationItemResult persists what was actually allocated for an item,
// plus the shortage note when the item could not be fully satisfied.
func (s *Store) SetAllocationItemResult(ctx context.Context, itemID int32, allocated decimal.Decimal, shortageNote *string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE allocation_request_items
		SET allocated_qty = $2, shortage_note = $3
		WHERE id = $1
	`, itemID, allocated, shortageNote)
	if err != nil {
		return fmt.Errorf("set allocation item result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAllocationRequestStatus moves a request to a terminal state and stamps
// the decision time.
func (s *Store) SetAllocationRequestStatus(ctx context.Context, id int32, status string, notes string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE allocation_requests
		SET status = $2, notes = $3, decided_at = now()
		WHERE id = $1
	`, id, status, notes)
	if err != nil {
		return fmt.Errorf("set allocation request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAllocationRequests returns request headers, newest first, optionally
// filtered by status and project.
func (s *Store) ListAllocationRequests(ctx context.Context, status string, projectID int32, limit, offset int) ([]AllocationRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, project_id, status, notes, requested_by, created_at, decided_at
		FROM allocation_requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = 0 OR project_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, status, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list allocation requests: %w", err)
	}
	defer rows.Close()

	var reqs []AllocationRequest
	for rows.Next() {
		var req AllocationRequest
		if err := rows.Scan(&req.ID, &req.ProjectID, &req.Status, &req.Notes, &req.RequestedBy, &req.CreatedAt, &req.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan allocation request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
