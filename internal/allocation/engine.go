// Package allocation implements the stock allocation decision: approving a
// material request consumes godown stock batch-by-batch in FIFO order and
// writes the resulting consumption into the project material ledger.
package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"contracting_system/internal/store"
)

// Action is what the approver chose to do with a pending request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var (
	// ErrAlreadyDecided is returned when the request is no longer Pending.
	ErrAlreadyDecided = errors.New("allocation request already decided")
	// ErrUnknownAction is returned for an action other than approve/reject.
	ErrUnknownAction = errors.New("unknown allocation action")
)

// Storage is the slice of the data layer the engine needs. *store.Store
// satisfies it; tests substitute an in-memory implementation.
type Storage interface {
	GetAllocationRequestForUpdate(ctx context.Context, id int32) (store.AllocationRequest, error)
	ListAllocationRequestItems(ctx context.Context, requestID int32) ([]store.AllocationRequestItem, error)
	ListOpenBatchesForUpdate(ctx context.Context, materialID int32) ([]store.StockBatch, error)
	DeductBatchQuantity(ctx context.Context, batchID int32, qty decimal.Decimal) error
	DeductGodownStock(ctx context.Context, godownID, materialID int32, qty decimal.Decimal) error
	InsertMaterialLedgerEntry(ctx context.Context, e store.MaterialLedgerEntry) (store.MaterialLedgerEntry, error)
	SetAllocationItemResult(ctx context.Context, itemID int32, allocated decimal.Decimal, shortageNote *string) error
	SetAllocationRequestStatus(ctx context.Context, id int32, status string, notes string) error
}

// ItemResult reports the outcome for one request line.
type ItemResult struct {
	ItemID       int32           `json:"item_id"`
	MaterialID   int32           `json:"material_id"`
	RequestedQty decimal.Decimal `json:"requested_qty"`
	AllocatedQty decimal.Decimal `json:"allocated_qty"`
	ShortageQty  decimal.Decimal `json:"shortage_qty"`
}

// Result is the outcome of a decision.
type Result struct {
	RequestID int32        `json:"request_id"`
	Status    string       `json:"status"`
	Items     []ItemResult `json:"items"`
}

// Decide resolves a pending request. The caller is expected to hand in a
// Storage bound to an open transaction; any error here must make the caller
// roll back, so a mid-decision failure leaves no partial stock movement.
//
// Rejection touches no stock. Approval walks each item's open batches oldest
// purchase first and takes min(batch remaining, still needed) from each. An
// item that cannot be fully covered is allocated whatever stock exists and
// annotated with the shortfall; the request still ends up Approved.
func Decide(ctx context.Context, st Storage, requestID int32, action Action, actor string) (Result, error) {
	req, err := st.GetAllocationRequestForUpdate(ctx, requestID)
	if err != nil {
		return Result{}, err
	}
	if req.Status != store.RequestStatusPending {
		return Result{}, fmt.Errorf("request %d is %s: %w", requestID, req.Status, ErrAlreadyDecided)
	}

	switch action {
	case ActionReject:
		note := fmt.Sprintf("Rejected by %s", actor)
		if err := st.SetAllocationRequestStatus(ctx, requestID, store.RequestStatusRejected, note); err != nil {
			return Result{}, err
		}
		return Result{RequestID: requestID, Status: store.RequestStatusRejected}, nil
	case ActionApprove:
		return approve(ctx, st, req)
	default:
		return Result{}, fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}
}

func approve(ctx context.Context, st Storage, req store.AllocationRequest) (Result, error) {
	items, err := st.ListAllocationRequestItems(ctx, req.ID)
	if err != nil {
		return Result{}, err
	}

	res := Result{RequestID: req.ID, Status: store.RequestStatusApproved}
	for _, item := range items {
		ir, err := allocateItem(ctx, st, req, item)
		if err != nil {
			return Result{}, err
		}
		res.Items = append(res.Items, ir)
	}

	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}
	if err := st.SetAllocationRequestStatus(ctx, req.ID, store.RequestStatusApproved, notes); err != nil {
		return Result{}, err
	}
	return res, nil
}

// allocateItem consumes batches for one line. Batches arrive already in FIFO
// order from the store.
func allocateItem(ctx context.Context, st Storage, req store.AllocationRequest, item store.AllocationRequestItem) (ItemResult, error) {
	batches, err := st.ListOpenBatchesForUpdate(ctx, item.MaterialID)
	if err != nil {
		return ItemResult{}, err
	}

	reqID := req.ID
	remaining := item.RequestedQty
	allocated := decimal.Zero
	for _, b := range batches {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(b.RemainingQty, remaining)
		if !take.IsPositive() {
			continue
		}
		if err := st.DeductBatchQuantity(ctx, b.ID, take); err != nil {
			return ItemResult{}, err
		}
		if err := st.DeductGodownStock(ctx, b.GodownID, item.MaterialID, take); err != nil {
			return ItemResult{}, err
		}
		if _, err := st.InsertMaterialLedgerEntry(ctx, store.MaterialLedgerEntry{
			ProjectID:  req.ProjectID,
			MaterialID: item.MaterialID,
			BatchID:    b.ID,
			RequestID:  &reqID,
			Quantity:   take,
			UnitPrice:  b.UnitPrice,
			LineTotal:  take.Mul(b.UnitPrice),
		}); err != nil {
			return ItemResult{}, err
		}
		allocated = allocated.Add(take)
		remaining = remaining.Sub(take)
	}

	var shortageNote *string
	if remaining.IsPositive() {
		n := fmt.Sprintf("Shortage: %s", remaining.String())
		shortageNote = &n
	}
	if err := st.SetAllocationItemResult(ctx, item.ID, allocated, shortageNote); err != nil {
		return ItemResult{}, err
	}

	return ItemResult{
		ItemID:       item.ID,
		MaterialID:   item.MaterialID,
		RequestedQty: item.RequestedQty,
		AllocatedQty: allocated,
		ShortageQty:  remaining,
	}, nil
}
