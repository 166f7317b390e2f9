package allocation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"contracting_system/internal/store"
)

// fakeStorage is an in-memory Storage. It tracks stock and ledger state so
// the tests can assert conservation without a database.
type fakeStorage struct {
	request     store.AllocationRequest
	items       []store.AllocationRequestItem
	batches     []store.StockBatch
	godownStock map[[2]int32]decimal.Decimal // (godown, material) -> qty

	ledger       []store.MaterialLedgerEntry
	itemResults  map[int32]itemResult
	finalStatus  string
	finalNotes   string
	deductOrder  []int32 // batch ids, in deduction order
	failOnDeduct int32   // batch id that triggers a simulated failure, 0 = never
}

type itemResult struct {
	allocated    decimal.Decimal
	shortageNote *string
}

func newFakeStorage(req store.AllocationRequest) *fakeStorage {
	return &fakeStorage{
		request:     req,
		godownStock: map[[2]int32]decimal.Decimal{},
		itemResults: map[int32]itemResult{},
	}
}

func (f *fakeStorage) addBatch(b store.StockBatch) {
	f.batches = append(f.batches, b)
	key := [2]int32{b.GodownID, b.MaterialID}
	f.godownStock[key] = f.godownStock[key].Add(b.RemainingQty)
}

func (f *fakeStorage) addItem(id, materialID int32, qty string) {
	f.items = append(f.items, store.AllocationRequestItem{
		ID:           id,
		RequestID:    f.request.ID,
		MaterialID:   materialID,
		RequestedQty: dec(qty),
	})
}

func (f *fakeStorage) GetAllocationRequestForUpdate(_ context.Context, id int32) (store.AllocationRequest, error) {
	if id != f.request.ID {
		return store.AllocationRequest{}, store.ErrNotFound
	}
	return f.request, nil
}

func (f *fakeStorage) ListAllocationRequestItems(_ context.Context, requestID int32) ([]store.AllocationRequestItem, error) {
	var out []store.AllocationRequestItem
	for _, it := range f.items {
		if it.RequestID == requestID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStorage) ListOpenBatchesForUpdate(_ context.Context, materialID int32) ([]store.StockBatch, error) {
	var out []store.StockBatch
	for _, b := range f.batches {
		if b.MaterialID == materialID && b.RemainingQty.IsPositive() {
			out = append(out, b)
		}
	}
	// FIFO: purchase date then id, same ordering the SQL applies.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if b.PurchaseDate.Before(a.PurchaseDate) || (b.PurchaseDate.Equal(a.PurchaseDate) && b.ID < a.ID) {
				out[j-1], out[j] = b, a
			}
		}
	}
	return out, nil
}

func (f *fakeStorage) DeductBatchQuantity(_ context.Context, batchID int32, qty decimal.Decimal) error {
	if batchID == f.failOnDeduct {
		return errors.New("simulated deduction failure")
	}
	for i := range f.batches {
		if f.batches[i].ID != batchID {
			continue
		}
		if f.batches[i].RemainingQty.LessThan(qty) {
			return fmt.Errorf("batch %d: insufficient remaining quantity", batchID)
		}
		f.batches[i].RemainingQty = f.batches[i].RemainingQty.Sub(qty)
		f.deductOrder = append(f.deductOrder, batchID)
		return nil
	}
	return store.ErrNotFound
}

func (f *fakeStorage) DeductGodownStock(_ context.Context, godownID, materialID int32, qty decimal.Decimal) error {
	key := [2]int32{godownID, materialID}
	cur := f.godownStock[key]
	if cur.LessThan(qty) {
		return fmt.Errorf("godown %d material %d: aggregate stock below deduction", godownID, materialID)
	}
	f.godownStock[key] = cur.Sub(qty)
	return nil
}

func (f *fakeStorage) InsertMaterialLedgerEntry(_ context.Context, e store.MaterialLedgerEntry) (store.MaterialLedgerEntry, error) {
	e.ID = int32(len(f.ledger) + 1)
	f.ledger = append(f.ledger, e)
	return e, nil
}

func (f *fakeStorage) SetAllocationItemResult(_ context.Context, itemID int32, allocated decimal.Decimal, shortageNote *string) error {
	f.itemResults[itemID] = itemResult{allocated: allocated, shortageNote: shortageNote}
	return nil
}

func (f *fakeStorage) SetAllocationRequestStatus(_ context.Context, id int32, status, notes string) error {
	if id != f.request.ID {
		return store.ErrNotFound
	}
	f.finalStatus = status
	f.finalNotes = notes
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) time.Time {
	return time.Date(2026, 3, n, 0, 0, 0, 0, time.UTC)
}

func pendingRequest(id, projectID int32) store.AllocationRequest {
	return store.AllocationRequest{ID: id, ProjectID: projectID, Status: store.RequestStatusPending}
}

func TestApproveConsumesOldestBatchFirst(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addBatch(store.StockBatch{ID: 2, MaterialID: 5, GodownID: 1, PurchaseDate: day(20), UnitPrice: dec("120"), RemainingQty: dec("50")})
	f.addBatch(store.StockBatch{ID: 1, MaterialID: 5, GodownID: 1, PurchaseDate: day(1), UnitPrice: dec("100"), RemainingQty: dec("30")})
	f.addItem(100, 5, "40")

	res, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Status != store.RequestStatusApproved {
		t.Fatalf("status = %s, want Approved", res.Status)
	}
	if got := res.Items[0].AllocatedQty; !got.Equal(dec("40")) {
		t.Fatalf("allocated = %s, want 40", got)
	}
	// Oldest batch (id 1, purchased day 1) drains fully before batch 2 is touched.
	if len(f.deductOrder) != 2 || f.deductOrder[0] != 1 || f.deductOrder[1] != 2 {
		t.Fatalf("deduct order = %v, want [1 2]", f.deductOrder)
	}
	if len(f.ledger) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(f.ledger))
	}
	if !f.ledger[0].Quantity.Equal(dec("30")) || !f.ledger[0].UnitPrice.Equal(dec("100")) {
		t.Fatalf("first draw = %s @ %s, want 30 @ 100", f.ledger[0].Quantity, f.ledger[0].UnitPrice)
	}
	if !f.ledger[1].Quantity.Equal(dec("10")) || !f.ledger[1].UnitPrice.Equal(dec("120")) {
		t.Fatalf("second draw = %s @ %s, want 10 @ 120", f.ledger[1].Quantity, f.ledger[1].UnitPrice)
	}
	if !f.ledger[1].LineTotal.Equal(dec("1200")) {
		t.Fatalf("second line total = %s, want 1200", f.ledger[1].LineTotal)
	}
}

func TestApproveSamePurchaseDateBreaksTieByBatchID(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addBatch(store.StockBatch{ID: 7, MaterialID: 5, GodownID: 1, PurchaseDate: day(3), UnitPrice: dec("10"), RemainingQty: dec("20")})
	f.addBatch(store.StockBatch{ID: 3, MaterialID: 5, GodownID: 1, PurchaseDate: day(3), UnitPrice: dec("10"), RemainingQty: dec("20")})
	f.addItem(100, 5, "25")

	if _, err := Decide(context.Background(), f, 1, ActionApprove, "manager"); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(f.deductOrder) != 2 || f.deductOrder[0] != 3 || f.deductOrder[1] != 7 {
		t.Fatalf("deduct order = %v, want [3 7]", f.deductOrder)
	}
}

func TestApproveConservesStock(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addBatch(store.StockBatch{ID: 1, MaterialID: 5, GodownID: 1, PurchaseDate: day(1), UnitPrice: dec("100"), RemainingQty: dec("30")})
	f.addBatch(store.StockBatch{ID: 2, MaterialID: 5, GodownID: 2, PurchaseDate: day(2), UnitPrice: dec("110"), RemainingQty: dec("15")})
	f.addItem(100, 5, "33")

	before := decimal.Zero
	for _, b := range f.batches {
		before = before.Add(b.RemainingQty)
	}

	res, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	after := decimal.Zero
	for _, b := range f.batches {
		after = after.Add(b.RemainingQty)
	}
	drawn := decimal.Zero
	for _, e := range f.ledger {
		drawn = drawn.Add(e.Quantity)
	}
	if !before.Sub(after).Equal(drawn) {
		t.Fatalf("batch delta %s != ledger total %s", before.Sub(after), drawn)
	}
	if !drawn.Equal(res.Items[0].AllocatedQty) {
		t.Fatalf("ledger total %s != allocated %s", drawn, res.Items[0].AllocatedQty)
	}
	// Aggregates track batch remainders per (godown, material).
	for _, b := range f.batches {
		key := [2]int32{b.GodownID, b.MaterialID}
		sum := decimal.Zero
		for _, ob := range f.batches {
			if ob.GodownID == b.GodownID && ob.MaterialID == b.MaterialID {
				sum = sum.Add(ob.RemainingQty)
			}
		}
		if !f.godownStock[key].Equal(sum) {
			t.Fatalf("godown %d material %d aggregate %s != batch sum %s", b.GodownID, b.MaterialID, f.godownStock[key], sum)
		}
	}
}

func TestApproveShortageStillApproves(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addBatch(store.StockBatch{ID: 1, MaterialID: 5, GodownID: 1, PurchaseDate: day(1), UnitPrice: dec("10"), RemainingQty: dec("2")})
	f.addItem(100, 5, "3")

	res, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Status != store.RequestStatusApproved {
		t.Fatalf("status = %s, want Approved", res.Status)
	}
	it := res.Items[0]
	if !it.AllocatedQty.Equal(dec("2")) || !it.ShortageQty.Equal(dec("1")) {
		t.Fatalf("allocated %s shortage %s, want 2 and 1", it.AllocatedQty, it.ShortageQty)
	}
	saved := f.itemResults[100]
	if saved.shortageNote == nil || *saved.shortageNote != "Shortage: 1" {
		t.Fatalf("shortage note = %v, want \"Shortage: 1\"", saved.shortageNote)
	}
	// Ledger value follows what was actually drawn, not what was asked.
	if !f.ledger[0].LineTotal.Equal(dec("20")) {
		t.Fatalf("line total = %s, want 20", f.ledger[0].LineTotal)
	}
}

func TestApproveNoStockAtAll(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addItem(100, 5, "12")

	res, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !res.Items[0].AllocatedQty.IsZero() {
		t.Fatalf("allocated = %s, want 0", res.Items[0].AllocatedQty)
	}
	saved := f.itemResults[100]
	if saved.shortageNote == nil || *saved.shortageNote != "Shortage: 12" {
		t.Fatalf("shortage note = %v, want \"Shortage: 12\"", saved.shortageNote)
	}
	if len(f.ledger) != 0 {
		t.Fatalf("ledger entries = %d, want 0", len(f.ledger))
	}
}

func TestApproveEmptyRequest(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))

	res, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Status != store.RequestStatusApproved {
		t.Fatalf("status = %s, want Approved", res.Status)
	}
	if len(res.Items) != 0 || len(f.ledger) != 0 {
		t.Fatalf("empty request produced items or ledger entries")
	}
}

func TestRejectTouchesNoStock(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addBatch(store.StockBatch{ID: 1, MaterialID: 5, GodownID: 1, PurchaseDate: day(1), UnitPrice: dec("10"), RemainingQty: dec("30")})
	f.addItem(100, 5, "5")

	res, err := Decide(context.Background(), f, 1, ActionReject, "site_lead")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res.Status != store.RequestStatusRejected {
		t.Fatalf("status = %s, want Rejected", res.Status)
	}
	if f.finalNotes != "Rejected by site_lead" {
		t.Fatalf("notes = %q, want \"Rejected by site_lead\"", f.finalNotes)
	}
	if !f.batches[0].RemainingQty.Equal(dec("30")) {
		t.Fatalf("batch quantity moved on rejection: %s", f.batches[0].RemainingQty)
	}
	if len(f.ledger) != 0 || len(f.itemResults) != 0 {
		t.Fatalf("rejection wrote ledger or item results")
	}
}

func TestDecideAlreadyDecided(t *testing.T) {
	req := pendingRequest(1, 10)
	req.Status = store.RequestStatusApproved
	f := newFakeStorage(req)

	_, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("err = %v, want ErrAlreadyDecided", err)
	}
}

func TestDecideUnknownAction(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))

	_, err := Decide(context.Background(), f, 1, Action("archive"), "manager")
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
}

func TestDecideNotFound(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))

	_, err := Decide(context.Background(), f, 99, ActionApprove, "manager")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApproveFailureMidwayPropagates(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addBatch(store.StockBatch{ID: 1, MaterialID: 5, GodownID: 1, PurchaseDate: day(1), UnitPrice: dec("10"), RemainingQty: dec("10")})
	f.addBatch(store.StockBatch{ID: 2, MaterialID: 5, GodownID: 1, PurchaseDate: day(2), UnitPrice: dec("10"), RemainingQty: dec("10")})
	f.addItem(100, 5, "15")
	f.failOnDeduct = 2

	_, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if err == nil {
		t.Fatal("expected error from mid-allocation failure")
	}
	// The surrounding transaction rolls the partial draw back; the engine's
	// contract is just to surface the error before marking the request.
	if f.finalStatus == store.RequestStatusApproved {
		t.Fatal("request marked Approved despite failed allocation")
	}
}

func TestApproveNeverOverAllocates(t *testing.T) {
	f := newFakeStorage(pendingRequest(1, 10))
	f.addBatch(store.StockBatch{ID: 1, MaterialID: 5, GodownID: 1, PurchaseDate: day(1), UnitPrice: dec("10"), RemainingQty: dec("100")})
	f.addItem(100, 5, "7.5")

	res, err := Decide(context.Background(), f, 1, ActionApprove, "manager")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	it := res.Items[0]
	if it.AllocatedQty.GreaterThan(it.RequestedQty) {
		t.Fatalf("allocated %s exceeds requested %s", it.AllocatedQty, it.RequestedQty)
	}
	if !f.batches[0].RemainingQty.Equal(dec("92.5")) {
		t.Fatalf("batch remaining = %s, want 92.5", f.batches[0].RemainingQty)
	}
}
