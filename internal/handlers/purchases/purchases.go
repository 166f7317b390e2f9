package purchases

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type PurchaseHandler struct {
	h *handlers.Handler
}

func NewPurchaseHandler(h *handlers.Handler) *PurchaseHandler {
	return &PurchaseHandler{h: h}
}

type CreatePurchaseRequest struct {
	MaterialID int32           `json:"material_id"`
	GodownID   int32           `json:"godown_id"`
	SupplierID *int32          `json:"supplier_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	InvoiceNo  *string         `json:"invoice_no,omitempty"`
	ReceivedOn *time.Time      `json:"received_on,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
}

// CreatePurchase records a material purchase. The purchase row, its
// stock batch and the godown aggregate are written in one transaction
// so stock never reflects a half-recorded receipt.
func (ph *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.MaterialID == 0 || req.GodownID == 0 {
		config.RespondBadRequest(w, "Missing required fields", "Material and godown are required")
		return
	}
	if !req.Quantity.IsPositive() {
		config.RespondBadRequest(w, "Invalid quantity", "Quantity must be positive")
		return
	}
	if req.UnitPrice.IsNegative() {
		config.RespondBadRequest(w, "Invalid unit price", "Unit price cannot be negative")
		return
	}

	if _, err := ph.h.Store.GetMaterial(r.Context(), req.MaterialID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Material not found")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}
	if _, err := ph.h.Store.GetGodown(r.Context(), req.GodownID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Godown not found")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	receivedOn := time.Now()
	if req.ReceivedOn != nil {
		receivedOn = *req.ReceivedOn
	}

	tx, err := ph.h.DB.Begin(r.Context())
	if err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}
	defer tx.Rollback(r.Context())

	st := ph.h.Store.WithTx(tx)

	purchase, err := st.CreatePurchase(r.Context(), store.Purchase{
		MaterialID: req.MaterialID,
		GodownID:   req.GodownID,
		SupplierID: req.SupplierID,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		InvoiceNo:  req.InvoiceNo,
		ReceivedOn: receivedOn,
		Notes:      req.Notes,
		CreatedBy:  handlers.ActorID(r),
	})
	if err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	purchaseID := purchase.ID
	batch, err := st.CreateStockBatch(r.Context(), store.StockBatch{
		MaterialID:   req.MaterialID,
		GodownID:     req.GodownID,
		SupplierID:   req.SupplierID,
		PurchaseID:   &purchaseID,
		UnitPrice:    req.UnitPrice,
		PurchaseDate: receivedOn,
		StartQty:     req.Quantity,
		RemainingQty: req.Quantity,
	})
	if err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	if err := st.UpsertGodownStock(r.Context(), req.GodownID, req.MaterialID, req.Quantity); err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	ph.h.Logger.Info("purchase recorded",
		"purchase_id", purchase.ID,
		"batch_id", batch.ID,
		"material_id", req.MaterialID,
		"godown_id", req.GodownID,
		"quantity", req.Quantity.String(),
	)

	config.RespondJSON(w, http.StatusCreated, map[string]any{
		"purchase": purchase,
		"batch":    batch,
	})
}

// GetPurchase retrieves a purchase by ID.
func (ph *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid purchase ID", err.Error())
		return
	}

	purchase, err := ph.h.Store.GetPurchase(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Purchase not found")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, purchase)
}

// ListPurchases lists purchases, filterable by godown and supplier.
func (ph *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	godownID, err := handlers.QueryID(r, "godown_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid godown filter", err.Error())
		return
	}
	supplierID, err := handlers.QueryID(r, "supplier_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid supplier filter", err.Error())
		return
	}

	page := middlewares.GetPagination(r.Context())
	purchases, err := ph.h.Store.ListPurchases(r.Context(), godownID, supplierID, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"purchases": purchases,
		"page":      page.Page,
		"limit":     page.Limit,
	})
}
