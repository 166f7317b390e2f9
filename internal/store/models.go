package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role names understood by the permission layer.
const (
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleSiteEngr    = "site_engineer"
	RoleStorekeeper = "storekeeper"
	RoleAccountant  = "accountant"
)

// Allocation request lifecycle. A request is created Pending and moved
// exactly once to a terminal state by the decision procedure.
const (
	RequestStatusPending  = "Pending"
	RequestStatusApproved = "Approved"
	RequestStatusRejected = "Rejected"
)

// Task states.
const (
	TaskStatusPending    = "Pending"
	TaskStatusInProgress = "InProgress"
	TaskStatusDone       = "Done"
)

// Attendance states.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
	AttendanceHalfDay = "HalfDay"
)

type User struct {
	ID           int32     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	FullName     *string   `json:"full_name,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Customer struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Supplier struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	TaxID     *string   `json:"tax_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID         int32           `json:"id"`
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	CustomerID *int32          `json:"customer_id,omitempty"`
	Location   *string         `json:"location,omitempty"`
	Status     string          `json:"status"`
	StartDate  *time.Time      `json:"start_date,omitempty"`
	EndDate    *time.Time      `json:"end_date,omitempty"`
	Budget     decimal.Decimal `json:"budget"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Material struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Unit      string    `json:"unit"`
	Category  *string   `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Godown struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Location  *string   `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StockBatch is one received lot of a material in a godown. RemainingQty
// only ever decreases under allocation and never goes below zero.
type StockBatch struct {
	ID           int32           `json:"id"`
	MaterialID   int32           `json:"material_id"`
	GodownID     int32           `json:"godown_id"`
	SupplierID   *int32          `json:"supplier_id,omitempty"`
	PurchaseID   *int32          `json:"purchase_id,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	PurchaseDate time.Time       `json:"purchase_date"`
	StartQty     decimal.Decimal `json:"start_qty"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// GodownStock is the denormalized (godown, material) aggregate kept in
// lockstep with batch remaining quantities.
type GodownStock struct {
	GodownID   int32           `json:"godown_id"`
	MaterialID int32           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Purchase struct {
	ID         int32           `json:"id"`
	MaterialID int32           `json:"material_id"`
	GodownID   int32           `json:"godown_id"`
	SupplierID *int32          `json:"supplier_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	InvoiceNo  *string         `json:"invoice_no,omitempty"`
	ReceivedOn time.Time       `json:"received_on"`
	Notes      *string         `json:"notes,omitempty"`
	CreatedBy  *int32          `json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AllocationRequest struct {
	ID          int32      `json:"id"`
	ProjectID   int32      `json:"project_id"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes,omitempty"`
	RequestedBy *int32     `json:"requested_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

type AllocationRequestItem struct {
	ID           int32            `json:"id"`
	RequestID    int32            `json:"request_id"`
	MaterialID   int32            `json:"material_id"`
	RequestedQty decimal.Decimal  `json:"requested_qty"`
	AllocatedQty *decimal.Decimal `json:"allocated_qty,omitempty"`
	ShortageNote *string          `json:"shortage_note,omitempty"`
}

// MaterialLedgerEntry records one draw against one batch for a project.
// Append-only.
type MaterialLedgerEntry struct {
	ID         int32           `json:"id"`
	ProjectID  int32           `json:"project_id"`
	MaterialID int32           `json:"material_id"`
	BatchID    int32           `json:"batch_id"`
	RequestID  *int32          `json:"request_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Worker struct {
	ID        int32           `json:"id"`
	Name      string          `json:"name"`
	Phone     *string         `json:"phone,omitempty"`
	Trade     string          `json:"trade"`
	DailyWage decimal.Decimal `json:"daily_wage"`
	ProjectID *int32          `json:"project_id,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

type AttendanceEntry struct {
	ID            int32           `json:"id"`
	WorkerID      int32           `json:"worker_id"`
	ProjectID     int32           `json:"project_id"`
	WorkDate      time.Time       `json:"work_date"`
	Status        string          `json:"status"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	MarkedBy      *int32          `json:"marked_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type IncentiveEntry struct {
	ID        int32           `json:"id"`
	WorkerID  int32           `json:"worker_id"`
	Month     string          `json:"month"` // YYYY-MM
	Amount    decimal.Decimal `json:"amount"`
	Reason    *string         `json:"reason,omitempty"`
	CreatedBy *int32          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type PayrollRecord struct {
	ID          int32           `json:"id"`
	WorkerID    int32           `json:"worker_id"`
	Month       string          `json:"month"` // YYYY-MM
	DaysPresent decimal.Decimal `json:"days_present"`
	WageAmount  decimal.Decimal `json:"wage_amount"`
	Incentives  decimal.Decimal `json:"incentives"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidOn      *time.Time      `json:"paid_on,omitempty"`
	PaidBy      *int32          `json:"paid_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Task struct {
	ID          int32      `json:"id"`
	ProjectID   int32      `json:"project_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	AssigneeID  *int32     `json:"assignee_id,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   *int32     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
