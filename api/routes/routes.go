// Package routes wires HTTP handlers onto the router with their
// permission requirements.
package routes

import (
	"net/http"

	"contracting_system/internal/handlers"
	"contracting_system/internal/handlers/allocations"
	"contracting_system/internal/handlers/attendance"
	"contracting_system/internal/handlers/customers"
	"contracting_system/internal/handlers/godowns"
	"contracting_system/internal/handlers/materials"
	"contracting_system/internal/handlers/payrolls"
	"contracting_system/internal/handlers/projects"
	"contracting_system/internal/handlers/purchases"
	"contracting_system/internal/handlers/reports"
	"contracting_system/internal/handlers/suppliers"
	"contracting_system/internal/handlers/tasks"
	"contracting_system/internal/handlers/users"
	"contracting_system/internal/handlers/workers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/router"
	"contracting_system/internal/security"
)

// SetupRoutes registers every application route. Authentication is a
// group-level middleware; each route carries its own permission.
func SetupRoutes(r *router.Router, h *handlers.Handler, loginLimiter func(http.Handler) http.Handler) {
	auth := middlewares.RequireAuth(h.Sessions)
	perm := func(p string) router.MiddlewaresType {
		return middlewares.RequirePermission(p)
	}

	userHandler := users.NewUserHandler(h)
	projectHandler := projects.NewProjectHandler(h)
	customerHandler := customers.NewCustomerHandler(h)
	supplierHandler := suppliers.NewSupplierHandler(h)
	materialHandler := materials.NewMaterialHandler(h)
	godownHandler := godowns.NewGodownHandler(h)
	purchaseHandler := purchases.NewPurchaseHandler(h)
	allocationHandler := allocations.NewAllocationHandler(h)
	workerHandler := workers.NewWorkerHandler(h)
	attendanceHandler := attendance.NewAttendanceHandler(h)
	payrollHandler := payrolls.NewPayrollHandler(h)
	taskHandler := tasks.NewTaskHandler(h)
	reportHandler := reports.NewReportHandler(h)

	// Login stands alone so the rate limiter only guards credential
	// guessing, not the whole API.
	r.Register(&router.Route{
		Method:      "POST",
		Path:        "auth/login",
		HandlerFunc: userHandler.Login,
		Middlewares: []router.MiddlewaresType{loginLimiter},
		Category:    "auth",
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "auth",
		Category:    "auth",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "POST", Path: "logout", HandlerFunc: userHandler.Logout},
			{Method: "GET", Path: "me", HandlerFunc: userHandler.Me},
			{Method: "GET", Path: "navigation", HandlerFunc: userHandler.Navigation},
			{Method: "POST", Path: "change-password", HandlerFunc: userHandler.ChangePassword},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "projects",
		Category:    "projects",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: projectHandler.ListProjects, Middlewares: []router.MiddlewaresType{perm(security.PermProjectsRead)}},
			{Method: "POST", Path: "", HandlerFunc: projectHandler.CreateProject, Middlewares: []router.MiddlewaresType{perm(security.PermProjectsWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: projectHandler.GetProject, Middlewares: []router.MiddlewaresType{perm(security.PermProjectsRead)}},
			{Method: "PATCH", Path: "{id}", HandlerFunc: projectHandler.UpdateProject, Middlewares: []router.MiddlewaresType{perm(security.PermProjectsWrite)}},
			{Method: "GET", Path: "{id}/ledger", HandlerFunc: projectHandler.GetProjectLedger, Middlewares: []router.MiddlewaresType{perm(security.PermStockRead)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "customers",
		Category:    "partners",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: customerHandler.ListCustomers, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersRead)}},
			{Method: "POST", Path: "", HandlerFunc: customerHandler.CreateCustomer, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: customerHandler.GetCustomer, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersRead)}},
			{Method: "PATCH", Path: "{id}", HandlerFunc: customerHandler.UpdateCustomer, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersWrite)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "suppliers",
		Category:    "partners",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: supplierHandler.ListSuppliers, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersRead)}},
			{Method: "POST", Path: "", HandlerFunc: supplierHandler.CreateSupplier, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: supplierHandler.GetSupplier, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersRead)}},
			{Method: "PATCH", Path: "{id}", HandlerFunc: supplierHandler.UpdateSupplier, Middlewares: []router.MiddlewaresType{perm(security.PermPartnersWrite)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "materials",
		Category:    "catalog",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: materialHandler.ListMaterials, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogRead)}},
			{Method: "POST", Path: "", HandlerFunc: materialHandler.CreateMaterial, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: materialHandler.GetMaterial, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogRead)}},
			{Method: "PATCH", Path: "{id}", HandlerFunc: materialHandler.UpdateMaterial, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogWrite)}},
			{Method: "GET", Path: "{id}/stock", HandlerFunc: materialHandler.GetMaterialStock, Middlewares: []router.MiddlewaresType{perm(security.PermStockRead)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "godowns",
		Category:    "catalog",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: godownHandler.ListGodowns, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogRead)}},
			{Method: "POST", Path: "", HandlerFunc: godownHandler.CreateGodown, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: godownHandler.GetGodown, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogRead)}},
			{Method: "PATCH", Path: "{id}", HandlerFunc: godownHandler.UpdateGodown, Middlewares: []router.MiddlewaresType{perm(security.PermCatalogWrite)}},
			{Method: "GET", Path: "{id}/stock", HandlerFunc: godownHandler.GetGodownStock, Middlewares: []router.MiddlewaresType{perm(security.PermStockRead)}},
			{Method: "GET", Path: "{id}/batches", HandlerFunc: godownHandler.GetGodownBatches, Middlewares: []router.MiddlewaresType{perm(security.PermStockRead)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "purchases",
		Category:    "purchases",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: purchaseHandler.ListPurchases, Middlewares: []router.MiddlewaresType{perm(security.PermPurchasesRead)}},
			{Method: "POST", Path: "", HandlerFunc: purchaseHandler.CreatePurchase, Middlewares: []router.MiddlewaresType{perm(security.PermPurchasesWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: purchaseHandler.GetPurchase, Middlewares: []router.MiddlewaresType{perm(security.PermPurchasesRead)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "allocations",
		Category:    "allocations",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: allocationHandler.ListRequests, Middlewares: []router.MiddlewaresType{perm(security.PermStockRead)}},
			{Method: "POST", Path: "", HandlerFunc: allocationHandler.CreateRequest, Middlewares: []router.MiddlewaresType{perm(security.PermAllocRequest)}},
			{Method: "GET", Path: "{id}", HandlerFunc: allocationHandler.GetRequest, Middlewares: []router.MiddlewaresType{perm(security.PermStockRead)}},
			{Method: "POST", Path: "{id}/decision", HandlerFunc: allocationHandler.DecideRequest, Middlewares: []router.MiddlewaresType{perm(security.PermAllocDecide)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "workers",
		Category:    "labor",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: workerHandler.ListWorkers, Middlewares: []router.MiddlewaresType{perm(security.PermWorkersRead)}},
			{Method: "POST", Path: "", HandlerFunc: workerHandler.CreateWorker, Middlewares: []router.MiddlewaresType{perm(security.PermWorkersWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: workerHandler.GetWorker, Middlewares: []router.MiddlewaresType{perm(security.PermWorkersRead)}},
			{Method: "PATCH", Path: "{id}", HandlerFunc: workerHandler.UpdateWorker, Middlewares: []router.MiddlewaresType{perm(security.PermWorkersWrite)}},
			{Method: "GET", Path: "{id}/incentives", HandlerFunc: attendanceHandler.ListIncentives, Middlewares: []router.MiddlewaresType{perm(security.PermPayrollRead)}},
			{Method: "GET", Path: "{id}/payroll-preview", HandlerFunc: payrollHandler.PreviewWorkerPayroll, Middlewares: []router.MiddlewaresType{perm(security.PermPayrollRead)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "attendance",
		Category:    "labor",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: attendanceHandler.ListAttendance, Middlewares: []router.MiddlewaresType{perm(security.PermAttendanceRead)}},
			{Method: "POST", Path: "", HandlerFunc: attendanceHandler.MarkAttendance, Middlewares: []router.MiddlewaresType{perm(security.PermAttendanceMark)}},
			{Method: "POST", Path: "bulk", HandlerFunc: attendanceHandler.MarkAttendanceBulk, Middlewares: []router.MiddlewaresType{perm(security.PermAttendanceMark)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "incentives",
		Category:    "labor",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "POST", Path: "", HandlerFunc: attendanceHandler.CreateIncentive, Middlewares: []router.MiddlewaresType{perm(security.PermPayrollRun)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "payroll",
		Category:    "payroll",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: payrollHandler.ListPayroll, Middlewares: []router.MiddlewaresType{perm(security.PermPayrollRead)}},
			{Method: "POST", Path: "run", HandlerFunc: payrollHandler.RunPayroll, Middlewares: []router.MiddlewaresType{perm(security.PermPayrollRun)}},
			{Method: "POST", Path: "{id}/pay", HandlerFunc: payrollHandler.MarkPaid, Middlewares: []router.MiddlewaresType{perm(security.PermPayrollRun)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "tasks",
		Category:    "tasks",
		Middlewares: []router.MiddlewaresType{auth},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: taskHandler.ListTasks, Middlewares: []router.MiddlewaresType{perm(security.PermTasksRead)}},
			{Method: "POST", Path: "", HandlerFunc: taskHandler.CreateTask, Middlewares: []router.MiddlewaresType{perm(security.PermTasksWrite)}},
			{Method: "GET", Path: "{id}", HandlerFunc: taskHandler.GetTask, Middlewares: []router.MiddlewaresType{perm(security.PermTasksRead)}},
			{Method: "PATCH", Path: "{id}", HandlerFunc: taskHandler.UpdateTask, Middlewares: []router.MiddlewaresType{perm(security.PermTasksWrite)}},
			{Method: "PATCH", Path: "{id}/status", HandlerFunc: taskHandler.SetTaskStatus, Middlewares: []router.MiddlewaresType{perm(security.PermTasksWrite)}},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "users",
		Category:    "users",
		Middlewares: []router.MiddlewaresType{auth, perm(security.PermUsersManage)},
		Routes: []*router.Route{
			{Method: "GET", Path: "", HandlerFunc: userHandler.ListUsers},
			{Method: "POST", Path: "", HandlerFunc: userHandler.CreateUser},
			{Method: "GET", Path: "{id}", HandlerFunc: userHandler.GetUser},
			{Method: "PATCH", Path: "{id}", HandlerFunc: userHandler.UpdateUser},
		},
	})

	r.RegisterGroup(&router.RouteGroup{
		Prefix:      "reports",
		Category:    "reports",
		Middlewares: []router.MiddlewaresType{auth, perm(security.PermReportsExport)},
		Routes: []*router.Route{
			{Method: "GET", Path: "stock-register", HandlerFunc: reportHandler.ExportStockRegister},
			{Method: "GET", Path: "payroll", HandlerFunc: reportHandler.ExportPayroll},
		},
	})
}
