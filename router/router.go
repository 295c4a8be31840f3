package router

import (
	"expense-ledger-api/handler"
	"net/http"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	User     *handler.UserHandler
	Account  *handler.AccountHandler
	Transfer *handler.TransferHandler
	Expense  *handler.ExpenseHandler
	Category *handler.CategoryHandler
	Report   *handler.ReportHandler
}

func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Public auth endpoints.
	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(h.User.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(h.User.Login))
	mux.Handle("POST /refresh", handler.ErrorHandlingMiddleware(h.User.Refresh))

	// Authenticated API.
	api := http.NewServeMux()
	api.Handle("POST /api/logout", handler.ErrorHandlingMiddleware(h.User.Logout))

	api.Handle("GET /api/accounts/me", handler.ErrorHandlingMiddleware(h.Account.GetMyAccount))
	api.Handle("GET /api/accounts/me/audit", handler.ErrorHandlingMiddleware(h.Account.AuditMyAccount))

	api.Handle("POST /api/accounts/{accountId}/transfers", handler.ErrorHandlingMiddleware(h.Transfer.CreateTransfer))
	api.Handle("GET /api/accounts/{accountId}/transfers", handler.ErrorHandlingMiddleware(h.Transfer.ListTransfersForAccount))

	api.Handle("POST /api/expenses", handler.ErrorHandlingMiddleware(h.Expense.RecordDebit))
	api.Handle("GET /api/expenses", handler.ErrorHandlingMiddleware(h.Expense.ListExpenses))
	api.Handle("POST /api/expenses/credits", handler.ErrorHandlingMiddleware(h.Expense.RecordCredit))
	api.Handle("PUT /api/expenses/{expenseId}", handler.ErrorHandlingMiddleware(h.Expense.UpdateExpense))
	api.Handle("DELETE /api/expenses/{expenseId}", handler.ErrorHandlingMiddleware(h.Expense.DeleteExpense))

	api.Handle("POST /api/categories", handler.ErrorHandlingMiddleware(h.Category.CreateCategory))
	api.Handle("GET /api/categories", handler.ErrorHandlingMiddleware(h.Category.ListCategories))
	api.Handle("PUT /api/categories/{categoryId}", handler.ErrorHandlingMiddleware(h.Category.UpdateCategory))
	api.Handle("DELETE /api/categories/{categoryId}", handler.ErrorHandlingMiddleware(h.Category.DeleteCategory))

	api.Handle("GET /api/reports/monthly", handler.ErrorHandlingMiddleware(h.Report.GetMonthlySummary))

	mux.Handle("/api/", handler.AuthMiddleware(api))

	// Admin-only endpoints.
	admin := http.NewServeMux()
	admin.Handle("GET /api/admin/accounts", handler.ErrorHandlingMiddleware(h.Account.ListAccounts))
	admin.Handle("GET /api/admin/accounts/{accountId}/audit", handler.ErrorHandlingMiddleware(h.Account.AuditAccount))
	admin.Handle("PUT /api/admin/users/{userId}/role", handler.ErrorHandlingMiddleware(h.User.UpdateUserRole))

	mux.Handle("/api/admin/", handler.AuthMiddleware(handler.AdminMiddleware(admin)))

	return mux
}
