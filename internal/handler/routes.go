package handler

import (
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler the API exposes
type Handlers struct {
	Auth        *AuthHandler
	Dashboard   *DashboardHandler
	Account     *AccountHandler
	Transaction *TransactionHandler
	Budget      *BudgetHandler
	Category    *CategoryHandler
	Bill        *BillHandler
}

// RegisterRoutes sets up all API routes. rateLimiter may be nil.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (public)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)

	protected := []echo.MiddlewareFunc{authMiddleware.Authenticate()}
	if rateLimiter != nil {
		protected = append(protected, middleware.RateLimitMiddleware(rateLimiter))
	}

	// Auth routes (protected)
	auth := api.Group("/auth", protected...)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	// View routes (protected)
	view := api.Group("/view", protected...)
	view.GET("", h.Dashboard.GetView)
	view.POST("/reload", h.Dashboard.Reload)
	view.POST("/select", h.Dashboard.SelectAccount)
	view.POST("/search", h.Dashboard.Search)
	view.POST("/back", h.Dashboard.Back)

	// Account routes (protected)
	accounts := api.Group("/accounts", protected...)
	accounts.POST("", h.Account.CreateAccount)
	accounts.GET("", h.Account.GetAccounts)
	accounts.PUT("/:id", h.Account.UpdateAccount)
	accounts.DELETE("/:id", h.Account.DeleteAccount)
	accounts.GET("/:id/stats", h.Dashboard.GetAccountStats)

	// Transaction routes (protected)
	transactions := api.Group("/transactions", protected...)
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.POST("/transfer", h.Transaction.CreateTransfer)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.PUT("/:id/category", h.Transaction.UpdateCategory)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)
	transactions.POST("/upload-csv/:accountId", h.Transaction.UploadCSV)
	transactions.POST("/import/:accountId", h.Transaction.ImportFromStorage)

	// Budget routes (protected)
	budgets := api.Group("/budgets", protected...)
	budgets.GET("", h.Budget.GetBudgets)
	budgets.POST("", h.Budget.CreateBudget)

	// Category routes (protected)
	rules := api.Group("/category-rules", protected...)
	rules.GET("", h.Category.GetRules)
	rules.POST("", h.Category.CreateRule)

	custom := api.Group("/categories/custom", protected...)
	custom.GET("", h.Category.GetCustomCategories)
	custom.POST("", h.Category.CreateCustomCategory)
	custom.PUT("/:id", h.Category.UpdateCustomCategory)
	custom.DELETE("/:id", h.Category.DeleteCustomCategory)

	// Bill routes (protected)
	bills := api.Group("/bills", protected...)
	bills.GET("", h.Bill.GetBills)
	bills.POST("", h.Bill.CreateBill)
}
