package httpserver

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/gymdesk/backend/internal/billing"
	"github.com/gymdesk/backend/internal/config"
	"github.com/gymdesk/backend/internal/handlers"
	"github.com/gymdesk/backend/internal/middleware"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
	"github.com/gymdesk/backend/internal/worker"
)

// Deps carries the storage clients and services the router needs.
type Deps struct {
	DB         *sql.DB
	Store      *store.Store
	Members    *store.MemberStore
	Txns       *store.TransactionStore
	Expenses   *store.ExpenseStore
	Jobs       *store.JobStore
	Calculator *billing.Calculator
	Dispatcher *worker.Dispatcher
}

// Server wraps an http.Server with convenience helpers for startup/shutdown.
type Server struct {
	httpServer *http.Server
	dispatcher *worker.Dispatcher
}

// New constructs an HTTP server using the provided configuration and deps.
func New(cfg config.Config, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// 5 login attempts per second with a small burst, shared across clients.
	loginLimiter := rate.NewLimiter(rate.Limit(5), 10)

	var receipts handlers.ReceiptEnqueuer
	if cfg.NotificationsEnabled() && deps.Dispatcher != nil {
		receipts = deps.Dispatcher
	}

	var pinger handlers.Pinger
	if deps.DB != nil {
		pinger = deps.DB
	}
	router.Get("/healthz", handlers.Health(pinger))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Post("/api/auth/login", handlers.Login(deps.Store, cfg.SessionTTL, loginLimiter))

	router.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(deps.Store))
		r.Use(middleware.NewAuditTrail(deps.Store).Middleware())

		r.Post("/api/auth/logout", handlers.Logout(deps.Store))
		r.Get("/api/auth/me", handlers.Me())

		r.Get("/api/plans", handlers.ListPlans(deps.Calculator.Catalog()))
		r.Get("/api/fee-periods", handlers.ListFeePeriods(deps.Calculator.Catalog()))

		r.Get("/api/dashboard", handlers.Dashboard(deps.Store, deps.Members))

		r.Get("/api/members", handlers.ListMembers(deps.Members))
		r.Post("/api/members", handlers.CreateMember(deps.Members, deps.Txns, receipts, deps.Calculator))
		r.Get("/api/members/{id}", handlers.GetMember(deps.Members))
		r.Put("/api/members/{id}", handlers.UpdateMember(deps.Members, deps.Calculator))
		r.Post("/api/members/{id}/renew", handlers.RenewMember(deps.Members, deps.Txns, receipts, deps.Calculator))

		r.Get("/api/transactions", handlers.ListTransactions(deps.Txns))
		r.Post("/api/transactions", handlers.CreateTransaction(deps.Txns))

		r.Get("/api/expenses", handlers.ListExpenses(deps.Expenses))
		r.Post("/api/expenses", handlers.CreateExpense(deps.Expenses))
		r.Put("/api/expenses/{id}", handlers.UpdateExpense(deps.Expenses))

		// Destructive and staff-management routes are admin only.
		r.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRole(models.RoleAdmin))

			admin.Delete("/api/members/{id}", handlers.DeleteMember(deps.Members))
			admin.Delete("/api/transactions/{id}", handlers.DeleteTransaction(deps.Txns))
			admin.Delete("/api/expenses/{id}", handlers.DeleteExpense(deps.Expenses))

			admin.Get("/api/staff", handlers.ListStaff(deps.Store))
			admin.Post("/api/staff", handlers.CreateStaff(deps.Store))

			if deps.Jobs != nil {
				admin.Get("/api/notifications/stats", handlers.NotificationStats(deps.Jobs))
				admin.Get("/api/notifications/processing", handlers.ListProcessingNotifications(deps.Jobs))
				admin.Get("/api/notifications/{id}", handlers.GetNotification(deps.Jobs))
				admin.Post("/api/notifications/{id}/cancel", handlers.CancelNotification(deps.Jobs))
			}
		})
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv, dispatcher: deps.Dispatcher}
}

// Start begins serving HTTP traffic and starts the notification dispatcher.
func (s *Server) Start() error {
	if s.dispatcher != nil {
		log.Println("[server] starting notification dispatcher...")
		s.dispatcher.Start(context.Background())
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and dispatcher.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.dispatcher != nil {
		log.Println("[server] shutting down notification dispatcher...")
		if err := s.dispatcher.Stop(ctx); err != nil {
			log.Printf("[server] dispatcher shutdown error: %v", err)
		}
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
