package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/edulend/loan-management/internal/admin"
	"github.com/edulend/loan-management/internal/auth"
	"github.com/edulend/loan-management/internal/loan"
	"github.com/edulend/loan-management/internal/repayment"
	"github.com/edulend/loan-management/internal/transport/middleware"
	"github.com/edulend/loan-management/internal/transport/swagger"
)

// RouterDeps bundles everything the route tree needs.
type RouterDeps struct {
	DB               *sql.DB
	Redis            *redis.Client
	IdempotencyTTL   time.Duration
	AuthHandler      *auth.Handler
	LoanHandler      *loan.Handler
	RepaymentHandler *repayment.Handler
	AdminHandler     *admin.Handler
	Logger           *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps RouterDeps) {
	healthHandler := NewHealthHandler(deps.DB, deps.Redis)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)
			if deps.Redis != nil {
				pr.Use(middleware.Idempotency(deps.Redis, deps.IdempotencyTTL, deps.Logger))
			}

			pr.Route("/loans", func(lr chi.Router) {
				lr.Post("/", deps.LoanHandler.SubmitApplication)
				lr.Get("/{id}", deps.LoanHandler.GetLoan)

				lr.Post("/{id}/repayments", deps.RepaymentHandler.MakePayment)
				lr.Get("/{id}/repayments", deps.RepaymentHandler.History)
			})

			pr.Route("/users/{userId}", func(ur chi.Router) {
				ur.Get("/loans", deps.LoanHandler.ListUserLoans)
				ur.Get("/repayments", deps.RepaymentHandler.ListUserRepayments)
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(deps.AuthHandler.RequireAdmin)

				ar.Get("/loans", deps.AdminHandler.ListLoans)
				ar.Get("/stats", deps.AdminHandler.GetStats)
				ar.Patch("/loans/{id}/status", deps.AdminHandler.UpdateStatus)
				ar.Patch("/loans/{id}/amount", deps.AdminHandler.UpdatePrincipal)
				ar.Post("/loans/{id}/verify-documents", deps.AdminHandler.VerifyDocuments)
			})
		})
	})
}
