package handlers

import (
	"net/http"

	"proptoken/internal/config"
	"proptoken/internal/db"
	"proptoken/internal/middleware"
	"proptoken/internal/models"
	"proptoken/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Handler struct {
	txRunner      db.TxRunner
	cfg           config.Config
	users         UserStore
	properties    PropertyStore
	holdings      HoldingStore
	transactions  TransactionStore
	distributions DistributionStore
	audit         AuditStore
	tokenization  TokenizationService
	market        MarketService
	hub           *websocket.Hub
	log           *logrus.Logger
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, properties PropertyStore, holdings HoldingStore, transactions TransactionStore, distributions DistributionStore, audit AuditStore, tokenization TokenizationService, market MarketService, hub *websocket.Hub, log *logrus.Logger) *Handler {
	return &Handler{
		txRunner:      txRunner,
		cfg:           cfg,
		users:         users,
		properties:    properties,
		holdings:      holdings,
		transactions:  transactions,
		distributions: distributions,
		audit:         audit,
		tokenization:  tokenization,
		market:        market,
		hub:           hub,
		log:           log,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.RateLimit(rate.Limit(20), 40))

	authed := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authed).Get("/me", h.Me)
	})

	// public marketplace reads
	router.Get("/properties", h.ListProperties)
	router.Get("/properties/{id}", h.GetProperty)
	router.Get("/properties/{id}/breakdown", h.GetBreakdown)

	router.Group(func(r chi.Router) {
		r.Use(authed)
		r.With(middleware.RequireRole(models.RoleInvestor, models.RoleAdmin)).Post("/properties/{id}/purchase", h.Purchase)
		r.Get("/holdings", h.MyHoldings)
		r.Get("/transactions", h.MyTransactions)

		r.With(middleware.RequireRole(models.RoleSeller, models.RoleAdmin)).Post("/properties", h.SubmitProperty)
		r.With(middleware.RequireRole(models.RoleSeller, models.RoleAdmin)).Get("/properties/mine", h.MyProperties)

		r.Get("/properties/{id}/orders", h.ListOrders)
		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.MyOrders)
		r.Get("/orders/{id}", h.GetOrder)
		r.Delete("/orders/{id}", h.CancelOrder)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authed)
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Get("/properties", h.AdminListProperties)
		r.Post("/properties/{id}/approve", h.ApproveProperty)
		r.Post("/properties/{id}/reject", h.RejectProperty)
		r.Post("/properties/{id}/tokenize", h.TokenizeProperty)
		r.Post("/properties/{id}/distribute", h.DistributeIncome)
		r.Get("/properties/{id}/distributions", h.ListDistributions)
		r.Get("/distributions/{id}", h.GetDistribution)
		r.Get("/properties/{id}/transactions", h.PropertyTransactions)
		r.Post("/transactions/{id}/settle", h.SettleTransaction)
		r.Get("/audit", h.ListAuditLogs)
	})

	router.Get("/ws/properties", h.WSProperties)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
