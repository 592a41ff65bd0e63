package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/invoiceregistry/apiserver/config"
	"github.com/invoiceregistry/apiserver/internal/db"
	"github.com/invoiceregistry/apiserver/internal/handlers"
	"github.com/invoiceregistry/apiserver/internal/logger"
	"github.com/invoiceregistry/apiserver/internal/services"
	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/internal/token"
	"github.com/rs/zerolog"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	log        zerolog.Logger
}

// New wires the store, services, and routes, and builds the HTTP
// server. The token codec and role seed name are fixed here and
// read-only for the life of the process.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	codec, err := token.NewCodec(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLMillis)*time.Millisecond)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	roleRepo := store.NewRoleRepository(dbConn)
	customerRepo := store.NewCustomerRepository(dbConn)
	invoiceRepo := store.NewInvoiceRepository(dbConn)

	authService := services.NewAuthService(userRepo, roleRepo, codec, cfg.Auth.DefaultRole, log)
	customerService := services.NewCustomerService(customerRepo, invoiceRepo, log)
	invoiceService := services.NewInvoiceService(invoiceRepo, customerRepo, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logger.RequestLogger(log),
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}),
		handlers.Authenticate(codec, authService),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService)
	})
	router.Route("/api/customers", func(r chi.Router) {
		handlers.CustomerRouter(r, customerService)
	})
	router.Route("/api/invoices", func(r chi.Router) {
		handlers.InvoiceRouter(r, invoiceService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
