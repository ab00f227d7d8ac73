package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ledgergames/splitsecond/pkg/api/handlers"
	"github.com/ledgergames/splitsecond/pkg/api/middleware"
	"github.com/ledgergames/splitsecond/pkg/auth"
	"github.com/ledgergames/splitsecond/pkg/events"
	"github.com/ledgergames/splitsecond/pkg/ledger"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/workers"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port         int
	TLS          *TLSConfig
	Ledger       *ledger.Ledger
	Verifier     *auth.Verifier
	Hub          *events.Hub
	SaveObjectCh chan<- workers.SaveObjectRequest
}

// NewAPIServer creates a new http.Server exposing the ledger RPC surface.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	walletMiddleware := middleware.NewWalletMiddleware(opts.Verifier)

	router := mux.NewRouter()
	router.HandleFunc("/health", handlers.HandleHealth()).Methods(http.MethodGet)
	router.Handle("/transactions", walletMiddleware(handlers.HandleSubmitTransaction(opts.Ledger, opts.SaveObjectCh))).Methods(http.MethodPost)
	router.HandleFunc("/transactions/{digest}", handlers.HandleGetTransaction(opts.Ledger)).Methods(http.MethodGet)
	router.HandleFunc("/objects/{objectID}", handlers.HandleGetObject(opts.Ledger)).Methods(http.MethodGet)
	router.HandleFunc("/owners/{owner}/objects", handlers.HandleGetOwnedObjects(opts.Ledger)).Methods(http.MethodGet)
	router.HandleFunc("/leaderboards/{boardID}/top", handlers.HandleGetLeaderboardTop(opts.Ledger)).Methods(http.MethodGet)
	router.HandleFunc("/events", opts.Hub.HandleSubscribe).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
