// ABOUTME: Gateway orchestrator that wires stores, services, and the HTTP server
// ABOUTME: Manages component lifecycle and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/travelist/suggest-gateway/internal/auth"
	"github.com/travelist/suggest-gateway/internal/cache"
	"github.com/travelist/suggest-gateway/internal/config"
	"github.com/travelist/suggest-gateway/internal/events"
	"github.com/travelist/suggest-gateway/internal/inbox"
	"github.com/travelist/suggest-gateway/internal/kv"
	"github.com/travelist/suggest-gateway/internal/provider"
	"github.com/travelist/suggest-gateway/internal/suggest"
)

// Gateway orchestrates the suggest-gateway server components.
type Gateway struct {
	config       *config.Config
	store        kv.Store
	orchestrator *suggest.Orchestrator
	inbox        *inbox.Service
	events       *events.Broadcaster
	httpServer   *http.Server
	logger       *slog.Logger
}

// initStore creates the kv store based on config and environment.
// An empty path means in-memory only (no durability across restarts).
func initStore(cfg *config.Config) (kv.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("SUGGEST_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	if dbPath == "" {
		return kv.NewMemory(), nil
	}
	s, err := kv.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// buildProviders creates the primary and fallback suggestion providers.
// Without an endpoint the static fallback serves as primary too.
func buildProviders(cfg *config.Config, logger *slog.Logger) (primary, fallback provider.Provider) {
	fallback = provider.NewStaticProvider()
	if cfg.Provider.Endpoint == "" {
		logger.Warn("no provider endpoint configured, serving static suggestions only")
		return fallback, fallback
	}
	primary = provider.NewHTTPProvider(cfg.Provider.Endpoint, cfg.Provider.APIKey,
		provider.WithModel(cfg.Provider.Model),
		provider.WithLogger(logger),
	)
	return primary, fallback
}

// buildParsers creates the inbox parsers. The heuristic parser is always
// the fallback; the HTTP extraction parser requires an endpoint.
func buildParsers(cfg *config.Config) (primary, fallback inbox.Parser) {
	fallback = inbox.NewHeuristicParser()
	if cfg.Provider.Endpoint == "" {
		return nil, fallback
	}
	return inbox.NewHTTPParser(cfg.Provider.Endpoint, cfg.Provider.APIKey, cfg.Provider.Model), fallback
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	store, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	broadcaster := events.NewBroadcaster(logger.With("component", "broadcaster"))

	primary, fallback := buildProviders(cfg, logger)
	orchestrator := suggest.New(
		cache.New(store, logger),
		primary, fallback,
		broadcaster,
		suggest.Config{
			MinPlaces:      cfg.Suggest.MinPlaces,
			MaxSuggestions: cfg.Suggest.MaxSuggestions,
			Timeout:        cfg.Provider.Timeout,
		},
		logger,
	)

	parsePrimary, parseFallback := buildParsers(cfg)
	inboxSvc, err := inbox.NewService(store, parsePrimary, parseFallback, broadcaster, logger)
	if err != nil {
		broadcaster.Close()
		_ = store.Close()
		return nil, err
	}

	gw := &Gateway{
		config:       cfg,
		store:        store,
		orchestrator: orchestrator,
		inbox:        inboxSvc,
		events:       broadcaster,
		logger:       logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)

	// API endpoints - auth required if JWT secret is configured
	gw.registerAPIRoutes(mux, cfg, logger)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// registerAPIRoutes registers API routes on the mux with or without auth middleware.
func (g *Gateway) registerAPIRoutes(mux *http.ServeMux, cfg *config.Config, logger *slog.Logger) {
	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		logger.Info("HTTP auth middleware enabled")
	} else {
		logger.Warn("HTTP auth disabled - no jwt_secret configured")
	}
	protect := auth.Middleware(verifier)

	mux.Handle("/api/suggestions", protect(http.HandlerFunc(g.handleSuggestions)))
	mux.Handle("/api/inbox/ingest", protect(http.HandlerFunc(g.handleInboxIngest)))
	mux.Handle("/api/inbox", protect(http.HandlerFunc(g.handleInboxList)))
	mux.Handle("/api/inbox/", protect(http.HandlerFunc(g.handleInboxItem)))
	mux.Handle("/api/events", protect(http.HandlerFunc(g.handleEvents)))
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	// Let in-flight inbox parses land before the store closes
	g.inbox.Wait()
	g.events.Close()

	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the store answers reads.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, _, err := g.store.Get(r.Context(), "health:probe"); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "store not ready: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
