// Package lensservice wires configuration, storage, the Openverse client and
// the HTTP API into a runnable service.
package lensservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/api"
	"github.com/openlens/openlens/internal/api/recovery"
	"github.com/openlens/openlens/internal/auth"
	"github.com/openlens/openlens/internal/config"
	"github.com/openlens/openlens/internal/factory"
	"github.com/openlens/openlens/internal/health"
	"github.com/openlens/openlens/internal/logger"
	"github.com/openlens/openlens/internal/openverse"
	"github.com/openlens/openlens/internal/services"
	"github.com/openlens/openlens/internal/store"
)

// Run starts the OpenLens HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("openlens")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("openverse_api_url", cfg.OpenverseAPIURL).
		Msg("OpenLens starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Store adapter unavailable")
		return err
	}

	gw := openverse.NewClient(cfg.OpenverseAPIURL, cfg.OpenverseClientID, cfg.OpenverseClientSecret)
	authz := auth.NewStaticAuthorizer(cfg.APIKeys)

	// Background store health probe feeding /api/health
	healthChecker := startHealthChecker(ctx, cfg, log, st)

	router := buildRouter(st, gw, authz, healthChecker, log)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st store.Store, gw services.Gateway, authz auth.Authorizer, checker health.HealthChecker, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Search
	searchSvc := services.NewSearchService(st, gw, log)
	search := api.NewSearchHandler(searchSvc, authz, log)
	root.HandleFunc("/api/search", search.HandleSearch).Methods("GET")

	// Search history
	historySvc := services.NewHistoryService(st)
	history := api.NewHistoryHandler(historySvc, authz, log)
	root.HandleFunc("/api/search/history", history.ListHistory).Methods("GET")
	root.HandleFunc("/api/search/history", history.ClearHistory).Methods("DELETE")
	root.HandleFunc("/api/search/history/{id}", history.DeleteHistory).Methods("DELETE")

	// Media detail (staleness-refresh path)
	mediaSvc := services.NewMediaService(st, gw, log)
	media := api.NewMediaHandler(mediaSvc, log)
	root.HandleFunc("/api/media/{id}", media.GetMedia).Methods("GET")

	// Favourites
	favSvc := services.NewFavouriteService(st)
	favs := api.NewFavouritesHandler(favSvc, authz, log)
	root.HandleFunc("/api/media/{id}/favourite", favs.AddFavourite).Methods("PUT")
	root.HandleFunc("/api/media/{id}/favourite", favs.RemoveFavourite).Methods("DELETE")
	root.HandleFunc("/api/favourites", favs.ListFavourites).Methods("GET")

	// Health
	healthHandler := api.NewHealthHandler(checker)
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}

func startHealthChecker(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) health.HealthChecker {
	pinger, ok := st.(health.HealthPinger)
	if !ok {
		return nil
	}
	checker := store.NewStoreHealthChecker(pinger, log, time.Duration(cfg.HealthProbeTimeoutSeconds)*time.Second)
	go checker.Start(ctx, time.Duration(cfg.HealthIntervalSeconds)*time.Second)
	return checker
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
