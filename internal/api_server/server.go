// Package apiserver assembles the router and runs the HTTP listener.
package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/netdevopsbr/proxbox/internal/cache"
	"github.com/netdevopsbr/proxbox/internal/config"
	"github.com/netdevopsbr/proxbox/internal/handlers"
	"github.com/netdevopsbr/proxbox/internal/store"
	"github.com/netdevopsbr/proxbox/pkg/metrics"
	"github.com/netdevopsbr/proxbox/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	cache    *cache.Cache
	listener net.Listener
}

// New returns a new instance of the proxbox API server.
func New(
	cfg *config.Config,
	store store.Store,
	cache *cache.Cache,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		listener: listener,
	}
}

// corsOrigins allows the plugin UI served by each registered inventory
// endpoint, plus local development origins and configured extras.
func (s *Server) corsOrigins(ctx context.Context) []string {
	origins := []string{
		"http://localhost",
		"http://localhost:*",
		"https://localhost",
		"https://localhost:*",
	}
	endpoints, err := s.store.NetBoxEndpoint().List(ctx)
	if err != nil {
		zap.S().Named("api_server").Warnf("failed to list inventory endpoints for CORS: %v", err)
	}
	for _, endpoint := range endpoints {
		origins = append(origins, endpoint.URL())
	}
	origins = append(origins, s.cfg.Service.ExtraCorsOrigins...)
	return origins
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins(ctx),
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.New(s.store, s.cache, s.cfg)
	registerRoutes(router, h)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

func registerRoutes(router chi.Router, h *handlers.Handler) {
	router.Get("/", h.Home)

	router.Route("/proxmox", func(r chi.Router) {
		r.Get("/", h.ProxmoxClusters)
		r.Get("/sessions", h.ProxmoxSessions)
		r.Get("/version", h.ProxmoxVersion)
		r.Get("/storage", h.ProxmoxStorage)
		r.Get("/nodes/{node}/storage/{storage}/content", h.ProxmoxStorageContent)

		r.Route("/endpoints", func(r chi.Router) {
			r.Get("/", h.ListProxmoxEndpoints)
			r.Post("/", h.CreateProxmoxEndpoint)
			r.Get("/{id}", h.GetProxmoxEndpoint)
			r.Put("/{id}", h.UpdateProxmoxEndpoint)
			r.Delete("/{id}", h.DeleteProxmoxEndpoint)
		})

		r.Get("/{top_level}", h.ProxmoxPassthrough)
	})

	router.Route("/netbox", func(r chi.Router) {
		r.Get("/status", h.NetBoxStatus)

		r.Route("/endpoints", func(r chi.Router) {
			r.Get("/", h.ListNetBoxEndpoints)
			r.Post("/", h.CreateNetBoxEndpoint)
			r.Get("/{id}", h.GetNetBoxEndpoint)
			r.Put("/{id}", h.UpdateNetBoxEndpoint)
			r.Delete("/{id}", h.DeleteNetBoxEndpoint)
		})
	})

	router.Route("/dcim", func(r chi.Router) {
		r.Get("/devices/create", h.SyncDevices)
		r.Get("/devices/{node}/interfaces/create", h.SyncNodeInterfaces)
	})

	router.Route("/virtualization", func(r chi.Router) {
		r.Get("/virtual-machines/create", h.SyncVirtualMachines)
		r.Get("/virtual-machines/backups/create", h.SyncBackups)
		r.Get("/virtual-machines/backups/all/create", h.SyncAllBackups)
	})

	router.Get("/full-update", h.FullUpdate)
	router.Get("/sync-processes", h.ListSyncProcesses)

	router.Get("/cache", h.DumpCache)
	router.Get("/clear-cache", h.ClearCache)

	router.Get("/ws", h.WebSocket)
	router.Get("/ws/virtual-machines", h.WebSocketVirtualMachines)
}
