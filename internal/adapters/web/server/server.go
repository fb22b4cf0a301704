package server

import (
	"context"
	"log"
	"net/http"

	"time"

	"github.com/lcalzada-xor/switchmap/internal/adapters/reporting"
	"github.com/lcalzada-xor/switchmap/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/switchmap/internal/core/services/resolver"
	"github.com/lcalzada-xor/switchmap/internal/core/services/snapshot"
	"github.com/lcalzada-xor/switchmap/internal/core/services/topology"
	"github.com/lcalzada-xor/switchmap/internal/core/services/tracer"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server handles HTTP connections.
type Server struct {
	Addr string

	TopologyHandler *handlers.TopologyHandler
	GraphHandler    *handlers.GraphHandler
	MacHandler      *handlers.MacHandler
	SwitchHandler   *handlers.SwitchHandler
	ReportHandler   *handlers.ReportHandler

	srv *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, store *topology.Store, jobs *topology.JobRunner, snap *snapshot.Service, trc *tracer.Service, res *resolver.Resolver, inv handlers.SwitchInventory, rebuildTimeout time.Duration) *Server {
	return &Server{
		Addr: addr,

		TopologyHandler: handlers.NewTopologyHandler(store, jobs, rebuildTimeout),
		GraphHandler:    handlers.NewGraphHandler(snap, trc, store),
		MacHandler:      handlers.NewMacHandler(res),
		SwitchHandler:   handlers.NewSwitchHandler(inv),
		ReportHandler:   handlers.NewReportHandler(store, snap, inv, reporting.NewPDFExporter()),
	}
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	handler := SetupRoutes(s)

	// Instrument with OpenTelemetry
	// "switchmap-server" is the name of the operation (span)
	instrumentedHandler := otelhttp.NewHandler(handler, "switchmap-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
