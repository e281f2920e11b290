package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"nxmeta/internal/dataset"
	"nxmeta/internal/infodoc"
	"nxmeta/internal/lineage"
	"nxmeta/internal/logging"
	"nxmeta/internal/xfdl"
)

// ServerConfig contains the settings NewServer needs besides the dataset.
type ServerConfig struct {
	// LineageRoot is the root every lineage is resolved against.
	LineageRoot string
	// DataVersion is loaded by /reload when the request names none.
	DataVersion string
	// CacheSize bounds the lineage cache; 0 disables it.
	CacheSize int
	// MaxUploadBytes bounds request bodies of the document endpoints.
	MaxUploadBytes int64

	Rewriter   *xfdl.Rewriter
	Convention xfdl.Convention
	Serialize  infodoc.SerializeOptions

	// Now is used for defaults that depend on the date.
	Now func() time.Time
}

// DefaultServerConfig returns the defaults used by "nxmeta serve".
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		LineageRoot:    lineage.DefaultRoot,
		DataVersion:    dataset.DefaultVersion,
		CacheSize:      256,
		MaxUploadBytes: 32 << 20,
		Convention:     xfdl.DefaultConvention,
		Serialize:      infodoc.DefaultSerializeOptions(),
	}
}

// Server represents the HTTP API server
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	addr    string
	logger  *logging.Logger
	config  ServerConfig
	loader  *dataset.Loader
	holder  *dataset.Holder
	metrics *Metrics
	cache   *lru.Cache[lineageKey, lineageResponse]
}

// NewServer creates a server over holder. loader serves /reload and may be
// nil, in which case reloading is rejected.
func NewServer(addr string, holder *dataset.Holder, loader *dataset.Loader, logger *logging.Logger, cfg ServerConfig) (*Server, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.LineageRoot == "" {
		cfg.LineageRoot = lineage.DefaultRoot
	}
	if cfg.DataVersion == "" {
		cfg.DataVersion = dataset.DefaultVersion
	}
	if cfg.Rewriter == nil {
		cfg.Rewriter = xfdl.NewRewriter(xfdl.CompareExact)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Serialize.OmitIfEmpty == nil {
		cfg.Serialize = infodoc.DefaultSerializeOptions()
	}

	s := &Server{
		addr:    addr,
		logger:  logger,
		config:  cfg,
		loader:  loader,
		holder:  holder,
		metrics: NewMetrics(),
		router:  http.NewServeMux(),
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[lineageKey, lineageResponse](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating lineage cache: %w", err)
		}
		s.cache = cache
	}
	if snap := holder.Current(); snap != nil {
		s.metrics.ObserveSnapshot(snap)
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", logging.Fields{
		"addr": s.addr,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully", nil)
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// Metrics exposes the collector, mainly for tests.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = MetricsMiddleware(s.metrics)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler
}
