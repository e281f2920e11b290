package api

import (
	"net/http"

	"nxmeta/internal/version"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health and readiness checks
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)

	// Dataset queries
	s.router.HandleFunc("/groups", s.handleGroups)
	s.router.HandleFunc("/lineage", s.handleLineage)
	s.router.HandleFunc("/children", s.handleChildren)
	s.router.HandleFunc("/compare", s.handleCompare)
	s.router.HandleFunc("/reconcile", s.handleReconcile)
	s.router.HandleFunc("/report/lineage", s.handleLineageReport)
	s.router.HandleFunc("/annotations", s.handleAnnotations)
	s.router.HandleFunc("/reload", s.handleReload) // POST

	// Document tools, request body is the uploaded file
	s.router.HandleFunc("/info/parse", s.handleInfoParse)
	s.router.HandleFunc("/info/csv", s.handleInfoCSV)
	s.router.HandleFunc("/xfdl/extract", s.handleXfdlExtract)
	s.router.HandleFunc("/xfdl/rewrite", s.handleXfdlRewrite)

	s.router.Handle("/metrics", s.metrics.Handler())

	// Root endpoint
	s.router.HandleFunc("/", s.handleRoot)
}

// handleRoot handles requests to the root path
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		NotFound(w, "no such endpoint: "+r.URL.Path)
		return
	}

	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	response := map[string]interface{}{
		"name":    "nxmeta HTTP API",
		"version": version.Version,
		"endpoints": []string{
			"GET /health - Health check",
			"GET /ready - Dataset readiness",
			"GET /groups?q=term - Components by category",
			"GET /lineage?target=name&root=name - Inheritance chain",
			"GET /children?name=name - Direct children",
			"GET /compare?component=name - Codebase vs metainfo for one component",
			"GET /reconcile?format=json|csv|xlsx - Codebase vs metainfo for all components",
			"GET /report/lineage?target=name&format=json|csv|xlsx&sheet=name - Lineage report",
			"GET /annotations?q=term - Annotation comments per source file",
			"POST /reload?version=WORK800 - Load another work version",
			"POST /info/parse?format=json|xlsx - Parse an INFO document",
			"POST /info/csv?report=events|methods|status|control - INFO section as CSV",
			"POST /xfdl/extract - Script block of a form",
			"POST /xfdl/rewrite?format=json|zip - Rewrite form headers",
			"GET /metrics - Prometheus metrics",
		},
	}

	WriteJSON(w, response, http.StatusOK)
}
