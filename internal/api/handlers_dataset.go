package api

import (
	"net/http"
	"time"

	"nxmeta/internal/dataset"
	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
	"nxmeta/internal/grouping"
	"nxmeta/internal/lineage"
	"nxmeta/internal/logging"
	"nxmeta/internal/reconcile"
	"nxmeta/internal/report"
)

// GroupsResponse lists the component universe by category.
type GroupsResponse struct {
	Version string              `json:"version"`
	Query   string              `json:"query,omitempty"`
	Order   []grouping.Category `json:"order"`
	Groups  grouping.Groups     `json:"groups"`
	Total   int                 `json:"total"`
}

// lineageKey identifies a cached lineage. Entries computed from a replaced
// snapshot never match the current one, even for the same version.
type lineageKey struct {
	snap   *dataset.Snapshot
	root   string
	target string
}

// lineageResponse is cached per snapshot, target and root.
type lineageResponse struct {
	Version  string            `json:"version"`
	Target   string            `json:"target"`
	Root     string            `json:"root"`
	Found    bool              `json:"found"`
	Category grouping.Category `json:"category,omitempty"`
	Path     []string          `json:"path"`
	Tree     *lineage.Node     `json:"tree"`
}

// ChildrenResponse lists direct children.
type ChildrenResponse struct {
	Name     string   `json:"name"`
	Children []string `json:"children"`
}

// ReconcileResponse is the JSON form of the full reconciliation.
type ReconcileResponse struct {
	Version    string                     `json:"version"`
	Rows       []report.ReconciliationRow `json:"rows"`
	Properties reconcile.Summary          `json:"properties"`
	Events     reconcile.Summary          `json:"events"`
}

// AnnotationsResponse is the annotation status of the loaded version.
type AnnotationsResponse struct {
	Version string `json:"version"`
	Query   string `json:"query,omitempty"`
	dataset.AnnotationStatus
}

// ReloadResponse reports the snapshot now being served.
type ReloadResponse struct {
	Previous string        `json:"previous,omitempty"`
	Current  dataset.Stats `json:"current"`
}

// snapshot writes 503 and returns nil when nothing is loaded yet.
func (s *Server) snapshot(w http.ResponseWriter) *dataset.Snapshot {
	snap := s.holder.Current()
	if snap == nil {
		WriteError(w, nxerrors.New(nxerrors.FetchFailed, "no dataset loaded", nil), http.StatusServiceUnavailable)
	}
	return snap
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	q := QueryParam(r, "q", "")
	groups := snap.Groups.Filter(q)
	WriteJSON(w, GroupsResponse{
		Version: snap.Version,
		Query:   q,
		Order:   grouping.Order,
		Groups:  groups,
		Total:   groups.Len(),
	}, http.StatusOK)
}

// handleAnnotations reports an unavailable annotation bundle in the body
// with status 200; the dataset itself is still usable.
func (s *Server) handleAnnotations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	q := QueryParam(r, "q", "")
	WriteJSON(w, AnnotationsResponse{
		Version:          snap.Version,
		Query:            q,
		AnnotationStatus: snap.Annotations.Filter(q),
	}, http.StatusOK)
}

// lineageFor resolves target against root through the cache.
func (s *Server) lineageFor(snap *dataset.Snapshot, target, root string) lineageResponse {
	key := lineageKey{snap: snap, root: root, target: target}
	if s.cache != nil {
		if resp, ok := s.cache.Get(key); ok {
			s.metrics.ObserveLineage(true)
			return resp
		}
	}
	s.metrics.ObserveLineage(false)

	path, found := snap.Resolver.Path(target, root)
	resp := lineageResponse{
		Version: snap.Version,
		Target:  target,
		Root:    root,
		Found:   found,
		Path:    path,
		Tree:    snap.Resolver.Resolve(target, root),
	}
	if resp.Path == nil {
		resp.Path = []string{}
	}
	if c, ok := snap.Groups.CategoryOf(target); ok {
		resp.Category = c
	}
	if s.cache != nil {
		s.cache.Add(key, resp)
	}
	return resp
}

// handleLineage answers with the degenerate tree rather than an error when
// target has no inheritance structure.
func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	target, err := RequiredQuery(r, "target")
	if err != nil {
		WriteNxError(w, err)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	WriteJSON(w, s.lineageFor(snap, target, QueryParam(r, "root", s.config.LineageRoot)), http.StatusOK)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	name, err := RequiredQuery(r, "name")
	if err != nil {
		WriteNxError(w, err)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	if !snap.Resolver.Contains(name) {
		NotFound(w, "unknown component: "+name)
		return
	}

	WriteJSON(w, ChildrenResponse{Name: name, Children: snap.Resolver.ChildrenOf(name)}, http.StatusOK)
}

// handleCompare compares one component. A component without any recorded
// items yields empty buckets.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	component, err := RequiredQuery(r, "component")
	if err != nil {
		WriteNxError(w, err)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	results := reconcile.CompareAll([]string{component}, snap.Sources())
	resp := reconcile.ComponentComparison{
		Component:  component,
		Properties: reconcile.Compare(nil, nil),
		Events:     reconcile.Compare(nil, nil),
	}
	if len(results) == 1 {
		resp = results[0]
	}
	WriteJSON(w, resp, http.StatusOK)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	format, err := ExportFormat(r)
	if err != nil {
		WriteNxError(w, err)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	components := snap.Components()
	rows := report.BuildFullReconciliationReport(components, snap.Sources())
	if format != "" {
		s.writeSheets(w, format, "reconciliation_"+snap.Version, report.ReconciliationSheets(rows))
		return
	}

	results := reconcile.CompareAll(components, snap.Sources())
	WriteJSON(w, ReconcileResponse{
		Version:    snap.Version,
		Rows:       rows,
		Properties: reconcile.Summarize(results, reconcile.Properties),
		Events:     reconcile.Summarize(results, reconcile.Events),
	}, http.StatusOK)
}

// handleLineageReport exports the lineage of target. Unlike /lineage a
// target without inheritance structure is a 404: there is nothing to export.
func (s *Server) handleLineageReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	target, err := RequiredQuery(r, "target")
	if err != nil {
		WriteNxError(w, err)
		return
	}
	format, err := ExportFormat(r)
	if err != nil {
		WriteNxError(w, err)
		return
	}
	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	lin := s.lineageFor(snap, target, QueryParam(r, "root", s.config.LineageRoot))
	if !lin.Found {
		NotFound(w, "no inheritance structure for "+target)
		return
	}
	rep := report.BuildLineageReport(lin.Path, snap.CodebaseProperties, snap.CodebaseEvents)

	switch format {
	case "":
		WriteJSON(w, rep, http.StatusOK)
	case export.FormatCSV:
		sheet, ok := export.Find(rep.Sheets(), QueryParam(r, "sheet", report.SheetInheritancePath))
		if !ok {
			BadRequest(w, "unknown sheet, use InheritancePath, Properties or Events")
			return
		}
		s.writeSheets(w, format, rep.Target+"_"+sheet.Name, []export.Sheet{sheet})
	default:
		s.writeSheets(w, format, rep.Target+"_analysis", rep.Sheets())
	}
}

// writeSheets sends sheets as a download named base plus the format
// extension.
func (s *Server) writeSheets(w http.ResponseWriter, format export.Format, base string, sheets []export.Sheet) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(base+"."+string(format)))
	if err := export.Write(w, format, sheets); err != nil {
		// Headers may be out already; log and let the client see a short body.
		s.logger.Error("Export failed", logging.Fields{
			"format": string(format),
			"error":  err.Error(),
		})
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}
	if s.loader == nil {
		WriteError(w, nxerrors.New(nxerrors.InvalidArgument, "reload is not available on this server", nil), http.StatusServiceUnavailable)
		return
	}

	version := QueryParam(r, "version", s.config.DataVersion)
	prev := s.holder.Current()
	start := time.Now()
	snap, err := s.loader.Reload(r.Context(), s.holder, version)
	s.metrics.ObserveReload(err == nil)
	if err != nil {
		s.logger.Warn("Reload failed, keeping current dataset", logging.Fields{
			"version":   version,
			"error":     err.Error(),
			"requestID": GetRequestID(r.Context()),
		})
		WriteNxError(w, err)
		return
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	s.metrics.ObserveSnapshot(snap)
	s.logger.Info("Dataset reloaded", logging.Fields{
		"version":    version,
		"durationMs": time.Since(start).Milliseconds(),
	})

	resp := ReloadResponse{Current: snap.Stats()}
	if prev != nil {
		resp.Previous = prev.Version
	}
	WriteJSON(w, resp, http.StatusOK)
}
