package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
	"nxmeta/internal/infodoc"
	"nxmeta/internal/xfdl"
)

// InfoParseResponse is the JSON form of a parsed INFO document.
type InfoParseResponse struct {
	Counts   map[string]int    `json:"counts"`
	Document *infodoc.Document `json:"document"`
}

// ExtractResponse carries the script block of a form.
type ExtractResponse struct {
	Script string `json:"script"`
	Found  bool   `json:"found"`
}

// RewriteRequest is the body of /xfdl/rewrite. An empty Date means today.
type RewriteRequest struct {
	Files   []xfdl.File `json:"files"`
	Author  string      `json:"author"`
	Date    string      `json:"date"`
	NewName string      `json:"newName"`
}

// RewriteFileResult is one entry of a RewriteResponse.
type RewriteFileResult struct {
	Name       string `json:"name"`
	OutputName string `json:"outputName,omitempty"`
	Component  string `json:"component,omitempty"`
	Content    string `json:"content,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
}

// RewriteResponse lists per-file outcomes in request order.
type RewriteResponse struct {
	RunID     string              `json:"runId"`
	Date      string              `json:"date"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []RewriteFileResult `json:"results"`
}

// readBody reads the request body up to the configured limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if s.config.MaxUploadBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, nxerrors.Newf(nxerrors.InvalidArgument, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, nxerrors.New(nxerrors.InvalidArgument, "reading request body", err)
	}
	if len(data) == 0 {
		return nil, nxerrors.New(nxerrors.InvalidArgument, "empty request body", nil)
	}
	return data, nil
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func (s *Server) handleInfoParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}
	format, err := ExportFormat(r)
	if err != nil {
		WriteNxError(w, err)
		return
	}
	if format == export.FormatCSV {
		BadRequest(w, "an INFO workbook has several sheets, use /info/csv for a single table")
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		WriteNxError(w, err)
		return
	}

	doc, err := infodoc.Parse(string(data))
	if err != nil {
		WriteNxError(w, err)
		return
	}
	if format != "" {
		s.writeSheets(w, format, QueryParam(r, "name", doc.ObjectID), infodoc.ToSheets(doc))
		return
	}
	WriteJSON(w, InfoParseResponse{Counts: doc.Counts(), Document: doc}, http.StatusOK)
}

// handleInfoCSV renders one section report of the uploaded document.
func (s *Server) handleInfoCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}
	kind := infodoc.ReportKind(QueryParam(r, "report", string(infodoc.EventsReport)))
	data, err := s.readBody(w, r)
	if err != nil {
		WriteNxError(w, err)
		return
	}

	sheet, err := infodoc.BuildReport(string(data), kind)
	if err != nil {
		WriteNxError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.FormatCSV.ContentType())
	w.Header().Set("Content-Disposition", attachment(kind.FileName()))
	if err := export.WriteCSV(w, sheet, export.CSVOptions{BOM: true}); err != nil {
		InternalError(w, "writing csv", err)
	}
}

func (s *Server) handleXfdlExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		WriteNxError(w, err)
		return
	}

	script, found := xfdl.ExtractScript(string(data))
	WriteJSON(w, ExtractResponse{Script: script, Found: found}, http.StatusOK)
}

// handleXfdlRewrite rewrites every file of the request. With format=zip the
// successful files are returned as an archive; a batch in which every file
// failed is answered with the JSON results and status 422.
func (s *Server) handleXfdlRewrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}
	asZip := false
	switch f := QueryParam(r, "format", "json"); f {
	case "json":
	case "zip":
		asZip = true
	default:
		BadRequest(w, "unsupported format "+f+", use json or zip")
		return
	}

	data, err := s.readBody(w, r)
	if err != nil {
		WriteNxError(w, err)
		return
	}
	var req RewriteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		WriteNxError(w, nxerrors.New(nxerrors.InvalidArgument, "decoding rewrite request", err))
		return
	}
	if len(req.Files) == 0 {
		BadRequest(w, "no files to rewrite")
		return
	}
	if req.Date == "" {
		req.Date = xfdl.Today(s.config.Now())
	}

	batch := s.config.Rewriter.RewriteBatch(req.Files, xfdl.BatchOptions{
		Author:     req.Author,
		Date:       req.Date,
		NewName:    req.NewName,
		Convention: s.config.Convention,
	})

	resp := RewriteResponse{
		RunID:     batch.RunID,
		Date:      req.Date,
		Succeeded: batch.Succeeded(),
		Results:   make([]RewriteFileResult, 0, len(batch.Results)),
	}
	for _, res := range batch.Results {
		out := RewriteFileResult{Name: res.Name, OutputName: res.OutputName, Component: res.Component}
		if res.OK() {
			if !asZip {
				out.Content = res.Content
			}
		} else {
			out.Error = res.Err.Error()
			out.Code = string(nxerrors.CodeOf(res.Err))
		}
		resp.Results = append(resp.Results, out)
	}
	resp.Failed = len(resp.Results) - resp.Succeeded

	if !asZip {
		WriteJSON(w, resp, http.StatusOK)
		return
	}
	if resp.Succeeded == 0 {
		WriteJSON(w, resp, http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(xfdl.ArchiveName))
	if err := xfdl.WriteZip(w, batch.Results); err != nil {
		InternalError(w, "writing archive", err)
	}
}
