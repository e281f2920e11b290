package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"nxmeta/internal/dataset"
	"nxmeta/internal/grouping"
	"nxmeta/internal/logging"
	"nxmeta/internal/report"
	"nxmeta/internal/testutil"
	"nxmeta/internal/xfdl"
)

func fixedNow() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

// newTestServer creates a server with the fixture dataset loaded
func newTestServer(t *testing.T) *Server {
	t.Helper()

	root := testutil.WriteDataset(t)
	loader := dataset.NewLoader(dataset.Options{Root: root, Now: fixedNow})
	holder := &dataset.Holder{}
	if _, err := loader.Reload(context.Background(), holder, testutil.FixtureVersion); err != nil {
		t.Fatalf("Failed to load fixture dataset: %v", err)
	}

	cfg := DefaultServerConfig()
	cfg.Now = fixedNow
	server, err := NewServer(":0", holder, loader, logging.Nop(), cfg)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse response: %v\n%s", err, w.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp HealthResponse
	decode(t, w, &resp)
	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got %q", resp.Status)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}

	w = do(t, server, http.MethodPost, "/health", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health: expected 405, got %d", w.Code)
	}
}

func TestReadyEndpoint(t *testing.T) {
	server := newTestServer(t)
	w := do(t, server, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp ReadyResponse
	decode(t, w, &resp)
	if resp.Dataset == nil || resp.Dataset.Version != testutil.FixtureVersion {
		t.Errorf("Dataset = %+v, want version %s", resp.Dataset, testutil.FixtureVersion)
	}

	empty, err := NewServer(":0", &dataset.Holder{}, nil, nil, DefaultServerConfig())
	if err != nil {
		t.Fatal(err)
	}
	if w := do(t, empty, http.MethodGet, "/ready", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready without dataset: expected 503, got %d", w.Code)
	}
	if w := do(t, empty, http.MethodGet, "/groups", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("groups without dataset: expected 503, got %d", w.Code)
	}
}

func TestGroupsEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/groups", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp GroupsResponse
	decode(t, w, &resp)
	if resp.Total != 5 {
		t.Errorf("Total = %d, want 5", resp.Total)
	}
	want := []string{"nexacro.Button", "nexacro.Component", "nexacro.Grid"}
	if got := resp.Groups[grouping.Component]; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Component group = %v, want %v", got, want)
	}

	w = do(t, server, http.MethodGet, "/groups?q=GRID", nil)
	decode(t, w, &resp)
	if resp.Total != 2 {
		t.Errorf("filtered Total = %d, want 2", resp.Total)
	}
	if got := resp.Groups[grouping.Control]; len(got) != 1 || got[0] != "nexacro.GridControl" {
		t.Errorf("filtered Control group = %v", got)
	}
}

func TestLineageEndpoint(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name      string
		target    string
		wantFound bool
		wantPath  []string
	}{
		{"grid", "nexacro.Grid", true, []string{"nexacro._EventSinkObject", "nexacro.Component", "nexacro.Grid"}},
		{"root itself", "nexacro._EventSinkObject", true, []string{"nexacro._EventSinkObject"}},
		{"detached root", "nexacro.ClickEventInfo", false, []string{}},
		{"unknown", "nexacro.Nope", false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, server, http.MethodGet, "/lineage?target="+tt.target, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp lineageResponse
			decode(t, w, &resp)
			if resp.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v", resp.Found, tt.wantFound)
			}
			if strings.Join(resp.Path, ",") != strings.Join(tt.wantPath, ",") {
				t.Errorf("Path = %v, want %v", resp.Path, tt.wantPath)
			}
			wantHead := tt.target
			if tt.wantFound {
				wantHead = tt.wantPath[0]
			}
			if resp.Tree == nil || resp.Tree.Name != wantHead {
				t.Errorf("Tree = %+v, want head %s", resp.Tree, wantHead)
			}
		})
	}

	if w := do(t, server, http.MethodGet, "/lineage", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing target: expected 400, got %d", w.Code)
	}
}

func TestLineageCache(t *testing.T) {
	server := newTestServer(t)
	m := server.Metrics()

	do(t, server, http.MethodGet, "/lineage?target=nexacro.Grid", nil)
	do(t, server, http.MethodGet, "/lineage?target=nexacro.Grid", nil)

	if got := promtest.ToFloat64(m.lineageLookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := promtest.ToFloat64(m.lineageLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}

	// A reload purges the cache.
	if w := do(t, server, http.MethodPost, "/reload", nil); w.Code != http.StatusOK {
		t.Fatalf("reload: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	do(t, server, http.MethodGet, "/lineage?target=nexacro.Grid", nil)
	if got := promtest.ToFloat64(m.lineageLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses after reload = %v, want 2", got)
	}
}

func TestLineageCacheIgnoresReplacedSnapshot(t *testing.T) {
	server := newTestServer(t)
	m := server.Metrics()
	old := server.holder.Current()

	if w := do(t, server, http.MethodPost, "/reload", nil); w.Code != http.StatusOK {
		t.Fatalf("reload: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if server.holder.Current() == old {
		t.Fatal("reload should publish a new snapshot")
	}

	// A request that started before the reload finishes after the purge.
	server.lineageFor(old, "nexacro.Grid", server.config.LineageRoot)
	misses := promtest.ToFloat64(m.lineageLookups.WithLabelValues("miss"))

	do(t, server, http.MethodGet, "/lineage?target=nexacro.Grid", nil)
	if got := promtest.ToFloat64(m.lineageLookups.WithLabelValues("miss")); got != misses+1 {
		t.Errorf("lookup against the new snapshot hit an entry from the old one (misses %v, want %v)", got, misses+1)
	}
}

func TestAnnotationsEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/annotations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp AnnotationsResponse
	decode(t, w, &resp)
	if !resp.Available || len(resp.Files) != 2 || resp.Total != 3 {
		t.Errorf("annotations = %+v", resp)
	}
	if resp.Files[0].Component != "Grid" {
		t.Errorf("first file = %q, want bundle order", resp.Files[0].Component)
	}

	w = do(t, server, http.MethodGet, "/annotations?q=control", nil)
	decode(t, w, &resp)
	if len(resp.Files) != 1 || resp.Files[0].Component != "GridControl" {
		t.Errorf("filtered files = %+v", resp.Files)
	}

	if w := do(t, server, http.MethodPost, "/annotations", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /annotations: expected 405, got %d", w.Code)
	}
}

func TestAnnotationsUnavailable(t *testing.T) {
	root := testutil.WriteDataset(t)
	if err := os.Remove(filepath.Join(root, testutil.FixtureVersion, "codebase", "output_annotations.json")); err != nil {
		t.Fatal(err)
	}
	loader := dataset.NewLoader(dataset.Options{Root: root, Now: fixedNow})
	holder := &dataset.Holder{}
	if _, err := loader.Reload(context.Background(), holder, testutil.FixtureVersion); err != nil {
		t.Fatalf("load without annotations failed: %v", err)
	}
	server, err := NewServer(":0", holder, loader, logging.Nop(), DefaultServerConfig())
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, server, http.MethodGet, "/annotations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp AnnotationsResponse
	decode(t, w, &resp)
	if resp.Available || resp.Error == "" {
		t.Errorf("annotations = %+v, want unavailable with an error", resp)
	}
}

func TestChildrenEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/children?name=nexacro.Component", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp ChildrenResponse
	decode(t, w, &resp)
	want := "nexacro.Grid,nexacro.Button,nexacro.GridControl"
	if got := strings.Join(resp.Children, ","); got != want {
		t.Errorf("Children = %s, want %s", got, want)
	}

	if w := do(t, server, http.MethodGet, "/children?name=nexacro.Nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown name: expected 404, got %d", w.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/compare?component=nexacro.Grid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Properties struct {
			Common  []string `json:"common"`
			OnlyInA []string `json:"onlyInA"`
			OnlyInB []string `json:"onlyInB"`
		} `json:"properties"`
		Events struct {
			OnlyInB []string `json:"onlyInB"`
		} `json:"events"`
	}
	decode(t, w, &resp)
	if got := strings.Join(resp.Properties.Common, ","); got != "autofittype,left" {
		t.Errorf("Common = %s", got)
	}
	if got := strings.Join(resp.Properties.OnlyInA, ","); got != "binddataset,top" {
		t.Errorf("OnlyInA = %s", got)
	}
	if got := strings.Join(resp.Properties.OnlyInB, ","); got != "selecttype" {
		t.Errorf("OnlyInB = %s", got)
	}
	if got := strings.Join(resp.Events.OnlyInB, ","); got != "onheadclick" {
		t.Errorf("Events.OnlyInB = %s", got)
	}

	w = do(t, server, http.MethodGet, "/compare?component=nexacro.GridControl", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("component without data: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"common":[]`) {
		t.Errorf("expected empty buckets, got %s", w.Body.String())
	}
}

func TestReconcileEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/reconcile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp ReconcileResponse
	decode(t, w, &resp)
	if len(resp.Rows) != 4 {
		t.Fatalf("Rows = %d, want 4: %+v", len(resp.Rows), resp.Rows)
	}
	first := resp.Rows[0]
	if first.Component != "nexacro.Button" || first.Common != 3 {
		t.Errorf("first row = %+v", first)
	}
	if resp.Properties.Components != 2 || resp.Events.Components != 2 {
		t.Errorf("summaries = %+v / %+v", resp.Properties, resp.Events)
	}

	w = do(t, server, http.MethodGet, "/reconcile?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("csv: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Missing in Metainfo") {
		t.Errorf("csv body lacks header: %q", w.Body.String())
	}

	if w := do(t, server, http.MethodGet, "/reconcile?format=pdf", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad format: expected 400, got %d", w.Code)
	}
}

func TestLineageReportEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/report/lineage?target=nexacro.Grid", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var rep report.LineageReport
	decode(t, w, &rep)
	if len(rep.PathRows) != 3 || len(rep.PropertyRows) != 4 || len(rep.EventRows) != 2 {
		t.Errorf("report = %+v", rep)
	}
	if rep.PropertyRows[0] != (report.ItemRow{Component: "nexacro.Component", Item: "left"}) {
		t.Errorf("first property row = %+v", rep.PropertyRows[0])
	}

	w = do(t, server, http.MethodGet, "/report/lineage?target=nexacro.Grid&format=xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("xlsx: expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "nexacro.Grid_analysis.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	w = do(t, server, http.MethodGet, "/report/lineage?target=nexacro.Grid&format=csv&sheet=Events", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("csv: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "nexacro.Grid,oncellclick") {
		t.Errorf("csv body = %q", w.Body.String())
	}

	if w := do(t, server, http.MethodGet, "/report/lineage?target=nexacro.ClickEventInfo", nil); w.Code != http.StatusNotFound {
		t.Errorf("no lineage: expected 404, got %d", w.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodPost, "/reload?version=WORK900", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("missing version: expected 502, got %d", w.Code)
	}
	var errResp ErrorResponse
	decode(t, w, &errResp)
	if errResp.Code != "FETCH_FAILED" {
		t.Errorf("Code = %q, want FETCH_FAILED", errResp.Code)
	}
	if v := server.holder.Current().Version; v != testutil.FixtureVersion {
		t.Errorf("failed reload replaced the dataset: %s", v)
	}

	w = do(t, server, http.MethodPost, "/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp ReloadResponse
	decode(t, w, &resp)
	if resp.Previous != testutil.FixtureVersion || resp.Current.Edges != 5 {
		t.Errorf("reload response = %+v", resp)
	}

	if w := do(t, server, http.MethodGet, "/reload", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /reload: expected 405, got %d", w.Code)
	}
}

func TestInfoEndpoints(t *testing.T) {
	server := newTestServer(t)
	info, err := os.ReadFile(filepath.Join("..", "infodoc", "testdata", "Button.info"))
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, server, http.MethodPost, "/info/parse", info)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Counts   map[string]int `json:"counts"`
		Document struct {
			ObjectID string `json:"objectId"`
		} `json:"document"`
	}
	decode(t, w, &resp)
	if resp.Document.ObjectID != "nexacro.Button" {
		t.Errorf("ObjectID = %q", resp.Document.ObjectID)
	}
	if resp.Counts["PropertyInfo"] != 3 {
		t.Errorf("PropertyInfo count = %d, want 3", resp.Counts["PropertyInfo"])
	}

	w = do(t, server, http.MethodPost, "/info/parse", []byte("<MetaInfo><Object"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed INFO: expected 422, got %d", w.Code)
	}

	w = do(t, server, http.MethodPost, "/info/csv?report=methods", info)
	if w.Code != http.StatusOK {
		t.Fatalf("csv: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Body.String(), "\ufeff") {
		t.Error("csv should start with a byte order mark")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Methods_Report.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	if w := do(t, server, http.MethodPost, "/info/parse", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty body: expected 400, got %d", w.Code)
	}
}

const formScript = `
/**
 * 작성자 : hong
 * 작성일 : 2023.01.01
 */
this.Grid00_onclick = function(obj, e) {};
`

func formXML(script string) string {
	return "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<FDL version=\"2.1\">\n  <Form id=\"A_Grid\">\n" +
		`    <Script type="xscript5.1"><![CDATA[` + script + `]]></Script>` +
		"\n  </Form>\n</FDL>\n"
}

func TestXfdlEndpoints(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodPost, "/xfdl/extract", []byte(formXML(formScript)))
	var ext ExtractResponse
	decode(t, w, &ext)
	if !ext.Found || !strings.Contains(ext.Script, "작성자 : hong") {
		t.Errorf("extract = %+v", ext)
	}

	body, _ := json.Marshal(RewriteRequest{
		Files: []xfdl.File{
			{Name: "A_Grid_01.xfdl", Content: formXML(formScript)},
			{Name: "notes.xfdl", Content: formXML(formScript)},
		},
		Author: "kim",
	})
	w = do(t, server, http.MethodPost, "/xfdl/rewrite", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp RewriteResponse
	decode(t, w, &resp)
	if resp.Date != "2024.05.01" {
		t.Errorf("Date = %q, want today", resp.Date)
	}
	if resp.Succeeded != 1 || resp.Failed != 1 {
		t.Fatalf("succeeded/failed = %d/%d", resp.Succeeded, resp.Failed)
	}
	ok := resp.Results[0]
	if ok.OutputName != "A_Grid_all.xfdl" || !strings.Contains(ok.Content, "작성자 : kim") || !strings.Contains(ok.Content, "작성일 : 2024.05.01") {
		t.Errorf("rewritten file = %+v", ok)
	}
	if resp.Results[1].Code != "BATCH_FILE_FAILED" {
		t.Errorf("failed file code = %q", resp.Results[1].Code)
	}

	w = do(t, server, http.MethodPost, "/xfdl/rewrite?format=zip", body)
	if w.Code != http.StatusOK {
		t.Fatalf("zip: expected 200, got %d", w.Code)
	}
	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "A_Grid_all.xfdl" {
		t.Errorf("archive entries = %v", zr.File)
	}

	if w := do(t, server, http.MethodPost, "/xfdl/rewrite", []byte(`{"files":[]}`)); w.Code != http.StatusBadRequest {
		t.Errorf("no files: expected 400, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)
	do(t, server, http.MethodGet, "/groups", nil)

	w := do(t, server, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	for _, want := range []string{
		`nxmeta_http_requests_total{method="GET",route="/groups",status="200"} 1`,
		`nxmeta_dataset_edges 5`,
		`nxmeta_dataset_components{category="Component"} 3`,
	} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("metrics output lacks %q", want)
		}
	}
}

func TestUnknownPath(t *testing.T) {
	server := newTestServer(t)
	if w := do(t, server, http.MethodGet, "/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
