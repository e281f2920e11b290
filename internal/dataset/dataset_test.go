package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/grouping"
)

var bundleFiles = map[string]string{
	"codebase/output.json": `[
		{"child": "nexacro.Component", "parent": "nexacro._EventSinkObject"},
		{"child": "nexacro.Grid", "parent": "nexacro.Component"},
		{"child": "nexacro.GridControl", "parent": "nexacro.Component"},
		{"child": "nexacro.ClickEventInfo", "parent": "nexacro.EventInfo"}
	]`,
	"codebase/output_property.json":          `[{"componentname": "Grid", "properties": ["binddataset"]}]`,
	"codebase/output_event.json":             `[{"componentname": "Grid", "events": ["oncellclick"]}]`,
	"codebase/all_component_properties.json": `[{"componentname": "Grid", "properties": ["binddataset", "left"]}]`,
	"metainfo/output_property_metainfo.json": `[{"componentname": "Grid", "properties": ["left", "autofittype"]}]`,
	"metainfo/output_event_metainfo.json":    `[{"componentname": "Grid", "events": ["oncellclick"]}]`,
	"aggregated_component_names.json":        `["Grid", "Button"]`,
}

func writeTree(t *testing.T, version string, skip string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range bundleFiles {
		if rel == skip {
			continue
		}
		p := filepath.Join(root, version, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

func TestLoadFromDirectory(t *testing.T) {
	root := writeTree(t, DefaultVersion, "")
	l := NewLoader(Options{Root: root, Now: fixedNow})

	snap, err := l.Load(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultVersion, snap.Version)
	assert.Equal(t, fixedNow(), snap.LoadedAt)
	assert.Len(t, snap.Edges, 4)
	assert.Equal(t, []string{"binddataset"}, snap.CodebaseProperties["Grid"])
	assert.Equal(t, []string{"oncellclick"}, snap.AllComponentEvents["Grid"])
	assert.Equal(t, []string{"Grid", "Button"}, snap.ComponentNames)

	assert.Equal(t, []string{"nexacro.Component", "nexacro.Grid"}, snap.Groups[grouping.Component])
	assert.Equal(t, []string{"nexacro.GridControl"}, snap.Groups[grouping.Control])
	assert.Equal(t, []string{"nexacro.ClickEventInfo"}, snap.Groups[grouping.EventInfo])

	chain, ok := snap.Resolver.Path("nexacro.Grid", "nexacro._EventSinkObject")
	require.True(t, ok)
	assert.Len(t, chain, 3)

	src := snap.Sources()
	assert.Equal(t, []string{"binddataset", "left"}, src.CodebaseProperties["Grid"])

	st := snap.Stats()
	assert.Equal(t, 4, st.Edges)
	assert.Equal(t, 4, st.Components)
	assert.Equal(t, 2, st.Groups[grouping.Component])
}

func TestLoadMissingBundleFailsWhole(t *testing.T) {
	root := writeTree(t, "WORK900", "metainfo/output_event_metainfo.json")
	l := NewLoader(Options{Root: root})

	snap, err := l.Load(context.Background(), "WORK900")
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.Equal(t, nxerrors.FetchFailed, nxerrors.CodeOf(err))
	assert.True(t, nxerrors.HasCode(err, nxerrors.NotFound))
}

func TestLoadBadJSON(t *testing.T) {
	root := writeTree(t, DefaultVersion, "")
	p := filepath.Join(root, DefaultVersion, "codebase", "output.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))

	_, err := NewLoader(Options{Root: root}).Load(context.Background(), "")
	assert.Equal(t, nxerrors.FetchFailed, nxerrors.CodeOf(err))
}

func TestLoadOverHTTP(t *testing.T) {
	root := writeTree(t, DefaultVersion, "")
	srv := httptest.NewServer(http.FileServer(http.Dir(root)))
	defer srv.Close()

	l := NewLoader(Options{Root: srv.URL + "/"})
	snap, err := l.Load(context.Background(), DefaultVersion)
	require.NoError(t, err)
	assert.Len(t, snap.Edges, 4)

	_, err = l.Load(context.Background(), "WORK000")
	assert.Equal(t, nxerrors.FetchFailed, nxerrors.CodeOf(err))
}

func TestHTTPFetcherStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = w.Write([]byte(`[]`))
		case "/boom.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, nil)
	data, err := f.Fetch(context.Background(), "ok.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	_, err = f.Fetch(context.Background(), "boom.json")
	assert.Equal(t, nxerrors.FetchFailed, nxerrors.CodeOf(err))

	_, err = f.Fetch(context.Background(), "gone.json")
	assert.Equal(t, nxerrors.NotFound, nxerrors.CodeOf(err))

	assert.Equal(t, srv.URL+"/WORK800/codebase/output.json", f.Location("WORK800/codebase/output.json"))
}

func TestManifestOverride(t *testing.T) {
	root := writeTree(t, DefaultVersion, "")
	moved := filepath.Join(root, DefaultVersion, "codebase", "edges_v2.json")
	require.NoError(t, os.Rename(filepath.Join(root, DefaultVersion, "codebase", "output.json"), moved))
	manifest := "edges = \"codebase/edges_v2.json\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestFile), []byte(manifest), 0o644))

	snap, err := NewLoader(Options{Root: root}).Load(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, snap.Edges, 4)
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte("[metainfo]\nevents = \"meta/ev.json\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "meta/ev.json", m.Metainfo.Events)
	assert.Equal(t, DefaultManifest().Metainfo.Properties, m.Metainfo.Properties)
	assert.Equal(t, DefaultManifest().Edges, m.Edges)

	_, err = ParseManifest([]byte("edges = ["))
	assert.Equal(t, nxerrors.InvalidArgument, nxerrors.CodeOf(err))

	data, err := DefaultManifest().Marshal()
	require.NoError(t, err)
	back, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultManifest(), back)
}

func TestHolderSwap(t *testing.T) {
	root := writeTree(t, DefaultVersion, "")
	l := NewLoader(Options{Root: root})
	var h Holder
	assert.Nil(t, h.Current())

	first, err := l.Reload(context.Background(), &h, "")
	require.NoError(t, err)
	assert.Same(t, first, h.Current())

	_, err = l.Reload(context.Background(), &h, "MISSING")
	require.Error(t, err)
	assert.Same(t, first, h.Current(), "failed reload keeps the previous snapshot")

	second := NewSnapshot("X", Bundles{}, "", fixedNow())
	assert.Same(t, first, h.Store(second))
	assert.Same(t, second, h.Current())
}

const annotationsBundle = `{
	"Grid.js": [
		{"line": 12, "type": "TODO", "content": "handle rowcount"},
		{"line": 40, "type": "FIXME", "content": "binddataset reset"}
	],
	"Button.js": [],
	"Edit.js": [{"line": 3, "type": "TODO", "content": "mask"}]
}`

func TestParseAnnotations(t *testing.T) {
	status, err := ParseAnnotations([]byte(annotationsBundle))
	require.NoError(t, err)

	assert.True(t, status.Available)
	require.Len(t, status.Files, 2)
	assert.Equal(t, "Grid.js", status.Files[0].File)
	assert.Equal(t, "Grid", status.Files[0].Component)
	assert.Equal(t, 2, status.Files[0].Count)
	assert.Equal(t, Annotation{Line: 3, Type: "TODO", Content: "mask"}, status.Files[1].Annotations[0])
	assert.Equal(t, 3, status.Total)

	edit := status.Filter("ed")
	require.Len(t, edit.Files, 1)
	assert.Equal(t, 1, edit.Total)

	_, err = ParseAnnotations([]byte(`[1, 2]`))
	assert.Error(t, err)
	_, err = ParseAnnotations([]byte(`{"Grid.js": {"line": 1}}`))
	assert.Error(t, err)
}

func TestLoadAnnotationsOptional(t *testing.T) {
	tests := []struct {
		name      string
		bundle    string
		available bool
		files     int
	}{
		{"present", annotationsBundle, true, 2},
		{"missing", "", false, 0},
		{"malformed", "{not json", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, DefaultVersion, "")
			if tt.bundle != "" {
				p := filepath.Join(root, DefaultVersion, "codebase", "output_annotations.json")
				require.NoError(t, os.WriteFile(p, []byte(tt.bundle), 0o644))
			}

			snap, err := NewLoader(Options{Root: root}).Load(context.Background(), "")
			require.NoError(t, err, "annotation problems must not fail the load")
			assert.Len(t, snap.Edges, 4)
			assert.Equal(t, tt.available, snap.Annotations.Available)
			assert.Len(t, snap.Annotations.Files, tt.files)
			if !tt.available {
				assert.NotEmpty(t, snap.Annotations.Error)
			}
		})
	}
}
