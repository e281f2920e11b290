// Package testutil provides fixtures and golden-file helpers shared by tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// FixtureVersion is the dataset version written by WriteDataset.
const FixtureVersion = "WORK800"

// DatasetFiles is a small but complete bundle tree. Grid and Button share
// the nexacro.Component base; GridControl is a control and
// ClickEventInfo hangs off a detached EventInfo root.
var DatasetFiles = map[string]string{
	"codebase/output.json": `[
		{"child": "nexacro.Component", "parent": "nexacro._EventSinkObject"},
		{"child": "nexacro.Grid", "parent": "nexacro.Component"},
		{"child": "nexacro.Button", "parent": "nexacro.Component"},
		{"child": "nexacro.GridControl", "parent": "nexacro.Component"},
		{"child": "nexacro.ClickEventInfo", "parent": "nexacro.EventInfo"}
	]`,
	"codebase/output_property.json": `[
		{"componentname": "Component", "properties": ["left", "top"]},
		{"componentname": "Grid", "properties": ["binddataset", "autofittype"]},
		{"componentname": "Button", "properties": ["text"]}
	]`,
	"codebase/output_event.json": `[
		{"componentname": "Component", "events": ["onclick"]},
		{"componentname": "Grid", "events": ["oncellclick"]}
	]`,
	"codebase/all_component_properties.json": `[
		{"componentname": "Grid", "properties": ["autofittype", "binddataset", "left", "top"]},
		{"componentname": "Button", "properties": ["left", "text", "top"]}
	]`,
	"metainfo/output_property_metainfo.json": `[
		{"componentname": "Grid", "properties": ["autofittype", "left", "selecttype"]},
		{"componentname": "Button", "properties": ["left", "text", "top"]}
	]`,
	"metainfo/output_event_metainfo.json": `[
		{"componentname": "Grid", "events": ["oncellclick", "onheadclick"]}
	]`,
	"aggregated_component_names.json": `["Grid", "Button"]`,
	"codebase/output_annotations.json": `{
		"Grid.js": [
			{"line": 120, "type": "TODO", "content": "autofittype for merged cells"},
			{"line": 348, "type": "FIXME", "content": "binddataset reset on reload"}
		],
		"Button.js": [],
		"GridControl.js": [{"line": 9, "type": "TODO", "content": "focus border"}]
	}`,
}

// WriteTree writes files (slash-separated relative paths) under a fresh
// temporary directory and returns it.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", p, err)
		}
	}
	return root
}

// WriteDataset writes DatasetFiles under <root>/<FixtureVersion> and
// returns root.
func WriteDataset(t *testing.T) string {
	t.Helper()
	files := make(map[string]string, len(DatasetFiles))
	for rel, content := range DatasetFiles {
		files[FixtureVersion+"/"+rel] = content
	}
	return WriteTree(t, files)
}

// Testdata returns the path of name under the calling package's testdata
// directory.
func Testdata(name string) string {
	return filepath.Join("testdata", filepath.FromSlash(name))
}
