package main

import (
	"strings"
	"testing"
)

type humanStub struct {
	Name string `json:"name" yaml:"name"`
}

func (h humanStub) human() string { return "stub " + h.Name + "\n\n" }

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
}

func TestFormatResponse_YAML(t *testing.T) {
	result, err := FormatResponse(humanStub{Name: "grid"}, FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "name: grid" {
		t.Errorf("YAML output = %q, want %q", result, "name: grid")
	}
}

func TestFormatResponse_Human(t *testing.T) {
	tests := []struct {
		name   string
		resp   interface{}
		format OutputFormat
		want   string
	}{
		{"renderer", humanStub{Name: "grid"}, FormatHuman, "stub grid"},
		{"empty format means human", humanStub{Name: "x"}, "", "stub x"},
		{"falls back to json", map[string]int{"n": 1}, FormatHuman, "{\n  \"n\": 1\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatResponse(tt.resp, tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	resp := map[string]string{"key": "value"}

	_, err := FormatResponse(resp, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestTable(t *testing.T) {
	var b strings.Builder
	table(&b, []string{"A", "LONG"}, [][]string{{"xyz", "1"}})
	want := "A    LONG\nxyz  1\n"
	if b.String() != want {
		t.Errorf("table() = %q, want %q", b.String(), want)
	}
}

func TestListOrNone(t *testing.T) {
	if got := listOrNone(nil); got != "(none)" {
		t.Errorf("listOrNone(nil) = %q", got)
	}
	if got := listOrNone([]string{"a", "b"}); got != "a, b" {
		t.Errorf("listOrNone = %q", got)
	}
}
