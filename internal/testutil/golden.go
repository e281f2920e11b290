package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden rewrites golden files instead of comparing.
// Use: go test ./... -run TestGolden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// CompareGolden compares got against testdata/<name>.golden, failing with a
// diff on mismatch. With -update the file is written instead.
func CompareGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	goldenPath := Testdata(name + ".golden")

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("Failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, got, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create:\n  go test ./... -run %s -update",
				goldenPath, string(got), t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	// Golden files may be checked out with CRLF line endings.
	expected = bytes.ReplaceAll(expected, []byte("\r\n"), []byte("\n"))
	if !bytes.Equal(got, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\n\nRun with -update to refresh:\n  go test ./... -run %s -update",
			name, lineDiff(string(expected), string(got), goldenPath), t.Name())
	}
}

// CompareGoldenJSON normalizes got with NormalizeJSON before comparing.
func CompareGoldenJSON(t *testing.T, name string, got []byte) {
	t.Helper()
	CompareGolden(t, name, NormalizeJSON(t, got))
}

// lineDiff lists differing lines with three lines of leading context.
func lineDiff(expected, got, path string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)

	exp := strings.Split(expected, "\n")
	act := strings.Split(got, "\n")
	n := max(len(exp), len(act))

	lastPrinted := -1
	for i := 0; i < n; i++ {
		var e, g string
		if i < len(exp) {
			e = exp[i]
		}
		if i < len(act) {
			g = act[i]
		}
		if e == g {
			continue
		}
		from := max(lastPrinted+1, i-3)
		if from > lastPrinted+1 {
			fmt.Fprintf(&buf, "@@ line %d @@\n", from+1)
		}
		for j := from; j < i; j++ {
			buf.WriteString(" " + exp[j] + "\n")
		}
		if i < len(exp) {
			buf.WriteString("-" + e + "\n")
		}
		if i < len(act) {
			buf.WriteString("+" + g + "\n")
		}
		lastPrinted = i
	}
	return buf.String()
}
