package xfdl

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"

	nxerrors "nxmeta/internal/errors"
)

// ArchiveName is the download name of a batch archive.
const ArchiveName = "CATS_Samples.zip"

// File is one input form.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// FileResult is the outcome for one input. Err is set when the file could
// not be rewritten; the other files of the batch are unaffected.
type FileResult struct {
	Name       string `json:"name"`
	OutputName string `json:"outputName,omitempty"`
	Component  string `json:"component,omitempty"`
	Content    string `json:"-"`
	Err        error  `json:"-"`
}

// OK reports whether the file was rewritten.
func (r FileResult) OK() bool { return r.Err == nil }

// BatchOptions are shared by every file of a batch. Date must already be
// resolved by the caller (see Today).
type BatchOptions struct {
	Author     string
	Date       string
	NewName    string
	Convention Convention
}

// BatchResult holds per-file results in input order.
type BatchResult struct {
	RunID   string       `json:"runId"`
	Results []FileResult `json:"results"`
}

// Succeeded counts files without error.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (b BatchResult) Failed() []FileResult {
	var out []FileResult
	for _, r := range b.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// RewriteFile rewrites one form: the component name comes from the file
// name, the script is edited and put back, and the output name uses the new
// component name (or the current one when no new name is given).
func (r *Rewriter) RewriteFile(f File, opts BatchOptions) FileResult {
	res := FileResult{Name: f.Name}
	conv := opts.Convention.withDefaults()

	current, _ := conv.ComponentName(filepath.Base(f.Name))
	target := opts.NewName
	if target == "" {
		target = current
	}
	if target == "" {
		res.Err = nxerrors.New(nxerrors.BatchFileFailed,
			fmt.Sprintf("%s: file name does not follow %s<name>_*%s and no new name was given", f.Name, conv.Prefix, conv.Ext), nil)
		return res
	}

	script, found := ExtractScript(f.Content)
	if !found {
		res.Err = nxerrors.New(nxerrors.BatchFileFailed, f.Name+": no xscript5.1 script block", nil)
		return res
	}

	script = r.Rewrite(script, Edit{Author: opts.Author, Date: opts.Date, OldName: current, NewName: target})
	content, _ := ReplaceScript(f.Content, script)

	res.Component = target
	res.OutputName = conv.OutputName(target)
	res.Content = content
	return res
}

// RewriteBatch processes files sequentially. A failing file is recorded and
// processing continues. Output names that collide get a numeric suffix.
func (r *Rewriter) RewriteBatch(files []File, opts BatchOptions) BatchResult {
	result := BatchResult{RunID: uuid.NewString(), Results: make([]FileResult, 0, len(files))}
	used := map[string]int{}
	for _, f := range files {
		res := r.RewriteFile(f, opts)
		if res.OK() {
			res.OutputName = uniqueName(res.OutputName, used)
		}
		result.Results = append(result.Results, res)
	}
	return result
}

func uniqueName(name string, used map[string]int) string {
	used[name]++
	n := used[name]
	if n == 1 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
	for used[candidate] > 0 {
		n++
		candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
	used[candidate] = 1
	return candidate
}

// WriteZip stores every successful result in a zip archive.
func WriteZip(w io.Writer, results []FileResult) error {
	zw := zip.NewWriter(w)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		fw, err := zw.Create(r.OutputName)
		if err != nil {
			return nxerrors.New(nxerrors.ExportFailed, "adding "+r.OutputName+" to archive", err)
		}
		if _, err := io.WriteString(fw, r.Content); err != nil {
			return nxerrors.New(nxerrors.ExportFailed, "writing "+r.OutputName, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nxerrors.New(nxerrors.ExportFailed, "closing archive", err)
	}
	return nil
}
