package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/logging"
)

// Annotation is one marker comment the source parser found in a file.
type Annotation struct {
	Line    int    `json:"line" yaml:"line"`
	Type    string `json:"type" yaml:"type"`
	Content string `json:"content" yaml:"content"`
}

// AnnotatedFile lists the annotations of one source file. Component is the
// file name without its .js extension.
type AnnotatedFile struct {
	File        string       `json:"file" yaml:"file"`
	Component   string       `json:"component" yaml:"component"`
	Count       int          `json:"count" yaml:"count"`
	Annotations []Annotation `json:"annotations" yaml:"annotations"`
}

// AnnotationStatus is the optional annotation bundle of a snapshot. When
// the bundle could not be read, Available is false and Error says why; the
// rest of the snapshot is unaffected.
type AnnotationStatus struct {
	Available bool            `json:"available" yaml:"available"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
	Files     []AnnotatedFile `json:"files" yaml:"files"`
	Total     int             `json:"total" yaml:"total"`
}

// Filter keeps the files whose component name contains q, case
// insensitively.
func (s AnnotationStatus) Filter(q string) AnnotationStatus {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return s
	}
	out := AnnotationStatus{Available: s.Available, Error: s.Error, Files: []AnnotatedFile{}}
	for _, f := range s.Files {
		if strings.Contains(strings.ToLower(f.Component), q) {
			out.Files = append(out.Files, f)
			out.Total += f.Count
		}
	}
	return out
}

// ParseAnnotations decodes a {file: [{line, type, content}]} bundle. Files
// keep the order of the bundle; files without annotations are dropped.
func ParseAnnotations(data []byte) (AnnotationStatus, error) {
	status := AnnotationStatus{Available: true, Files: []AnnotatedFile{}}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return AnnotationStatus{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return AnnotationStatus{}, fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return AnnotationStatus{}, err
		}
		file, _ := tok.(string)
		var list []Annotation
		if err := dec.Decode(&list); err != nil {
			return AnnotationStatus{}, fmt.Errorf("annotations of %s: %w", file, err)
		}
		if len(list) == 0 {
			continue
		}
		status.Files = append(status.Files, AnnotatedFile{
			File:        file,
			Component:   strings.TrimSuffix(file, ".js"),
			Count:       len(list),
			Annotations: list,
		})
		status.Total += len(list)
	}
	if _, err := dec.Token(); err != nil {
		return AnnotationStatus{}, err
	}
	return status, nil
}

// loadAnnotations reads the annotation bundle of version. Failures are
// logged and reported in the status, never returned.
func (l *Loader) loadAnnotations(ctx context.Context, version, rel string) AnnotationStatus {
	full := path.Join(version, rel)
	unavailable := func(msg string, err error) AnnotationStatus {
		l.logger.Warn("Annotation data unavailable", logging.Fields{
			"version": version,
			"error":   err.Error(),
		})
		return AnnotationStatus{Error: msg, Files: []AnnotatedFile{}}
	}

	data, err := l.fetcher.Fetch(ctx, full)
	if err != nil {
		if nxerrors.HasCode(err, nxerrors.NotFound) {
			return unavailable("annotation data not found", err)
		}
		return unavailable("could not load annotation details", err)
	}
	status, err := ParseAnnotations(data)
	if err != nil {
		return unavailable("could not decode "+l.fetcher.Location(full), err)
	}
	return status
}
