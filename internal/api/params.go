package api

import (
	"net/http"
	"strconv"
	"strings"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
)

// RequiredQuery returns a trimmed query parameter or an InvalidArgument
// error when it is missing.
func RequiredQuery(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", nxerrors.Newf(nxerrors.InvalidArgument, "missing required query parameter %q", name)
	}
	return v, nil
}

// QueryParam returns a trimmed query parameter or defaultVal.
func QueryParam(r *http.Request, name, defaultVal string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		return v
	}
	return defaultVal
}

// QueryParamInt extracts an integer query parameter with a default value
func QueryParamInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// QueryParamBool extracts a boolean query parameter with a default value
func QueryParamBool(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1" || val == "yes"
}

// ExportFormat reads the "format" parameter. "json" is returned as an empty
// Format so callers can answer with the JSON body instead of a file.
func ExportFormat(r *http.Request) (export.Format, error) {
	switch f := strings.ToLower(QueryParam(r, "format", "json")); f {
	case "json":
		return "", nil
	case string(export.FormatCSV), string(export.FormatXLSX), string(export.FormatText):
		return export.Format(f), nil
	default:
		return "", nxerrors.Newf(nxerrors.InvalidArgument, "unsupported format %q, use json, csv, xlsx or text", f)
	}
}
