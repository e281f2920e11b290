package xfdl

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxerrors "nxmeta/internal/errors"
)

const sampleScript = `
/**
 * 화면명 : Grid 샘플
 * 작성자 : hong
 * 작성일 : 2023.01.01
 */
this.Grid00_onclick = function(obj, e) {
	this.Grid00.set_binddataset("ds");
};
`

func form(script string) string {
	return "<?xml version=\"1.0\" encoding=\"utf-8\"?>\r\n<FDL version=\"2.1\">\r\n  <Form id=\"A_Grid\">\r\n" +
		`    <Script type="xscript5.1"><![CDATA[` + script + `]]></Script>` +
		"\r\n  </Form>\r\n</FDL>\r\n"
}

func TestExtractScript(t *testing.T) {
	got, ok := ExtractScript(form(sampleScript))
	assert.True(t, ok)
	assert.Equal(t, strings.TrimSpace(sampleScript), got)

	got, ok = ExtractScript("<FDL><Form/></FDL>")
	assert.False(t, ok)
	assert.Equal(t, NotFoundPlaceholder, got)

	// Other script types are not the designated block.
	_, ok = ExtractScript(`<Script type="xscript4.0"><![CDATA[x]]></Script>`)
	assert.False(t, ok)
}

func TestReplaceScriptKeepsSurroundingBytes(t *testing.T) {
	doc := form(sampleScript) + form("second")
	out, ok := ReplaceScript(doc, "new $1 body")
	require.True(t, ok)

	prefix := doc[:strings.Index(doc, "<![CDATA[")+len("<![CDATA[")]
	assert.True(t, strings.HasPrefix(out, prefix))
	assert.True(t, strings.HasSuffix(out, form("second")), "only the first block is replaced")
	assert.Contains(t, out, "<![CDATA[new $1 body]]></Script>")

	same, ok := ReplaceScript("<FDL/>", "x")
	assert.False(t, ok)
	assert.Equal(t, "<FDL/>", same)
}

func TestReplaceScriptEscapesCDATAEnd(t *testing.T) {
	out, ok := ReplaceScript(form("old"), `var s = "]]>";`)
	require.True(t, ok)
	got, ok := ExtractScript(out)
	require.True(t, ok)
	assert.Equal(t, `var s = "]]>";`, got)
}

func TestComponentNameFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"A_Grid_01.xfdl", "Grid", true},
		{"A_Button_sample_all.xfdl", "Button", true},
		{"A_Grid.xfdl", "", false},
		{"B_Grid_01.xfdl", "", false},
		{"A_Grid_01.xml", "", false},
		{"A__01.xfdl", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComponentNameFromFilename(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	conv := Convention{Prefix: "S_", Ext: ".txt"}
	got, ok := conv.ComponentName("S_Tab_x.txt")
	assert.True(t, ok)
	assert.Equal(t, "Tab", got)
	assert.Equal(t, "S_Tab_all.txt", conv.OutputName("Tab"))
	assert.Equal(t, "A_Tab_all.xfdl", Convention{}.OutputName("Tab"))
}

func TestRewrite(t *testing.T) {
	r := NewRewriter(CompareExact)

	tests := []struct {
		name   string
		script string
		edit   Edit
		want   string
	}{
		{
			name:   "comment header",
			script: " * 작성자 : hong\r\n * 작성일 : 2023.01.01\r\n",
			edit:   Edit{Author: "kim", Date: "2024.05.01"},
			want:   " * 작성자 : kim\r\n * 작성일 : 2024.05.01\r\n",
		},
		{
			name:   "jsdoc fallback",
			script: "/** @author hong\n * @creation 2023.01.01\n */",
			edit:   Edit{Author: "kim", Date: "2024.05.01"},
			want:   "/** @author kim\n * @creation 2024.05.01\n */",
		},
		{
			name:   "comment rule wins over jsdoc",
			script: "* 작성자 : a\n@author b\n",
			edit:   Edit{Author: "c"},
			want:   "* 작성자 : c\n@author b\n",
		},
		{
			name:   "first occurrence only",
			script: "* 작성자 : a\n* 작성자 : b\n",
			edit:   Edit{Author: "c"},
			want:   "* 작성자 : c\n* 작성자 : b\n",
		},
		{
			name:   "no header leaves script unchanged",
			script: "var x = 1;",
			edit:   Edit{Author: "kim", Date: "2024.05.01"},
			want:   "var x = 1;",
		},
		{
			name:   "dollar signs are literal",
			script: "@author x\n",
			edit:   Edit{Author: "$1 $&"},
			want:   "@author $1 $&\n",
		},
		{
			name:   "rename is global and blunt",
			script: "this.Grid00.set_text('Grid');",
			edit:   Edit{OldName: "Grid", NewName: "ListView"},
			want:   "this.ListView00.set_text('ListView');",
		},
		{
			name:   "rename is literal, not a pattern",
			script: "a.b axb",
			edit:   Edit{OldName: "a.b", NewName: "c"},
			want:   "c axb",
		},
		{
			name:   "same name is a no-op",
			script: "Grid",
			edit:   Edit{OldName: "Grid", NewName: "Grid"},
			want:   "Grid",
		},
		{
			name:   "case-only difference renames under exact comparison",
			script: "Grid",
			edit:   Edit{OldName: "Grid", NewName: "grid"},
			want:   "grid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Rewrite(tt.script, tt.edit))
		})
	}
}

func TestRewriteFoldComparison(t *testing.T) {
	r := NewRewriter(CompareFold)
	assert.Equal(t, "Grid", r.Rewrite("Grid", Edit{OldName: "Grid", NewName: "GRID"}))
	assert.Equal(t, "Tab", r.Rewrite("Grid", Edit{OldName: "Grid", NewName: "Tab"}))
}

func TestApplyFieldReportsRule(t *testing.T) {
	r := NewRewriter("")
	_, rule := r.ApplyField("@creation 2020.01.01", FieldDate, "2021.01.01")
	assert.Equal(t, "jsdoc-creation", rule)
	_, rule = r.ApplyField("nothing", FieldDate, "2021.01.01")
	assert.Equal(t, "", rule)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	content := `
[[rule]]
name = "modifier"
field = "author"
pattern = '(\*[ \t]*수정자[ \t]*:[ \t]*)[^\r\n]*'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	r := NewRewriter(CompareExact, rules...)
	assert.Len(t, r.Rules(), len(DefaultRules)+1)
	assert.Equal(t, "* 수정자 : kim", r.Rewrite("* 수정자 : lee", Edit{Author: "kim"}))

	_, err = LoadRules(filepath.Join(dir, "missing.toml"))
	assert.Equal(t, nxerrors.NotFound, nxerrors.CodeOf(err))

	_, err = ReadRules(strings.NewReader("[[rule]]\nfield = \"title\"\npattern = '(x)'\n"))
	assert.Equal(t, nxerrors.InvalidArgument, nxerrors.CodeOf(err))

	_, err = ReadRules(strings.NewReader("[[rule]]\nfield = \"date\"\npattern = 'nogroup'\n"))
	assert.Error(t, err)

	rules, err = LoadRules("")
	assert.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRewriteBatch(t *testing.T) {
	files := []File{
		{Name: "A_Grid_01.xfdl", Content: form(sampleScript)},
		{Name: "broken.xfdl", Content: form("x")},
		{Name: "A_Grid_02.xfdl", Content: "<FDL/>"},
		{Name: "A_Grid_03.xfdl", Content: form("Grid")},
	}
	date := Today(time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024.05.01", date)

	r := NewRewriter(CompareExact)
	res := r.RewriteBatch(files, BatchOptions{Author: "kim", Date: date})

	require.Len(t, res.Results, 4)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Succeeded())
	require.Len(t, res.Failed(), 2)
	assert.Equal(t, "broken.xfdl", res.Failed()[0].Name)
	assert.Equal(t, nxerrors.BatchFileFailed, nxerrors.CodeOf(res.Results[2].Err))

	first := res.Results[0]
	assert.Equal(t, "A_Grid_all.xfdl", first.OutputName)
	assert.Contains(t, first.Content, "* 작성자 : kim")
	assert.Contains(t, first.Content, "* 작성일 : 2024.05.01")
	assert.True(t, strings.HasPrefix(first.Content, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\r\n<FDL"))
	assert.Equal(t, "A_Grid_all_2.xfdl", res.Results[3].OutputName)

	renamed := r.RewriteBatch(files[:1], BatchOptions{NewName: "ListView"})
	assert.Equal(t, "A_ListView_all.xfdl", renamed.Results[0].OutputName)
	assert.Contains(t, renamed.Results[0].Content, "this.ListView00_onclick")

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, res.Results))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "A_Grid_all.xfdl", zr.File[0].Name)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, first.Content, string(data))
}
