package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeCSVField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{`He said "hi", ok`, `"He said ""hi"", ok"`},
		{"a,b", `"a,b"`},
		{"line1\nline2", "\"line1\nline2\""},
		{"이벤트", "이벤트"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeCSVField(tt.in))
			assert.Equal(t, tt.in, UnescapeCSVField(EscapeCSVField(tt.in)))
		})
	}
}

func TestEscapeRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	fragments := gen.OneConstOf(",", `"`, "\n", "a", "가", " ", `""`)
	properties.Property("unescape(escape(s)) == s", prop.ForAll(
		func(parts []string) bool {
			s := strings.Join(parts, "")
			return UnescapeCSVField(EscapeCSVField(s)) == s
		},
		gen.SliceOf(fragments),
	))

	properties.TestingRun(t)
}

func TestWriteCSV(t *testing.T) {
	s := Sheet{
		Name:    "Events_Report.csv",
		Headers: []string{"Name", "Description"},
		Rows: [][]string{
			{"onclick", `fires on "click", always`},
			{"onkeydown"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s, CSVOptions{BOM: true}))

	want := BOM + "Name,Description\n" +
		"onclick,\"fires on \"\"click\"\", always\"\n" +
		"onkeydown,\n"
	assert.Equal(t, want, buf.String())

	back, err := ReadCSV(&buf, s.Name)
	require.NoError(t, err)
	assert.Equal(t, s.Headers, back.Headers)
	assert.Equal(t, `fires on "click", always`, back.Rows[0][1])
	assert.Equal(t, []string{"onkeydown", ""}, back.Rows[1])
}

func TestXLSXRoundTrip(t *testing.T) {
	sheets := []Sheet{
		{Name: "InheritancePath", Headers: []string{"Inheritance Path"}, Rows: [][]string{{"nexacro._EventSinkObject"}, {"nexacro.Grid"}}},
		{Name: "Properties", Headers: []string{"Component", "Property"}, Rows: [][]string{{"nexacro.Grid", "rowcount"}}},
		{Name: "Events", Headers: []string{"Component", "Event"}, Rows: [][]string{}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sheets))

	back, err := ReadXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, back, 3)
	assert.Equal(t, "InheritancePath", back[0].Name)
	assert.Equal(t, sheets[0].Rows, back[0].Rows)
	assert.Equal(t, "rowcount", back[1].Cell(0, "Property"))
	assert.Empty(t, back[2].Rows)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	err := WriteText(&buf, []Sheet{{Name: "Properties", Headers: []string{"Component", "Property"}, Rows: [][]string{{"nexacro.Grid", "multi\nline"}}}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "## Properties (1 rows)")
	assert.Contains(t, out, "multi line")
}

func TestWriteRejectsMultiSheetCSV(t *testing.T) {
	err := Write(&bytes.Buffer{}, FormatCSV, []Sheet{{Name: "a"}, {Name: "b"}})
	assert.Error(t, err)
}

func TestSheetCell(t *testing.T) {
	s := Sheet{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	assert.Equal(t, "1", s.Cell(0, "a"))
	assert.Equal(t, "", s.Cell(0, "b"))
	assert.Equal(t, "", s.Cell(3, "a"))
	assert.Equal(t, "", s.Cell(0, "zz"))
}
