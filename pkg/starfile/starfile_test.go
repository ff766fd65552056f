package starfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_ListAndTable(t *testing.T) {
	general := NewList("general")
	general.Set("name", "demo")
	general.Set("current", "undefined")
	general.Set("email", "")

	floats := NewTable("floats", "name", "value", "reset")
	require.NoError(t, floats.AddRow("x", FormatFloat(0.1), FormatFloat(2)))
	require.NoError(t, floats.AddRow("y", FormatFloat(-3.5), FormatFloat(1e-9)))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, general, floats))

	f, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, f.Blocks, 2)

	g, ok := f.Block("general")
	require.True(t, ok)
	assert.True(t, g.IsList)

	name, err := g.String(0, "name")
	require.NoError(t, err)
	assert.Equal(t, "demo", name)

	email, err := g.String(0, "email")
	require.NoError(t, err)
	assert.Empty(t, email)

	fl, ok := f.Block("floats")
	require.True(t, ok)
	assert.False(t, fl.IsList)
	assert.Equal(t, 2, fl.Len())

	v, err := fl.Float(0, "value")
	require.NoError(t, err)
	assert.Equal(t, 0.1, v)

	r, err := fl.Float(1, "reset")
	require.NoError(t, err)
	assert.Equal(t, 1e-9, r)
}

func TestWriteRead_QuotedValues(t *testing.T) {
	b := NewTable("strings", "name", "value")
	require.NoError(t, b.AddRow("path", "/tmp/with space/file"))
	require.NoError(t, b.AddRow("underscore", "_leading"))
	require.NoError(t, b.AddRow("dq", `say "hi"`))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, b))

	f, err := Read(&buf)
	require.NoError(t, err)

	got, _ := f.Block("strings")
	for i, want := range []string{"/tmp/with space/file", "_leading", `say "hi"`} {
		v, err := got.String(i, "value")
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestBool(t *testing.T) {
	b := NewTable("bools", "name", "value")
	require.NoError(t, b.AddRow("a", FormatBool(true)))
	require.NoError(t, b.AddRow("b", FormatBool(false)))
	require.NoError(t, b.AddRow("c", "true"))
	require.NoError(t, b.AddRow("d", "maybe"))

	for i, want := range []bool{true, false, true} {
		v, err := b.Bool(i, "value")
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	_, err := b.Bool(3, "value")
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestAddRow_Mismatch(t *testing.T) {
	b := NewTable("t", "a", "b")
	assert.ErrorIs(t, b.AddRow("1"), ErrColumnMismatch)
}

func TestString_MissingLabel(t *testing.T) {
	b := NewList("l")
	b.Set("a", "1")

	_, err := b.String(0, "b")
	assert.ErrorIs(t, err, ErrMissingLabel)
	assert.False(t, b.Has("b"))
	assert.True(t, b.Has("a"))
}

func TestRead_Syntax(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"content before block", "_name x\n"},
		{"value outside loop", "data_a\n\nfoo bar\n"},
		{"unterminated quote", "data_a\n\n_name \"x\n"},
		{"label after rows", "data_a\nloop_\n_a #1\n1\n_b #2\n"},
		{"wrong row width", "data_a\nloop_\n_a #1\n_b #2\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestRead_IgnoresCommentsAndColumnNumbers(t *testing.T) {
	input := `
# version 30001

data_edges

loop_
_input #1
_output #2
# a comment
A B
B "exit"
`

	f, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	b, ok := f.Block("edges")
	require.True(t, ok)
	assert.Equal(t, []string{"input", "output"}, b.Columns)
	assert.Equal(t, [][]string{{"A", "B"}, {"B", "exit"}}, b.Rows)
}

func TestWriteRead_UnderscoreLeadingFirstColumn(t *testing.T) {
	b := NewTable("floats", "name", "value")
	require.NoError(t, b.AddRow("_tmp", "1"))
	require.NoError(t, b.AddRow("_other", "2"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, b))

	f, err := Read(&buf)
	require.NoError(t, err)

	got, ok := f.Block("floats")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "value"}, got.Columns)
	assert.Equal(t, [][]string{{"_tmp", "1"}, {"_other", "2"}}, got.Rows)
}

func TestWriteRead_QuoteCharacters(t *testing.T) {
	values := []string{
		"it's here",
		`a "b" c`,
		`'leading`,
		`"leading`,
		`mixed'"noquoteneeded`,
		"loop_ x",
		"data_x",
		"#hash",
	}

	b := NewTable("strings", "value", "next")
	for _, v := range values {
		require.NoError(t, b.AddRow(v, "end"))
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, b))

	f, err := Read(&buf)
	require.NoError(t, err)

	got, _ := f.Block("strings")
	require.Equal(t, len(values), got.Len())

	for i, want := range values {
		v, err := got.String(i, "value")
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestWrite_RejectsUnrepresentableValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"both quotes with space", `it's a "path"`},
		{"newline", "first\nsecond"},
		{"carriage return", "first\rsecond"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable("strings", "value")
			require.NoError(t, table.AddRow(tt.value))

			var buf bytes.Buffer
			assert.ErrorIs(t, Write(&buf, table), ErrBadValue)

			list := NewList("general")
			list.Set("value", tt.value)
			assert.ErrorIs(t, Write(&buf, list), ErrBadValue)
		})
	}
}
