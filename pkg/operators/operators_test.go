package operators

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/pipesched/pkg/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatVar(name string, v float64) *variables.Float {
	return &variables.Float{Name: name, Value: v, OriginalValue: v}
}

func boolVar(name string, v bool) *variables.Boolean {
	return &variables.Boolean{Name: name, Value: v, OriginalValue: v}
}

func stringVar(name, v string) *variables.String {
	return &variables.String{Name: name, Value: v, OriginalValue: v}
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		kind string
		want Family
	}{
		{string(BooleanAnd), FamilyBoolean},
		{string(BooleanFileExists), FamilyBoolean},
		{string(FloatDivideConstInv), FamilyFloat},
		{string(StringTouchFile), FamilyString},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := FamilyOf(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FamilyOf("float=modulo")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBooleanOperator_Logic(t *testing.T) {
	tests := []struct {
		kind BooleanKind
		a, b bool
		want bool
	}{
		{BooleanAnd, true, true, true},
		{BooleanAnd, true, false, false},
		{BooleanOr, false, false, false},
		{BooleanOr, false, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			out := boolVar("out", !tt.want)
			op, err := NewBooleanLogic(tt.kind, boolVar("a", tt.a), boolVar("b", tt.b), out)
			require.NoError(t, err)

			require.NoError(t, op.Evaluate())
			assert.Equal(t, tt.want, out.Value)
		})
	}
}

func TestBooleanOperator_Not(t *testing.T) {
	in := boolVar("in", true)
	out := boolVar("out", true)

	op, err := NewBooleanNot(in, out)
	require.NoError(t, err)
	assert.Equal(t, "bool=not__in__out", op.Name)

	require.NoError(t, op.Evaluate())
	assert.False(t, out.Value)
}

func TestBooleanOperator_Comparisons(t *testing.T) {
	tests := []struct {
		name     string
		kind     BooleanKind
		x, y     float64
		constant bool
		want     bool
	}{
		{name: "gt var", kind: BooleanGreaterVar, x: 3, y: 2, want: true},
		{name: "lt var", kind: BooleanLessVar, x: 3, y: 2, want: false},
		{name: "eq var", kind: BooleanEqualVar, x: 0.5, y: 0.5, want: true},
		{name: "gt const", kind: BooleanGreaterConst, x: 1, y: 1, constant: true, want: false},
		{name: "lt const", kind: BooleanLessConst, x: 0.9, y: 1, constant: true, want: true},
		{name: "eq const", kind: BooleanEqualConst, x: 10, y: 10, constant: true, want: true},
		{name: "eq const is exact", kind: BooleanEqualConst, x: 0.30000000000000004, y: 0.3, constant: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := boolVar("out", !tt.want)

			var (
				op  *BooleanOperator
				err error
			)

			if tt.constant {
				op, err = NewBooleanCompareConst(tt.kind, floatVar("x", tt.x), tt.y, out)
			} else {
				op, err = NewBooleanCompareVar(tt.kind, floatVar("x", tt.x), floatVar("y", tt.y), out)
			}

			require.NoError(t, err)
			require.NoError(t, op.Evaluate())
			assert.Equal(t, tt.want, out.Value)
		})
	}
}

func TestBooleanOperator_ConstructorMismatch(t *testing.T) {
	_, err := NewBooleanLogic(BooleanNot, boolVar("a", true), boolVar("b", true), boolVar("c", true))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = NewBooleanCompareConst(BooleanGreaterVar, floatVar("x", 1), 1, boolVar("c", true))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = NewBooleanNot(nil, boolVar("c", true))
	assert.ErrorIs(t, err, ErrMissingOperand)
}

func TestBooleanOperator_FileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "RUNNING_PIPELINER")
	file := stringVar("lock", path)
	out := boolVar("exists", false)

	op, err := NewFileExists(file, out)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	require.NoError(t, op.Evaluate())
	assert.True(t, out.Value)

	require.NoError(t, os.Remove(path))
	require.NoError(t, op.Evaluate())
	assert.False(t, out.Value)
}

func TestFloatOperator_Arithmetic(t *testing.T) {
	tests := []struct {
		name     string
		kind     FloatKind
		x, y     float64
		constant bool
		want     float64
	}{
		{name: "plus var", kind: FloatPlusVar, x: 1, y: 2, want: 3},
		{name: "minus var", kind: FloatMinusVar, x: 1, y: 2, want: -1},
		{name: "mult var", kind: FloatMultVar, x: 3, y: 2, want: 6},
		{name: "divide var", kind: FloatDivideVar, x: 3, y: 2, want: 1.5},
		{name: "plus const", kind: FloatPlusConst, x: 1, y: 1, constant: true, want: 2},
		{name: "minus const", kind: FloatMinusConst, x: 1, y: 4, constant: true, want: -3},
		{name: "mult const", kind: FloatMultConst, x: 2.5, y: 2, constant: true, want: 5},
		{name: "divide const", kind: FloatDivideConst, x: 4, y: 8, constant: true, want: 0.5},
		{name: "divide const inverse", kind: FloatDivideConstInv, x: 4, y: 8, constant: true, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := floatVar("out", 0)

			var (
				op  *FloatOperator
				err error
			)

			if tt.constant {
				op, err = NewFloatConst(tt.kind, floatVar("x", tt.x), tt.y, out)
			} else {
				op, err = NewFloatVar(tt.kind, floatVar("x", tt.x), floatVar("y", tt.y), out)
			}

			require.NoError(t, err)
			require.NoError(t, op.Evaluate())
			assert.InDelta(t, tt.want, out.Value, 1e-12)
		})
	}
}

func TestFloatOperator_InPlaceIncrement(t *testing.T) {
	x := floatVar("x", 0)

	op, err := NewFloatConst(FloatPlusConst, x, 1, x)
	require.NoError(t, err)
	assert.Equal(t, "float=plus_const__x__1__x", op.Name)

	for range 3 {
		require.NoError(t, op.Evaluate())
	}

	assert.InDelta(t, 3.0, x.Value, 0)
}

func TestFloatOperator_DivisionByZero(t *testing.T) {
	out := floatVar("out", 42)

	ops := []func() (*FloatOperator, error){
		func() (*FloatOperator, error) { return NewFloatVar(FloatDivideVar, floatVar("x", 1), floatVar("zero", 0), out) },
		func() (*FloatOperator, error) { return NewFloatConst(FloatDivideConst, floatVar("x", 1), 0, out) },
		func() (*FloatOperator, error) { return NewFloatConst(FloatDivideConstInv, floatVar("zero", 0), 3, out) },
	}

	for _, build := range ops {
		op, err := build()
		require.NoError(t, err)

		err = op.Evaluate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrArithmetic)
		assert.InDelta(t, 42.0, out.Value, 0, "output must be left untouched")
	}
}

func TestStringOperator_CopyMoveTouchDelete(t *testing.T) {
	dir := t.TempDir()
	src := stringVar("src", filepath.Join(dir, "a.star"))
	dst := stringVar("dst", filepath.Join(dir, "b.star"))
	moved := stringVar("moved", filepath.Join(dir, "c.star"))

	require.NoError(t, os.WriteFile(src.Value, []byte("data_\n"), 0o600))

	cp, err := NewFileTransfer(StringCopyFile, src, dst)
	require.NoError(t, err)
	require.NoError(t, cp.Evaluate())

	content, err := os.ReadFile(dst.Value)
	require.NoError(t, err)
	assert.Equal(t, "data_\n", string(content))

	mv, err := NewFileTransfer(StringMoveFile, dst, moved)
	require.NoError(t, err)
	require.NoError(t, mv.Evaluate())
	assert.NoFileExists(t, dst.Value)
	assert.FileExists(t, moved.Value)

	touched := stringVar("touched", filepath.Join(dir, "touched"))
	touch, err := NewFileAction(StringTouchFile, touched)
	require.NoError(t, err)
	require.NoError(t, touch.Evaluate())
	assert.FileExists(t, touched.Value)

	del, err := NewFileAction(StringDeleteFile, touched)
	require.NoError(t, err)
	require.NoError(t, del.Evaluate())
	assert.NoFileExists(t, touched.Value)

	// deleting again is fine
	require.NoError(t, del.Evaluate())
}

func TestStringOperator_CopyMissingSource(t *testing.T) {
	dir := t.TempDir()
	op, err := NewFileTransfer(StringCopyFile, stringVar("src", filepath.Join(dir, "missing")), stringVar("dst", filepath.Join(dir, "out")))
	require.NoError(t, err)

	err = op.Evaluate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStringOperator_KindMismatch(t *testing.T) {
	_, err := NewFileAction(StringCopyFile, stringVar("src", "x"))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = NewFileTransfer(StringDeleteFile, stringVar("src", "x"), stringVar("dst", "y"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestStringOperator_SameFileKeepsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Link(path, link))

	symlink := filepath.Join(dir, "symlink.txt")
	require.NoError(t, os.Symlink(path, symlink))

	tests := []struct {
		name string
		kind StringKind
		dst  string
	}{
		{"copy onto itself", StringCopyFile, path},
		{"copy onto a symlink", StringCopyFile, symlink},
		{"copy onto a hard link", StringCopyFile, link},
		{"move onto itself", StringMoveFile, path},
		{"move onto a hard link", StringMoveFile, link},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NewFileTransfer(tt.kind, stringVar("src", path), stringVar("dst", tt.dst))
			require.NoError(t, err)

			err = op.Evaluate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIO)
			assert.ErrorIs(t, err, ErrSameFile)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "payload", string(content))
		})
	}
}
