package operators

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dukex/pipesched/pkg/variables"
)

// StringKind selects the file manipulation performed by a StringOperator.
type StringKind string

const (
	StringCopyFile   StringKind = "file=copy"
	StringMoveFile   StringKind = "file=move"
	StringTouchFile  StringKind = "file=touch"
	StringDeleteFile StringKind = "file=delete"
)

func (k StringKind) valid() bool {
	switch k {
	case StringCopyFile, StringMoveFile, StringTouchFile, StringDeleteFile:
		return true
	}

	return false
}

// UsesOutput reports whether the kind needs a destination path.
func (k StringKind) UsesOutput() bool {
	return k == StringCopyFile || k == StringMoveFile
}

// StringOperator manipulates the files named by the current values of its variables.
type StringOperator struct {
	Name   string
	Kind   StringKind
	Input  *variables.String
	Output *variables.String
}

// NewFileTransfer builds a copy or move operator from in to out.
func NewFileTransfer(kind StringKind, in, out *variables.String) (*StringOperator, error) {
	if !kind.UsesOutput() {
		return nil, &KindError{Kind: string(kind), Family: FamilyString}
	}

	if in == nil || out == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingOperand)
	}

	return &StringOperator{
		Name:   buildName(string(kind), in.Name, out.Name),
		Kind:   kind,
		Input:  in,
		Output: out,
	}, nil
}

// NewFileAction builds a touch or delete operator on in.
func NewFileAction(kind StringKind, in *variables.String) (*StringOperator, error) {
	if !kind.valid() || kind.UsesOutput() {
		return nil, &KindError{Kind: string(kind), Family: FamilyString}
	}

	if in == nil {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingOperand)
	}

	return &StringOperator{
		Name:  buildName(string(kind), in.Name),
		Kind:  kind,
		Input: in,
	}, nil
}

func (o *StringOperator) OperatorName() string { return o.Name }

func (o *StringOperator) OperatorKind() string { return string(o.Kind) }

// Evaluate performs the file operation. Deleting a missing file is not an error.
func (o *StringOperator) Evaluate() error {
	switch o.Kind {
	case StringCopyFile:
		return o.wrap(copyFile(o.Input.Value, o.Output.Value))
	case StringMoveFile:
		return o.wrap(moveFile(o.Input.Value, o.Output.Value))
	case StringTouchFile:
		return o.wrap(touchFile(o.Input.Value))
	case StringDeleteFile:
		err := os.Remove(o.Input.Value)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return o.wrap(err)
		}

		return nil
	default:
		return &KindError{Kind: string(o.Kind), Family: FamilyString}
	}
}

func (o *StringOperator) wrap(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w: %w", o.Name, ErrIO, err)
}

// checkDistinct fails when dst already names the same file as src.
func checkDistinct(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	dstInfo, err := os.Stat(dst)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	if os.SameFile(srcInfo, dstInfo) {
		return fmt.Errorf("%s -> %s: %w", src, dst, ErrSameFile)
	}

	return nil
}

func copyFile(src, dst string) error {
	if err := checkDistinct(src, dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

func moveFile(src, dst string) error {
	if err := checkDistinct(src, dst); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// rename fails across filesystems; fall back to copy and remove
	if err := copyFile(src, dst); err != nil {
		return err
	}

	return os.Remove(src)
}

func touchFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	now := time.Now()

	return os.Chtimes(path, now, now)
}
