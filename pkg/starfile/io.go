package starfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const header = "# version 30001"

// File is the parsed content of a record file.
type File struct {
	Blocks []*Block

	byName map[string]*Block
}

// Block returns the first block with the given name.
func (f *File) Block(name string) (*Block, bool) {
	b, ok := f.byName[name]

	return b, ok
}

// Write serialises blocks in the order given.
func Write(w io.Writer, blocks ...*Block) error {
	bw := bufio.NewWriter(w)

	for _, b := range blocks {
		if err := writeBlock(bw, b); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeBlock(w *bufio.Writer, b *Block) error {
	fmt.Fprintf(w, "\n%s\n\ndata_%s\n\n", header, b.Name)

	if b.IsList {
		width := 0
		for _, c := range b.Columns {
			width = max(width, len(c)+1)
		}

		for i, c := range b.Columns {
			v, err := quote(b.Rows[0][i])
			if err != nil {
				return fmt.Errorf("block %s: %s: %w", b.Name, c, err)
			}

			fmt.Fprintf(w, "_%-*s %s\n", width, c, v)
		}

		_, err := w.WriteString("\n")

		return err
	}

	w.WriteString("loop_ \n")

	for i, c := range b.Columns {
		fmt.Fprintf(w, "_%s #%d \n", c, i+1)
	}

	for _, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return fmt.Errorf("block %s: %w", b.Name, ErrColumnMismatch)
		}

		for i, v := range row {
			q, err := quote(v)
			if err != nil {
				return fmt.Errorf("block %s: %s: %w", b.Name, b.Columns[i], err)
			}

			w.WriteString(q)
			w.WriteString(" ")
		}

		w.WriteString("\n")
	}

	_, err := w.WriteString("\n")

	return err
}

// quote wraps v so that it reads back as a single token. Values that cannot be
// represented on one line fail with ErrBadValue.
func quote(v string) (string, error) {
	if strings.ContainsAny(v, "\r\n") {
		return "", fmt.Errorf("%q: line break in value: %w", v, ErrBadValue)
	}

	needs := v == "" ||
		strings.ContainsAny(v, " \t") ||
		strings.HasPrefix(v, "_") ||
		strings.HasPrefix(v, "#") ||
		strings.HasPrefix(v, "\"") ||
		strings.HasPrefix(v, "'") ||
		strings.HasPrefix(v, "data_") ||
		strings.HasPrefix(v, "loop_")
	if !needs {
		return v, nil
	}

	switch {
	case !strings.Contains(v, "\""):
		return "\"" + v + "\"", nil
	case !strings.Contains(v, "'"):
		return "'" + v + "'", nil
	default:
		return "", fmt.Errorf("%q: both quote characters in value: %w", v, ErrBadValue)
	}
}

// Read parses a record file.
func Read(r io.Reader) (*File, error) {
	f := &File{byName: map[string]*Block{}}

	var (
		current *Block
		inLoop  bool
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "data_"):
			current = &Block{Name: strings.TrimPrefix(line, "data_"), IsList: true, index: map[string]int{}}
			inLoop = false

			f.Blocks = append(f.Blocks, current)
			if _, exists := f.byName[current.Name]; !exists {
				f.byName[current.Name] = current
			}

			continue
		case current == nil:
			return nil, fmt.Errorf("line %d: content before first data_ block: %w", lineNo, ErrSyntax)
		case line == "loop_" || strings.HasPrefix(line, "loop_ "):
			if len(current.Columns) > 0 {
				return nil, fmt.Errorf("line %d: loop_ after labels in block %s: %w", lineNo, current.Name, ErrSyntax)
			}

			current.IsList = false
			current.Rows = nil
			inLoop = true

			continue
		}

		tokens, err := tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		// A quoted first token is a value, never a label.
		if strings.HasPrefix(line, "_") {
			label := strings.TrimPrefix(tokens[0], "_")

			if inLoop {
				if len(current.Rows) > 0 {
					return nil, fmt.Errorf("line %d: label after rows in block %s: %w", lineNo, current.Name, ErrSyntax)
				}

				current.addColumn(label)

				continue
			}

			if len(tokens) != 2 {
				return nil, fmt.Errorf("line %d: expected label and value: %w", lineNo, ErrSyntax)
			}

			if len(current.Rows) == 0 {
				current.Rows = [][]string{{}}
			}

			current.Set(label, tokens[1])

			continue
		}

		if !inLoop {
			return nil, fmt.Errorf("line %d: value outside loop_ in block %s: %w", lineNo, current.Name, ErrSyntax)
		}

		if err := current.AddRow(tokens...); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return f, nil
}

func tokenize(line string) ([]string, error) {
	var tokens []string

	for i := 0; i < len(line); {
		c := line[i]

		if c == ' ' || c == '\t' {
			i++

			continue
		}

		if c == '"' || c == '\'' {
			end := strings.IndexByte(line[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote: %w", ErrSyntax)
			}

			tokens = append(tokens, line[i+1:i+1+end])
			i += end + 2

			continue
		}

		j := i
		for j < len(line) && line[j] != ' ' && line[j] != '\t' {
			j++
		}

		tokens = append(tokens, line[i:j])
		i = j
	}

	return tokens, nil
}
