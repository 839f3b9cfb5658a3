package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextBuilder is a wrapper around [strings.Builder] that simplifies
// building indented text.
//
// The zero value is safely ready to use.
type TextBuilder struct {
	// Indent is the indentation level (two spaces per level).
	Indent int

	b strings.Builder
}

// Write appends a raw string.
func (w *TextBuilder) Write(s string) {
	w.b.WriteString(s)
}

// Append writes the given string line by line with correct indentation.
func (w *TextBuilder) Append(s string) {
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		w.Linef("%v", sc.Text())
	}
}

// Linef writes a single line, prepended by the current indentation.
//
// Takes format and args like [fmt.Printf].
func (w *TextBuilder) Linef(format string, args ...any) {
	for range w.Indent {
		w.b.WriteString("  ")
	}
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\n")
}

func (w *TextBuilder) String() string {
	return w.b.String()
}

func (w *TextBuilder) WriteTo(out io.Writer) (int64, error) {
	n, err := io.WriteString(out, w.b.String())
	return int64(n), err
}

func (w *TextBuilder) Reset() {
	w.Indent = 0
	w.b.Reset()
}

// IndentString prepends indent nIndent times to each line of s. Lines
// containing only whitespace are emptied.
func IndentString(s string, indent string, nIndent int) string {
	prefix := strings.Repeat(indent, nIndent)
	var res strings.Builder
	res.Grow(len(s) + (strings.Count(s, "\n")+1)*len(prefix))
	for len(s) > 0 {
		line, rest, hitNewline := strings.Cut(s, "\n")
		if strings.TrimSpace(line) != "" {
			res.WriteString(prefix)
			res.WriteString(line)
		}
		if hitNewline {
			res.WriteByte('\n')
		}
		s = rest
	}
	return res.String()
}
