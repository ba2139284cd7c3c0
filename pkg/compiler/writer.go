package compiler

import (
	"fmt"
	"strings"
)

// codeWriter assembles generated source line by line with managed
// indentation. Targets build their whole file through it and render once,
// so indentation bugs cannot hide in string concatenation.
type codeWriter struct {
	sb     strings.Builder
	indent string
	depth  int
}

func newCodeWriter(indent string) *codeWriter {
	return &codeWriter{indent: indent}
}

func (w *codeWriter) line(s string) {
	if s == "" {
		w.sb.WriteByte('\n')
		return
	}
	w.sb.WriteString(strings.Repeat(w.indent, w.depth))
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

func (w *codeWriter) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

func (w *codeWriter) blank() { w.line("") }

func (w *codeWriter) push() { w.depth++ }

func (w *codeWriter) pop() {
	if w.depth > 0 {
		w.depth--
	}
}

func (w *codeWriter) String() string { return w.sb.String() }
