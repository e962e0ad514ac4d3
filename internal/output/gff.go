// Package output provides feature output formatters.
package output

import (
	"bufio"
	"io"

	"github.com/genomebits/mochi2gff/internal/gff"
)

// gff3Pragma is the version directive strict GFF3 readers require.
const gff3Pragma = "##gff-version 3\n"

// GFFWriter writes features as GFF3 tab-delimited lines.
type GFFWriter struct {
	w      *bufio.Writer
	pragma bool
}

// NewGFFWriter creates a new GFF3 writer. The version pragma is written
// by WriteHeader unless disabled with SetPragma.
func NewGFFWriter(w io.Writer) *GFFWriter {
	return &GFFWriter{
		w:      bufio.NewWriter(w),
		pragma: true,
	}
}

// SetPragma configures whether WriteHeader emits the ##gff-version
// directive. Disabling it reproduces MochiView-era converter output.
func (gw *GFFWriter) SetPragma(pragma bool) {
	gw.pragma = pragma
}

// WriteHeader writes the GFF3 version pragma, if enabled.
func (gw *GFFWriter) WriteHeader() error {
	if !gw.pragma {
		return nil
	}
	_, err := gw.w.WriteString(gff3Pragma)
	return err
}

// Write writes a single feature line.
func (gw *GFFWriter) Write(f *gff.Feature) error {
	if _, err := gw.w.WriteString(f.Row()); err != nil {
		return err
	}
	return gw.w.WriteByte('\n')
}

// Flush flushes buffered output.
func (gw *GFFWriter) Flush() error {
	return gw.w.Flush()
}
