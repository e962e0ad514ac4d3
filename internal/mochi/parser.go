package mochi

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parser reads gene records from a MochiView annotation import file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewParser creates a parser for the given file path. "-" reads stdin.
// Gzipped files are detected by magic bytes. The single header line is
// consumed and discarded; its content is not validated.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mochiview file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read mochiview header: %w", err)
	}

	// Seek back to beginning
	_, err = file.Seek(0, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("seek mochiview file: %w", err)
	}

	// Gzip magic number (0x1f, 0x8b)
	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.skipHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.skipHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// skipHeader discards the column-header line.
func (p *Parser) skipHeader() error {
	_, err := p.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return &ParseError{
				Line:    p.lineNumber,
				Message: "no header line found",
			}
		}
		return fmt.Errorf("read header: %w", err)
	}
	p.lineNumber++
	return nil
}

// Next reads the next record. Returns nil, nil when there are no more
// records.
func (p *Parser) Next() (*Record, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read record line: %w", err)
	}
	if len(line) == 0 && err == io.EOF {
		return nil, nil
	}
	p.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err == io.EOF {
			return nil, nil
		}
		return p.Next() // Skip empty lines
	}

	return p.parseLine(line)
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and releases resources.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// parseLine parses one tab-delimited data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numRequiredColumns {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", numRequiredColumns, len(fields)),
		}
	}
	// Pad the optional trailing text columns.
	for len(fields) < numColumns {
		fields = append(fields, "")
	}

	geneStart, err := p.parseCoord("START", fields[colStart])
	if err != nil {
		return nil, err
	}
	geneEnd, err := p.parseCoord("END", fields[colEnd])
	if err != nil {
		return nil, err
	}

	strand := fields[colStrand]
	if strand != "+" && strand != "-" {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid STRAND %q (want + or -)", strand),
		}
	}

	txnStart, err := p.parseCoord("TXN_START", fields[colTxnStart])
	if err != nil {
		return nil, err
	}
	txnEnd, err := p.parseCoord("TXN_END", fields[colTxnEnd])
	if err != nil {
		return nil, err
	}

	exonCount, err := strconv.Atoi(fields[colExonCount])
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid EXON_COUNT: %q", fields[colExonCount]),
		}
	}

	exonStarts, err := p.parseCoordList("EXON_STARTS", fields[colExonStarts])
	if err != nil {
		return nil, err
	}
	exonEnds, err := p.parseCoordList("EXON_ENDS", fields[colExonEnds])
	if err != nil {
		return nil, err
	}

	cdsStart, err := p.parseOptionalCoord("CDS_START", fields[colCDSStart])
	if err != nil {
		return nil, err
	}
	cdsEnd, err := p.parseOptionalCoord("CDS_END", fields[colCDSEnd])
	if err != nil {
		return nil, err
	}

	return &Record{
		SeqName:     fields[colSeqName],
		GeneStart:   geneStart,
		GeneEnd:     geneEnd,
		Strand:      strand,
		FeatureName: fields[colFeatureName],
		TxnStart:    txnStart,
		TxnEnd:      txnEnd,
		ExonCount:   exonCount,
		ExonStarts:  exonStarts,
		ExonEnds:    exonEnds,
		CDSStart:    cdsStart,
		CDSEnd:      cdsEnd,
		GeneName:    optionalText(fields[colGeneName]),
		Aliases:     splitAliases(fields[colAliases]),
		Description: optionalText(fields[colDescription]),
	}, nil
}

// parseCoord parses a required integer coordinate column.
func (p *Parser) parseCoord(col, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid %s: %q", col, s),
		}
	}
	return v, nil
}

// parseOptionalCoord parses a coordinate column where blank or "." means
// absent.
func (p *Parser) parseOptionalCoord(col, s string) (*int64, error) {
	if s == "" || s == "." {
		return nil, nil
	}
	v, err := p.parseCoord(col, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseCoordList parses a pipe-delimited coordinate list column.
func (p *Parser) parseCoordList(col, s string) ([]int64, error) {
	parts := strings.Split(s, "|")
	coords := make([]int64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid %s entry: %q", col, part),
			}
		}
		coords = append(coords, v)
	}
	return coords, nil
}

// optionalText normalizes an optional text column; blank and "." both mean
// absent.
func optionalText(s string) string {
	if s == "." {
		return ""
	}
	return s
}

// splitAliases splits the pipe-delimited ALIASES column.
func splitAliases(s string) []string {
	s = optionalText(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

// ParseError represents an error during MochiView parsing with line
// context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mochiview parse error at line %d: %s", e.Line, e.Message)
}
