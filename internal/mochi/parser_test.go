package mochi

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "SEQ_NAME\tSTART\tEND\tSTRAND\tFEATURE_NAME\tTXN_START\tTXN_END\tEXON_COUNT\tEXON_STARTS\tEXON_ENDS\tCDS_START\tCDS_END\tGENE_NAME\tALIASES\tDESCRIPTION\n"

func newTestParser(t *testing.T, rows ...string) *Parser {
	t.Helper()
	p, err := NewParserFromReader(strings.NewReader(header + strings.Join(rows, "")))
	require.NoError(t, err)
	return p
}

func TestParser_CodingRecord(t *testing.T) {
	p := newTestParser(t,
		"chr1\t100\t2000\t+\tgeneA\t100\t2000\t2\t100|1500\t1400|2000\t150\t1600\tABC1\tHEX7|Contig12.5231\tputative kinase\n")

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "chr1", rec.SeqName)
	assert.Equal(t, int64(100), rec.GeneStart)
	assert.Equal(t, int64(2000), rec.GeneEnd)
	assert.Equal(t, "+", rec.Strand)
	assert.Equal(t, "geneA", rec.FeatureName)
	assert.Equal(t, int64(100), rec.TxnStart)
	assert.Equal(t, int64(2000), rec.TxnEnd)
	assert.Equal(t, 2, rec.ExonCount)
	assert.Equal(t, []int64{100, 1500}, rec.ExonStarts)
	assert.Equal(t, []int64{1400, 2000}, rec.ExonEnds)
	require.NotNil(t, rec.CDSStart)
	require.NotNil(t, rec.CDSEnd)
	assert.Equal(t, int64(150), *rec.CDSStart)
	assert.Equal(t, int64(1600), *rec.CDSEnd)
	assert.True(t, rec.Coding())
	assert.Equal(t, "ABC1", rec.GeneName)
	assert.Equal(t, []string{"HEX7", "Contig12.5231"}, rec.Aliases)
	assert.Equal(t, "putative kinase", rec.Description)

	// End of input
	rec, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParser_NonCodingRecord(t *testing.T) {
	p := newTestParser(t,
		"chr2\t500\t900\t-\tncr1\t500\t900\t1\t500\t900\t\t\t\t\t\n")

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Nil(t, rec.CDSStart)
	assert.Nil(t, rec.CDSEnd)
	assert.False(t, rec.Coding())
	assert.Empty(t, rec.GeneName)
	assert.Nil(t, rec.Aliases)
	assert.Empty(t, rec.Description)
}

func TestParser_DotMeansAbsent(t *testing.T) {
	p := newTestParser(t,
		"chr1\t100\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\t.\t.\t.\t.\t.\n")

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Nil(t, rec.CDSStart)
	assert.Nil(t, rec.CDSEnd)
	assert.Empty(t, rec.GeneName)
	assert.Nil(t, rec.Aliases)
	assert.Empty(t, rec.Description)
}

func TestParser_TrailingColumnsOptional(t *testing.T) {
	// Only the first 12 columns are required.
	p := newTestParser(t,
		"chr1\t100\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\t150\t1600\n")

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Coding())
	assert.Empty(t, rec.GeneName)
}

func TestParser_SkipsBlankLinesAndCRLF(t *testing.T) {
	p := newTestParser(t,
		"\n",
		"chr1\t100\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\t\t\tABC1\t\tdesc\r\n",
		"\n")

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "desc", rec.Description)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"too few columns", "chr1\t100\t2000\t+\tgeneA\n", "expected at least 12 columns"},
		{"bad start", "chr1\tabc\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\t\t\n", "invalid START"},
		{"bad strand", "chr1\t100\t2000\t*\tgeneA\t100\t2000\t1\t100\t2000\t\t\n", "invalid STRAND"},
		{"bad exon count", "chr1\t100\t2000\t+\tgeneA\t100\t2000\tx\t100\t2000\t\t\n", "invalid EXON_COUNT"},
		{"bad exon list entry", "chr1\t100\t2000\t+\tgeneA\t100\t2000\t2\t100|abc\t1400|2000\t\t\n", "invalid EXON_STARTS"},
		{"bad cds", "chr1\t100\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\tabc\t1600\n", "invalid CDS_START"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser(t, tt.row)
			_, err := p.Next()
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, 2, parseErr.Line)
			assert.Contains(t, parseErr.Error(), tt.want)
		})
	}
}

func TestParser_EmptyInput(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader(""))
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Error(), "no header line")
}

func TestParser_HeaderOnly(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(header))
	require.NoError(t, err)

	rec, err := p.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParser_LastLineWithoutNewline(t *testing.T) {
	p := newTestParser(t,
		"chr1\t100\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\t\t\t\t\t")

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "geneA", rec.FeatureName)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParser_GzippedFile(t *testing.T) {
	content := header +
		"chr1\t100\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\t\t\t\t\t\n"

	path := filepath.Join(t.TempDir(), "annotations.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	p, err := NewParser(path)
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "geneA", rec.FeatureName)
}

func TestParser_PlainFile(t *testing.T) {
	content := header +
		"chr1\t100\t2000\t+\tgeneA\t100\t2000\t1\t100\t2000\t\t\t\t\t\n"

	path := filepath.Join(t.TempDir(), "annotations.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p, err := NewParser(path)
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, p.LineNumber())
}

func TestParser_MissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
