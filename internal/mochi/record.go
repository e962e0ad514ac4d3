// Package mochi provides MochiView annotation-import file parsing.
package mochi

// MochiView column order. The import format is fixed-position
// tab-delimited; these exist so parse code never hard-codes an index.
const (
	colSeqName = iota
	colStart
	colEnd
	colStrand
	colFeatureName
	colTxnStart
	colTxnEnd
	colExonCount
	colExonStarts
	colExonEnds
	colCDSStart
	colCDSEnd
	colGeneName
	colAliases
	colDescription

	numColumns = 15
	// Rows may omit the three trailing optional text columns.
	numRequiredColumns = 12
)

// Record is one parsed MochiView gene row. Coordinates are 1-based
// inclusive. ExonStarts/ExonEnds are index-aligned and kept in file order
// (coordinate-sorted, not strand-sorted). CDSStart/CDSEnd are nil for
// non-coding genes.
type Record struct {
	SeqName     string
	GeneStart   int64
	GeneEnd     int64
	Strand      string
	FeatureName string
	TxnStart    int64
	TxnEnd      int64
	ExonCount   int
	ExonStarts  []int64
	ExonEnds    []int64
	CDSStart    *int64
	CDSEnd      *int64
	GeneName    string
	Aliases     []string
	Description string
}

// Coding reports whether the record has a coding-sequence span.
func (r *Record) Coding() bool {
	return r.CDSStart != nil && r.CDSEnd != nil
}
