// Package expand turns MochiView gene records into GFF3 feature
// hierarchies (gene, transcript, exons, CDS segments, UTRs).
package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/genomebits/mochi2gff/internal/gff"
	"github.com/genomebits/mochi2gff/internal/mochi"
)

// ID suffixes of the conversion convention. The CDS suffix is shared by
// every CDS segment of one transcript (GFF3 discontinuous-feature form).
const (
	suffixTranscript = "-T"
	suffixExon       = "-T-E"
	suffixCDS        = "-P"
	suffixFiveUTR    = "-5"
	suffixThreeUTR   = "-3"
)

// MalformedRecordError reports a record whose shape is internally
// inconsistent: exon count disagreeing with the coordinate lists, or a
// CDS bound given without its partner.
type MalformedRecordError struct {
	Feature string
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: %s", e.Feature, e.Reason)
}

// Expand converts one gene record into its ordered GFF3 features: gene,
// transcript (mRNA when coding, RNA otherwise), exons in file order, then
// for coding genes the CDS segments and flanking UTRs. The exon
// coordinate columns are assumed pre-sorted by genomic position along the
// transcript, as MochiView exports them; Expand does not re-sort.
func Expand(rec *mochi.Record, source string) ([]gff.Feature, error) {
	if len(rec.ExonStarts) != rec.ExonCount || len(rec.ExonEnds) != rec.ExonCount {
		return nil, &MalformedRecordError{
			Feature: rec.FeatureName,
			Reason: fmt.Sprintf("EXON_COUNT %d does not match coordinate lists (%d starts, %d ends)",
				rec.ExonCount, len(rec.ExonStarts), len(rec.ExonEnds)),
		}
	}
	if (rec.CDSStart == nil) != (rec.CDSEnd == nil) {
		return nil, &MalformedRecordError{
			Feature: rec.FeatureName,
			Reason:  "CDS_START and CDS_END must both be present or both be absent",
		}
	}

	exonStarts, exonEnds := orientExons(rec.Strand, rec.ExonStarts, rec.ExonEnds)

	features := make([]gff.Feature, 0, 2+rec.ExonCount)

	// gene
	gene := gff.Feature{
		SeqID:  rec.SeqName,
		Source: source,
		Type:   gff.TypeGene,
		Start:  rec.GeneStart,
		End:    rec.GeneEnd,
		Score:  gff.Missing,
		Strand: rec.Strand,
		Phase:  gff.Missing,
	}
	gene.Attrs.Set("ID", rec.FeatureName)
	setDescriptive(&gene.Attrs, rec)
	features = append(features, gene)

	// transcript
	txnType := gff.TypeRNA
	if rec.Coding() {
		txnType = gff.TypeMRNA
	}
	txnID := rec.FeatureName + suffixTranscript
	txn := gff.Feature{
		SeqID:  rec.SeqName,
		Source: source,
		Type:   txnType,
		Start:  rec.TxnStart,
		End:    rec.TxnEnd,
		Score:  gff.Missing,
		Strand: rec.Strand,
		Phase:  gff.Missing,
	}
	txn.Attrs.Set("ID", txnID)
	txn.Attrs.Set("Parent", rec.FeatureName)
	setDescriptive(&txn.Attrs, rec)
	features = append(features, txn)

	// exons, numbered 5'->3' regardless of file orientation
	for i := 0; i < rec.ExonCount; i++ {
		number := i + 1
		if rec.Strand == "-" {
			number = rec.ExonCount - i
		}
		exon := gff.Feature{
			SeqID:  rec.SeqName,
			Source: source,
			Type:   gff.TypeExon,
			Start:  exonStarts[i],
			End:    exonEnds[i],
			Score:  gff.Missing,
			Strand: rec.Strand,
			Phase:  gff.Missing,
		}
		exon.Attrs.Set("ID", rec.FeatureName+suffixExon+strconv.Itoa(number))
		exon.Attrs.Set("Parent", txnID)
		setName(&exon.Attrs, rec)
		features = append(features, exon)
	}

	if rec.Coding() {
		cdsLo, cdsHi := orderedPair(*rec.CDSStart, *rec.CDSEnd)
		features = append(features, cdsSegments(rec, source, txnID, exonStarts, exonEnds, cdsLo, cdsHi)...)
		features = append(features, utrs(rec, source, txnID, cdsLo, cdsHi)...)
	}

	return features, nil
}

// orientExons maps the exon coordinate columns into emission order. Plus
// strand uses the columns as given. Minus strand reverses both lists and
// swaps their roles, so index 0 is still the genomically leftmost exon
// with start <= end.
func orientExons(strand string, starts, ends []int64) ([]int64, []int64) {
	if strand != "-" {
		return starts, ends
	}
	n := len(starts)
	oStarts := make([]int64, n)
	oEnds := make([]int64, n)
	for i := 0; i < n; i++ {
		oStarts[i] = ends[n-1-i]
		oEnds[i] = starts[n-1-i]
	}
	return oStarts, oEnds
}

// orderedPair normalizes a coordinate pair to ascending order. This is
// independent of exon reorientation: CDS bounds are direction-free in the
// input.
func orderedPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// cdsSegments emits the CDS features for a coding record. A single-exon
// gene gets one segment spanning the CDS bounds. Otherwise each exon
// overlapping the CDS span contributes one segment clipped to the
// intersection, all sharing the -P ID.
func cdsSegments(rec *mochi.Record, source, txnID string, exonStarts, exonEnds []int64, cdsLo, cdsHi int64) []gff.Feature {
	cds := func(start, end int64) gff.Feature {
		f := gff.Feature{
			SeqID:  rec.SeqName,
			Source: source,
			Type:   gff.TypeCDS,
			Start:  start,
			End:    end,
			Score:  gff.Missing,
			Strand: rec.Strand,
			Phase:  gff.PhaseZero,
		}
		f.Attrs.Set("ID", rec.FeatureName+suffixCDS)
		f.Attrs.Set("Parent", txnID)
		setName(&f.Attrs, rec)
		return f
	}

	if rec.ExonCount == 1 {
		return []gff.Feature{cds(cdsLo, cdsHi)}
	}

	var segments []gff.Feature
	for i := range exonStarts {
		if !(cdsLo < exonEnds[i] && exonStarts[i] < cdsHi) {
			continue
		}
		start := exonStarts[i]
		if exonStarts[i] < cdsLo && cdsLo < exonEnds[i] {
			start = cdsLo
		}
		end := exonEnds[i]
		if start < cdsHi && cdsHi < exonEnds[i] {
			end = cdsHi
		}
		segments = append(segments, cds(start, end))
	}
	return segments
}

// utrs emits the untranslated regions flanking the CDS. The upstream UTR
// is five_prime on the plus strand and three_prime on the minus strand;
// the downstream UTR is the opposite.
func utrs(rec *mochi.Record, source, txnID string, cdsLo, cdsHi int64) []gff.Feature {
	utr := func(utrType, id string, start, end int64) gff.Feature {
		f := gff.Feature{
			SeqID:  rec.SeqName,
			Source: source,
			Type:   utrType,
			Start:  start,
			End:    end,
			Score:  gff.Missing,
			Strand: rec.Strand,
			Phase:  gff.Missing,
		}
		f.Attrs.Set("ID", id)
		f.Attrs.Set("Parent", txnID)
		setName(&f.Attrs, rec)
		return f
	}

	var features []gff.Feature

	if rec.TxnStart < cdsLo {
		utrType := gff.TypeFivePrimeUTR
		suffix := suffixFiveUTR
		if rec.Strand == "-" {
			utrType = gff.TypeThreePrimeUTR
			suffix = suffixThreeUTR
		}
		features = append(features, utr(utrType, rec.FeatureName+suffix, rec.TxnStart, cdsLo-1))
	}

	if cdsHi < rec.TxnEnd {
		utrType := gff.TypeThreePrimeUTR
		suffix := suffixThreeUTR
		if rec.Strand == "-" {
			utrType = gff.TypeFivePrimeUTR
			suffix = suffixFiveUTR
		}
		features = append(features, utr(utrType, rec.FeatureName+suffix, cdsHi+1, rec.TxnEnd))
	}

	return features
}

// setDescriptive adds the display attributes carried by gene and
// transcript features. Empty source fields are omitted.
func setDescriptive(attrs *gff.Attributes, rec *mochi.Record) {
	setName(attrs, rec)
	if len(rec.Aliases) > 0 {
		attrs.Set("Alias", strings.Join(rec.Aliases, ","))
	}
	if rec.Description != "" {
		attrs.Set("Note", gff.Escape(rec.Description))
	}
}

// setName adds the Name attribute when the record has a gene name.
func setName(attrs *gff.Attributes, rec *mochi.Record) {
	if rec.GeneName != "" {
		attrs.Set("Name", rec.GeneName)
	}
}
