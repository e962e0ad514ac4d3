// Package gff provides the GFF3 feature model and attribute encoding.
package gff

import (
	"fmt"
	"strings"
)

// Feature types emitted by the converter. All are Sequence Ontology terms
// except RNA, which MochiView uses for transcripts without a coding region.
const (
	TypeGene          = "gene"
	TypeMRNA          = "mRNA"
	TypeRNA           = "RNA"
	TypeExon          = "exon"
	TypeCDS           = "CDS"
	TypeFivePrimeUTR  = "five_prime_UTR"
	TypeThreePrimeUTR = "three_prime_UTR"
)

// Column placeholder for undefined score/phase values.
const Missing = "."

// PhaseZero is the phase written for every CDS segment. It is not a true
// reading-frame calculation: the MochiView import format carries no frame
// information, so segments after the first may be off by one or two bases.
const PhaseZero = "0"

// Feature is one GFF3 line: nine tab-separated columns with 1-based
// inclusive coordinates relative to SeqID.
type Feature struct {
	SeqID  string
	Source string
	Type   string
	Start  int64
	End    int64
	Score  string
	Strand string
	Phase  string
	Attrs  Attributes
}

// ID returns the feature's ID attribute, or "" if it has none.
func (f *Feature) ID() string {
	v, _ := f.Attrs.Get("ID")
	return v
}

// Parent returns the feature's Parent attribute, or "" if it has none.
func (f *Feature) Parent() string {
	v, _ := f.Attrs.Get("Parent")
	return v
}

// Row renders the feature as a nine-column tab-delimited GFF3 line,
// without a trailing newline.
func (f *Feature) Row() string {
	return fmt.Sprintf("%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s",
		f.SeqID, f.Source, f.Type, f.Start, f.End, f.Score, f.Strand, f.Phase, f.Attrs.String())
}

// Attributes is an insertion-ordered set of GFF3 column-nine tag=value
// pairs. Order is preserved because downstream tooling expects ID first.
type Attributes struct {
	pairs []attrPair
}

type attrPair struct {
	key   string
	value string
}

// Set adds a tag=value pair, replacing the value in place if the tag is
// already present.
func (a *Attributes) Set(key, value string) {
	for i := range a.pairs {
		if a.pairs[i].key == key {
			a.pairs[i].value = value
			return
		}
	}
	a.pairs = append(a.pairs, attrPair{key: key, value: value})
}

// Get returns the value for a tag and whether it is present.
func (a *Attributes) Get(key string) (string, bool) {
	for _, p := range a.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Len returns the number of pairs.
func (a *Attributes) Len() int {
	return len(a.pairs)
}

// String renders the pairs as tag=value joined by ";", in insertion order.
// Values are written as-is; free text must be escaped with Escape before
// being set.
func (a *Attributes) String() string {
	var sb strings.Builder
	for i, p := range a.pairs {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(p.key)
		sb.WriteByte('=')
		sb.WriteString(p.value)
	}
	return sb.String()
}
