package expand

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/genomebits/mochi2gff/internal/gff"
	"github.com/genomebits/mochi2gff/internal/mochi"
)

// RecordParser is the interface for readers that yield gene records.
type RecordParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*mochi.Record, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// FeatureWriter is the interface for feature sinks.
type FeatureWriter interface {
	WriteHeader() error
	Write(f *gff.Feature) error
	Flush() error
}

// Converter streams records through Expand into a feature sink. Each
// record is expanded and written independently; no state is kept across
// records.
type Converter struct {
	source        string
	skipMalformed bool
	logger        *zap.Logger

	records  int
	features int
	skipped  int
}

// NewConverter creates a converter that stamps every feature's source
// column with the given value.
func NewConverter(source string) *Converter {
	return &Converter{
		source: source,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (c *Converter) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetSkipMalformed configures whether malformed records are skipped with
// a warning instead of aborting the run.
func (c *Converter) SetSkipMalformed(skip bool) {
	c.skipMalformed = skip
}

// ConvertAll reads every record from p, expands it, and writes the
// resulting features to w. A malformed record aborts the run with line
// context unless skipping is enabled. Parse errors always abort.
func (c *Converter) ConvertAll(p RecordParser, w FeatureWriter) error {
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for {
		rec, err := p.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}

		features, err := Expand(rec, c.source)
		if err != nil {
			var malformed *MalformedRecordError
			if c.skipMalformed && errors.As(err, &malformed) {
				c.skipped++
				c.logger.Warn("skipping malformed record",
					zap.Int("line", p.LineNumber()),
					zap.String("feature", malformed.Feature),
					zap.Error(err))
				continue
			}
			return fmt.Errorf("line %d: %w", p.LineNumber(), err)
		}

		c.records++
		for i := range features {
			if err := w.Write(&features[i]); err != nil {
				return fmt.Errorf("write feature: %w", err)
			}
		}
		c.features += len(features)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// Records returns the number of records converted.
func (c *Converter) Records() int { return c.records }

// Features returns the number of features written.
func (c *Converter) Features() int { return c.features }

// Skipped returns the number of malformed records skipped.
func (c *Converter) Skipped() int { return c.skipped }
