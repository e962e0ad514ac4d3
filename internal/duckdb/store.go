// Package duckdb provides a DuckDB-backed sink for converted features,
// for runs whose output feeds queries rather than a GFF3 file.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/genomebits/mochi2gff/internal/gff"
)

// Store manages a DuckDB connection holding converted features.
type Store struct {
	db      *sql.DB
	path    string
	pending []gff.Feature
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the features table if it doesn't exist. The nine
// GFF3 columns are stored as-is, with the ID and Parent attributes broken
// out for lookups.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS features (
		seqid VARCHAR,
		source VARCHAR,
		type VARCHAR,
		start BIGINT,
		end_ BIGINT,
		score VARCHAR,
		strand VARCHAR,
		phase VARCHAR,
		attributes VARCHAR,
		feature_id VARCHAR,
		parent_id VARCHAR
	)`)
	return err
}

// WriteHeader implements expand.FeatureWriter. The schema plays the role
// of the header and is created at Open time.
func (s *Store) WriteHeader() error {
	return nil
}

// Write buffers one feature for the next Flush.
func (s *Store) Write(f *gff.Feature) error {
	s.pending = append(s.pending, *f)
	return nil
}

// Flush batch-inserts buffered features using the Appender API.
func (s *Store) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "features")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i := range s.pending {
		f := &s.pending[i]
		if err := appender.AppendRow(
			f.SeqID, f.Source, f.Type, f.Start, f.End,
			f.Score, f.Strand, f.Phase, f.Attrs.String(),
			f.ID(), f.Parent(),
		); err != nil {
			return fmt.Errorf("append feature: %w", err)
		}
	}
	s.pending = s.pending[:0]

	return appender.Flush()
}

// FeatureCount returns the number of stored features.
func (s *Store) FeatureCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM features").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return count, nil
}

// FeaturesByParent queries stored features by their Parent attribute,
// ordered by start coordinate.
func (s *Store) FeaturesByParent(parent string) ([]gff.Feature, error) {
	rows, err := s.db.Query(`SELECT
		seqid, source, type, start, end_, score, strand, phase, attributes
		FROM features
		WHERE parent_id = ?
		ORDER BY start`, parent)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	return scanFeatures(rows)
}

// FeaturesBySeqID queries stored features on a landmark overlapping the
// given coordinate range.
func (s *Store) FeaturesBySeqID(seqid string, start, end int64) ([]gff.Feature, error) {
	rows, err := s.db.Query(`SELECT
		seqid, source, type, start, end_, score, strand, phase, attributes
		FROM features
		WHERE seqid = ? AND start <= ? AND end_ >= ?
		ORDER BY start`, seqid, end, start)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	return scanFeatures(rows)
}

func scanFeatures(rows *sql.Rows) ([]gff.Feature, error) {
	var features []gff.Feature
	for rows.Next() {
		var f gff.Feature
		var attrs string
		if err := rows.Scan(
			&f.SeqID, &f.Source, &f.Type, &f.Start, &f.End,
			&f.Score, &f.Strand, &f.Phase, &attrs,
		); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		for _, pair := range splitPairs(attrs) {
			f.Attrs.Set(pair[0], pair[1])
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	return features, nil
}

// splitPairs parses a stored attributes column back into key/value pairs.
func splitPairs(attrs string) [][2]string {
	if attrs == "" {
		return nil
	}
	var pairs [][2]string
	for _, pair := range strings.Split(attrs, ";") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			pairs = append(pairs, [2]string{k, v})
		}
	}
	return pairs
}
