package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/genomebits/mochi2gff/internal/duckdb"
	"github.com/genomebits/mochi2gff/internal/expand"
	"github.com/genomebits/mochi2gff/internal/mochi"
	"github.com/genomebits/mochi2gff/internal/output"
)

// defaultSource is the GFF3 source column value when neither flag nor
// config provides one.
const defaultSource = "mochi2gff"

func newConvertCmd() *cobra.Command {
	var (
		source   string
		outFile  string
		format   string
		skipBad  bool
		noPragma bool
	)

	cmd := &cobra.Command{
		Use:   "convert <input-file>",
		Short: "Convert a MochiView annotation file to GFF3",
		Long: `Convert a MochiView gene-annotation import file into GFF3 features.

Each input row expands into a gene feature, an mRNA (or RNA for
non-coding genes), one exon per listed exon, CDS segments clipped to the
coding span, and up to two UTRs. Use '-' to read from stdin.`,
		Example: `  mochi2gff convert annotations.txt > annotations.gff
  mochi2gff convert -s my-pipeline -o annotations.gff annotations.txt
  mochi2gff convert -f duckdb -o annotations.duckdb annotations.txt
  cat annotations.txt | mochi2gff convert -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("source") {
				if s := viper.GetString("convert.source"); s != "" {
					source = s
				}
			}
			if !cmd.Flags().Changed("skip-bad-records") {
				skipBad = viper.GetBool("convert.skip_bad_records")
			}
			return runConvert(args[0], source, outFile, format, skipBad, noPragma)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", defaultSource, "value for the GFF3 source column")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "gff", "output format: gff, duckdb")
	cmd.Flags().BoolVar(&skipBad, "skip-bad-records", false, "skip malformed records with a warning instead of aborting")
	cmd.Flags().BoolVar(&noPragma, "no-pragma", false, "do not write the ##gff-version 3 directive")

	return cmd
}

func runConvert(inputPath, source, outFile, format string, skipBad, noPragma bool) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	parser, err := mochi.NewParser(inputPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	conv := expand.NewConverter(source)
	conv.SetLogger(logger)
	conv.SetSkipMalformed(skipBad)

	var writer expand.FeatureWriter
	var cleanup func() error

	switch format {
	case "gff":
		out := os.Stdout
		if outFile != "" {
			out, err = os.Create(outFile)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			cleanup = out.Close
		}
		gw := output.NewGFFWriter(out)
		gw.SetPragma(!noPragma)
		writer = gw

	case "duckdb":
		path := outFile
		if path == "" {
			return fmt.Errorf("duckdb format requires --output")
		}
		if ext := filepath.Ext(path); ext != ".duckdb" && ext != ".db" {
			path += ".duckdb"
		}
		store, err := duckdb.Open(path)
		if err != nil {
			return err
		}
		cleanup = store.Close
		writer = store

	default:
		return fmt.Errorf("unknown output format %q (want gff or duckdb)", format)
	}

	convErr := conv.ConvertAll(parser, writer)
	if cleanup != nil {
		if err := cleanup(); err != nil && convErr == nil {
			convErr = fmt.Errorf("close output: %w", err)
		}
	}
	if convErr != nil {
		return convErr
	}

	logger.Info("conversion complete",
		zap.String("input", displayPath(inputPath)),
		zap.Int("records", conv.Records()),
		zap.Int("features", conv.Features()),
		zap.Int("skipped", conv.Skipped()))

	return nil
}

// displayPath makes stdin input readable in the run summary.
func displayPath(path string) string {
	if strings.TrimSpace(path) == "-" {
		return "stdin"
	}
	return path
}
