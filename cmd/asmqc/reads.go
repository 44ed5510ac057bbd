package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"asmqc/internal/fqio"
	"asmqc/internal/readqc"
	"asmqc/internal/report"
)

// ReadsCommand creates the `reads` subcommand: a single streaming pass over
// paired FastQ files that checks integrity, guesses the quality encoding
// and estimates sequencing coverage.
func ReadsCommand(logger *log.Logger) *cobra.Command {
	var (
		sample  string
		gsize   float64
		minCov  float64
		skipEnc bool
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "reads <fastq_1> [fastq_2]",
		Short: "Check read integrity, guess quality encoding and estimate coverage",
		Long: `Iterate once over the paired FastQ files (gzip, bzip2, zip or plain,
detected from magic bytes) and write the five per-sample channel files:
<sample>_encoding, <sample>_phred, <sample>_coverage, <sample>_report and
<sample>_max_len, plus the run status sentinel. A corrupted stream writes
the corrupt sentinel to every channel.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReads(logger, sample, args, gsize, minCov, skipEnc, outDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&sample, "sample", "s", "", "sample identifier (required)")
	flags.Float64VarP(&gsize, "genome-size", "g", 0, "expected genome size in Mb (required)")
	flags.Float64VarP(&minCov, "min-coverage", "c", 15, "minimum coverage for the sample to pass")
	flags.BoolVarP(&skipEnc, "skip-encoding", "e", false, "skip the quality-encoding guess")
	flags.StringVarP(&outDir, "outdir", "o", ".", "directory for channel files and status sentinel")

	_ = cmd.MarkFlagRequired("sample")
	_ = cmd.MarkFlagRequired("genome-size")

	return cmd
}

func runReads(logger *log.Logger, sample string, fastqs []string, gsize, minCov float64, skipEnc bool, outDir string) error {
	statusPath := filepath.Join(outDir, ".status")

	opts := readqc.Options{
		GenomeSizeMb: gsize,
		MinCoverage:  minCov,
		SkipEncoding: skipEnc,
		Logger:       logger,
	}

	res, err := readqc.EstimateFiles(opts, fqio.Open, fastqs...)
	if err != nil {
		_ = report.WriteStatus(statusPath, report.StatusError)
		return err
	}

	if err := writeReadChannels(outDir, sample, res); err != nil {
		_ = report.WriteStatus(statusPath, report.StatusError)
		return err
	}

	status := report.StatusPass
	switch {
	case res.Corrupt:
		logger.Printf("sample %s: corrupted read stream", sample)
		status = report.StatusCorrupt
	case !res.Pass:
		logger.Printf("sample %s: estimated coverage %s below minimum %v", sample, readqc.FormatCoverage(res.Coverage), minCov)
		status = report.StatusFail
	default:
		logger.Printf("sample %s: encoding %s, coverage %s, max read length %d",
			sample, res.EncodingValue(), readqc.FormatCoverage(res.Coverage), res.MaxReadLength)
	}
	return report.WriteStatus(statusPath, status)
}

// writeReadChannels writes the five per-sample output files consumed by the
// surrounding pipeline.
func writeReadChannels(dir, sample string, res readqc.Result) error {
	channels := []struct {
		suffix string
		value  string
	}{
		{"_encoding", res.EncodingValue()},
		{"_phred", res.PhredValue()},
		{"_coverage", res.CoverageValue()},
		{"_report", res.ReportLine(sample)},
		{"_max_len", res.MaxLenValue()},
	}
	for _, ch := range channels {
		path := filepath.Join(dir, sample+ch.suffix)
		if err := os.WriteFile(path, []byte(ch.value), 0o644); err != nil { //nolint:gosec // pipeline artifact
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
