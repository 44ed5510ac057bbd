package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// batchSample is one line of the sample sheet: a sample id followed by one
// or two FastQ paths.
type batchSample struct {
	id     string
	fastqs []string
}

// BatchCommand creates the `batch` subcommand: the reads stage applied to
// every sample in a sample sheet, bounded by a worker limit. Samples are
// independent so they run concurrently; each gets its own output directory
// under --outdir.
func BatchCommand(logger *log.Logger) *cobra.Command {
	var (
		gsize   float64
		minCov  float64
		skipEnc bool
		outDir  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch <samples.tsv>",
		Short: "Run the reads stage for every sample in a sample sheet",
		Long: `Each non-empty line of the sample sheet names a sample followed by one
or two FastQ paths, whitespace-separated. Lines starting with '#' are
skipped. Every sample writes its channel files and status sentinel into
<outdir>/<sample>/.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(logger, args[0], gsize, minCov, skipEnc, outDir, workers)
		},
	}

	flags := cmd.Flags()
	flags.Float64VarP(&gsize, "genome-size", "g", 0, "expected genome size in Mb (required)")
	flags.Float64VarP(&minCov, "min-coverage", "c", 15, "minimum coverage for a sample to pass")
	flags.BoolVarP(&skipEnc, "skip-encoding", "e", false, "skip the quality-encoding guess")
	flags.StringVarP(&outDir, "outdir", "o", ".", "root directory for per-sample outputs")
	flags.IntVarP(&workers, "workers", "n", 4, "maximum samples processed concurrently")

	_ = cmd.MarkFlagRequired("genome-size")

	return cmd
}

func runBatch(logger *log.Logger, sheetPath string, gsize, minCov float64, skipEnc bool, outDir string, workers int) error {
	if workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", workers)
	}

	f, err := os.Open(sheetPath) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return fmt.Errorf("cannot open sample sheet: %w", err)
	}
	samples, err := parseSampleSheet(f)
	cerr := f.Close()
	if err != nil {
		return err
	}
	if cerr != nil {
		return fmt.Errorf("closing sample sheet: %w", cerr)
	}
	if len(samples) == 0 {
		return fmt.Errorf("sample sheet %s contains no samples", sheetPath)
	}
	logger.Printf("batch: %d samples, %d workers", len(samples), workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, s := range samples {
		s := s
		g.Go(func() error {
			dir := filepath.Join(outDir, s.id)
			if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // pipeline artifact
				return fmt.Errorf("sample %s: %w", s.id, err)
			}
			if err := runReads(logger, s.id, s.fastqs, gsize, minCov, skipEnc, dir); err != nil {
				return fmt.Errorf("sample %s: %w", s.id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// parseSampleSheet reads "sample fastq1 [fastq2]" lines. Blank lines and
// '#' comments are ignored; duplicate sample ids are an error since they
// would race on the same output directory.
func parseSampleSheet(r io.Reader) ([]batchSample, error) {
	var samples []batchSample
	seen := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("sample sheet line %d: want sample and 1-2 fastq paths, got %d fields", lineNo, len(fields))
		}
		if _, dup := seen[fields[0]]; dup {
			return nil, fmt.Errorf("sample sheet line %d: duplicate sample %q", lineNo, fields[0])
		}
		seen[fields[0]] = struct{}{}
		samples = append(samples, batchSample{id: fields[0], fastqs: fields[1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading sample sheet: %w", err)
	}
	return samples, nil
}
