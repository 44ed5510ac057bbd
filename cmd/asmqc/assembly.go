package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"asmqc/internal/fasta"
	"asmqc/internal/report"
	"asmqc/internal/stats"
)

// AssemblyCommand creates the `assembly` subcommand: summary statistics for
// an assembly FASTA plus an optional JSON report with sliding-window tracks.
func AssemblyCommand(logger *log.Logger) *cobra.Command {
	var (
		sample    string
		window    int
		depthFile string
		jsonFile  string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "assembly <assembly.fasta>",
		Short: "Summarize an assembly: contig count, N50, GC and sliding windows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssembly(logger, sample, args[0], window, depthFile, jsonFile, outDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&sample, "sample", "s", "", "sample identifier (required)")
	flags.IntVarP(&window, "window", "w", 2000, "sliding window size in bp")
	flags.StringVarP(&depthFile, "depth", "d", "", "per-base depth table for the coverage track")
	flags.StringVarP(&jsonFile, "json", "j", "", "write the plotData JSON report here")
	flags.StringVarP(&outDir, "outdir", "o", ".", "directory for the CSV report and status sentinel")

	_ = cmd.MarkFlagRequired("sample")

	return cmd
}

func runAssembly(logger *log.Logger, sample, asmPath string, window int, depthFile, jsonFile, outDir string) error {
	statusPath := filepath.Join(outDir, ".status")
	fail := func(err error) error {
		_ = report.WriteStatus(statusPath, report.StatusError)
		return err
	}

	asm, err := fasta.ParseFile(asmPath)
	if err != nil {
		return fail(err)
	}

	sum, err := stats.Summarize(asm)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", asmPath, err))
	}
	logger.Printf("sample %s: %d contigs, %d bp, N50 %d", sample, sum.NContigs, sum.TotalLength, sum.N50)

	csvPath := filepath.Join(outDir, sample+"_assembly_report.csv")
	if err := os.WriteFile(csvPath, []byte(report.SummaryRow(sample, sum)), 0o644); err != nil { //nolint:gosec // pipeline artifact
		return fail(fmt.Errorf("writing %s: %w", csvPath, err))
	}

	if jsonFile != "" {
		if err := writeAssemblyJSON(sample, asm, sum, window, depthFile, filepath.Join(outDir, jsonFile)); err != nil {
			return fail(err)
		}
	}

	return report.WriteStatus(statusPath, report.StatusPass)
}

func writeAssemblyJSON(sample string, asm *fasta.Assembly, sum stats.Summary, window int, depthFile, path string) error {
	gcTrack, err := stats.GCTrack(asm, window)
	if err != nil {
		return fmt.Errorf("GC track: %w", err)
	}

	var covTrack *stats.Track
	if depthFile != "" {
		f, err := os.Open(depthFile) //nolint:gosec // CLI tool needs to open user-specified files
		if err != nil {
			return fmt.Errorf("cannot open depth table: %w", err)
		}
		depths, derr := stats.ParseDepth(f)
		_ = f.Close()
		if derr != nil {
			return derr
		}
		covTrack, err = stats.CoverageTrack(asm, depths, window)
		if err != nil {
			return fmt.Errorf("coverage track: %w", err)
		}
	}

	sizeDist := make([]int, 0, asm.Len())
	for _, rec := range asm.Records {
		sizeDist = append(sizeDist, len(rec.Sequence))
	}

	f, err := os.Create(path) //nolint:gosec // pipeline artifact
	if err != nil {
		return fmt.Errorf("cannot create report: %w", err)
	}
	defer f.Close() //nolint:errcheck // error captured by WriteJSON path

	return report.Build(sample, sum, sizeDist, gcTrack, covTrack).WriteJSON(f)
}
