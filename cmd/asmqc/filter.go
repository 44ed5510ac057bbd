package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"asmqc/internal/fasta"
	"asmqc/internal/filter"
	"asmqc/internal/report"
)

// FilterCommand creates the `filter` subcommand: contig-level filtering on
// length, k-mer coverage, optional alignment coverage and the always-on GC
// bounds, followed by health classification against the expected genome
// size.
func FilterCommand(logger *log.Logger) *cobra.Command {
	var (
		sample       string
		gsize        float64
		minContigLen int
		minKmerCov   float64
		maxContigs   int
		covFile      string
		minCoverage  string
		outDir       string
	)

	cmd := &cobra.Command{
		Use:   "filter <assembly.fasta>",
		Short: "Filter contigs and classify assembly health",
		Long: `Filter contigs on minimum length and k-mer coverage (plus the GC
proportion bounds, which are always applied). With --coverage, an external
per-contig coverage table adds an alignment-coverage rule whose threshold
may be a number or "auto" (30% of the assembly-wide mean, floor 10).

If applying the coverage rule drops the filtered assembly below 80% of the
expected genome size, the rule is dropped and the length/k-mer filter
stands; the health verdict is computed on the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(logger, filterConfig{
				sample:       sample,
				asmPath:      args[0],
				gsize:        gsize,
				minContigLen: minContigLen,
				minKmerCov:   minKmerCov,
				maxContigs:   maxContigs,
				covFile:      covFile,
				minCoverage:  minCoverage,
				outDir:       outDir,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&sample, "sample", "s", "", "sample identifier (required)")
	flags.Float64VarP(&gsize, "genome-size", "g", 0, "expected genome size in Mb (required)")
	flags.IntVarP(&minContigLen, "min-contig-len", "l", 200, "minimum contig length")
	flags.Float64VarP(&minKmerCov, "min-kmer-cov", "k", 2, "minimum k-mer coverage")
	flags.IntVarP(&maxContigs, "max-contigs", "m", 100, "maximum contigs per 1.5 Mb")
	flags.StringVarP(&covFile, "coverage", "t", "", "per-contig alignment coverage table")
	flags.StringVarP(&minCoverage, "min-coverage", "c", "auto", `alignment coverage threshold (number or "auto")`)
	flags.StringVarP(&outDir, "outdir", "o", ".", "directory for outputs and status sentinel")

	_ = cmd.MarkFlagRequired("sample")
	_ = cmd.MarkFlagRequired("genome-size")

	return cmd
}

type filterConfig struct {
	sample       string
	asmPath      string
	gsize        float64
	minContigLen int
	minKmerCov   float64
	maxContigs   int
	covFile      string
	minCoverage  string
	outDir       string
}

func runFilter(logger *log.Logger, cfg filterConfig) error {
	statusPath := filepath.Join(cfg.outDir, ".status")
	fail := func(err error) error {
		_ = report.WriteStatus(statusPath, report.StatusError)
		return err
	}

	asm, err := fasta.ParseFile(cfg.asmPath)
	if err != nil {
		return fail(err)
	}
	contigs, err := filter.Contigs(asm)
	if err != nil {
		return fail(err)
	}

	baseRules := []filter.Rule{
		{Key: "length", Op: filter.OpGE, Value: float64(cfg.minContigLen)},
		{Key: "kmer_cov", Op: filter.OpGE, Value: cfg.minKmerCov},
	}
	rules := baseRules

	withCov := cfg.covFile != ""
	if withCov {
		covRule, err := alignmentCoverageRule(logger, contigs, cfg.covFile, cfg.minCoverage)
		if err != nil {
			return fail(err)
		}
		rules = append(append([]filter.Rule{}, baseRules...), covRule)
	}

	res, err := filter.Filter(contigs, filter.And, logger, rules...)
	if err != nil {
		return fail(err)
	}
	flen := filter.FilteredLength(contigs, res)

	// When the coverage rule alone would shrink the assembly below 80% of
	// the expected genome size, it is dropped and the base filter stands.
	if withCov && float64(flen) < cfg.gsize*1e6*0.8 {
		logger.Printf("sample %s: filtered length %d below 80%% of expected genome size, dropping the coverage rule",
			cfg.sample, flen)
		res, err = filter.Filter(contigs, filter.And, logger, baseRules...)
		if err != nil {
			return fail(err)
		}
		flen = filter.FilteredLength(contigs, res)
	}

	verdict := filter.Classify(flen, len(res.KeptIDs), cfg.gsize, cfg.maxContigs)
	logger.Printf("sample %s: kept %d/%d contigs, %d bp, passed=%v warnings=%v",
		cfg.sample, len(res.KeptIDs), len(contigs), flen, verdict.Passed, verdict.Warnings)

	if err := writeFilterOutputs(cfg, contigs, res, verdict); err != nil {
		return fail(err)
	}

	status := report.StatusPass
	if !verdict.Passed {
		status = report.StatusFail
	}
	return report.WriteStatus(statusPath, status)
}

// alignmentCoverageRule parses the coverage table, attaches per-contig
// values and resolves the threshold (fixed or auto).
func alignmentCoverageRule(logger *log.Logger, contigs []filter.Contig, covFile, minCoverage string) (filter.Rule, error) {
	f, err := os.Open(covFile) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return filter.Rule{}, fmt.Errorf("cannot open coverage table: %w", err)
	}
	entries, totalLen, totalCov, perr := filter.ParseCoverage(f)
	_ = f.Close()
	if perr != nil {
		return filter.Rule{}, perr
	}

	if err := filter.AttachCoverage(contigs, entries); err != nil {
		return filter.Rule{}, err
	}

	thr, err := filter.ParseThreshold(minCoverage)
	if err != nil {
		return filter.Rule{}, err
	}
	minCov, err := thr.Resolve(float64(totalCov), float64(totalLen))
	if err != nil {
		return filter.Rule{}, err
	}
	if thr.IsAuto() {
		logger.Printf("auto minimum alignment coverage resolved to %.2f", minCov)
	}

	return filter.Rule{Key: "cov", Op: filter.OpGE, Value: minCov}, nil
}

func writeFilterOutputs(cfg filterConfig, contigs []filter.Contig, res filter.Result, verdict filter.Verdict) error {
	asmPath := filepath.Join(cfg.outDir, cfg.sample+".assembly.fasta")
	if err := writeFilteredAssembly(asmPath, cfg.sample, contigs, res); err != nil {
		return err
	}

	repPath := filepath.Join(cfg.outDir, cfg.sample+".report.csv")
	rf, err := os.Create(repPath) //nolint:gosec // pipeline artifact
	if err != nil {
		return fmt.Errorf("cannot create filter report: %w", err)
	}
	if err := report.WriteFilterReport(rf, res.Report); err != nil {
		_ = rf.Close()
		return err
	}
	if err := rf.Close(); err != nil {
		return fmt.Errorf("closing filter report: %w", err)
	}

	warnings, failTag := verdict.Tags()
	pf, err := os.Create(filepath.Join(cfg.outDir, ".report.json")) //nolint:gosec // pipeline artifact
	if err != nil {
		return fmt.Errorf("cannot create process report: %w", err)
	}
	if err := report.NewProcessReport("assembly_filter", warnings, failTag).WriteJSON(pf); err != nil {
		_ = pf.Close()
		return err
	}
	return pf.Close()
}

// writeFilteredAssembly writes the kept contigs with sample-prefixed
// headers. The unfiltered records stay untouched so reports can be
// regenerated from them.
func writeFilteredAssembly(path, sample string, contigs []filter.Contig, res filter.Result) error {
	f, err := os.Create(path) //nolint:gosec // pipeline artifact
	if err != nil {
		return fmt.Errorf("cannot create filtered assembly: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<20)

	for _, c := range contigs {
		if !res.Kept(c.ID) {
			continue
		}
		if _, err := fmt.Fprintf(bw, ">%s_%s\n%s\n", sample, c.Header, c.Sequence); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing filtered assembly: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flushing filtered assembly: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing filtered assembly: %w", err)
	}
	return nil
}
