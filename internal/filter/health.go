package filter

import "fmt"

// Verdict classifies a filtered assembly against the expected genome size.
// It is produced once per evaluation and never mutated.
type Verdict struct {
	Passed     bool
	Warnings   []string
	FailReason string

	FilteredLength int
	ContigCount    int
}

// Verdict reasons.
const (
	FailSmallAssembly = "assembly too small"
	WarnLargeAssembly = "assembly larger than expected"
	WarnExcessContigs = "excessive contig count"
)

// Classify checks the filtered length and contig count against the expected
// genome size G (in Mb): below 80% of G fails, above 150% of G warns, and a
// contig count above maxContigsPer1_5Mb * G / 1.5 warns. The three checks
// are independent and all evaluated, so every applicable warning is reported
// even when the assembly fails on size. The classifier holds no state and
// may be re-invoked after a caller re-filters.
func Classify(filteredLen, ncontigs int, gsizeMb float64, maxContigsPer1_5Mb int) Verdict {
	v := Verdict{
		Passed:         true,
		FilteredLength: filteredLen,
		ContigCount:    ncontigs,
	}

	t80 := gsizeMb * 1e6 * 0.8
	t150 := gsizeMb * 1e6 * 1.5

	if float64(filteredLen) < t80 {
		v.Passed = false
		v.FailReason = FailSmallAssembly
	}
	if float64(filteredLen) > t150 {
		v.Warnings = append(v.Warnings, WarnLargeAssembly)
	}
	if float64(ncontigs) > float64(maxContigsPer1_5Mb)*gsizeMb/1.5 {
		v.Warnings = append(v.Warnings, WarnExcessContigs)
	}
	return v
}

// Tags renders the verdict in the legacy process-report vocabulary.
func (v Verdict) Tags() (warnings []string, fail string) {
	for _, w := range v.Warnings {
		switch w {
		case WarnExcessContigs:
			warnings = append(warnings, "excessive_contigs:moderate")
		case WarnLargeAssembly:
			warnings = append(warnings, fmt.Sprintf("large_genome_size_(%d)", v.FilteredLength))
		}
	}
	if !v.Passed {
		fail = fmt.Sprintf("small_genome_size_(%d)", v.FilteredLength)
	}
	return warnings, fail
}
