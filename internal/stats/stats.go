// Package stats computes assembly summary statistics and sliding-window
// tracks over an ordered contig set.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"asmqc/internal/fasta"
)

// ErrEmptyAssembly reports a summary request over zero contigs. Averages are
// undefined there; the caller gets an error, never a NaN.
var ErrEmptyAssembly = errors.New("assembly has no contigs")

// Summary aggregates whole-assembly metrics. It is derived data: recompute
// after any filtering operation rather than patching fields.
type Summary struct {
	NContigs      int
	AvgContigSize float64
	N50           int
	TotalLength   int
	AvgGC         float64
	MissingData   int
}

// Summarize walks the records once in insertion order and aggregates contig
// count, lengths, N50, GC and missing-data ('N', upper case only) counts.
func Summarize(asm *fasta.Assembly) (Summary, error) {
	if asm == nil || len(asm.Records) == 0 {
		return Summary{}, ErrEmptyAssembly
	}

	lengths := make([]int, 0, len(asm.Records))
	sizes := make([]float64, 0, len(asm.Records))
	gcs := make([]float64, 0, len(asm.Records))
	total := 0
	missing := 0

	for _, rec := range asm.Records {
		n := len(rec.Sequence)
		lengths = append(lengths, n)
		sizes = append(sizes, float64(n))
		total += n
		gcs = append(gcs, GCProportion(rec.Sequence))
		missing += strings.Count(rec.Sequence, "N")
	}

	avgSize, err := mstats.Mean(sizes)
	if err != nil {
		return Summary{}, fmt.Errorf("average contig size: %w", err)
	}
	avgGC, err := mstats.Mean(gcs)
	if err != nil {
		return Summary{}, fmt.Errorf("average GC: %w", err)
	}

	return Summary{
		NContigs:      len(asm.Records),
		AvgContigSize: avgSize,
		N50:           N50(lengths),
		TotalLength:   total,
		AvgGC:         avgGC,
		MissingData:   missing,
	}, nil
}

// N50 is the length of the first contig, in descending length order, at
// which the cumulative length reaches half of the total. The comparison is
// integer-exact: 2*cum >= total.
func N50(lengths []int) int {
	if len(lengths) == 0 {
		return 0
	}
	sorted := append([]int(nil), lengths...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	total := 0
	for _, l := range sorted {
		total += l
	}
	cum := 0
	for _, l := range sorted {
		cum += l
		if 2*cum >= total {
			return l
		}
	}
	return 0
}

// GCProportion counts upper-case G and C only, the whole-assembly summary
// convention. WindowGC lower-cases its slice first; the two conventions are
// intentionally distinct and must not be unified.
func GCProportion(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := strings.Count(seq, "G") + strings.Count(seq, "C")
	return float64(gc) / float64(len(seq))
}

// WindowGC is the sliding-window GC convention: the slice is lower-cased
// before counting, so mixed-case input is counted case-insensitively.
func WindowGC(window string) float64 {
	if len(window) == 0 {
		return 0
	}
	w := strings.ToLower(window)
	gc := strings.Count(w, "g") + strings.Count(w, "c")
	return float64(gc) / float64(len(w))
}
