package stats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	mstats "github.com/montanaflynn/stats"

	"asmqc/internal/fasta"
)

// ErrNoDepth reports a contig present in the assembly but absent from the
// per-base depth table. Defaulting to zero coverage would silently
// misclassify contig health, so the lookup fails instead.
var ErrNoDepth = errors.New("contig missing from depth table")

// Boundary maps one contig onto its absolute [Start,End) offset range in the
// concatenated assembly.
type Boundary struct {
	ID    string
	Start int
	End   int
}

// Boundaries builds the contig-boundary map by walking records in insertion
// order and accumulating offsets. Rebuild it whenever the window size or the
// record set changes; it is cheap.
func Boundaries(asm *fasta.Assembly) []Boundary {
	bs := make([]Boundary, 0, len(asm.Records))
	offset := 0
	for _, rec := range asm.Records {
		bs = append(bs, Boundary{ID: rec.ID, Start: offset, End: offset + len(rec.Sequence)})
		offset += len(rec.Sequence)
	}
	return bs
}

// Track is a non-overlapping sliding-window series over the concatenated
// assembly: one value per window, the numeric node id of the contig covering
// the window start, and the absolute start offset. Boundaries carries the
// contig end offsets for plot x-bars.
type Track struct {
	Values     []float64
	Labels     []int
	Positions  []int
	Boundaries []int
}

// GCTrack slides a window of the given size across the concatenated sequence
// and computes per-window GC proportion using the WindowGC convention.
func GCTrack(asm *fasta.Assembly, window int) (*Track, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", window)
	}
	var sb strings.Builder
	for _, rec := range asm.Records {
		sb.WriteString(rec.Sequence)
	}
	concat := sb.String()

	return buildTrack(Boundaries(asm), len(concat), window, func(start, end int) (float64, error) {
		return WindowGC(concat[start:end]), nil
	})
}

// CoverageTrack slides a window across the concatenated per-base depth
// values, contig by contig in insertion order. Every contig must appear in
// the depth table; a missing contig is ErrNoDepth.
func CoverageTrack(asm *fasta.Assembly, depths map[string][]int, window int) (*Track, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", window)
	}
	var all []float64
	for _, rec := range asm.Records {
		d, ok := depths[rec.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoDepth, rec.ID)
		}
		for _, v := range d {
			all = append(all, float64(v))
		}
	}

	return buildTrack(Boundaries(asm), len(all), window, func(start, end int) (float64, error) {
		mean, err := mstats.Mean(all[start:end])
		if err != nil {
			return 0, fmt.Errorf("window mean at %d: %w", start, err)
		}
		return mean, nil
	})
}

func buildTrack(bs []Boundary, total, window int, agg func(start, end int) (float64, error)) (*Track, error) {
	t := &Track{}
	for _, b := range bs {
		t.Boundaries = append(t.Boundaries, b.End)
	}
	for i := 0; i < total; i += window {
		end := i + window
		if end > total {
			end = total
		}
		label, err := labelAt(bs, i)
		if err != nil {
			return nil, err
		}
		v, err := agg(i, end)
		if err != nil {
			return nil, err
		}
		t.Values = append(t.Values, v)
		t.Labels = append(t.Labels, label)
		t.Positions = append(t.Positions, i)
	}
	return t, nil
}

// labelAt scans the boundary map in insertion order and returns the node id
// of the first contig whose range contains pos. Ranges built from Parse
// output cannot overlap; first match wins regardless.
func labelAt(bs []Boundary, pos int) (int, error) {
	for _, b := range bs {
		if pos >= b.Start && pos < b.End {
			return fasta.NodeID(b.ID)
		}
	}
	return 0, fmt.Errorf("no contig covers position %d", pos)
}

// ParseDepth reads a whitespace-delimited per-base depth table of
// (contig id, 1-based position, depth) rows into per-contig ordered depth
// slices. Row order within a contig is trusted, not re-sorted.
func ParseDepth(r io.Reader) (map[string][]int, error) {
	depths := make(map[string][]int)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("depth table line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		if _, err := strconv.Atoi(fields[1]); err != nil {
			return nil, fmt.Errorf("depth table line %d: bad position %q: %w", lineNo, fields[1], err)
		}
		depth, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("depth table line %d: bad depth %q: %w", lineNo, fields[2], err)
		}
		depths[fields[0]] = append(depths[fields[0]], depth)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading depth table: %w", err)
	}
	return depths, nil
}
