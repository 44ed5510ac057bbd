package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"asmqc/internal/fasta"
)

// Contig is the filterable view of one assembled sequence: the record plus
// every attribute a rule can test. KmerCov comes from the trailing header
// token of the assembler's `..._cov_<v>` convention; AlnCov is attached
// later from an external coverage table.
type Contig struct {
	ID       int
	Header   string
	Sequence string
	Length   int
	KmerCov  float64

	AT, GC, N             int
	ATProp, GCProp, NProp float64

	AlnCov    float64
	HasAlnCov bool
}

// ErrNoCoverage reports a contig with no entry in the external coverage
// table when a rule needs one. Defaulting to zero would silently exclude
// the contig for the wrong reason.
var ErrNoCoverage = errors.New("contig missing from coverage table")

// Contigs builds the filterable view of an assembly, preserving record
// order. The ordinal position is the contig id used in filter reports.
func Contigs(asm *fasta.Assembly) ([]Contig, error) {
	out := make([]Contig, 0, len(asm.Records))
	for i, rec := range asm.Records {
		cov, err := headerCov(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("contig %q: %w", rec.ID, err)
		}
		c := Contig{
			ID:       i,
			Header:   rec.ID,
			Sequence: rec.Sequence,
			Length:   len(rec.Sequence),
			KmerCov:  cov,
		}
		c.countBases()
		out = append(out, c)
	}
	return out, nil
}

// Attr resolves the named rule attribute.
func (c Contig) Attr(key string) (float64, error) {
	switch key {
	case "length":
		return float64(c.Length), nil
	case "kmer_cov":
		return c.KmerCov, nil
	case "cov":
		if !c.HasAlnCov {
			return 0, fmt.Errorf("%w: %q", ErrNoCoverage, c.Header)
		}
		return c.AlnCov, nil
	case "gc_prop":
		return c.GCProp, nil
	case "at_prop":
		return c.ATProp, nil
	case "n_prop":
		return c.NProp, nil
	default:
		return 0, fmt.Errorf("unknown contig attribute %q", key)
	}
}

// countBases fills the AT/GC/N counts and proportions. Everything that is
// not an upper-case A, T, G or C counts as missing.
func (c *Contig) countBases() {
	c.AT = strings.Count(c.Sequence, "A") + strings.Count(c.Sequence, "T")
	c.GC = strings.Count(c.Sequence, "G") + strings.Count(c.Sequence, "C")
	c.N = c.Length - (c.AT + c.GC)
	if c.Length == 0 {
		return
	}
	c.ATProp = float64(c.AT) / float64(c.Length)
	c.GCProp = float64(c.GC) / float64(c.Length)
	c.NProp = float64(c.N) / float64(c.Length)
}

// headerCov parses the k-mer coverage from the last underscore-delimited
// header token.
func headerCov(header string) (float64, error) {
	idx := strings.LastIndex(header, "_")
	if idx < 0 || idx == len(header)-1 {
		return 0, errors.New("no coverage token in header")
	}
	cov, err := strconv.ParseFloat(header[idx+1:], 64)
	if err != nil {
		return 0, fmt.Errorf("bad coverage token: %w", err)
	}
	return cov, nil
}
