// Package readqc estimates quality encoding and sequencing coverage from a
// single streaming pass over raw paired read files.
package readqc

// Standard is one known quality-encoding standard: the phred offset and the
// inclusive code-point range its quality characters occupy.
type Standard struct {
	Name  string
	Phred int
	Min   int
	Max   int
}

// Standards lists the known encodings in reporting order.
var Standards = []Standard{
	{Name: "Sanger", Phred: 33, Min: 33, Max: 73},
	{Name: "Illumina-1.8", Phred: 33, Min: 33, Max: 74},
	{Name: "Solexa", Phred: 64, Min: 59, Max: 104},
	{Name: "Illumina-1.3", Phred: 64, Min: 64, Max: 104},
	{Name: "Illumina-1.5", Phred: 64, Min: 66, Max: 105},
}

// Observation is the running (min, max) code-point bound over quality
// characters seen so far. Bounds only widen, so the candidate set computed
// from them never grows back once narrowed.
type Observation struct {
	Min int
	Max int
}

// NewObservation starts at (99, 0) so the first quality character always
// widens the bounds.
func NewObservation() Observation {
	return Observation{Min: 99, Max: 0}
}

// Observe folds one quality line into the bounds and reports whether they
// widened, letting callers skip recomputing candidates on unchanged bounds.
func (o *Observation) Observe(line string) bool {
	widened := false
	for _, r := range line {
		v := int(r)
		if v < o.Min {
			o.Min = v
			widened = true
		}
		if v > o.Max {
			o.Max = v
			widened = true
		}
	}
	return widened
}

// Candidates returns the standards whose range is a superset of the observed
// bounds, plus their distinct phred offsets, both in reporting order. More
// than one candidate means the encoding is still ambiguous; zero means the
// bounds fall outside every known standard.
func (o Observation) Candidates() (names []string, phreds []int) {
	for _, s := range Standards {
		if o.Min >= s.Min && o.Max <= s.Max {
			names = append(names, s.Name)
			if !containsInt(phreds, s.Phred) {
				phreds = append(phreds, s.Phred)
			}
		}
	}
	return names, phreds
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
