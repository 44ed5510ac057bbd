package filter

import (
	"fmt"
	"log"
)

// MinGCBound is the GC proportion floor always enforced on contig filters;
// the matching ceiling is 1 - MinGCBound. These bounds are appended to every
// caller-supplied rule set, never optional.
const MinGCBound = 0.05

// ContigReport records the filtering outcome for one contig: "pass" or the
// first failing rule rendered verbatim as key/value/threshold.
type ContigReport struct {
	ID     int
	Passed bool
	Reason string
}

// Result is one filtering pass over a contig set. KeptIDs preserves contig
// order; Report holds one entry per contig in the same order.
type Result struct {
	KeptIDs []int
	Report  []ContigReport
}

// Kept reports whether the contig id survived the filter.
func (r Result) Kept(id int) bool {
	for _, k := range r.KeptIDs {
		if k == id {
			return true
		}
	}
	return false
}

// Filter evaluates the rule set over every contig. The GC bound rules are
// appended to the caller's rules before evaluation. A nil logger disables
// the per-pass debug line.
func Filter(contigs []Contig, mode Mode, logger *log.Logger, rules ...Rule) (Result, error) {
	all := make([]Rule, 0, len(rules)+2)
	all = append(all, rules...)
	all = append(all,
		Rule{Key: "gc_prop", Op: OpGE, Value: MinGCBound},
		Rule{Key: "gc_prop", Op: OpLE, Value: 1 - MinGCBound},
	)

	if logger != nil {
		logger.Printf("filtering %d contigs with %d rules (%v mode)", len(contigs), len(all), mode)
	}

	res := Result{}
	for _, c := range contigs {
		passed, reason, err := evaluate(c, mode, all)
		if err != nil {
			return Result{}, fmt.Errorf("contig %d: %w", c.ID, err)
		}
		rep := ContigReport{ID: c.ID, Passed: passed, Reason: reason}
		if passed {
			rep.Reason = "pass"
			res.KeptIDs = append(res.KeptIDs, c.ID)
		}
		res.Report = append(res.Report, rep)
	}
	return res, nil
}

// evaluate runs the rules in order. And mode short-circuits on the first
// failure and records it; Or mode passes on the first success and, when
// everything fails, records the first failure as the reason.
func evaluate(c Contig, mode Mode, rules []Rule) (bool, string, error) {
	firstFail := ""
	for _, r := range rules {
		v, err := c.Attr(r.Key)
		if err != nil {
			return false, "", err
		}
		if r.Op.Eval(v, r.Value) {
			if mode == Or {
				return true, "", nil
			}
			continue
		}
		reason := fmt.Sprintf("%s/%s/%s", r.Key, formatNum(v), formatNum(r.Value))
		if mode == And {
			return false, reason, nil
		}
		if firstFail == "" {
			firstFail = reason
		}
	}
	if mode == Or {
		return false, firstFail, nil
	}
	return true, "", nil
}

// FilteredLength sums the lengths of the kept contigs.
func FilteredLength(contigs []Contig, res Result) int {
	kept := make(map[int]bool, len(res.KeptIDs))
	for _, id := range res.KeptIDs {
		kept[id] = true
	}
	total := 0
	for _, c := range contigs {
		if kept[c.ID] {
			total += c.Length
		}
	}
	return total
}

func (m Mode) String() string {
	if m == Or {
		return "or"
	}
	return "and"
}
