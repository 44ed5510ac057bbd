// Package filter applies threshold rules to contigs and classifies assembly
// health against an expected genome size.
package filter

import (
	"fmt"
	"strconv"
)

// Op is a comparison kind for filter rules, replacing the legacy
// string-keyed operator dispatch while keeping the same serialized form at
// the boundary.
type Op int

// Comparison kinds.
const (
	OpGT Op = iota
	OpLT
	OpGE
	OpLE
	OpEQ
	OpNE
)

// ParseOp interprets the serialized operator form used in filter configs.
func ParseOp(s string) (Op, error) {
	switch s {
	case ">":
		return OpGT, nil
	case "<":
		return OpLT, nil
	case ">=":
		return OpGE, nil
	case "<=":
		return OpLE, nil
	case "==":
		return OpEQ, nil
	case "!=":
		return OpNE, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator %q", s)
	}
}

func (op Op) String() string {
	switch op {
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	case OpGE:
		return ">="
	case OpLE:
		return "<="
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	default:
		return "?"
	}
}

// Eval tests x against y under the comparison kind.
func (op Op) Eval(x, y float64) bool {
	switch op {
	case OpGT:
		return x > y
	case OpLT:
		return x < y
	case OpGE:
		return x >= y
	case OpLE:
		return x <= y
	case OpEQ:
		return x == y
	case OpNE:
		return x != y
	default:
		return false
	}
}

// Rule tests one contig attribute against a threshold value.
type Rule struct {
	Key   string
	Op    Op
	Value float64
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %s", r.Key, r.Op, formatNum(r.Value))
}

// Mode selects how a rule set combines.
type Mode int

// Rule combination semantics. And excludes a contig on its first failing
// rule; Or excludes only when every rule fails.
const (
	And Mode = iota
	Or
)

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
