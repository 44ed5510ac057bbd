package filter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one row of the external per-contig coverage table: the contig
// identifier, its alignment coverage and its length, the latter parsed from
// the `length_<n>_` token the assembler embeds in the identifier.
type Entry struct {
	Contig string
	Cov    int
	Length int
}

var lengthRe = regexp.MustCompile(`length_(.+?)_`)

// ParseCoverage reads the whitespace-delimited coverage table and returns
// the entries in input order together with the total assembly length and
// total coverage. An identifier without the length token is fatal.
func ParseCoverage(r io.Reader) (entries []Entry, totalLen, totalCov int, err error) {
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
		if len(fields) < 2 {
			return nil, 0, 0, fmt.Errorf("coverage table line %d: expected contig and coverage, got %q", lineNo, line)
		}
		cov, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, 0, 0, fmt.Errorf("coverage table line %d: bad coverage %q: %w", lineNo, fields[1], err)
		}
		m := lengthRe.FindStringSubmatch(line)
		if m == nil {
			return nil, 0, 0, fmt.Errorf("coverage table line %d: no length_<n>_ token in %q", lineNo, fields[0])
		}
		length, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, 0, 0, fmt.Errorf("coverage table line %d: bad length token %q: %w", lineNo, m[1], err)
		}

		entries = append(entries, Entry{Contig: fields[0], Cov: cov, Length: length})
		totalCov += cov
		totalLen += length
	}
	if err := sc.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("reading coverage table: %w", err)
	}
	return entries, totalLen, totalCov, nil
}

// AttachCoverage joins coverage entries onto contigs by identifier. Every
// contig must have an entry so a later "cov" rule cannot silently see zero.
func AttachCoverage(contigs []Contig, entries []Entry) error {
	byID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byID[e.Contig] = e
	}
	for i := range contigs {
		e, ok := byID[contigs[i].Header]
		if !ok {
			return fmt.Errorf("%w: %q", ErrNoCoverage, contigs[i].Header)
		}
		contigs[i].AlnCov = float64(e.Cov)
		contigs[i].HasAlnCov = true
	}
	return nil
}

// Threshold is a minimum-coverage setting decided once at the boundary:
// either a fixed value or the adaptive auto mode.
type Threshold struct {
	auto  bool
	value float64
}

// Auto is the adaptive threshold mode.
func Auto() Threshold {
	return Threshold{auto: true}
}

// Fixed is a literal minimum coverage.
func Fixed(v float64) Threshold {
	return Threshold{value: v}
}

// ParseThreshold interprets the legacy string form: "auto" or a number.
func ParseThreshold(s string) (Threshold, error) {
	if strings.EqualFold(strings.TrimSpace(s), "auto") {
		return Auto(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("minimum coverage must be a number or \"auto\": %w", err)
	}
	return Fixed(v), nil
}

// IsAuto reports whether the adaptive mode is set.
func (t Threshold) IsAuto() bool {
	return t.auto
}

// Resolve returns the effective minimum coverage. Auto mode takes 30% of
// the assembly-wide mean coverage and clamps it up to a floor of 10;
// downstream filtering depends on this exact formula.
func (t Threshold) Resolve(totalCov, totalLen float64) (float64, error) {
	if !t.auto {
		return t.value, nil
	}
	if totalLen <= 0 {
		return 0, errors.New("cannot resolve auto coverage threshold: assembly length is zero")
	}
	min := (totalCov / totalLen) * 0.3
	if min < 10 {
		min = 10
	}
	return min, nil
}
