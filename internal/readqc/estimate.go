package readqc

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	mstats "github.com/montanaflynn/stats"
)

// Output sentinels consumed by downstream orchestration. Corrupt replaces
// every output channel at once; Fail replaces only the coverage value.
const (
	SentinelCorrupt = "corrupt"
	SentinelFail    = "fail"
	SentinelNone    = "None"
)

// Options configures one estimation pass.
type Options struct {
	GenomeSizeMb float64
	MinCoverage  float64
	SkipEncoding bool
	Logger       *log.Logger // optional; nil disables logging
}

func (o Options) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}

// Result is the outcome of one estimation pass. When Corrupt is set the
// remaining fields are meaningless and every channel accessor reports the
// corrupt sentinel; partial results are never exposed.
type Result struct {
	Encodings     []string
	Phreds        []int
	Coverage      float64
	Pass          bool
	MaxReadLength int
	Corrupt       bool
}

// Estimate runs the single chained pass over the paired read streams,
// treating them as one logical concatenation of 4-line records. Quality
// lines (index 3 mod 4) feed the encoding observation; sequence lines
// (index 1 mod 4) feed the coverage numerator and max read length.
//
// A read error on any stream, or a total line count not divisible by 4,
// marks the whole result corrupt.
func Estimate(opts Options, streams ...io.Reader) (Result, error) {
	if opts.GenomeSizeMb <= 0 {
		return Result{}, fmt.Errorf("genome size must be positive, got %v", opts.GenomeSizeMb)
	}

	obs := NewObservation()
	var (
		names  []string
		phreds []int
	)
	chars := 0
	maxLen := 0
	lineNo := 0

	for _, r := range streams {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			switch lineNo % 4 {
			case 1:
				n := len(line)
				chars += n
				if n > maxLen {
					maxLen = n
				}
			case 3:
				if !opts.SkipEncoding && obs.Observe(line) {
					names, phreds = obs.Candidates()
				}
			}
			lineNo++
		}
		if err := sc.Err(); err != nil {
			opts.logf("read stream error after %d lines: %v", lineNo, err)
			return Result{Corrupt: true}, nil
		}
	}

	if lineNo%4 != 0 {
		opts.logf("truncated read stream: %d lines is not a whole number of records", lineNo)
		return Result{Corrupt: true}, nil
	}

	cov, err := mstats.Round(float64(chars)/(opts.GenomeSizeMb*1e6), 2)
	if err != nil {
		return Result{}, fmt.Errorf("rounding coverage estimate: %w", err)
	}

	return Result{
		Encodings:     names,
		Phreds:        phreds,
		Coverage:      cov,
		Pass:          cov >= opts.MinCoverage,
		MaxReadLength: maxLen,
	}, nil
}

// EstimateFiles opens each path with the supplied opener (typically
// fqio.Open), releasing every stream before returning. Open failures on a
// compressed or unreadable file are reported as a corrupt result, matching
// the estimator's fail-fast contract.
func EstimateFiles(opts Options, open func(string) (io.ReadCloser, error), paths ...string) (Result, error) {
	streams := make([]io.Reader, 0, len(paths))
	for _, p := range paths {
		rc, err := open(p)
		if err != nil {
			opts.logf("cannot open %s: %v", p, err)
			closeAll(streams)
			return Result{Corrupt: true}, nil
		}
		streams = append(streams, rc)
	}
	defer closeAll(streams)
	return Estimate(opts, streams...)
}

func closeAll(streams []io.Reader) {
	for _, s := range streams {
		if c, ok := s.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// EncodingValue is the encoding output channel: a joint comma-separated list
// while the candidate set is ambiguous, the single name once narrowed, or
// None when nothing matched or the guess was skipped.
func (r Result) EncodingValue() string {
	if r.Corrupt {
		return SentinelCorrupt
	}
	if len(r.Encodings) == 0 {
		return SentinelNone
	}
	return strings.Join(r.Encodings, ",")
}

// PhredValue mirrors EncodingValue for the phred offsets.
func (r Result) PhredValue() string {
	if r.Corrupt {
		return SentinelCorrupt
	}
	if len(r.Phreds) == 0 {
		return SentinelNone
	}
	parts := make([]string, len(r.Phreds))
	for i, p := range r.Phreds {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// CoverageValue is the coverage output channel: the numeric estimate on
// pass, the fail sentinel below threshold. Downstream consumers branch on
// the sentinel, so the numeric value is never emitted on failure.
func (r Result) CoverageValue() string {
	if r.Corrupt {
		return SentinelCorrupt
	}
	if !r.Pass {
		return SentinelFail
	}
	return FormatCoverage(r.Coverage)
}

// ReportLine is the coverage report channel row: sample, estimate, PASS/FAIL.
func (r Result) ReportLine(sample string) string {
	if r.Corrupt {
		return SentinelCorrupt
	}
	status := "PASS"
	if !r.Pass {
		status = "FAIL"
	}
	return fmt.Sprintf("%s,%s,%s\n", sample, FormatCoverage(r.Coverage), status)
}

// MaxLenValue is the maximum read length output channel.
func (r Result) MaxLenValue() string {
	if r.Corrupt {
		return SentinelCorrupt
	}
	return strconv.Itoa(r.MaxReadLength)
}

// FormatCoverage renders a 2-decimal-rounded estimate the way the legacy
// reports did: trailing zeros trimmed but at least one decimal kept, so
// 15 prints as "15.0" and 0.5 as "0.5".
func FormatCoverage(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}
