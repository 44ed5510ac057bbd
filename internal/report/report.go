// Package report serializes QC outcomes at the pipeline boundary: the
// legacy CSV summary row, the tableRow/plotData JSON report, the per-contig
// filter report, the process warnings/fail JSON and the status sentinel.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"asmqc/internal/filter"
	"asmqc/internal/stats"
)

// Status is the single-token sentinel consumed by downstream orchestration.
type Status string

// Run outcomes.
const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusError   Status = "error"
	StatusCorrupt Status = "corrupt"
)

// WriteStatus writes the sentinel file. Exactly one token, no newline,
// matching what the orchestration layer greps for.
func WriteStatus(path string, s Status) error {
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil { //nolint:gosec // pipeline artifact
		return fmt.Errorf("writing status sentinel: %w", err)
	}
	return nil
}

// SummaryRow formats the one-line CSV summary. The sample id is separated
// by ", " and the remaining values by plain commas; downstream parsers
// depend on this historical formatting.
func SummaryRow(sample string, s stats.Summary) string {
	vals := []string{
		strconv.Itoa(s.NContigs),
		formatFloat(s.AvgContigSize),
		strconv.Itoa(s.N50),
		strconv.Itoa(s.TotalLength),
		formatFloat(s.AvgGC),
		strconv.Itoa(s.MissingData),
	}
	return fmt.Sprintf("%s, %s\n", sample, strings.Join(vals, ","))
}

// Series is one sliding-window track in the JSON report.
type Series struct {
	Data       []float64 `json:"data"`
	Labels     []int     `json:"labels"`
	Positions  []int     `json:"positions"`
	Boundaries []int     `json:"xbars"`
}

// NewSeries converts a computed track into its serialized form.
func NewSeries(t *stats.Track) *Series {
	if t == nil {
		return nil
	}
	return &Series{
		Data:       t.Values,
		Labels:     t.Labels,
		Positions:  t.Positions,
		Boundaries: t.Boundaries,
	}
}

// PlotData is the visualization payload of the JSON report.
type PlotData struct {
	Contigs     int     `json:"contigs"`
	AssembledBp int     `json:"assembledBp"`
	SizeDist    []int   `json:"sizeDist"`
	GCSliding   *Series `json:"gcSliding,omitempty"`
	CovSliding  *Series `json:"covSliding,omitempty"`
}

// Cell is one headline entry in the report table row.
type Cell struct {
	Header string `json:"header"`
	Value  any    `json:"value"`
}

// Report is the versioned JSON contract with the reporting front end. The
// tableRow and plotData key names are a compatibility surface.
type Report struct {
	TableRow []Cell   `json:"tableRow"`
	PlotData PlotData `json:"plotData"`
}

// Build assembles the JSON report from the summary, the per-contig size
// distribution and the optional sliding-window tracks.
func Build(sample string, sum stats.Summary, sizeDist []int, gc, cov *stats.Track) *Report {
	return &Report{
		TableRow: []Cell{
			{Header: "Contigs", Value: sum.NContigs},
			{Header: "Assembled BP", Value: sum.TotalLength},
			{Header: "N50", Value: sum.N50},
			{Header: "Average GC", Value: sum.AvgGC},
			{Header: "Missing data", Value: sum.MissingData},
		},
		PlotData: PlotData{
			Contigs:     sum.NContigs,
			AssembledBp: sum.TotalLength,
			SizeDist:    sizeDist,
			GCSliding:   NewSeries(gc),
			CovSliding:  NewSeries(cov),
		},
	}
}

// WriteJSON emits the report compactly, the way the legacy templates wrote
// their .report.json payloads.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ProcessValue is one half of the process report: which pipeline process
// produced the value and the value itself.
type ProcessValue struct {
	Process string `json:"process"`
	Value   any    `json:"value"`
}

// ProcessReport mirrors the legacy warnings/fail JSON block emitted next to
// the status sentinel.
type ProcessReport struct {
	Warnings ProcessValue `json:"warnings"`
	Fail     ProcessValue `json:"fail"`
}

// NewProcessReport builds the block for one process. A run without a
// failure carries a null fail value.
func NewProcessReport(process string, warnings []string, fail string) *ProcessReport {
	pr := &ProcessReport{
		Warnings: ProcessValue{Process: process, Value: warnings},
		Fail:     ProcessValue{Process: process},
	}
	if fail != "" {
		pr.Fail.Value = fail
	}
	return pr
}

// WriteJSON emits the process report compactly.
func (pr *ProcessReport) WriteJSON(w io.Writer) error {
	data, err := json.Marshal(pr)
	if err != nil {
		return fmt.Errorf("encoding process report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing process report: %w", err)
	}
	return nil
}

// WriteFilterReport writes the per-contig filter outcome as
// `contig_id, reason` rows in contig order.
func WriteFilterReport(w io.Writer, reps []filter.ContigReport) error {
	for _, rep := range reps {
		if _, err := fmt.Fprintf(w, "%d, %s\n", rep.ID, rep.Reason); err != nil {
			return fmt.Errorf("writing filter report: %w", err)
		}
	}
	return nil
}

// formatFloat renders averages with minimal digits, the way the legacy
// string conversion did.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
