package main

import (
	"compress/gzip"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func writeGzipFile(t *testing.T, path string, data []byte) {
	t.Helper()

	f, err := os.Create(path) //nolint:gosec // test fixture path
	if err != nil {
		t.Fatalf("create gzip file: %v", err)
	}
	defer func() { _ = f.Close() }()

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		t.Fatalf("write gzip data: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
}

func fastqFixture(n int, seq, qual string) []byte {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("@read\n")
		sb.WriteString(seq + "\n")
		sb.WriteString("+\n")
		sb.WriteString(qual + "\n")
	}
	return []byte(sb.String())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test artifact path
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunReadsPass(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seq := strings.Repeat("A", 100)
	qual := strings.Repeat("!", 50) + strings.Repeat("I", 50)
	fq := filepath.Join(dir, "reads_1.fastq.gz")
	writeGzipFile(t, fq, fastqFixture(200, seq, qual))

	// 200 reads of 100 bp over a 1000 bp genome: coverage 20.0.
	if err := runReads(testLogger(), "s1", []string{fq}, 0.001, 15, false, dir); err != nil {
		t.Fatalf("runReads: %v", err)
	}

	tests := []struct {
		file string
		want string
	}{
		{"s1_encoding", "Sanger,Illumina-1.8"},
		{"s1_phred", "33"},
		{"s1_coverage", "20.0"},
		{"s1_report", "s1,20.0,PASS\n"},
		{"s1_max_len", "100"},
		{".status", "pass"},
	}
	for _, tt := range tests {
		if got := readFile(t, filepath.Join(dir, tt.file)); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestRunReadsLowCoverageFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fq := filepath.Join(dir, "reads_1.fastq")
	if err := os.WriteFile(fq, fastqFixture(5, strings.Repeat("A", 100), strings.Repeat("I", 100)), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	// 500 chars over a 1000 bp genome: coverage 0.5, below the minimum.
	if err := runReads(testLogger(), "s1", []string{fq}, 0.001, 15, false, dir); err != nil {
		t.Fatalf("runReads: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "s1_coverage")); got != "fail" {
		t.Errorf("coverage channel: got %q, want %q", got, "fail")
	}
	if got := readFile(t, filepath.Join(dir, ".status")); got != "fail" {
		t.Errorf("status: got %q, want %q", got, "fail")
	}
}

func TestRunReadsTruncatedStreamIsCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fq := filepath.Join(dir, "reads_1.fastq")
	if err := os.WriteFile(fq, []byte("@read\nACGT\n+\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := runReads(testLogger(), "s1", []string{fq}, 0.001, 15, false, dir); err != nil {
		t.Fatalf("runReads: %v", err)
	}

	for _, file := range []string{"s1_encoding", "s1_phred", "s1_coverage", "s1_report", "s1_max_len", ".status"} {
		if got := readFile(t, filepath.Join(dir, file)); got != "corrupt" {
			t.Errorf("%s: got %q, want %q", file, got, "corrupt")
		}
	}
}

func TestRunAssembly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	asm := filepath.Join(dir, "assembly.fasta")
	fixture := ">s1_NODE_1_length_8_cov_5\nGGCCAATT\n>s1_NODE_2_length_4_cov_3\nGGGG\n"
	if err := os.WriteFile(asm, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := runAssembly(testLogger(), "s1", asm, 4, "", "plot.json", dir); err != nil {
		t.Fatalf("runAssembly: %v", err)
	}

	// 2 contigs, avg 6, N50 8, 12 bp, avg GC (0.5+1)/2, no missing data.
	want := "s1, 2,6,8,12,0.75,0\n"
	if got := readFile(t, filepath.Join(dir, "s1_assembly_report.csv")); got != want {
		t.Errorf("summary row: got %q, want %q", got, want)
	}
	if got := readFile(t, filepath.Join(dir, ".status")); got != "pass" {
		t.Errorf("status: got %q, want %q", got, "pass")
	}

	plot := readFile(t, filepath.Join(dir, "plot.json"))
	for _, key := range []string{"tableRow", "plotData", "gcSliding", "sizeDist"} {
		if !strings.Contains(plot, key) {
			t.Errorf("plot JSON missing %q", key)
		}
	}
}

func TestRunAssemblyEmptyInputWritesErrorStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	asm := filepath.Join(dir, "assembly.fasta")
	if err := os.WriteFile(asm, nil, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := runAssembly(testLogger(), "s1", asm, 2000, "", "", dir); err == nil {
		t.Fatal("runAssembly on empty input should fail")
	}
	if got := readFile(t, filepath.Join(dir, ".status")); got != "error" {
		t.Errorf("status: got %q, want %q", got, "error")
	}
}

func TestRunFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	asm := filepath.Join(dir, "assembly.fasta")
	long := strings.Repeat("ACGT", 100)
	fixture := ">NODE_1_length_400_cov_5\n" + long + "\n>NODE_2_length_8_cov_5\nACGTACGT\n"
	if err := os.WriteFile(asm, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := filterConfig{
		sample:       "s1",
		asmPath:      asm,
		gsize:        0.0004, // 400 bp expected genome
		minContigLen: 200,
		minKmerCov:   2,
		maxContigs:   10000,
		minCoverage:  "auto",
		outDir:       dir,
	}
	if err := runFilter(testLogger(), cfg); err != nil {
		t.Fatalf("runFilter: %v", err)
	}

	filtered := readFile(t, filepath.Join(dir, "s1.assembly.fasta"))
	wantFasta := ">s1_NODE_1_length_400_cov_5\n" + long + "\n"
	if filtered != wantFasta {
		t.Errorf("filtered assembly: got %q, want %q", filtered, wantFasta)
	}

	reportCSV := readFile(t, filepath.Join(dir, "s1.report.csv"))
	wantCSV := "0, pass\n1, length/8/200\n"
	if reportCSV != wantCSV {
		t.Errorf("filter report: got %q, want %q", reportCSV, wantCSV)
	}

	procJSON := readFile(t, filepath.Join(dir, ".report.json"))
	if !strings.Contains(procJSON, `"process":"assembly_filter"`) {
		t.Errorf("process report missing process name: %q", procJSON)
	}
	if got := readFile(t, filepath.Join(dir, ".status")); got != "pass" {
		t.Errorf("status: got %q, want %q", got, "pass")
	}
}

func TestRunFilterDropsCoverageRuleBelowThreshold(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	asm := filepath.Join(dir, "assembly.fasta")
	long := strings.Repeat("ACGT", 100)
	fixture := ">NODE_1_length_400_cov_5\n" + long + "\n"
	if err := os.WriteFile(asm, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	// The contig's alignment coverage of 5 fails a fixed threshold of 20,
	// which would empty the assembly; the coverage rule must be dropped and
	// the contig kept.
	cov := filepath.Join(dir, "coverage.tsv")
	if err := os.WriteFile(cov, []byte("NODE_1_length_400_cov_5\t5\n"), 0o600); err != nil {
		t.Fatalf("write coverage table: %v", err)
	}

	cfg := filterConfig{
		sample:       "s1",
		asmPath:      asm,
		gsize:        0.0004,
		minContigLen: 200,
		minKmerCov:   2,
		maxContigs:   10000,
		covFile:      cov,
		minCoverage:  "20",
		outDir:       dir,
	}
	if err := runFilter(testLogger(), cfg); err != nil {
		t.Fatalf("runFilter: %v", err)
	}

	filtered := readFile(t, filepath.Join(dir, "s1.assembly.fasta"))
	if !strings.Contains(filtered, "NODE_1_length_400_cov_5") {
		t.Errorf("contig dropped despite coverage-rule fallback: %q", filtered)
	}
	if got := readFile(t, filepath.Join(dir, ".status")); got != "pass" {
		t.Errorf("status: got %q, want %q", got, "pass")
	}
}

func TestRunFilterSmallAssemblyFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	asm := filepath.Join(dir, "assembly.fasta")
	fixture := ">NODE_1_length_400_cov_5\n" + strings.Repeat("ACGT", 100) + "\n"
	if err := os.WriteFile(asm, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := filterConfig{
		sample:       "s1",
		asmPath:      asm,
		gsize:        2, // 2 Mb expected, far above the 400 bp assembly
		minContigLen: 200,
		minKmerCov:   2,
		maxContigs:   10000,
		minCoverage:  "auto",
		outDir:       dir,
	}
	if err := runFilter(testLogger(), cfg); err != nil {
		t.Fatalf("runFilter: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, ".status")); got != "fail" {
		t.Errorf("status: got %q, want %q", got, "fail")
	}
	procJSON := readFile(t, filepath.Join(dir, ".report.json"))
	if !strings.Contains(procJSON, "small_genome_size_(400)") {
		t.Errorf("process report missing fail tag: %q", procJSON)
	}
}

func TestParseSampleSheet(t *testing.T) {
	t.Parallel()

	input := `# sample sheet
s1 reads/s1_1.fastq.gz reads/s1_2.fastq.gz

s2 reads/s2.fastq.gz
`
	samples, err := parseSampleSheet(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseSampleSheet: %v", err)
	}

	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].id != "s1" || len(samples[0].fastqs) != 2 {
		t.Errorf("unexpected first sample: %+v", samples[0])
	}
	if samples[1].id != "s2" || len(samples[1].fastqs) != 1 {
		t.Errorf("unexpected second sample: %+v", samples[1])
	}
}

func TestParseSampleSheetRejectsBadLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"missing fastq", "s1\n"},
		{"too many fields", "s1 a b c d\n"},
		{"duplicate sample", "s1 a\ns1 b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseSampleSheet(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seq := strings.Repeat("A", 100)
	qual := strings.Repeat("I", 100)

	fq1 := filepath.Join(dir, "s1.fastq")
	fq2 := filepath.Join(dir, "s2.fastq")
	if err := os.WriteFile(fq1, fastqFixture(200, seq, qual), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(fq2, fastqFixture(5, seq, qual), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sheet := filepath.Join(dir, "samples.tsv")
	content := "s1 " + fq1 + "\ns2 " + fq2 + "\n"
	if err := os.WriteFile(sheet, []byte(content), 0o600); err != nil {
		t.Fatalf("write sheet: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	if err := runBatch(testLogger(), sheet, 0.001, 15, false, outDir, 2); err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	if got := readFile(t, filepath.Join(outDir, "s1", ".status")); got != "pass" {
		t.Errorf("s1 status: got %q, want %q", got, "pass")
	}
	if got := readFile(t, filepath.Join(outDir, "s2", ".status")); got != "fail" {
		t.Errorf("s2 status: got %q, want %q", got, "fail")
	}
}
