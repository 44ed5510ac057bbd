// Package fasta parses FASTA-like assembly files into ordered contig records.
package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoRecord reports a sequence fragment encountered before any header line.
var ErrNoRecord = errors.New("sequence data before any header")

// Record is one contig: the header line without the leading '>' marker and
// the concatenated sequence. Records are immutable once parsed; filtering
// elsewhere produces kept-id subsets rather than mutating them.
type Record struct {
	ID       string
	Sequence string
}

// Assembly holds contigs in file order. Insertion order is the canonical
// iteration order for all downstream aggregation.
type Assembly struct {
	Records []Record

	index map[string]int
}

// Parse reads a FASTA-like stream. Header lines begin with '>'; all other
// non-blank lines are sequence fragments belonging to the most recent header.
// A fragment before any header fails with ErrNoRecord rather than silently
// dropping data.
func Parse(r io.Reader) (*Assembly, error) {
	asm := &Assembly{index: make(map[string]int)}

	var (
		header string
		parts  []string
		open   bool
	)
	flush := func() {
		if !open {
			return
		}
		asm.index[header] = len(asm.Records)
		asm.Records = append(asm.Records, Record{
			ID:       header,
			Sequence: strings.Join(parts, ""),
		})
		parts = parts[:0]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64<<20)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header = strings.TrimSpace(line[1:])
			open = true
			continue
		}
		if !open {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrNoRecord)
		}
		parts = append(parts, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading assembly: %w", err)
	}
	flush()

	return asm, nil
}

// ParseFile opens and parses an assembly file, closing it on all paths.
func ParseFile(path string) (*Assembly, error) {
	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return nil, fmt.Errorf("cannot open assembly: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	asm, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return asm, nil
}

// Len returns the number of contigs.
func (a *Assembly) Len() int {
	return len(a.Records)
}

// Get looks a record up by its identifier.
func (a *Assembly) Get(id string) (Record, bool) {
	i, ok := a.index[id]
	if !ok {
		return Record{}, false
	}
	return a.Records[i], true
}

var nodeRe = regexp.MustCompile(`_NODE_([0-9]+)_`)

// NodeID extracts the numeric contig id from a `_NODE_<n>_` header token.
// Headers without the token are an error for this extraction path only; the
// basic parser accepts any header.
func NodeID(header string) (int, error) {
	m := nodeRe.FindStringSubmatch(header)
	if m == nil {
		return 0, fmt.Errorf("header %q has no _NODE_<n>_ token", header)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("header %q: bad node id: %w", header, err)
	}
	return n, nil
}
