package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	const gsize = 2.0 // Mb
	const maxContigs = 100

	tests := []struct {
		name         string
		filteredLen  int
		ncontigs     int
		wantPassed   bool
		wantFail     string
		wantWarnings []string
	}{
		{
			name:        "healthy assembly",
			filteredLen: 2_000_000,
			ncontigs:    50,
			wantPassed:  true,
		},
		{
			name:        "exactly at 80 percent passes",
			filteredLen: 1_600_000,
			ncontigs:    50,
			wantPassed:  true,
		},
		{
			name:        "below 80 percent fails",
			filteredLen: 1_500_000,
			ncontigs:    50,
			wantPassed:  false,
			wantFail:    FailSmallAssembly,
		},
		{
			name:         "above 150 percent warns",
			filteredLen:  3_100_000,
			ncontigs:     50,
			wantPassed:   true,
			wantWarnings: []string{WarnLargeAssembly},
		},
		{
			// Limit for gsize 2.0 and 100 per 1.5 Mb is 133.3 contigs.
			name:         "excessive contigs warn",
			filteredLen:  2_000_000,
			ncontigs:     134,
			wantPassed:   true,
			wantWarnings: []string{WarnExcessContigs},
		},
		{
			name:         "fail and warning together",
			filteredLen:  1_000_000,
			ncontigs:     200,
			wantPassed:   false,
			wantFail:     FailSmallAssembly,
			wantWarnings: []string{WarnExcessContigs},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := Classify(tt.filteredLen, tt.ncontigs, gsize, maxContigs)
			assert.Equal(t, tt.wantPassed, v.Passed)
			assert.Equal(t, tt.wantFail, v.FailReason)
			assert.Equal(t, tt.wantWarnings, v.Warnings)
			assert.Equal(t, tt.filteredLen, v.FilteredLength)
			assert.Equal(t, tt.ncontigs, v.ContigCount)
		})
	}
}

func TestVerdictTags(t *testing.T) {
	v := Verdict{
		Passed:         false,
		FailReason:     FailSmallAssembly,
		Warnings:       []string{WarnLargeAssembly, WarnExcessContigs},
		FilteredLength: 1_000_000,
	}

	warnings, fail := v.Tags()
	assert.Equal(t, []string{"large_genome_size_(1000000)", "excessive_contigs:moderate"}, warnings)
	assert.Equal(t, "small_genome_size_(1000000)", fail)
}

func TestVerdictTagsClean(t *testing.T) {
	warnings, fail := Verdict{Passed: true}.Tags()
	assert.Empty(t, warnings)
	assert.Empty(t, fail)
}
