package readqc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewObservation(t *testing.T) {
	obs := NewObservation()
	assert.Equal(t, 99, obs.Min)
	assert.Equal(t, 0, obs.Max)
}

func TestObserveWidens(t *testing.T) {
	obs := NewObservation()

	assert.True(t, obs.Observe("I")) // 73
	assert.Equal(t, 73, obs.Min)
	assert.Equal(t, 73, obs.Max)

	assert.True(t, obs.Observe("!I")) // 33 widens min only
	assert.Equal(t, 33, obs.Min)
	assert.Equal(t, 73, obs.Max)

	// Everything inside the current bounds leaves them untouched.
	assert.False(t, obs.Observe("5AI!"))
	assert.Equal(t, 33, obs.Min)
	assert.Equal(t, 73, obs.Max)

	assert.False(t, obs.Observe(""))
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		min, max   int
		wantNames  []string
		wantPhreds []int
	}{
		{"sanger range", 33, 73, []string{"Sanger", "Illumina-1.8"}, []int{33}},
		{"illumina 1.8 only", 33, 74, []string{"Illumina-1.8"}, []int{33}},
		{"solexa only", 59, 104, []string{"Solexa"}, []int{64}},
		{"solexa or illumina 1.3", 64, 104, []string{"Solexa", "Illumina-1.3"}, []int{64}},
		{"illumina 1.5 only", 66, 105, []string{"Illumina-1.5"}, []int{64}},
		{"narrow high range matches all 64-offset", 66, 104, []string{"Solexa", "Illumina-1.3", "Illumina-1.5"}, []int{64}},
		{"outside every standard", 20, 120, nil, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obs := Observation{Min: tt.min, Max: tt.max}
			names, phreds := obs.Candidates()
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantPhreds, phreds)
		})
	}
}

func TestCandidatesNeverGrowBack(t *testing.T) {
	obs := NewObservation()

	obs.Observe("!") // 33: still ambiguous between Sanger and Illumina-1.8
	names, _ := obs.Candidates()
	assert.Len(t, names, 2)

	obs.Observe("J") // 74: narrows to Illumina-1.8
	names, phreds := obs.Candidates()
	assert.Equal(t, []string{"Illumina-1.8"}, names)
	assert.Equal(t, []int{33}, phreds)
}
