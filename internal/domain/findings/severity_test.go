package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRankOrder(t *testing.T) {
	assert.Equal(t, 0, SeverityNone.Rank())
	assert.Equal(t, 1, SeverityLow.Rank())
	assert.Equal(t, 2, SeverityMedium.Rank())
	assert.Equal(t, 3, SeverityHigh.Rank())

	// unknown values collapse to the bottom of the order
	assert.Equal(t, 0, Severity("bogus").Rank())
}

func TestSeverityExceeds(t *testing.T) {
	all := []Severity{SeverityNone, SeverityLow, SeverityMedium, SeverityHigh}
	for i, s := range all {
		for j, threshold := range all {
			got := s.Exceeds(threshold)
			assert.Equal(t, i >= j, got, "%s.Exceeds(%s)", s, threshold)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"none":          SeverityNone,
		"info":          SeverityNone,
		"informational": SeverityNone,
		"low":           SeverityLow,
		"LOW":           SeverityLow,
		"medium":        SeverityMedium,
		"moderate":      SeverityMedium,
		"high":          SeverityHigh,
		"critical":      SeverityHigh,
		"  High  ":      SeverityHigh,
	}
	for raw, want := range cases {
		got, err := ParseSeverity(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseSeverity("severe")
	assert.Error(t, err)
}

func TestSeverityCountsAdd(t *testing.T) {
	var c SeverityCounts
	c.Add(SeverityHigh)
	c.Add(SeverityMedium)
	c.Add(SeverityMedium)
	c.Add(SeverityLow)
	c.Add(SeverityNone)

	assert.Equal(t, 1, c.High)
	assert.Equal(t, 2, c.Medium)
	assert.Equal(t, 1, c.Low)
	// none counts toward total but no bucket
	assert.Equal(t, 5, c.Total)
}

func TestSeverityCountsMax(t *testing.T) {
	assert.Equal(t, SeverityNone, SeverityCounts{}.Max())
	assert.Equal(t, SeverityNone, SeverityCounts{Total: 3}.Max())
	assert.Equal(t, SeverityLow, SeverityCounts{Low: 1, Total: 1}.Max())
	assert.Equal(t, SeverityMedium, SeverityCounts{Low: 2, Medium: 1, Total: 3}.Max())
	assert.Equal(t, SeverityHigh, SeverityCounts{High: 1, Medium: 5, Total: 6}.Max())
}
