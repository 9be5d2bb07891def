package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Empty(t *testing.T) {
	assert.Nil(t, Describe(nil))
	assert.Nil(t, Describe([]float64{}))
}

func TestDescribe_SingleValue(t *testing.T) {
	d := Describe([]float64{0.7})
	require.NotNil(t, d)
	assert.Equal(t, 1.0, d["count"])
	assert.Equal(t, 0.7, d["mean"])
	assert.Equal(t, 0.0, d["std"])
	assert.Equal(t, 0.7, d["min"])
	assert.Equal(t, 0.7, d["50%"])
	assert.Equal(t, 0.7, d["max"])
}

func TestDescribe_UpToDateRates(t *testing.T) {
	// The public-group scenario: two schools at 0.9 and 0.8.
	d := Describe([]float64{0.9, 0.8})
	require.NotNil(t, d)
	assert.Equal(t, 2.0, d["count"])
	assert.InDelta(t, 0.85, d["mean"], 1e-12)
	assert.InDelta(t, math.Sqrt(0.005), d["std"], 1e-12)
	assert.Equal(t, 0.8, d["min"])
	assert.Equal(t, 0.9, d["max"])
	assert.InDelta(t, 0.85, d["50%"], 1e-12)
}

func TestDescribe_DoesNotMutateInput(t *testing.T) {
	in := []float64{0.9, 0.7, 0.8}
	Describe(in)
	assert.Equal(t, []float64{0.9, 0.7, 0.8}, in)
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Percentile(sorted, 25), 1e-12)
	assert.InDelta(t, 2.5, Percentile(sorted, 50), 1e-12)
	assert.InDelta(t, 3.25, Percentile(sorted, 75), 1e-12)
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 4.0, Percentile(sorted, 100))
}

func TestPercentile_OddSample(t *testing.T) {
	sorted := []float64{0.7, 0.8, 0.9}
	assert.InDelta(t, 0.75, Percentile(sorted, 25), 1e-12)
	assert.InDelta(t, 0.8, Percentile(sorted, 50), 1e-12)
	assert.InDelta(t, 0.85, Percentile(sorted, 75), 1e-12)
}

func TestPercentile_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}
