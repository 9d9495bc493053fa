package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type corrPair struct {
	x                   []float64
	y                   []float64
	expectedCorrelation float64
	expectError         bool
}

func TestPearsonCorrelation(t *testing.T) {
	pairs := []corrPair{
		{
			x:                   []float64{0.1, 0.2, 0.3},
			y:                   []float64{0.1, 0.2, 0.3},
			expectedCorrelation: 1.0,
		},
		{
			x:                   []float64{0.3, 0.2, 0.1},
			y:                   []float64{0.1, 0.2, 0.3},
			expectedCorrelation: -1.0,
		},
		{
			x:           []float64{0.3, 0.2},
			y:           []float64{0.1, 0.2, 0.3},
			expectError: true,
		},
		{
			x:           []float64{},
			y:           []float64{},
			expectError: true,
		},
		{
			x:                   []float64{0.3, 0.3, 0.3},
			y:                   []float64{0.1, 0.2, 0.3},
			expectedCorrelation: 0.0,
		},
		{
			x:                   []float64{1.0, 2.0, 3.0, 4.0},
			y:                   []float64{1.0, 3.0, 2.0, 4.0},
			expectedCorrelation: 0.8,
		},
	}
	for _, p := range pairs {
		actual, err := PearsonCorrelation(p.x, p.y)
		if p.expectError {
			assert.Error(t, err, "expected error for %v and %v", p.x, p.y)
			continue
		}
		require.NoError(t, err)
		assert.InDelta(t, p.expectedCorrelation, actual, 0.0001)
	}
}

func TestAssociationStrength(t *testing.T) {
	s, err := AssociationStrength([]float64{0.1, 0.2, 0.3}, []float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 0.0001)

	s, err = AssociationStrength([]float64{0.3, 0.2, 0.1}, []float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s, 0.0001)

	s, err = AssociationStrength([]float64{0.3, 0.3, 0.3}, []float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s, 0.0001)

	_, err = AssociationStrength([]float64{0.3}, []float64{0.1, 0.2})
	assert.Error(t, err)
}

func TestAssociationMatrix(t *testing.T) {
	fingerprints := [][]float64{
		{0.1, 0.2, 0.3, 0.4},
		{0.4, 0.3, 0.2, 0.1},
		{0.1, 0.3, 0.2, 0.4},
		{0.5, 0.1, 0.4, 0.2},
	}
	for _, workers := range []int{0, 1, 3} {
		m, err := AssociationMatrix(context.Background(), fingerprints, workers)
		require.NoError(t, err)
		n := m.SymmetricDim()
		require.Equal(t, len(fingerprints), n)
		for i := 0; i < n; i++ {
			assert.Equal(t, 1.0, m.At(i, i))
			for j := 0; j < n; j++ {
				v := m.At(i, j)
				assert.Equal(t, v, m.At(j, i))
				assert.True(t, v >= 0.0 && v <= 1.0, "entry (%d,%d) = %f out of range", i, j, v)
			}
		}
		assert.InDelta(t, 0.0, m.At(0, 1), 0.0001)
	}

	m, err := AssociationMatrix(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestAssociationMatrixLengthMismatch(t *testing.T) {
	_, err := AssociationMatrix(context.Background(), [][]float64{{0.1, 0.2}, {0.1}}, 2)
	require.Error(t, err)
}
