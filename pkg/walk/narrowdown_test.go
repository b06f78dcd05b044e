package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/treewalk/internal/errs"
)

func TestNarrowDown_ExactHitIsDoneImmediately(t *testing.T) {
	b := &Bracket{}
	next, done, err := NarrowDown(b, 2.0, 32, 32, 10)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 2.0, next)
}

func TestNarrowDown_OneSidedExtrapolatesGrowth(t *testing.T) {
	b := &Bracket{}
	// Too few neighbours: must grow.
	next, done, err := NarrowDown(b, 1.0, 4, 32, 10)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Greater(t, next, 1.0)
	assert.True(t, b.LeftValid)
	assert.False(t, b.RightValid)
}

func TestNarrowDown_OneSidedClampsGrowthToMax(t *testing.T) {
	b := &Bracket{}
	next, _, err := NarrowDown(b, 1.0, 1, 100000, 10)
	require.NoError(t, err)
	assert.Equal(t, maxGrowth, next)
}

func TestNarrowDown_ZeroNeighboursClampsToMaxGrowth(t *testing.T) {
	b := &Bracket{}
	next, _, err := NarrowDown(b, 1.0, 0, 32, 10)
	require.NoError(t, err)
	assert.Equal(t, maxGrowth, next)
}

func TestNarrowDown_OneSidedClampsShrinkToMin(t *testing.T) {
	b := &Bracket{}
	next, _, err := NarrowDown(b, 1.0, 100000, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, minGrowth, next)
}

func TestNarrowDown_BisectsOnceBothBoundsKnown(t *testing.T) {
	b := &Bracket{}
	_, _, err := NarrowDown(b, 1.0, 4, 32, 10) // undershoot -> Left=1.0
	require.NoError(t, err)
	next, done, err := NarrowDown(b, 3.0, 64, 32, 10) // overshoot -> Right=3.0
	require.NoError(t, err)
	assert.False(t, done)
	assert.GreaterOrEqual(t, next, b.Left)
	assert.LessOrEqual(t, next, b.Right)

	// Bisection is in r^3, not r: the midpoint must not equal the naive
	// arithmetic mean of Left and Right.
	arithmeticMean := (b.Left + b.Right) / 2
	assert.NotEqual(t, arithmeticMean, next)
}

func TestNarrowDown_ConvergesForCubicNeighbourCount(t *testing.T) {
	b := &Bracket{}
	trial := 1.0
	// Simulate neighbour count growing with r^3 around a target of 32.
	countAt := func(r float64) int { return int(32 * r * r * r) }

	for i := 0; i < 20; i++ {
		n := countAt(trial)
		next, done, err := NarrowDown(b, trial, n, 32, 50)
		require.NoError(t, err)
		if done {
			assert.Equal(t, trial, next)
			return
		}
		trial = next
	}
	t.Fatalf("did not converge within 20 iterations, last trial=%v", trial)
}

func TestNarrowDown_ExceedingMaxIterIsFatalInvariant(t *testing.T) {
	b := &Bracket{}
	var err error
	for i := 0; i < 5; i++ {
		_, _, err = NarrowDown(b, 1.0, 4, 32, 3)
		if err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvariant)
}
