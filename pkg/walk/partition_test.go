package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionBunch_EqualShareWhenDivisible(t *testing.T) {
	sizes := partitionBunch(100, 4)
	assert.Equal(t, []int{25, 25, 25, 25}, sizes)
}

func TestPartitionBunch_LastAbsorbsRemainder(t *testing.T) {
	sizes := partitionBunch(101, 4)
	assert.Equal(t, []int{25, 25, 25, 26}, sizes)

	total := 0
	for _, s := range sizes {
		total += s
	}
	assert.Equal(t, 101, total)
}

func TestPartitionBunch_SingleThreadGetsEverything(t *testing.T) {
	sizes := partitionBunch(42, 1)
	assert.Equal(t, []int{42}, sizes)
}

func TestNewExportStates_WindowsAreContiguousAndDisjoint(t *testing.T) {
	table := NewDataIndexTable(100)
	states := newExportStates(table, 4, 10, 64)
	require.Len(t, states, 4)

	offset := 0
	for _, s := range states {
		assert.Equal(t, offset, s.Offset)
		assert.Equal(t, TopTree, s.Mode)
		assert.Same(t, table, s.Table)
		offset += s.Capacity
	}
	assert.Equal(t, table.Len(), offset)
}

func TestNewPlainStates_HaveNoExportTable(t *testing.T) {
	states := newPlainStates(Primary, 3, 10, 64)
	require.Len(t, states, 3)
	for _, s := range states {
		assert.Nil(t, s.Table)
		assert.Equal(t, Primary, s.Mode)
		assert.Equal(t, 0, s.Capacity)
	}
}

func TestTopTreeChunk_ClampsBetweenOneAndHundred(t *testing.T) {
	assert.Equal(t, 1, topTreeChunk(1, 4))
	assert.Equal(t, 100, topTreeChunk(1_000_000, 2))
	assert.Equal(t, 1, topTreeChunk(0, 4))
}

func TestTopTreeChunk_ScalesWithRemainingWork(t *testing.T) {
	small := topTreeChunk(40, 4)
	large := topTreeChunk(4000, 4)
	assert.Less(t, small, large)
}
