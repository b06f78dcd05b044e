package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingReduceKernel struct {
	reduced []struct {
		target  int
		payload int
		mode    Mode
	}
}

func (k *recordingReduceKernel) Fill(target int, q *Query[int], run *Run[int, int]) {}
func (k *recordingReduceKernel) Reduce(target int, res *Result[int], mode Mode, run *Run[int, int]) {
	k.reduced = append(k.reduced, struct {
		target  int
		payload int
		mode    Mode
	}{target, res.Payload, mode})
}
func (k *recordingReduceKernel) NgbIter(q *Query[int], res *Result[int], iter *Iterator, lv *LocalState) {
}

func TestReduceGhostResults_FoldsInOriginalEntryOrder(t *testing.T) {
	kernel := &recordingReduceKernel{}
	run := &Run[int, int]{Kernel: kernel}

	groups := []ExportGroup[int]{
		{Task: 0, Entries: []Entry{{Task: 0, Index: 5}, {Task: 0, Index: 7}}},
		{Task: 1, Entries: []Entry{{Task: 1, Index: 9}}},
	}
	perTaskResults := [][]Result[int]{
		{{Payload: 100}, {Payload: 200}},
		{{Payload: 300}},
	}

	ReduceGhostResults[int, int](run, groups, perTaskResults)

	require := assert.New(t)
	require.Len(kernel.reduced, 3)
	require.Equal(5, kernel.reduced[0].target)
	require.Equal(100, kernel.reduced[0].payload)
	require.Equal(Ghosts, kernel.reduced[0].mode)
	require.Equal(7, kernel.reduced[1].target)
	require.Equal(200, kernel.reduced[1].payload)
	require.Equal(9, kernel.reduced[2].target)
	require.Equal(300, kernel.reduced[2].payload)
}

func TestReduceGhostResults_ShortReplyIsIgnoredNotPanicked(t *testing.T) {
	kernel := &recordingReduceKernel{}
	run := &Run[int, int]{Kernel: kernel}

	groups := []ExportGroup[int]{
		{Task: 0, Entries: []Entry{{Task: 0, Index: 1}, {Task: 0, Index: 2}}},
	}
	// Only one result came back for two entries sent — defensive short-reply
	// handling must skip the missing tail rather than index out of range.
	perTaskResults := [][]Result[int]{{{Payload: 7}}}

	assert.NotPanics(t, func() {
		ReduceGhostResults[int, int](run, groups, perTaskResults)
	})
	assert.Len(t, kernel.reduced, 1)
	assert.Equal(t, 1, kernel.reduced[0].target)
}
