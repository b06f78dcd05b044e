package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/treewalk/pkg/spatial"
	"github.com/kraklabs/treewalk/pkg/transport"
)

type fakeParticles struct {
	particles []spatial.Particle
}

func (p *fakeParticles) Len() int                     { return len(p.particles) }
func (p *fakeParticles) Get(i int) *spatial.Particle { return &p.particles[i] }

type fakeKernel struct{ fillCalls int }

func (k *fakeKernel) Fill(target int, q *Query[int], run *Run[int, int]) {
	k.fillCalls++
	q.Payload = target
}
func (k *fakeKernel) Reduce(target int, res *Result[int], mode Mode, run *Run[int, int]) {}
func (k *fakeKernel) NgbIter(q *Query[int], res *Result[int], iter *Iterator, lv *LocalState) {}

type fakeNTaskCluster struct{ ntask int }

func (c *fakeNTaskCluster) Rank() int                                        { return 0 }
func (c *fakeNTaskCluster) NTask() int                                       { return c.ntask }
func (c *fakeNTaskCluster) Barrier()                                         {}
func (c *fakeNTaskCluster) AllToAll(send []int) []int                        { return make([]int, c.ntask) }
func (c *fakeNTaskCluster) AllReduceSum(v int64) int64                       { return v }
func (c *fakeNTaskCluster) PostSparseAllToAllV(tag int, send [][]byte) transport.Exchange {
	return nil
}

func newTestRun(t *testing.T, ntask int, n int) (*Run[int, int], *fakeKernel) {
	t.Helper()
	particles := &fakeParticles{particles: make([]spatial.Particle, n)}
	for i := range particles.particles {
		particles.particles[i].Pos = spatial.Vec3{float64(i), 0, 0}
	}
	kernel := &fakeKernel{}
	run, err := New[int, int](fakeTree{}, particles, &fakeNTaskCluster{ntask: ntask}, kernel, Config{
		NThreads: 1, QueryElemSize: 8, ResultElemSize: 8, ArenaBytes: 1024, ScratchBytesPerThread: 64,
	}, nil)
	require.NoError(t, err)
	return run, kernel
}

type fakeTree struct{}

func (fakeTree) Root() int                   { return 0 }
func (fakeTree) NodeAt(no int) *spatial.Node { return &spatial.Node{} }
func (fakeTree) LastNode() int               { return 1 }
func (fakeTree) TopLeaves() []spatial.TopLeaf { return nil }
func (fakeTree) BoxSize() float64            { return 0 }

func TestCollectEntries_ConcatenatesInThreadOrder(t *testing.T) {
	table := NewDataIndexTable(10)
	s0 := NewLocalState(TopTree, table, 0, 5, 1, nil)
	s1 := NewLocalState(TopTree, table, 5, 5, 1, nil)

	table.entries[0] = Entry{Task: 1, Index: 10}
	table.entries[1] = Entry{Task: 1, Index: 11}
	s0.Nexport = 2

	table.entries[5] = Entry{Task: 2, Index: 20}
	s1.Nexport = 1

	got := CollectEntries([]*LocalState{s0, s1})
	require.Len(t, got, 3)
	assert.Equal(t, 10, got[0].Index)
	assert.Equal(t, 11, got[1].Index)
	assert.Equal(t, 20, got[2].Index)
}

func TestGroupByTask_BucketsByDestinationPreservingOrder(t *testing.T) {
	run, kernel := newTestRun(t, 3, 30)
	entries := []Entry{
		{Task: 1, Index: 5, NodeList: [NodeListLength]int32{0, -1}},
		{Task: 0, Index: 6, NodeList: [NodeListLength]int32{1, -1}},
		{Task: 1, Index: 7, NodeList: [NodeListLength]int32{2, -1}},
	}

	groups := GroupByTask[int, int](run, entries)
	require.Len(t, groups, 3)

	assert.Equal(t, 0, groups[0].Task)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, 6, groups[0].Entries[0].Index)

	assert.Equal(t, 1, groups[1].Task)
	require.Len(t, groups[1].Entries, 2)
	assert.Equal(t, 5, groups[1].Entries[0].Index)
	assert.Equal(t, 7, groups[1].Entries[1].Index)

	assert.Empty(t, groups[2].Entries)
	assert.Equal(t, 3, kernel.fillCalls)
}

func TestGroupByTask_QueriesCarryFilledPayloadAndPosition(t *testing.T) {
	run, _ := newTestRun(t, 1, 10)
	entries := []Entry{{Task: 0, Index: 3, NodeList: [NodeListLength]int32{-1, -1}}}

	groups := GroupByTask[int, int](run, entries)
	require.Len(t, groups[0].Queries, 1)
	q := groups[0].Queries[0]
	assert.Equal(t, 3, q.Payload)
	assert.Equal(t, run.Particles.Get(3).Pos, q.Pos)
}

func TestSplitResultsByPeer_SlicesInOrderWithoutOverlap(t *testing.T) {
	results := []Result[int]{{Payload: 0}, {Payload: 1}, {Payload: 2}, {Payload: 3}, {Payload: 4}}
	counts := []int{2, 0, 3}

	split := SplitResultsByPeer(results, counts)
	require.Len(t, split, 3)
	assert.Len(t, split[0], 2)
	assert.Len(t, split[1], 0)
	assert.Len(t, split[2], 3)
	assert.Equal(t, 0, split[0][0].Payload)
	assert.Equal(t, 1, split[0][1].Payload)
	assert.Equal(t, 2, split[2][0].Payload)
	assert.Equal(t, 4, split[2][2].Payload)
}

func TestMarshalUnmarshal_RoundTripsQuerySlice(t *testing.T) {
	in := []Query[int]{{Pos: spatial.Vec3{1, 2, 3}, Payload: 42}}
	b, err := marshal(in)
	require.NoError(t, err)

	out, err := unmarshal[[]Query[int]](b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUnmarshal_EmptyPayloadYieldsZeroValue(t *testing.T) {
	out, err := unmarshal[[]Query[int]](nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
