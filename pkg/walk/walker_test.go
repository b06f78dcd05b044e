package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/treewalk/pkg/spatial"
)

func newTestWalker(particles []spatial.Particle) *Walker[countPayload, countResult] {
	return &Walker[countPayload, countResult]{
		Particles: &sliceParticles{particles: particles},
	}
}

func TestAcceptCandidate_RejectsGarbageParticle(t *testing.T) {
	w := newTestWalker([]spatial.Particle{{IsGarbage: true, Type: 0}})
	p, ok := w.acceptCandidate(0, ^uint32(0))
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestAcceptCandidate_RejectsTypeNotInMask(t *testing.T) {
	w := newTestWalker([]spatial.Particle{{Type: 2}})
	// mask only admits types 0 and 1
	p, ok := w.acceptCandidate(0, 1<<0|1<<1)
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestAcceptCandidate_AcceptsMatchingNonGarbageType(t *testing.T) {
	w := newTestWalker([]spatial.Particle{{Type: 2, ID: 7}})
	p, ok := w.acceptCandidate(0, 1<<2)
	assert.True(t, ok)
	assert.Equal(t, int64(7), p.ID)
}

func TestThreshold_NonSymmetricUsesIterHsmlOnly(t *testing.T) {
	w := newTestWalker(nil)
	iter := &Iterator{Hsml: 3.0, Symmetric: false}
	neighbour := &spatial.Particle{Hsml: 99.0}
	assert.Equal(t, 3.0, w.threshold(iter, neighbour))
}

func TestThreshold_SymmetricUsesMaxOfIterAndNeighbourHsml(t *testing.T) {
	w := newTestWalker(nil)
	iter := &Iterator{Hsml: 3.0, Symmetric: true}

	assert.Equal(t, 5.0, w.threshold(iter, &spatial.Particle{Hsml: 5.0}))
	assert.Equal(t, 3.0, w.threshold(iter, &spatial.Particle{Hsml: 1.0}))
}

func TestDescend_GhostsModeStopsAtTopLevelBoundaryOtherThanStart(t *testing.T) {
	// A Ghosts walk must stop at any TopLevel node other than the one it
	// started on (spec.md §4.2's partition boundary): the walk starts at
	// root node 0, node 1 is TopLevel and not the start node, so the loop
	// must break before ever reaching the leaf that would call onLeaf.
	nodes := []spatial.Node{
		{Centre: spatial.Vec3{0, 0, 0}, Len: 10, ChildType: spatial.Internal, FirstChild: 1, Sibling: -1},
		{Centre: spatial.Vec3{0, 0, 0}, Len: 10, ChildType: spatial.Particle, TopLevel: true, Suns: []int{0}, Noccupied: 1, FirstChild: -1, Sibling: -1},
	}
	tree := &fixedNodeTree{nodes: nodes, root: 0, last: len(nodes) - 1}

	var visited bool
	lv := &LocalState{Mode: Ghosts}
	iter := &Iterator{Hsml: 1000}
	_, err := descend(tree, nil, 0, lv, 0, -1, spatial.Vec3{0, 0, 0}, iter, func(*spatial.Node) { visited = true })
	assert.NoError(t, err)
	assert.False(t, visited, "a Ghosts walk must stop before crossing into another TopLevel node")
}

type fixedNodeTree struct {
	nodes []spatial.Node
	root  int
	last  int
}

func (t *fixedNodeTree) Root() int                    { return t.root }
func (t *fixedNodeTree) NodeAt(no int) *spatial.Node   { return &t.nodes[no] }
func (t *fixedNodeTree) LastNode() int                 { return t.last }
func (t *fixedNodeTree) TopLeaves() []spatial.TopLeaf  { return nil }
func (t *fixedNodeTree) BoxSize() float64              { return 0 }
