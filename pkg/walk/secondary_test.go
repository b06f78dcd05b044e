package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/treewalk/pkg/spatial"
)

func TestRunSecondary_EmptyQueriesReturnsEmptyResults(t *testing.T) {
	tree := newSingleLeafTree(1, 1, 0, 10)
	particles := &sliceParticles{particles: []spatial.Particle{{Pos: spatial.Vec3{0, 0, 0}}}}
	kernel := newCountKernel(1, 1.0)
	run := &Run[countPayload, countResult]{Tree: tree, Particles: particles, Kernel: kernel}
	w := &Walker[countPayload, countResult]{Tree: tree, Particles: particles, TopLeaves: tree.TopLeaves(), Kernel: kernel}

	results, err := RunSecondary[countPayload, countResult](run, w, nil, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunSecondary_WalksFromEachNodeListEntryAndCountsNeighbours(t *testing.T) {
	// The leaf node (not the root) is what export.go stamps into NodeList,
	// since it carries leaf.LocalNode, the owning task's local partition
	// boundary, not the top of the tree.
	positions := []spatial.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	particles := &sliceParticles{particles: make([]spatial.Particle, len(positions))}
	for i, p := range positions {
		particles.particles[i] = spatial.Particle{Pos: p, ID: int64(i)}
	}
	tree := newSingleLeafTree(len(positions), 1, 0, 10)
	kernel := newCountKernel(len(positions), 1000)
	run := &Run[countPayload, countResult]{Tree: tree, Particles: particles, Kernel: kernel}
	w := &Walker[countPayload, countResult]{Tree: tree, Particles: particles, TopLeaves: tree.TopLeaves(), Kernel: kernel}

	queries := []Query[countPayload]{
		{Pos: positions[0], Payload: countPayload{Hsml: 1000}, NodeList: [NodeListLength]int32{leafNode, -1}},
	}
	results, err := RunSecondary[countPayload, countResult](run, w, queries, 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, len(positions), results[0].Payload.Count, "a huge radius ghost query should see every local particle")
}

func TestRunSecondary_NegativeNodeListEntryIsSkipped(t *testing.T) {
	tree := newSingleLeafTree(1, 1, 0, 10)
	particles := &sliceParticles{particles: []spatial.Particle{{Pos: spatial.Vec3{0, 0, 0}}}}
	kernel := newCountKernel(1, 1000)
	run := &Run[countPayload, countResult]{Tree: tree, Particles: particles, Kernel: kernel}
	w := &Walker[countPayload, countResult]{Tree: tree, Particles: particles, TopLeaves: tree.TopLeaves(), Kernel: kernel}

	queries := []Query[countPayload]{
		{Pos: spatial.Vec3{0, 0, 0}, NodeList: [NodeListLength]int32{-1, -1}},
	}
	results, err := RunSecondary[countPayload, countResult](run, w, queries, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Payload.Count, "no NodeList entry means no walk, so no neighbours are counted")
}
