package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCluster_BarrierReleasesAllRanksTogether(t *testing.T) {
	const ntask = 4
	f := NewLocalFabric(ntask)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	start := make(chan struct{})

	for r := 0; r < ntask; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := Rank(f, r)
			<-start
			c.Barrier()
			mu.Lock()
			order = append(order, r)
			mu.Unlock()
		}(r)
	}
	close(start)
	wg.Wait()

	assert.Len(t, order, ntask)
}

func TestLocalCluster_AllReduceSumAggregatesAcrossRanks(t *testing.T) {
	const ntask = 5
	f := NewLocalFabric(ntask)

	results := make([]int64, ntask)
	var wg sync.WaitGroup
	for r := 0; r < ntask; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := Rank(f, r)
			results[r] = c.AllReduceSum(int64(r + 1))
		}(r)
	}
	wg.Wait()

	want := int64(1 + 2 + 3 + 4 + 5)
	for r, got := range results {
		assert.Equal(t, want, got, "rank %d", r)
	}
}

func TestLocalCluster_AllReduceSumAdvancesGenerationsInLockstep(t *testing.T) {
	const ntask = 3
	f := NewLocalFabric(ntask)

	var wg sync.WaitGroup
	sums := make([][]int64, ntask)
	for r := 0; r < ntask; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := Rank(f, r)
			for round := 0; round < 3; round++ {
				sums[r] = append(sums[r], c.AllReduceSum(int64(round)))
			}
		}(r)
	}
	wg.Wait()

	for r := 0; r < ntask; r++ {
		require.Equal(t, []int64{0, ntask, 2 * ntask}, sums[r], "rank %d", r)
	}
}

func TestLocalCluster_AllToAllDeliversTransposedMatrix(t *testing.T) {
	const ntask = 3
	f := NewLocalFabric(ntask)

	// rank r sends value (r*10 + j) to peer j; peer j should receive
	// (r*10 + j) back at index r — i.e. the transpose of what was sent.
	results := make([][]int, ntask)
	var wg sync.WaitGroup
	for r := 0; r < ntask; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := Rank(f, r)
			send := make([]int, ntask)
			for j := range send {
				send[j] = r*10 + j
			}
			results[r] = c.AllToAll(send)
		}(r)
	}
	wg.Wait()

	for j := 0; j < ntask; j++ {
		for r := 0; r < ntask; r++ {
			assert.Equal(t, r*10+j, results[j][r], "peer %d's view of rank %d", j, r)
		}
	}
}

func TestLocalCluster_PostSparseAllToAllVRoutesByRank(t *testing.T) {
	const ntask = 3
	f := NewLocalFabric(ntask)

	var wg sync.WaitGroup
	received := make([][][]byte, ntask)
	for r := 0; r < ntask; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := Rank(f, r)
			send := make([][]byte, ntask)
			for j := range send {
				if j == r {
					continue // never send to self in this test
				}
				send[j] = []byte{byte(r), byte(j)}
			}
			ex := c.PostSparseAllToAllV(42, send)
			received[r] = ex.Wait()
		}(r)
	}
	wg.Wait()

	for j := 0; j < ntask; j++ {
		for r := 0; r < ntask; r++ {
			if r == j {
				continue
			}
			assert.Equal(t, []byte{byte(r), byte(j)}, received[j][r], "rank %d's receipt from %d", j, r)
		}
	}
}

func TestLocalCluster_DistinctTagsDoNotCollide(t *testing.T) {
	const ntask = 2
	f := NewLocalFabric(ntask)

	var wg sync.WaitGroup
	for r := 0; r < ntask; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c := Rank(f, r)
			sendA := [][]byte{{1}, {2}}
			sendB := [][]byte{{9}, {8}}
			exA := c.PostSparseAllToAllV(100, sendA)
			exB := c.PostSparseAllToAllV(200, sendB)
			recvB := exB.Wait()
			recvA := exA.Wait()
			other := 1 - r
			assert.Equal(t, sendA[r], recvA[other])
			assert.Equal(t, sendB[r], recvB[other])
		}(r)
	}
	wg.Wait()
}
