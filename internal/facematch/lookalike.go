package facematch

import (
	"cmp"
	"slices"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding"
)

// HNSW graph parameters
const (
	HNSWMaxNeighbors = 16
	HNSWEfSearch     = 64

	// DefaultLookalikeNeighbors is the initial neighbour count searched per
	// identity; the search widens while every returned neighbour is in range.
	DefaultLookalikeNeighbors = 8

	// ExactLookalikeLimit is the directory size up to which pairs are found by
	// comparing every pair directly instead of through the graph.
	ExactLookalikeLimit = 500
)

// LookalikePair is two enrolled identities whose encodings are close enough
// that the matcher's order tie-break could decide between them.
type LookalikePair struct {
	A        database.Identity `json:"a"`
	B        database.Identity `json:"b"`
	Distance float64           `json:"distance"`
}

// LookalikeIndex is an in-memory HNSW graph over enrolled encodings.
// It is rebuilt on demand and never persisted.
type LookalikeIndex struct {
	graph      *hnsw.Graph[int]
	identities []database.Identity
	vectors    map[int]encoding.Encoding
}

// BuildLookalikeIndex indexes every identity whose encoding passes the codec
// range check. Identities without a usable encoding are left out.
func BuildLookalikeIndex(identities []database.Identity) *LookalikeIndex {
	g := hnsw.NewGraph[int]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors)
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance

	idx := &LookalikeIndex{
		graph:      g,
		identities: identities,
		vectors:    make(map[int]encoding.Encoding, len(identities)),
	}

	for i := range identities {
		vec, err := encoding.Check(identities[i].Encoding)
		if err != nil {
			continue
		}
		g.Add(hnsw.MakeNode(i, vec.Float32()))
		idx.vectors[i] = vec
	}
	return idx
}

// Len returns the number of indexed identities.
func (x *LookalikeIndex) Len() int {
	return len(x.vectors)
}

// Pairs returns every indexed pair at or under maxDistance, closest first.
// Up to ExactLookalikeLimit identities every pair is compared. Larger indexes
// use graph search per identity, starting at neighbors results and doubling
// until the farthest result lies beyond maxDistance. Graph distances are
// float32 and only select neighbours; the reported distance is recomputed
// exactly.
func (x *LookalikeIndex) Pairs(maxDistance float64, neighbors int) []LookalikePair {
	if len(x.vectors) < 2 {
		return nil
	}
	if neighbors <= 0 {
		neighbors = DefaultLookalikeNeighbors
	}

	type pairKey struct{ a, b int }
	seen := make(map[pairKey]bool)
	var pairs []LookalikePair

	consider := func(i, j int) {
		if i == j {
			return
		}
		key := pairKey{min(i, j), max(i, j)}
		if seen[key] {
			return
		}
		seen[key] = true

		d := Distance(x.vectors[key.a], x.vectors[key.b])
		if d > maxDistance {
			return
		}
		pairs = append(pairs, LookalikePair{
			A:        x.identities[key.a],
			B:        x.identities[key.b],
			Distance: d,
		})
	}

	if len(x.vectors) <= ExactLookalikeLimit {
		keys := make([]int, 0, len(x.vectors))
		for i := range x.vectors {
			keys = append(keys, i)
		}
		for n, i := range keys {
			for _, j := range keys[n+1:] {
				consider(i, j)
			}
		}
	} else {
		for i := range x.vectors {
			for _, j := range x.neighborsWithin(i, maxDistance, neighbors) {
				consider(i, j)
			}
		}
	}

	slices.SortFunc(pairs, func(p, q LookalikePair) int {
		if c := cmp.Compare(p.Distance, q.Distance); c != 0 {
			return c
		}
		if c := cmp.Compare(p.A.ID, q.A.ID); c != 0 {
			return c
		}
		return cmp.Compare(p.B.ID, q.B.ID)
	})
	return pairs
}

// neighborsWithin searches the graph around identity i, doubling k while the
// farthest result is still within maxDistance.
func (x *LookalikeIndex) neighborsWithin(i int, maxDistance float64, k int) []int {
	vec := x.vectors[i]
	for {
		k = min(k+1, len(x.vectors))
		found := x.graph.Search(vec.Float32(), k)
		keys := make([]int, len(found))
		farthest := 0.0
		for n, node := range found {
			keys[n] = node.Key
			farthest = max(farthest, Distance(vec, x.vectors[node.Key]))
		}
		if farthest > maxDistance || len(found) < k || k == len(x.vectors) {
			return keys
		}
		k *= 2
	}
}

// FindLookalikes builds an index over identities and returns its pairs.
func FindLookalikes(identities []database.Identity, maxDistance float64) []LookalikePair {
	return BuildLookalikeIndex(identities).Pairs(maxDistance, DefaultLookalikeNeighbors)
}
