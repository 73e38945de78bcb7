package facematch

import (
	"fmt"
	"math"
	"testing"

	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/encoding/encodingtest"
)

func TestFindLookalikes(t *testing.T) {
	zero := encodingtest.Zero()
	identities := []database.Identity{
		candidate(t, "a", database.ClassPermanent, zero),
		candidate(t, "b", database.ClassPermanent, encodingtest.Offset(zero, 0, 0.1)),
		candidate(t, "c", database.ClassPermanent, encodingtest.Random(7)),
		candidate(t, "d", database.ClassTemporary, encodingtest.Random(8)),
		candidate(t, "e", database.ClassTemporary, encodingtest.Offset(zero, 1, -0.3)),
		{ID: "broken", Encoding: "???"},
	}

	pairs := FindLookalikes(identities, 0.4)

	want := []struct {
		a, b string
		d    float64
	}{
		{"a", "b", 0.1},
		{"a", "e", 0.3},
		{"b", "e", math.Sqrt(0.1*0.1 + 0.3*0.3)},
	}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d: %+v", len(pairs), len(want), pairs)
	}
	for i, w := range want {
		p := pairs[i]
		if p.A.ID != w.a || p.B.ID != w.b {
			t.Errorf("pair %d = (%s, %s), want (%s, %s)", i, p.A.ID, p.B.ID, w.a, w.b)
		}
		if math.Abs(p.Distance-w.d) > 1e-9 {
			t.Errorf("pair %d distance = %v, want %v", i, p.Distance, w.d)
		}
	}
}

func TestFindLookalikes_TooFewIdentities(t *testing.T) {
	if pairs := FindLookalikes(nil, 0.4); pairs != nil {
		t.Errorf("expected no pairs, got %+v", pairs)
	}

	one := []database.Identity{candidate(t, "solo", database.ClassPermanent, encodingtest.Zero())}
	if pairs := FindLookalikes(one, 0.4); pairs != nil {
		t.Errorf("expected no pairs for a single identity, got %+v", pairs)
	}
}

func TestBuildLookalikeIndex_SkipsUnusable(t *testing.T) {
	outOfRange := encodingtest.Zero()
	outOfRange[0] = 1.5
	identities := []database.Identity{
		candidate(t, "ok", database.ClassPermanent, encodingtest.Zero()),
		candidate(t, "range", database.ClassPermanent, outOfRange),
		{ID: "empty"},
	}

	if n := BuildLookalikeIndex(identities).Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func clusterIdentities(t *testing.T, n int) []database.Identity {
	t.Helper()
	identities := make([]database.Identity, n)
	for i := range identities {
		id := fmt.Sprintf("c%02d", i)
		identities[i] = candidate(t, id, database.ClassPermanent, encodingtest.Offset(encodingtest.Zero(), i, 0.01))
	}
	return identities
}

func TestFindLookalikes_DenseCluster(t *testing.T) {
	identities := clusterIdentities(t, 12)

	pairs := FindLookalikes(identities, 0.4)

	if want := 12 * 11 / 2; len(pairs) != want {
		t.Fatalf("got %d pairs, want %d", len(pairs), want)
	}
	for _, p := range pairs {
		if math.Abs(p.Distance-math.Sqrt2*0.01) > 1e-9 {
			t.Errorf("pair (%s, %s) distance = %v", p.A.ID, p.B.ID, p.Distance)
		}
	}
}

func TestLookalikeIndex_GraphSearchWidens(t *testing.T) {
	identities := clusterIdentities(t, 12)
	for i := range ExactLookalikeLimit {
		id := fmt.Sprintf("r%03d", i)
		identities = append(identities, candidate(t, id, database.ClassPermanent, encodingtest.Random(uint64(100+i))))
	}

	idx := BuildLookalikeIndex(identities)
	if idx.Len() <= ExactLookalikeLimit {
		t.Fatalf("Len() = %d, want above %d", idx.Len(), ExactLookalikeLimit)
	}

	pairs := idx.Pairs(0.4, 2)
	if want := 12 * 11 / 2; len(pairs) != want {
		t.Fatalf("got %d pairs, want %d", len(pairs), want)
	}
	for _, p := range pairs {
		if p.A.ID[0] != 'c' || p.B.ID[0] != 'c' {
			t.Errorf("unexpected pair (%s, %s)", p.A.ID, p.B.ID)
		}
	}
}
