package genome

import (
	"testing"

	"github.com/basalt-evo/ctrneat/config"
	"github.com/basalt-evo/ctrneat/rng"
)

func conn(innovation uint64, weight float64) Connection {
	return Connection{Innovation: innovation, Source: 0, Target: 1, Weight: weight, Enabled: true}
}

// TestCrossoverInnovationAlignment checks a worked scenario: shared
// innovations {1,2,3}, left has extra {5}, right has extra {4}; with the
// left parent strictly fitter, the offspring's innovation set must be
// exactly {1,2,3,5} (excess/disjoint genes inherited only from the fitter
// parent).
func TestCrossoverInnovationAlignment(t *testing.T) {
	left := &Genome{NSensory: 1, NAction: 1, NBias: 1, Connections: []Connection{
		conn(1, 0.1), conn(2, 0.2), conn(3, 0.3), conn(5, 0.5),
	}}
	right := &Genome{NSensory: 1, NAction: 1, NBias: 1, Connections: []Connection{
		conn(1, 1.1), conn(2, 1.2), conn(3, 1.3), conn(4, 1.4),
	}}

	cfg := config.Default()
	r := rng.New(1)
	child := Crossover(left, right, 10.0, 1.0, cfg, r)

	got := make(map[uint64]bool)
	for _, c := range child.Connections {
		got[c.Innovation] = true
	}
	want := []uint64{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("expected innovation set %v, got %v", want, child.Connections)
	}
	for _, id := range want {
		if !got[id] {
			t.Fatalf("expected innovation %d in offspring, missing from %v", id, child.Connections)
		}
	}
	if got[4] {
		t.Fatalf("innovation 4 (right-only, right less fit) must not survive into the offspring")
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	cfg := config.Default()
	left := &Genome{NSensory: 1, NAction: 1, NBias: 1, Connections: []Connection{
		conn(1, 0.1), conn(2, 0.2), conn(5, 0.5),
	}}
	right := &Genome{NSensory: 1, NAction: 1, NBias: 1, Connections: []Connection{
		conn(1, 1.1), conn(2, 1.2), conn(4, 1.4),
	}}

	if l, r := left.Distance(right, cfg), right.Distance(left, cfg); l != r {
		t.Fatalf("expected symmetric distance, got %v vs %v", l, r)
	}
}

func TestDistanceOfIdenticalGenomesIsZero(t *testing.T) {
	cfg := config.Default()
	g := &Genome{NSensory: 1, NAction: 1, NBias: 1, Connections: []Connection{
		conn(1, 0.5), conn(2, -0.25),
	}}
	if d := g.Distance(g.Clone(), cfg); d != 0 {
		t.Fatalf("expected distance 0 between identical genomes, got %v", d)
	}
}

// TestCrossoverPreservesSharedInnovationsForIdenticalGenomes checks the
// simplest crossover invariant: two parents with the exact same
// innovation set always produce an offspring with that same set,
// regardless of fitness ordering or RNG draws.
func TestCrossoverPreservesSharedInnovationsForIdenticalGenomes(t *testing.T) {
	cfg := config.Default()
	r := rng.New(2)
	base := []Connection{conn(1, 0.1), conn(2, 0.2), conn(3, 0.3)}

	for trial := 0; trial < 20; trial++ {
		left := &Genome{NSensory: 1, NAction: 1, NBias: 1, Connections: append([]Connection(nil), base...)}
		right := &Genome{NSensory: 1, NAction: 1, NBias: 1, Connections: append([]Connection(nil), base...)}
		child := Crossover(left, right, 1.0, 1.0, cfg, r)
		if len(child.Connections) != 3 {
			t.Fatalf("trial %d: expected 3 connections, got %d: %+v", trial, len(child.Connections), child.Connections)
		}
		for i, c := range child.Connections {
			if c.Innovation != base[i].Innovation {
				t.Fatalf("trial %d: expected innovation %d at position %d, got %d", trial, base[i].Innovation, i, c.Innovation)
			}
		}
	}
}
