package scene

import (
	"math/rand"
	"testing"
)

func randomTriangles(n int, seed int64) []Triangle {
	rng := rand.New(rand.NewSource(seed))
	tris := make([]Triangle, n)
	for i := range tris {
		c := [3]float32{rng.Float32() * 100, rng.Float32() * 100, rng.Float32() * 100}
		for v := range 3 {
			p := [3]float32{
				c[0] + rng.Float32() - 0.5,
				c[1] + rng.Float32() - 0.5,
				c[2] + rng.Float32() - 0.5,
			}
			switch v {
			case 0:
				tris[i].V0 = p
			case 1:
				tris[i].V1 = p
			case 2:
				tris[i].V2 = p
			}
		}
	}
	return tris
}

func TestBuildBvhEmptyInput(t *testing.T) {
	nodes := BuildBvh(nil)
	if len(nodes) != 1 {
		t.Fatalf("node count = %d, want 1", len(nodes))
	}
	if nodes[0].Count != 0 {
		t.Errorf("empty root count = %d, want 0", nodes[0].Count)
	}
}

func TestBuildBvhLeavesCoverAllTriangles(t *testing.T) {
	tris := randomTriangles(500, 1)
	nodes := BuildBvh(tris)

	covered := make([]bool, len(tris))
	for _, n := range nodes {
		if n.Count == 0 {
			continue
		}
		for i := n.LeftOrFirst; i < n.LeftOrFirst+n.Count; i++ {
			if int(i) >= len(tris) {
				t.Fatalf("leaf references triangle %d past end %d", i, len(tris))
			}
			if covered[i] {
				t.Fatalf("triangle %d referenced by two leaves", i)
			}
			covered[i] = true
		}
	}
	for i, c := range covered {
		if !c {
			t.Fatalf("triangle %d not covered by any leaf", i)
		}
	}
}

func TestBuildBvhBoundsContainTriangles(t *testing.T) {
	tris := randomTriangles(200, 2)
	nodes := BuildBvh(tris)

	root := nodes[0]
	for i := range tris {
		for _, v := range [3][3]float32{tris[i].V0, tris[i].V1, tris[i].V2} {
			for a := range 3 {
				if v[a] < root.BoundsMin[a] || v[a] > root.BoundsMax[a] {
					t.Fatalf("triangle %d vertex outside root bounds on axis %d", i, a)
				}
			}
		}
	}
}

func TestBuildBvhInteriorChildrenAdjacent(t *testing.T) {
	tris := randomTriangles(64, 3)
	nodes := BuildBvh(tris)

	for idx, n := range nodes {
		if n.Count != 0 {
			continue
		}
		left := int(n.LeftOrFirst)
		if left+1 >= len(nodes) {
			t.Fatalf("interior node %d children %d,%d out of range %d", idx, left, left+1, len(nodes))
		}
		if left <= idx {
			t.Fatalf("interior node %d references earlier child %d", idx, left)
		}
	}
}

func TestBuildBvhLeafSizeRespected(t *testing.T) {
	tris := randomTriangles(300, 4)
	nodes := BuildBvh(tris)
	for idx, n := range nodes {
		if n.Count > bvhLeafSize {
			t.Errorf("leaf %d holds %d triangles, cap %d", idx, n.Count, bvhLeafSize)
		}
	}
}

func TestBuildBvhSingleLeaf(t *testing.T) {
	tris := randomTriangles(3, 5)
	nodes := BuildBvh(tris)
	if len(nodes) != 1 {
		t.Fatalf("node count = %d, want 1 for %d triangles", len(nodes), len(tris))
	}
	if nodes[0].Count != 3 || nodes[0].LeftOrFirst != 0 {
		t.Errorf("leaf = {first: %d, count: %d}, want {0, 3}", nodes[0].LeftOrFirst, nodes[0].Count)
	}
}
