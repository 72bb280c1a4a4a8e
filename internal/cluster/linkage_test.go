package cluster

import (
	"reflect"
	"testing"
)

func TestAgglomerateTwoTightGroups(t *testing.T) {
	vecs := [][]float64{
		{0.0, 0.0},
		{10.0, 10.0},
		{0.1, 0.0},
		{10.1, 10.0},
		{0.0, 0.1},
	}

	groups := agglomerate(vecs, 1.0)
	want := [][]int{{0, 2, 4}, {1, 3}}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("expected %v, got %v", want, groups)
	}
}

func TestAgglomerateThresholdKeepsSingletons(t *testing.T) {
	vecs := [][]float64{
		{0, 0},
		{5, 5},
		{-5, 5},
	}

	groups := agglomerate(vecs, 0.5)
	if len(groups) != 3 {
		t.Fatalf("expected 3 singletons below threshold, got %v", groups)
	}
	for i, g := range groups {
		if len(g) != 1 || g[0] != i {
			t.Errorf("expected singleton %d, got %v", i, g)
		}
	}
}

func TestAgglomerateLargeThresholdMergesAll(t *testing.T) {
	vecs := [][]float64{
		{0, 0},
		{1, 0},
		{0, 1},
		{1, 1},
	}
	groups := agglomerate(vecs, 100)
	if len(groups) != 1 || len(groups[0]) != 4 {
		t.Errorf("expected a single cluster of 4, got %v", groups)
	}
}

func TestAgglomerateEdgeSizes(t *testing.T) {
	if got := agglomerate(nil, 1.0); got != nil {
		t.Errorf("expected nil for no vectors, got %v", got)
	}
	got := agglomerate([][]float64{{1, 2}}, 1.0)
	if !reflect.DeepEqual(got, [][]int{{0}}) {
		t.Errorf("expected single singleton, got %v", got)
	}
}

func TestAgglomerateDeterministic(t *testing.T) {
	// Symmetric layout with tied distances; repeated runs must agree.
	vecs := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1},
		{10, 10}, {11, 10}, {10, 11}, {11, 11},
	}

	first := agglomerate(vecs, 2.0)
	for i := 0; i < 10; i++ {
		if got := agglomerate(vecs, 2.0); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %v vs %v", i, got, first)
		}
	}
	if len(first) != 2 {
		t.Errorf("expected 2 clusters, got %v", first)
	}
}

func TestAgglomerateWardPrefersCompactMerges(t *testing.T) {
	// A chain of points: Ward linkage should not absorb the distant
	// point into the tight pair when the threshold is moderate.
	vecs := [][]float64{
		{0, 0},
		{0.2, 0},
		{3, 0},
	}
	groups := agglomerate(vecs, 1.0)
	want := [][]int{{0, 1}, {2}}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("expected %v, got %v", want, groups)
	}
}
