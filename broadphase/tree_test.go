package broadphase

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/spatial"
)

func randomBoxObject(t *testing.T, rng *rand.Rand, span float64) *geometry.Object {
	t.Helper()
	box, err := geometry.NewBox(r3.Vector{
		X: 0.1 + rng.Float64(),
		Y: 0.1 + rng.Float64(),
		Z: 0.1 + rng.Float64(),
	})
	test.That(t, err, test.ShouldBeNil)
	return geometry.NewObject(box, spatial.NewTransformFromTranslation(r3.Vector{
		X: rng.Float64() * span,
		Y: rng.Float64() * span,
		Z: rng.Float64() * span,
	}))
}

// checkTreeInvariants verifies parent links, the leaf discriminator, and that
// every internal bound contains its children.
func checkTreeInvariants(t *testing.T, tree *Tree) int {
	t.Helper()
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n == nil {
			return 0
		}
		if n.IsLeaf() {
			test.That(t, n.Data(), test.ShouldNotBeNil)
			return 1
		}
		test.That(t, n.Left(), test.ShouldNotBeNil)
		test.That(t, n.Left().parent, test.ShouldEqual, n)
		test.That(t, n.Right().parent, test.ShouldEqual, n)
		test.That(t, n.BV().Contains(n.Left().BV()), test.ShouldBeTrue)
		test.That(t, n.BV().Contains(n.Right().BV()), test.ShouldBeTrue)
		return walk(n.Left()) + walk(n.Right())
	}
	return walk(tree.Root())
}

func TestTreeInsertRemove(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tree := NewTree()
	test.That(t, tree.Empty(), test.ShouldBeTrue)

	var leaves []*Node
	for i := 0; i < 100; i++ {
		obj := randomBoxObject(t, rng, 20)
		leaves = append(leaves, tree.Insert(obj.AABB(), obj))
	}
	test.That(t, tree.Size(), test.ShouldEqual, 100)
	test.That(t, checkTreeInvariants(t, tree), test.ShouldEqual, 100)

	for _, leaf := range leaves[:50] {
		tree.Remove(leaf)
	}
	test.That(t, tree.Size(), test.ShouldEqual, 50)
	test.That(t, checkTreeInvariants(t, tree), test.ShouldEqual, 50)

	for _, leaf := range leaves[50:] {
		tree.Remove(leaf)
	}
	test.That(t, tree.Empty(), test.ShouldBeTrue)
	test.That(t, tree.Root(), test.ShouldBeNil)
}

func TestTreeUpdate(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tree := NewTree()

	obj := randomBoxObject(t, rng, 5)
	leaf := tree.Insert(obj.AABB(), obj)
	for i := 0; i < 20; i++ {
		other := randomBoxObject(t, rng, 5)
		tree.Insert(other.AABB(), other)
	}

	// relocation keeps the same node address
	far := spatial.AABB{
		Min: r3.Vector{X: 100, Y: 100, Z: 100},
		Max: r3.Vector{X: 101, Y: 101, Z: 101},
	}
	tree.Update(leaf, far)
	test.That(t, leaf.BV().Equal(far), test.ShouldBeTrue)
	test.That(t, leaf.Data(), test.ShouldEqual, obj)
	test.That(t, tree.Size(), test.ShouldEqual, 21)
	checkTreeInvariants(t, tree)

	// shrinking within the current bound updates in place
	smaller := spatial.AABB{
		Min: r3.Vector{X: 100.2, Y: 100.2, Z: 100.2},
		Max: r3.Vector{X: 100.8, Y: 100.8, Z: 100.8},
	}
	tree.Update(leaf, smaller)
	test.That(t, leaf.BV().Equal(smaller), test.ShouldBeTrue)
	test.That(t, tree.Size(), test.ShouldEqual, 21)
}

func TestTreeRefit(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tree := NewTree()

	objs := make([]*geometry.Object, 30)
	leaves := make([]*Node, 30)
	for i := range objs {
		objs[i] = randomBoxObject(t, rng, 10)
		leaves[i] = tree.Insert(objs[i].AABB(), objs[i])
	}

	// stomp the leaf bounds and refit
	for i, leaf := range leaves {
		objs[i].SetTransform(spatial.NewTransformFromTranslation(r3.Vector{
			X: rng.Float64() * 50,
			Y: rng.Float64() * 50,
			Z: rng.Float64() * 50,
		}))
		leaf.bv = objs[i].AABB()
	}
	tree.Refit()
	checkTreeInvariants(t, tree)
}

func TestTreeBalance(t *testing.T) {
	// inserting a sorted diagonal degenerates toward a list; both balance
	// strategies must preserve the leaf set and the containment invariant
	for _, tc := range []struct {
		name    string
		balance func(tree *Tree)
	}{
		{"incremental", func(tree *Tree) { tree.BalanceIncremental(10) }},
		{"topdown median", func(tree *Tree) { tree.BalanceTopdown() }},
		{"topdown mean", func(tree *Tree) {
			tree.TopdownLevel = 1
			tree.BalanceTopdown()
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tree := NewTree()
			seen := map[*geometry.Object]bool{}
			for i := 0; i < 64; i++ {
				d := float64(i) * 2
				box, err := geometry.NewBox(r3.Vector{X: 1, Y: 1, Z: 1})
				test.That(t, err, test.ShouldBeNil)
				obj := geometry.NewObject(box, spatial.NewTransformFromTranslation(r3.Vector{X: d, Y: d, Z: d}))
				tree.Insert(obj.AABB(), obj)
				seen[obj] = true
			}

			tc.balance(tree)
			test.That(t, tree.Size(), test.ShouldEqual, 64)
			test.That(t, checkTreeInvariants(t, tree), test.ShouldEqual, 64)

			var leaves []*Node
			collectLeaves(tree.Root(), &leaves)
			for _, leaf := range leaves {
				test.That(t, seen[leaf.Data()], test.ShouldBeTrue)
			}

			if tc.name != "incremental" {
				// a full rebuild of 64 uniform leaves is near balanced
				test.That(t, tree.MaxHeight(), test.ShouldBeLessThanOrEqualTo, 8)
			}
		})
	}
}

func TestTreeInit(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	for _, level := range []int{0, 1} {
		tree := NewTree()
		leaves := make([]*Node, 100)
		for i := range leaves {
			obj := randomBoxObject(t, rng, 30)
			leaves[i] = NewLeafNode(obj.AABB(), obj)
		}
		tree.Init(leaves, level)

		test.That(t, tree.Size(), test.ShouldEqual, 100)
		test.That(t, checkTreeInvariants(t, tree), test.ShouldEqual, 100)
		test.That(t, tree.MaxHeight(), test.ShouldBeLessThanOrEqualTo, 20)
	}
}
