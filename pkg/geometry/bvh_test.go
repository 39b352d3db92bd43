package geometry

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// MockShape for testing
type MockShape struct {
	boundingBox core.AABB
	hasBox      bool
	hitFn       func(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool)
}

func (m MockShape) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	if m.hitFn == nil {
		return core.HitRecord{}, false
	}
	return m.hitFn(ray, tMin, tMax)
}

func (m MockShape) BoundingBox() (core.AABB, bool) {
	return m.boundingBox, m.hasBox
}

// verifyBVH checks that every node box encloses its children and every primitive is reachable
func verifyBVH(t *testing.T, bvh *BVH) {
	t.Helper()
	if bvh.root < 0 {
		return
	}

	seen := make([]bool, len(bvh.entries))
	var walk func(index int)
	walk = func(index int) {
		node := &bvh.nodes[index]
		for _, ref := range []childRef{node.left, node.right} {
			if !node.box.Contains(bvh.childBox(ref)) {
				t.Fatalf("node %d box %v does not enclose child %+v", index, node.box, ref)
			}
			if ref.leaf {
				seen[ref.index] = true
			} else {
				walk(ref.index)
			}
		}
	}
	walk(bvh.root)

	for i, ok := range seen {
		if !ok {
			t.Fatalf("primitive slot %d unreachable", i)
		}
	}
}

func randomSpheres(t *testing.T, random *rand.Rand, count int) []Shape {
	t.Helper()
	shapes := make([]Shape, count)
	for i := range shapes {
		center := core.NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
		shapes[i] = mustSphere(t, center, 0.05+random.Float64()*1.5, i)
	}
	return shapes
}

func randomRay(random *rand.Rand) core.Ray {
	origin := core.NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
	direction := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64()))
	return core.NewRay(origin, direction)
}

func TestBVH_MatchesLinearScan(t *testing.T) {
	sizes := []int{1, 2, 3, 4, 5, 7, 16, 33, 100, 257, 1000}
	raysPerScene := 10000
	if testing.Short() {
		raysPerScene = 1000
	}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("%d primitives", size), func(t *testing.T) {
			random := rand.New(rand.NewSource(int64(size)))
			shapes := randomSpheres(t, random, size)

			bvh, err := NewBVH(shapes, rand.New(rand.NewSource(42)))
			if err != nil {
				t.Fatalf("NewBVH failed: %v", err)
			}
			verifyBVH(t, bvh)
			linear := List(shapes)

			for i := 0; i < raysPerScene; i++ {
				ray := randomRay(random)
				bvhHit, bvhIsHit := bvh.Hit(ray, 0.001, math.Inf(1))
				linHit, linIsHit := linear.Hit(ray, 0.001, math.Inf(1))

				if bvhIsHit != linIsHit {
					t.Fatalf("ray %d: BVH hit=%v, linear hit=%v", i, bvhIsHit, linIsHit)
				}
				if !bvhIsHit {
					continue
				}
				if bvhHit.PrimitiveID != linHit.PrimitiveID {
					t.Fatalf("ray %d: BVH primitive %d, linear primitive %d", i, bvhHit.PrimitiveID, linHit.PrimitiveID)
				}
				if math.Abs(bvhHit.T-linHit.T) > 1e-12 {
					t.Fatalf("ray %d: BVH t=%v, linear t=%v", i, bvhHit.T, linHit.T)
				}
			}
		})
	}
}

func TestBVH_DifferentSeedsSameAnswers(t *testing.T) {
	random := rand.New(rand.NewSource(99))
	shapes := randomSpheres(t, random, 200)

	a, err := NewBVH(shapes, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBVH(shapes, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2000; i++ {
		ray := randomRay(random)
		hitA, okA := a.Hit(ray, 0.001, math.Inf(1))
		hitB, okB := b.Hit(ray, 0.001, math.Inf(1))
		if okA != okB || hitA.PrimitiveID != hitB.PrimitiveID {
			t.Fatalf("ray %d: trees disagree (%v/%d vs %v/%d)", i, okA, hitA.PrimitiveID, okB, hitB.PrimitiveID)
		}
	}
}

func TestBVH_EmptyAndSingleShape(t *testing.T) {
	bvh, err := NewBVH(nil, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Empty BVH should build, got %v", err)
	}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0))
	if _, isHit := bvh.Hit(ray, 0.001, 1000.0); isHit {
		t.Error("Expected no hit for empty BVH")
	}
	if _, ok := bvh.BoundingBox(); ok {
		t.Error("Empty BVH should have no bounding box")
	}

	sphere := mustSphere(t, core.NewVec3(5, 0, 0), 1, 0)
	bvh, err = NewBVH([]Shape{sphere}, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	stats := bvh.Stats()
	if stats.Nodes != 1 || stats.LeafRefs != 2 {
		t.Errorf("Single primitive should give one node with both children on it, got %+v", stats)
	}

	hit, isHit := bvh.Hit(ray, 0.001, 1000.0)
	if !isHit || math.Abs(hit.T-4.0) > 1e-9 || hit.PrimitiveID != 0 {
		t.Errorf("Expected hit on primitive 0 at t=4, got hit=%v %+v", isHit, hit)
	}
}

func TestBVH_TwoShapesOrderedOnAxis(t *testing.T) {
	// Whatever axis is drawn, the left child must have the smaller box minimum on it
	for seed := int64(0); seed < 20; seed++ {
		far := mustSphere(t, core.NewVec3(3, 3, 3), 1, 0)
		near := mustSphere(t, core.NewVec3(-3, -3, -3), 1, 1)

		bvh, err := NewBVH([]Shape{far, near}, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatal(err)
		}
		root := bvh.nodes[bvh.root]
		if bvh.entries[root.left.index].id != 1 || bvh.entries[root.right.index].id != 0 {
			t.Errorf("seed %d: expected near sphere on the left", seed)
		}
	}
}

func TestBVH_MissingBoundingBoxAbortsBuild(t *testing.T) {
	shapes := []Shape{
		mustSphere(t, core.NewVec3(0, 0, 0), 1, 0),
		MockShape{hasBox: false},
	}

	bvh, err := NewBVH(shapes, rand.New(rand.NewSource(42)))
	if !errors.Is(err, core.ErrNoBoundingBox) {
		t.Errorf("Expected ErrNoBoundingBox, got %v", err)
	}
	if bvh != nil {
		t.Error("No partial tree should be returned")
	}
}

func TestBVH_OwnsPrimitiveStorage(t *testing.T) {
	shapes := []Shape{
		mustSphere(t, core.NewVec3(0, 0, -5), 1, 0),
		mustSphere(t, core.NewVec3(0, 0, -10), 1, 1),
	}
	bvh, err := NewBVH(shapes, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}

	// Mutating and growing the caller's slice must not affect the built tree
	shapes[0] = mustSphere(t, core.NewVec3(100, 100, 100), 1, 0)
	shapes = append(shapes, mustSphere(t, core.NewVec3(0, 0, -2), 0.5, 2))
	_ = shapes

	hit, isHit := bvh.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, 1000)
	if !isHit || hit.PrimitiveID != 0 || math.Abs(hit.T-4.0) > 1e-9 {
		t.Errorf("Expected original primitive 0 at t=4, got hit=%v %+v", isHit, hit)
	}
}

func TestBVH_NarrowsAfterLeftHit(t *testing.T) {
	var rightMax float64
	left := MockShape{
		boundingBox: core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1)),
		hasBox:      true,
		hitFn: func(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
			return core.HitRecord{T: 2.5}, true
		},
	}
	right := MockShape{
		boundingBox: core.NewAABB(core.NewVec3(0, -1, -1), core.NewVec3(2, 1, 1)),
		hasBox:      true,
		hitFn: func(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
			rightMax = tMax
			return core.HitRecord{}, false
		},
	}

	bvh, err := NewBVH([]Shape{left, right}, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}

	hit, isHit := bvh.Hit(core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)), 0.001, 1000)
	if !isHit || hit.T != 2.5 || hit.PrimitiveID != 0 {
		t.Errorf("Expected left hit at t=2.5, got hit=%v %+v", isHit, hit)
	}
	if rightMax != 2.5 {
		t.Errorf("Right child should be tested with tMax narrowed to 2.5, got %v", rightMax)
	}
}
