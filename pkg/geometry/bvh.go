package geometry

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// childRef points either at another node or at a primitive slot
type childRef struct {
	index int
	leaf  bool
}

// bvhNode is an interior node of the hierarchy. Its box is the union of both children's boxes.
type bvhNode struct {
	box   core.AABB
	left  childRef
	right childRef
}

// bvhEntry is a primitive owned by the BVH, remembered with its original index
type bvhEntry struct {
	shape Shape
	id    int
	box   core.AABB
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection.
// Nodes live in a flat arena and reference children by index, and the
// primitives are copied at build time, so the caller's slice may change freely afterwards.
type BVH struct {
	nodes   []bvhNode
	entries []bvhEntry
	root    int
}

// NewBVH constructs a BVH from a slice of shapes.
// Each level splits on an axis drawn from random; pass a seeded generator for reproducible trees.
func NewBVH(shapes []Shape, random *rand.Rand) (*BVH, error) {
	entries := make([]bvhEntry, len(shapes))
	for i, shape := range shapes {
		box, ok := shape.BoundingBox()
		if !ok {
			return nil, fmt.Errorf("primitive %d: %w", i, core.ErrNoBoundingBox)
		}
		entries[i] = bvhEntry{shape: shape, id: i, box: box}
	}

	bvh := &BVH{
		entries: entries,
		root:    -1,
	}
	if len(entries) == 0 {
		return bvh, nil
	}

	bvh.nodes = make([]bvhNode, 0, len(entries))
	bvh.root = bvh.build(0, len(entries), random)
	return bvh, nil
}

// build recursively builds the node covering entries[lo:hi] and returns its arena index
func (bvh *BVH) build(lo, hi int, random *rand.Rand) int {
	axis := random.Intn(3)
	span := bvh.entries[lo:hi]

	var left, right childRef
	switch len(span) {
	case 1:
		left = childRef{index: lo, leaf: true}
		right = left
	case 2:
		if span[0].box.Min.Axis(axis) <= span[1].box.Min.Axis(axis) {
			left, right = childRef{index: lo, leaf: true}, childRef{index: lo + 1, leaf: true}
		} else {
			left, right = childRef{index: lo + 1, leaf: true}, childRef{index: lo, leaf: true}
		}
	default:
		sort.SliceStable(span, func(i, j int) bool {
			return span[i].box.Min.Axis(axis) < span[j].box.Min.Axis(axis)
		})
		mid := lo + len(span)/2
		left = childRef{index: bvh.build(lo, mid, random)}
		right = childRef{index: bvh.build(mid, hi, random)}
	}

	bvh.nodes = append(bvh.nodes, bvhNode{
		box:   core.SurroundingBox(bvh.childBox(left), bvh.childBox(right)),
		left:  left,
		right: right,
	})
	return len(bvh.nodes) - 1
}

func (bvh *BVH) childBox(ref childRef) core.AABB {
	if ref.leaf {
		return bvh.entries[ref.index].box
	}
	return bvh.nodes[ref.index].box
}

// Hit tests if a ray intersects any shape in the BVH.
// The returned record carries the original index of the primitive in PrimitiveID.
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	if bvh == nil || bvh.root < 0 {
		return core.HitRecord{}, false
	}
	return bvh.hitNode(bvh.root, ray, tMin, tMax)
}

// hitNode tests the node box, then the left child, then the right child
// against an interval narrowed by any left hit, so a right hit is always nearer.
func (bvh *BVH) hitNode(index int, ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	node := &bvh.nodes[index]
	if !node.box.Hit(ray, tMin, tMax) {
		return core.HitRecord{}, false
	}

	leftHit, hitLeft := bvh.hitChild(node.left, ray, tMin, tMax)
	if hitLeft {
		tMax = leftHit.T
	}

	if rightHit, hitRight := bvh.hitChild(node.right, ray, tMin, tMax); hitRight {
		return rightHit, true
	}
	return leftHit, hitLeft
}

func (bvh *BVH) hitChild(ref childRef, ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	if !ref.leaf {
		return bvh.hitNode(ref.index, ray, tMin, tMax)
	}

	entry := &bvh.entries[ref.index]
	hit, isHit := entry.shape.Hit(ray, tMin, tMax)
	if isHit {
		hit.PrimitiveID = entry.id
	}
	return hit, isHit
}

// BoundingBox returns the box of the root node
func (bvh *BVH) BoundingBox() (core.AABB, bool) {
	if bvh == nil || bvh.root < 0 {
		return core.AABB{}, false
	}
	return bvh.nodes[bvh.root].box, true
}

// BVHStats contains statistics about the BVH structure
type BVHStats struct {
	Primitives int // Primitives owned by the tree
	Nodes      int // Interior nodes in the arena
	LeafRefs   int // Child references that point at primitives
	MaxDepth   int // Deepest node level, root is 1
}

// Stats returns statistics about the BVH structure
func (bvh *BVH) Stats() BVHStats {
	stats := BVHStats{}
	if bvh == nil || bvh.root < 0 {
		return stats
	}
	stats.Primitives = len(bvh.entries)
	stats.Nodes = len(bvh.nodes)
	bvh.collectStats(bvh.root, 1, &stats)
	return stats
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(index, depth int, stats *BVHStats) {
	stats.MaxDepth = max(stats.MaxDepth, depth)

	node := &bvh.nodes[index]
	for _, ref := range []childRef{node.left, node.right} {
		if ref.leaf {
			stats.LeafRefs++
		} else {
			bvh.collectStats(ref.index, depth+1, stats)
		}
	}
}
