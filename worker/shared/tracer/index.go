// Package tracer provides ray-tracing functionality shared by the distributed and sequential workers.
package tracer

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/mwindels/remote-raytracer/shared/geom"
)

// boundEpsilon is the lowest possible size of a bounding box in any dimension.
const boundEpsilon float64 = 0.0001

// These constants are the branching limits of every R-Tree the tracer builds.
const (
	minChildren = 2
	maxChildren = 8
)

// entry is one bounded item stored in an index.
type entry struct {
	id   int
	box  geom.Box
	rect rtreego.Rect
}

// Bounds gets the rectangular bounding box containing the entry e.
func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// index is a read-only R-Tree over bounded items, searched along rays.
type index struct {
	tree   *rtreego.Rtree
	bounds geom.Box
}

// newIndex builds an index over boxes; the i-th box is reported as id i.
// Boxes that are not valid are left out.
func newIndex(boxes []geom.Box) *index {
	idx := &index{bounds: geom.EmptyBox()}
	objs := make([]rtreego.Spatial, 0, len(boxes))

	for i, b := range boxes {
		if !b.Valid() {
			continue
		}
		rect, err := toRect(b)
		if err != nil {
			continue
		}
		objs = append(objs, &entry{id: i, box: b, rect: rect})
		idx.bounds = idx.bounds.Union(b)
	}

	idx.tree = rtreego.NewTree(3, minChildren, maxChildren, objs...)
	return idx
}

// toRect converts a box to an R-Tree rectangle, padding flat sides so the rectangle is never empty.
func toRect(b geom.Box) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.MinCorner.X, b.MinCorner.Y, b.MinCorner.Z},
		[]float64{
			math.Max(b.MaxCorner.X-b.MinCorner.X, boundEpsilon),
			math.Max(b.MaxCorner.Y-b.MinCorner.Y, boundEpsilon),
			math.Max(b.MaxCorner.Z-b.MinCorner.Z, boundEpsilon),
		},
	)
}

// search returns the ids of every item whose box r passes through between distances tMin and tMax.
func (idx *index) search(r geom.Ray, tMin, tMax float64) []int {
	if idx.tree.Size() == 0 {
		return nil
	}

	// Clip the ray to the part of it inside the index.
	tNear, tFar, hit := idx.bounds.Span(r)
	if !hit {
		return nil
	}
	tNear, tFar = math.Max(tNear, tMin), math.Min(tFar, tMax)
	if tNear > tFar {
		return nil
	}

	// Only items overlapping the box around that segment can be hit.
	segment := geom.EmptyBox().Extend(r.At(tNear)).Extend(r.At(tFar))
	query, err := toRect(segment)
	if err != nil {
		return nil
	}

	// Drop items whose own box the ray misses.
	ahead := func(results []rtreego.Spatial, object rtreego.Spatial) (bool, bool) {
		_, far, crossed := object.(*entry).box.Span(r)
		return !crossed || far < tMin, false
	}

	found := idx.tree.SearchIntersect(query, ahead)
	ids := make([]int, len(found))
	for i, s := range found {
		ids[i] = s.(*entry).id
	}
	return ids
}
