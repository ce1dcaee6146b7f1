// Package tracer provides ray-tracing functionality shared by the distributed and sequential workers.
package tracer

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mwindels/remote-raytracer/shared/geom"
	"github.com/mwindels/remote-raytracer/shared/state"
)

// Hit records the nearest intersection between a ray and a scene.
type Hit struct {
	T        float64     // Distance along the ray.
	Point    geom.Vector // World-space surface point.
	Normal   geom.Vector // World-space unit normal, facing back along the ray.
	Material state.Material
}

// instance is a primitive placed in world space by the transforms of its ancestors.
type instance struct {
	node     *state.SceneNode
	toLocal  mgl64.Mat4 // World-to-local transform.
	identity bool       // Whether toLocal can be skipped.
	mat      state.Material
	bounds   geom.Box // World-space bounds (unused for planes).
	faces    *index   // Local-space face index (meshes only).
}

// Scene is a compiled, read-only scene graph ready to be intersected.
// A Scene is safe for concurrent use.
type Scene struct {
	instances []instance
	bounded   *index
	unbounded []int // Instances with no bounds (planes), in order.
}

// Compile validates the scene rooted at root and flattens it for tracing.
func Compile(root *state.SceneNode) (*Scene, error) {
	if err := state.Validate(root); err != nil {
		return nil, err
	}

	s := &Scene{}
	s.flatten(root, geom.Identity(), state.DefaultMaterial)

	// Index every bounded instance.
	boxes := make([]geom.Box, len(s.instances))
	for i, inst := range s.instances {
		if inst.node.Kind == state.NodePlane {
			s.unbounded = append(s.unbounded, i)
			boxes[i] = geom.EmptyBox()
		} else {
			boxes[i] = inst.bounds
		}
	}
	s.bounded = newIndex(boxes)

	return s, nil
}

// flatten appends an instance for every primitive below n.
// The parameter world is the local-to-world transform of n's parent; mat is the nearest ancestor material.
func (s *Scene) flatten(n *state.SceneNode, world mgl64.Mat4, mat state.Material) {
	world = world.Mul4(n.Local())
	if n.Material != nil {
		mat = *n.Material
	}

	if n.Kind == state.NodeGroup {
		for _, c := range n.Children {
			s.flatten(c, world, mat)
		}
		return
	}

	inst := instance{node: n, toLocal: world.Inv(), mat: mat}
	inst.identity = inst.toLocal == geom.Identity()

	// Find the primitive's local bounds; degenerate primitives are dropped as they can never be hit.
	var local geom.Box
	switch n.Kind {
	case state.NodeSphere:
		if n.Sphere.Radius <= 0 {
			return
		}
		local = n.Sphere.Bounds()
	case state.NodePlane:
		if n.Plane.Normal.Zero() {
			return
		}
	case state.NodeTriangle:
		if n.Triangle.Degenerate() {
			return
		}
		local = n.Triangle.Bounds()
	case state.NodeBox:
		local = *n.Box
	case state.NodeMesh:
		if len(n.Mesh.Faces) == 0 {
			return
		}
		faceBoxes := make([]geom.Box, len(n.Mesh.Faces))
		local = geom.EmptyBox()
		for i := range n.Mesh.Faces {
			faceBoxes[i] = n.Mesh.Triangle(i).Bounds()
			local = local.Union(faceBoxes[i])
		}
		inst.faces = newIndex(faceBoxes)
	}

	if n.Kind != state.NodePlane {
		inst.bounds = geom.TransformBox(world, local)
	}
	s.instances = append(s.instances, inst)
}

// Len returns the number of primitives in s.
func (s *Scene) Len() int {
	return len(s.instances)
}

// Intersect finds the hit with the smallest distance greater than Epsilon along r.
// The last return value is false on a miss.
func (s *Scene) Intersect(r geom.Ray) (Hit, bool) {
	return s.intersect(r, math.Inf(1))
}

// intersect finds the nearest hit along r closer than tMax.
func (s *Scene) intersect(r geom.Ray, tMax float64) (Hit, bool) {
	var nearest Hit
	nearestID := -1

	if r.Degenerate() {
		return nearest, false
	}

	// Gather every instance the ray might reach, in a fixed order.
	candidates := append(s.bounded.search(r, Epsilon, tMax), s.unbounded...)
	sort.Ints(candidates)

	for _, id := range candidates {
		inst := &s.instances[id]

		// Move the ray into the instance's local space.
		local := r
		if !inst.identity {
			local = geom.TransformRay(inst.toLocal, r)
		}

		dist, normal, mat, hit := inst.intersect(local)
		if !hit || dist >= tMax || (nearestID >= 0 && dist >= nearest.T) {
			continue
		}

		// Bring the normal back to world space.
		if !inst.identity {
			normal = geom.TransformNormal(inst.toLocal, normal)
		}
		if !normal.Finite() || normal.Zero() {
			// A numeric fault in this instance counts as a miss.
			continue
		}
		if normal.Dot(r.Dir) > 0 {
			normal = normal.Neg()
		}

		nearest = Hit{T: dist, Point: r.At(dist), Normal: normal, Material: mat}
		nearestID = id
	}

	return nearest, nearestID >= 0
}

// intersect tests a local-space ray against the instance's primitive.
// This function's return values are: (1) the distance, (2) the local normal, (3) the material, and (4) whether there was a hit.
func (inst *instance) intersect(r geom.Ray) (float64, geom.Vector, state.Material, bool) {
	n := inst.node

	var dist float64
	var normal geom.Vector
	hit := false

	switch n.Kind {
	case state.NodeSphere:
		if dist, hit = n.Sphere.Intersection(r, Epsilon); hit {
			normal = n.Sphere.Normal(r.At(dist))
		}
	case state.NodePlane:
		if dist, hit = n.Plane.Intersection(r, Epsilon); hit {
			normal = n.Plane.Normal.Norm()
		}
	case state.NodeTriangle:
		if dist, _, _, hit = n.Triangle.Intersection(r, Epsilon); hit {
			normal = n.Triangle.Normal()
		}
	case state.NodeBox:
		if dist, hit = n.Box.Intersection(r, Epsilon); hit {
			normal = n.Box.Normal(r.At(dist))
		}
	case state.NodeMesh:
		return inst.intersectMesh(r)
	}

	if !hit || math.IsNaN(dist) || math.IsInf(dist, 0) {
		return 0, geom.Vector{}, inst.mat, false
	}
	return dist, normal, inst.mat, true
}

// intersectMesh finds the nearest face of a mesh instance hit by the local-space ray r.
func (inst *instance) intersectMesh(r geom.Ray) (float64, geom.Vector, state.Material, bool) {
	m := inst.node.Mesh

	hasNearest := false
	var nearestDistance float64
	var nearestNormal geom.Vector
	nearestMaterial := inst.mat

	candidates := inst.faces.search(r, Epsilon, math.Inf(1))
	sort.Ints(candidates)

	for _, i := range candidates {
		dist, u, v, hit := m.Triangle(i).Intersection(r, Epsilon)
		if !hit || (hasNearest && dist >= nearestDistance) {
			continue
		}

		hasNearest = true
		nearestDistance = dist
		nearestNormal = m.Normal(i, u, v)
		if len(m.Materials) > 0 {
			nearestMaterial = m.Materials[m.Faces[i].Mat]
		} else {
			nearestMaterial = inst.mat
		}
	}

	return nearestDistance, nearestNormal, nearestMaterial, hasNearest
}
