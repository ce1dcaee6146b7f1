// Package state provides shared state information for use by workers and the master.
package state

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/geom"
)

// MaxSceneDepth is the deepest a scene graph may nest.
const MaxSceneDepth = 64

// NodeKind tags which variant of SceneNode a node is.
type NodeKind uint8

// These constants are the node kinds a scene may contain.
// The zero value is not a kind, so an unset tag fails Validate.
const (
	NodeGroup NodeKind = iota + 1
	NodeSphere
	NodePlane
	NodeTriangle
	NodeBox
	NodeMesh
)

var nodeNames = map[NodeKind]string{
	NodeGroup:    "group",
	NodeSphere:   "sphere",
	NodePlane:    "plane",
	NodeTriangle: "triangle",
	NodeBox:      "box",
	NodeMesh:     "mesh",
}

func (k NodeKind) String() string {
	if name, exists := nodeNames[k]; exists {
		return name
	}
	return "unknown"
}

// Material represents the surface properties of a primitive.
type Material struct {
	Diffuse      colour.RGB `json:"diffuse"`      // Lambertian reflectance.
	Ambient      colour.RGB `json:"ambient"`      // Colour shown with no light reaching the surface.
	Specular     float64    `json:"specular"`     // Phong specular coefficient.
	Shininess    float64    `json:"shininess"`    // Phong specular exponent.
	Reflectivity float64    `json:"reflectivity"` // Share of the colour taken from the mirror direction, in [0, 1].
}

// DefaultMaterial is used by primitives with no material anywhere along their ancestry.
var DefaultMaterial = Material{Diffuse: colour.RGB{R: 0.8, G: 0.8, B: 0.8}}

// Validate checks that every property of m is within its range.
func (m Material) Validate() error {
	if !m.Diffuse.Valid() || !m.Ambient.Valid() {
		return Errorf(KindInvalidScene, "material colours must be within [0, 1]")
	}
	if !finite(m.Specular) || m.Specular < 0 || !finite(m.Shininess) || m.Shininess < 0 {
		return Errorf(KindInvalidScene, "material specular terms must be non-negative")
	}
	if !finite(m.Reflectivity) || m.Reflectivity < 0 || m.Reflectivity > 1 {
		return Errorf(KindInvalidScene, "material reflectivity %v is outside [0, 1]", m.Reflectivity)
	}
	return nil
}

// SceneNode is one node of a scene graph: either a group of children or a single primitive.
// Kind says which; exactly the parameter field matching Kind is read.
type SceneNode struct {
	Kind      NodeKind
	Transform *mgl64.Mat4 // Local-to-parent transform; nil is the identity.
	Material  *Material   // nil inherits the nearest ancestor's material.

	Sphere   *geom.Sphere
	Plane    *geom.Plane
	Triangle *geom.Triangle
	Box      *geom.Box
	Mesh     *Mesh

	Children []*SceneNode // Only read for groups.
}

// NewGroup returns a group node containing children.
func NewGroup(children ...*SceneNode) *SceneNode {
	return &SceneNode{Kind: NodeGroup, Children: children}
}

// NewSphere returns a sphere primitive.
func NewSphere(center geom.Vector, radius float64, mat Material) *SceneNode {
	return &SceneNode{Kind: NodeSphere, Sphere: &geom.Sphere{Center: center, Radius: radius}, Material: &mat}
}

// NewPlane returns a plane primitive.
func NewPlane(point, normal geom.Vector, mat Material) *SceneNode {
	return &SceneNode{Kind: NodePlane, Plane: &geom.Plane{Point: point, Normal: normal}, Material: &mat}
}

// NewTriangle returns a triangle primitive.
func NewTriangle(p1, p2, p3 geom.Vector, mat Material) *SceneNode {
	return &SceneNode{Kind: NodeTriangle, Triangle: &geom.Triangle{P1: p1, P2: p2, P3: p3}, Material: &mat}
}

// NewBox returns an axis-aligned box primitive.
func NewBox(minCorner, maxCorner geom.Vector, mat Material) *SceneNode {
	return &SceneNode{Kind: NodeBox, Box: &geom.Box{MinCorner: minCorner, MaxCorner: maxCorner}, Material: &mat}
}

// NewMeshNode returns a mesh primitive.
func NewMeshNode(mesh *Mesh, mat Material) *SceneNode {
	return &SceneNode{Kind: NodeMesh, Mesh: mesh, Material: &mat}
}

// WithTransform sets n's local transform and returns n.
func (n *SceneNode) WithTransform(m mgl64.Mat4) *SceneNode {
	n.Transform = &m
	return n
}

// Local returns n's local transform.
func (n *SceneNode) Local() mgl64.Mat4 {
	if n.Transform == nil {
		return geom.Identity()
	}
	return *n.Transform
}

// Validate checks that the scene rooted at root is a finite tree of well-formed nodes.
func Validate(root *SceneNode) error {
	if root == nil {
		return Errorf(KindInvalidScene, "scene has no root")
	}
	return validateNode(root, 0, make(map[*SceneNode]struct{}))
}

// validateNode checks n and its descendants.
// Any node reached a second time means the graph has a cycle or a node with two parents.
func validateNode(n *SceneNode, depth int, seen map[*SceneNode]struct{}) error {
	if n == nil {
		return Errorf(KindInvalidScene, "nil node at depth %d", depth)
	}
	if depth > MaxSceneDepth {
		return Errorf(KindInvalidScene, "scene is deeper than %d levels", MaxSceneDepth)
	}
	if _, exists := seen[n]; exists {
		return Errorf(KindInvalidScene, "node reached twice (cycle or shared child)")
	}
	seen[n] = struct{}{}

	// Check the properties every node has.
	if n.Transform != nil && !geom.Affine(*n.Transform) {
		return Errorf(KindInvalidScene, "%s transform is not an invertible affine map", n.Kind)
	}
	if n.Material != nil {
		if err := n.Material.Validate(); err != nil {
			return err
		}
	}
	if n.Kind != NodeGroup && len(n.Children) > 0 {
		return Errorf(KindInvalidScene, "%s node cannot have children", n.Kind)
	}

	// Check the parameters of the node's variant.
	switch n.Kind {
	case NodeGroup:
		for _, c := range n.Children {
			if err := validateNode(c, depth+1, seen); err != nil {
				return err
			}
		}
	case NodeSphere:
		if n.Sphere == nil || !n.Sphere.Center.Finite() || !finite(n.Sphere.Radius) {
			return Errorf(KindInvalidScene, "sphere parameters missing or not finite")
		}
	case NodePlane:
		if n.Plane == nil || !n.Plane.Point.Finite() || !n.Plane.Normal.Finite() {
			return Errorf(KindInvalidScene, "plane parameters missing or not finite")
		}
	case NodeTriangle:
		if n.Triangle == nil || !n.Triangle.P1.Finite() || !n.Triangle.P2.Finite() || !n.Triangle.P3.Finite() {
			return Errorf(KindInvalidScene, "triangle parameters missing or not finite")
		}
	case NodeBox:
		if n.Box == nil || !n.Box.Valid() {
			return Errorf(KindInvalidScene, "box corners missing, not finite, or out of order")
		}
	case NodeMesh:
		if n.Mesh == nil {
			return Errorf(KindInvalidScene, "mesh parameters missing")
		}
		return n.Mesh.Validate()
	default:
		return Errorf(KindInvalidScene, "unknown node kind %d", n.Kind)
	}

	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
