// Package state provides shared state information for use by workers and the master.
package state

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/geom"
)

// Environment represents everything needed to render one image: a scene, its lights, and a camera.
// An environment is built once per render and never mutated afterwards.
type Environment struct {
	Root   *SceneNode
	Lights []Light
	Cam    Projection
}

// Validate checks the scene, the lights and the camera of e, in that order.
func (e Environment) Validate() error {
	if err := Validate(e.Root); err != nil {
		return err
	}
	if err := ValidateLights(e.Lights); err != nil {
		return err
	}
	return e.Cam.Validate()
}

// StoredNode is used to unmarshal scene nodes from the JSON format.
type StoredNode struct {
	Type     string       `json:"type"`
	Model    string       `json:"model"` // Path to a Wavefront OBJ file, for meshes.
	Material *Material    `json:"material"`
	Children []StoredNode `json:"children"`

	// Transform, applied as scale, then rotation, then translation.
	Translate *geom.Vector `json:"translate"`
	Scale     *geom.Vector `json:"scale"`
	Axis      *geom.Vector `json:"axis"`
	Degrees   float64      `json:"degrees"`

	Sphere   *geom.Sphere   `json:"sphere"`
	Plane    *geom.Plane    `json:"plane"`
	Triangle *geom.Triangle `json:"triangle"`
	Box      *geom.Box      `json:"box"`
}

// StoredLight is used to unmarshal lights from the JSON format.
type StoredLight struct {
	Type      string      `json:"type"`
	Pos       geom.Vector `json:"pos"`
	Dir       geom.Vector `json:"dir"`
	Col       colour.RGB  `json:"colour"`
	Intensity float64     `json:"intensity"`
}

// StoredCamera is used to unmarshal projections from the JSON format.
type StoredCamera struct {
	Eye     geom.Vector  `json:"eye"`
	LookAt  geom.Vector  `json:"lookAt"`
	Up      *geom.Vector `json:"up"`
	Degrees float64      `json:"fov"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
}

// StoredEnvironment is the top level of a JSON environment file.
type StoredEnvironment struct {
	Scene  StoredNode    `json:"scene"`
	Lights []StoredLight `json:"lights"`
	Camera StoredCamera  `json:"camera"`
}

// EnvironmentFromFile reads an environment from a JSON file.
// Mesh paths are resolved relative to the file.
func EnvironmentFromFile(path string) (Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Environment{}, fmt.Errorf("environment: read %s: %w", path, err)
	}

	var stored StoredEnvironment
	if err := json.Unmarshal(data, &stored); err != nil {
		return Environment{}, fmt.Errorf("environment: parse %s: %w", path, err)
	}

	// Build the scene graph.
	root, err := stored.Scene.build(path)
	if err != nil {
		return Environment{}, fmt.Errorf("environment: scene in %s: %w", path, err)
	}
	env := Environment{Root: root, Lights: make([]Light, 0, len(stored.Lights))}

	// Build the light set.
	for i, sl := range stored.Lights {
		switch sl.Type {
		case "point":
			env.Lights = append(env.Lights, NewPointLight(sl.Pos, sl.Col, sl.Intensity))
		case "directional":
			env.Lights = append(env.Lights, NewDirectionalLight(sl.Dir, sl.Col, sl.Intensity))
		default:
			return Environment{}, fmt.Errorf("environment: light %d in %s has unknown type %q", i, path, sl.Type)
		}
	}

	// Build the camera.
	c := stored.Camera
	env.Cam = NewProjection(c.Eye, c.LookAt, c.Degrees*math.Pi/180.0, c.Width, c.Height)
	if c.Up != nil {
		env.Cam.Up = *c.Up
	}

	return env, env.Validate()
}

// build converts a stored node (and its children) into a scene node.
func (s StoredNode) build(path string) (*SceneNode, error) {
	n := &SceneNode{Material: s.Material}

	switch s.Type {
	case "group":
		n.Kind = NodeGroup
		for _, sc := range s.Children {
			child, err := sc.build(path)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
	case "sphere":
		n.Kind, n.Sphere = NodeSphere, s.Sphere
	case "plane":
		n.Kind, n.Plane = NodePlane, s.Plane
	case "triangle":
		n.Kind, n.Triangle = NodeTriangle, s.Triangle
	case "box":
		n.Kind, n.Box = NodeBox, s.Box
	case "mesh":
		model := s.Model
		if !filepath.IsAbs(model) {
			model = relativePath(path, model)
		}
		mesh, err := MeshFromFile(model)
		if err != nil {
			return nil, err
		}
		n.Kind, n.Mesh = NodeMesh, mesh
		if s.Material != nil {
			// An explicit material overrides the one from the model's library.
			mesh.Materials = nil
		}
	default:
		return nil, fmt.Errorf("unknown node type %q", s.Type)
	}

	// Compose the local transform.
	if s.Translate != nil || s.Scale != nil || s.Axis != nil {
		m := geom.Identity()
		if s.Translate != nil {
			m = m.Mul4(geom.Translation(*s.Translate))
		}
		if s.Axis != nil {
			m = m.Mul4(geom.Rotation(*s.Axis, s.Degrees*math.Pi/180.0))
		}
		if s.Scale != nil {
			m = m.Mul4(geom.Scaling(*s.Scale))
		}
		n.Transform = &m
	}

	return n, nil
}
