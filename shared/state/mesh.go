// Package state provides shared state information for use by workers and the master.
package state

import (
	"log"

	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/geom"
	"github.com/udhos/gwob"
)

// Face contains a set of indices used to refer to various parts of a mesh.
type Face struct {
	Verts     [3]int // The indices of each vertex of the face.
	VertNorms [3]int // The indices of each vertex normal of the face (ignored if the mesh has no normals).
	Mat       int    // The index of the material used by the face (ignored if the mesh has no materials).
}

// Mesh represents a triangulated (3D) polygonal mesh with various material properties.
type Mesh struct {
	Vertices      []geom.Vector // The vertices of this mesh.
	VertexNormals []geom.Vector // The vertex normals of this mesh.
	Faces         []Face        // Each of this mesh's triangular faces.
	Materials     []Material    // The materials of this mesh; empty means the node's material is used.
}

// Triangle returns the i-th face of m as a triangle.
func (m *Mesh) Triangle(i int) geom.Triangle {
	f := m.Faces[i]
	return geom.Triangle{P1: m.Vertices[f.Verts[0]], P2: m.Vertices[f.Verts[1]], P3: m.Vertices[f.Verts[2]]}
}

// Normal returns the normal of the i-th face of m at barycentric weights (u, v) for its second and third vertex.
// Meshes without vertex normals use the flat face normal.
func (m *Mesh) Normal(i int, u, v float64) geom.Vector {
	if len(m.VertexNormals) == 0 {
		return m.Triangle(i).Normal()
	}

	f := m.Faces[i]
	n1, n2, n3 := m.VertexNormals[f.VertNorms[0]], m.VertexNormals[f.VertNorms[1]], m.VertexNormals[f.VertNorms[2]]
	return n1.Scale(1 - u - v).Add(n2.Scale(u)).Add(n3.Scale(v)).Norm()
}

// Validate checks that every index of m refers to something that exists.
func (m *Mesh) Validate() error {
	for _, v := range m.Vertices {
		if !v.Finite() {
			return Errorf(KindInvalidScene, "mesh vertex %v is not finite", v)
		}
	}
	for _, n := range m.VertexNormals {
		if !n.Finite() {
			return Errorf(KindInvalidScene, "mesh normal %v is not finite", n)
		}
	}
	for _, mat := range m.Materials {
		if err := mat.Validate(); err != nil {
			return err
		}
	}

	for i, f := range m.Faces {
		for k := 0; k < 3; k++ {
			if f.Verts[k] < 0 || f.Verts[k] >= len(m.Vertices) {
				return Errorf(KindInvalidScene, "mesh face %d refers to missing vertex %d", i, f.Verts[k])
			}
			if len(m.VertexNormals) > 0 && (f.VertNorms[k] < 0 || f.VertNorms[k] >= len(m.VertexNormals)) {
				return Errorf(KindInvalidScene, "mesh face %d refers to missing normal %d", i, f.VertNorms[k])
			}
		}
		if len(m.Materials) > 0 && (f.Mat < 0 || f.Mat >= len(m.Materials)) {
			return Errorf(KindInvalidScene, "mesh face %d refers to missing material %d", i, f.Mat)
		}
	}

	return nil
}

// MeshFromFile returns a new mesh based on a provided Wavefront OBJ file.
func MeshFromFile(path string) (*Mesh, error) {
	options := gwob.ObjParserOptions{LogStats: true, Logger: func(s string) { log.Println(s) }, IgnoreNormals: false}

	// Read in the mesh from the file.
	inputMesh, err := gwob.NewObjFromFile(path, &options)
	if err != nil {
		return nil, err
	}

	// Read in the material library associated with the mesh.
	inputMatlib := gwob.NewMaterialLib()
	if len(inputMesh.Mtllib) > 0 {
		inputMatlib, err = gwob.ReadMaterialLibFromFile(relativePath(path, inputMesh.Mtllib), &options)
		if err != nil {
			// If the material can't be found at the relative path, try the path as written.
			inputMatlib, err = gwob.ReadMaterialLibFromFile(inputMesh.Mtllib, &options)
			if err != nil {
				return nil, err
			}
		}
	}

	vertexStride := inputMesh.StrideSize / 4
	vertexOffset := inputMesh.StrideOffsetPosition / 4
	vertexNormalOffset := inputMesh.StrideOffsetNormal / 4

	// Initialize the mesh.
	mesh := &Mesh{
		Vertices:  make([]geom.Vector, 0, len(inputMesh.Coord)/vertexStride),
		Materials: make([]Material, 0, len(inputMesh.Groups)),
	}
	if inputMesh.NormCoordFound {
		mesh.VertexNormals = make([]geom.Vector, 0, len(inputMesh.Coord)/vertexStride)
	}

	// Assemble the mesh.
	vertexMap := make(map[geom.Vector]int)
	vertexNormalMap := make(map[geom.Vector]int)
	materialMap := make(map[Material]int)
	for _, g := range inputMesh.Groups {
		// Assign a default material, replacing its diffuse colour if the group names one.
		mat := DefaultMaterial
		if gMat, exists := inputMatlib.Lib[g.Usemtl]; exists {
			mat.Diffuse = colour.NewRGBFromFloats(gMat.Kd[0], gMat.Kd[1], gMat.Kd[2])
		}

		// If the material is new, add it.
		matIndex, exists := materialMap[mat]
		if !exists {
			matIndex = len(mesh.Materials)
			mesh.Materials = append(mesh.Materials, mat)
			materialMap[mat] = matIndex
		}

		// Fill the vertex and vertex normal slices.
		for f := 0; f < g.IndexCount/3; f++ {
			fFace := Face{Mat: matIndex}

			// Add the vertex and vertex normal indices (if they exist).
			for v := 0; v < 3; v++ {
				base := vertexStride * inputMesh.Indices[g.IndexBegin+3*f+v]
				vVertex := geom.Vector{
					X: inputMesh.Coord64(base + vertexOffset),
					Y: inputMesh.Coord64(base + vertexOffset + 1),
					Z: inputMesh.Coord64(base + vertexOffset + 2),
				}

				// Add the new vertex.
				if vVertexIndex, exists := vertexMap[vVertex]; exists {
					fFace.Verts[v] = vVertexIndex
				} else {
					fFace.Verts[v] = len(mesh.Vertices)
					vertexMap[vVertex] = len(mesh.Vertices)
					mesh.Vertices = append(mesh.Vertices, vVertex)
				}

				// Add the new vertex normal (if it exists).
				if inputMesh.NormCoordFound {
					vVertexNormal := geom.Vector{
						X: inputMesh.Coord64(base + vertexNormalOffset),
						Y: inputMesh.Coord64(base + vertexNormalOffset + 1),
						Z: inputMesh.Coord64(base + vertexNormalOffset + 2),
					}
					if vVertexNormalIndex, exists := vertexNormalMap[vVertexNormal]; exists {
						fFace.VertNorms[v] = vVertexNormalIndex
					} else {
						fFace.VertNorms[v] = len(mesh.VertexNormals)
						vertexNormalMap[vVertexNormal] = len(mesh.VertexNormals)
						mesh.VertexNormals = append(mesh.VertexNormals, vVertexNormal.Norm())
					}
				}
			}

			mesh.Faces = append(mesh.Faces, fFace)
		}
	}

	return mesh, nil
}
