package scene

import (
	"github.com/Faultbox/hmp-terrain/pkg/math"
)

// Face is a polygon referencing mesh vertices by index.
type Face struct {
	Indices []uint32
}

// Mesh is a polygon mesh with per-vertex attributes. Normals has the same
// length as Vertices; TexCoords is either empty or the same length too.
type Mesh struct {
	Name          string
	Vertices      []math.Vec3
	Normals       []math.Vec3
	TexCoords     []math.Vec2
	Faces         []Face
	MaterialIndex int
}

// HasTexCoords reports whether the mesh carries a texture-coordinate set.
func (m *Mesh) HasTexCoords() bool {
	return len(m.TexCoords) > 0
}

// Bounds returns the bounding box of all vertices.
func (m *Mesh) Bounds() Bounds {
	if len(m.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min = b.Min.Min(v)
		b.Max = b.Max.Max(v)
	}
	return b
}

// AltitudeRange returns the minimum and maximum Z over all vertices.
func (m *Mesh) AltitudeRange() (min, max float32) {
	b := m.Bounds()
	return b.Min.Z, b.Max.Z
}

// TriangleIndices fans every face into triangles: a quad (0,1,2,3) becomes
// (0,1,2) and (0,2,3). Faces with fewer than 3 indices are dropped.
func (m *Mesh) TriangleIndices() []uint32 {
	var out []uint32
	for _, f := range m.Faces {
		for i := 2; i < len(f.Indices); i++ {
			out = append(out, f.Indices[0], f.Indices[i-1], f.Indices[i])
		}
	}
	return out
}
