// Package scene holds the in-memory scene model produced by the format decoders:
// meshes, materials, textures and a node graph.
package scene

import (
	"image"

	"github.com/Faultbox/hmp-terrain/pkg/math"
)

// Flags describe properties of a decoded scene.
type Flags uint32

const (
	// FlagTerrain marks height-field content. Exporters may skip
	// smoothing or skeleton passes for such scenes.
	FlagTerrain Flags = 1 << iota
)

// DefaultMaterialName is the name given to synthesized materials.
const DefaultMaterialName = "DefaultMaterial"

// ShadingMode is the lighting model a material asks for.
type ShadingMode int

const (
	ShadingDefault ShadingMode = iota
	ShadingFlat
	ShadingGouraud
	ShadingPhong
)

// String returns the shading mode name.
func (m ShadingMode) String() string {
	switch m {
	case ShadingDefault:
		return "default"
	case ShadingFlat:
		return "flat"
	case ShadingGouraud:
		return "gouraud"
	case ShadingPhong:
		return "phong"
	default:
		return "unknown"
	}
}

// Color4 is an RGBA color with float components in [0, 1].
type Color4 struct {
	R, G, B, A float32
}

// Gray returns an opaque gray color.
func Gray(v float32) Color4 {
	return Color4{v, v, v, 1}
}

// Material describes surface appearance. Optional properties are nil when absent.
type Material struct {
	Name    string
	Shading ShadingMode

	Diffuse  *Color4
	Specular *Color4
	Ambient  *Color4
	Emissive *Color4

	Opacity   *float32
	Shininess *float32

	// DiffuseTexture is either an external file name or "*N" for Scene.Textures[N].
	DiffuseTexture string

	// ReferrerSkin points at another skin whose material should be used instead.
	ReferrerSkin *int
}

// EmbeddedTextureIndex returns N for a "*N" texture reference.
func (m *Material) EmbeddedTextureIndex() (int, bool) {
	ref := m.DiffuseTexture
	if len(ref) < 2 || ref[0] != '*' {
		return 0, false
	}
	n := 0
	for _, c := range ref[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Texture is an embedded texture. Decoded textures carry Image; compressed
// ones carry the raw file bytes in Data with a FormatHint such as "dds".
type Texture struct {
	Image      *image.NRGBA
	Data       []byte
	FormatHint string
}

// Compressed reports whether the texture holds undecoded file data.
func (t *Texture) Compressed() bool {
	return t.Image == nil
}

// Node is an element of the scene graph referencing meshes by index.
type Node struct {
	Name     string
	Meshes   []int
	Children []*Node
}

// Scene is the decoded result of one file.
type Scene struct {
	Flags     Flags
	Meshes    []*Mesh
	Materials []*Material
	Textures  []*Texture
	Root      *Node
}

// IsTerrain reports whether FlagTerrain is set.
func (s *Scene) IsTerrain() bool {
	return s.Flags&FlagTerrain != 0
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}
