// Package export writes decoded scenes as glTF 2.0 and skin textures as
// image files.
package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/pkg/math"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// ErrEmptyScene is returned for scenes without meshes or root node.
var ErrEmptyScene = errors.New("scene has no geometry")

// TextureSource resolves external texture names to images.
type TextureSource interface {
	LoadTexture(name string) (image.Image, error)
}

// GLTFOptions controls glTF output.
type GLTFOptions struct {
	// Binary writes a single .glb file instead of JSON with an embedded buffer.
	Binary bool
	// YUp rotates the Z-up terrain into glTF's Y-up convention on the root node.
	YUp bool
	// TextureDir is searched for external skin textures when Textures is
	// nil. Textures that cannot be loaded are referenced by URI instead.
	TextureDir string
	Textures   TextureSource
	Log        *zap.Logger
}

func (o GLTFOptions) loadTexture(name string) (image.Image, error) {
	if o.Textures != nil {
		return o.Textures.LoadTexture(name)
	}
	return LoadExternalTexture(o.TextureDir, name)
}

func (o GLTFOptions) log() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// SaveGLTF writes sc to path. A .glb or .gltf extension overrides opts.Binary.
func SaveGLTF(path string, sc *scene.Scene, opts GLTFOptions) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		opts.Binary = true
	case ".gltf":
		opts.Binary = false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteGLTF(f, sc, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteGLTF encodes sc as glTF to w.
func WriteGLTF(w io.Writer, sc *scene.Scene, opts GLTFOptions) error {
	doc, err := BuildDocument(sc, opts)
	if err != nil {
		return err
	}
	if !opts.Binary {
		doc.Buffers[0].EmbeddedResource()
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = opts.Binary
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding glTF: %w", err)
	}
	return nil
}

// BuildDocument converts sc into a glTF document with a single buffer.
func BuildDocument(sc *scene.Scene, opts GLTFOptions) (*gltf.Document, error) {
	if sc == nil || sc.Root == nil || len(sc.Meshes) == 0 {
		return nil, ErrEmptyScene
	}

	b := &docBuilder{
		doc:       newDocument(),
		opts:      opts,
		materials: make(map[int]uint32),
	}

	for i, m := range sc.Meshes {
		if err := b.addMesh(sc, m, i); err != nil {
			return nil, err
		}
	}

	root := &gltf.Node{
		Name:     sc.Root.Name,
		Rotation: math.QuatIdentity().Array(),
		Scale:    [3]float32{1, 1, 1},
	}
	if opts.YUp {
		// Z-up to Y-up: -90 degrees about X.
		root.Rotation = math.QuatFromAxisAngle(math.Vec3{X: 1}, -math32.Pi/2).Array()
	}
	b.doc.Nodes = append(b.doc.Nodes, root)

	switch len(sc.Root.Meshes) {
	case 0:
	case 1:
		idx := uint32(sc.Root.Meshes[0])
		root.Mesh = &idx
	default:
		for _, mi := range sc.Root.Meshes {
			idx := uint32(mi)
			child := uint32(len(b.doc.Nodes))
			b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
				Mesh:     &idx,
				Rotation: math.QuatIdentity().Array(),
				Scale:    [3]float32{1, 1, 1},
			})
			root.Children = append(root.Children, child)
		}
	}
	b.doc.Scenes[0].Nodes = []uint32{0}

	b.doc.Buffers[0].ByteLength = uint32(len(b.doc.Buffers[0].Data))
	return b.doc, nil
}

func newDocument() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = "2.0"
	doc.Asset.Generator = "hmptool"
	sceneIndex := uint32(0)
	doc.Scene = &sceneIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "terrain"})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

type docBuilder struct {
	doc       *gltf.Document
	opts      GLTFOptions
	materials map[int]uint32 // scene material index -> glTF material index
}

// appendView appends data to the buffer as a new view, 4-byte aligned.
func (b *docBuilder) appendView(data []byte) uint32 {
	buf := b.doc.Buffers[0]
	for len(buf.Data)%4 != 0 {
		buf.Data = append(buf.Data, 0)
	}
	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: uint32(len(buf.Data)),
		ByteLength: uint32(len(data)),
	}
	buf.Data = append(buf.Data, data...)
	buf.ByteLength = uint32(len(buf.Data))
	b.doc.BufferViews = append(b.doc.BufferViews, view)
	return uint32(len(b.doc.BufferViews) - 1)
}

func (b *docBuilder) appendAccessor(acc *gltf.Accessor) uint32 {
	b.doc.Accessors = append(b.doc.Accessors, acc)
	return uint32(len(b.doc.Accessors) - 1)
}

func encodeLE(v any) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func (b *docBuilder) addMesh(sc *scene.Scene, m *scene.Mesh, index int) error {
	if len(m.Vertices) == 0 {
		return fmt.Errorf("%w: mesh %d has no vertices", ErrEmptyScene, index)
	}

	positions := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = v.Array()
	}
	bounds := m.Bounds()
	lo, hi := bounds.Min.Array(), bounds.Max.Array()
	posView := b.appendView(encodeLE(positions))
	posAcc := b.appendAccessor(&gltf.Accessor{
		BufferView:    &posView,
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(len(positions)),
		Min:           lo[:],
		Max:           hi[:],
	})

	prim := &gltf.Primitive{
		Attributes: gltf.Attribute{"POSITION": posAcc},
		Mode:       gltf.PrimitiveTriangles,
	}

	if len(m.Normals) == len(m.Vertices) {
		normals := make([][3]float32, len(m.Normals))
		for i, n := range m.Normals {
			normals[i] = n.Array()
		}
		view := b.appendView(encodeLE(normals))
		prim.Attributes["NORMAL"] = b.appendAccessor(&gltf.Accessor{
			BufferView:    &view,
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(len(normals)),
		})
	}

	if m.HasTexCoords() {
		// glTF puts v=0 at the top of the image.
		uvs := make([][2]float32, len(m.TexCoords))
		for i, uv := range m.TexCoords {
			uvs[i] = [2]float32{uv.X, 1 - uv.Y}
		}
		view := b.appendView(encodeLE(uvs))
		prim.Attributes["TEXCOORD_0"] = b.appendAccessor(&gltf.Accessor{
			BufferView:    &view,
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec2,
			Count:         uint32(len(uvs)),
		})
	}

	indices := m.TriangleIndices()
	if len(indices) > 0 {
		view := b.appendView(encodeLE(indices))
		idx := b.appendAccessor(&gltf.Accessor{
			BufferView:    &view,
			ComponentType: gltf.ComponentUint,
			Type:          gltf.AccessorScalar,
			Count:         uint32(len(indices)),
		})
		prim.Indices = &idx
	}

	if m.MaterialIndex >= 0 && m.MaterialIndex < len(sc.Materials) {
		mat, err := b.material(sc, m.MaterialIndex)
		if err != nil {
			return err
		}
		prim.Material = &mat
	}

	name := m.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", index)
	}
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	return nil
}
