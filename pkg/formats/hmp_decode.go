package formats

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/pkg/math"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

const (
	// frameHeaderGap is skipped between the skins and the first vertex
	// record. It looks like a per-frame sub-header but its layout is not
	// known; files only decode correctly with exactly this gap.
	frameHeaderGap = 36

	// vertexRecordSize is the same for v5 and v7: a 16-bit height plus two
	// bytes of normal data.
	vertexRecordSize = 4

	// heightScale maps the normalized height to world units relative to
	// TriSizeX. An approximation; the real factor is unknown.
	heightScale = 8.0
)

// decoder holds the state of one v5/v7 decode call.
type decoder struct {
	data    []byte
	variant Variant
	opts    decodeOptions

	header *Header
	cursor *Cursor
	scene  *scene.Scene
}

func (d *decoder) decode() (*scene.Scene, error) {
	d.cursor = NewCursor(d.data)
	h, err := readHeader(d.cursor)
	if err != nil {
		return nil, err
	}
	d.header = h
	d.scene = &scene.Scene{}

	width, height := h.Width(), h.Height()
	d.opts.log.Debug("HMP grid",
		zap.Uint32("width", width),
		zap.Uint32("height", height),
		zap.Int32("skins", h.NumSkins),
		zap.Int32("frames", h.NumFrames))

	if err := d.readMaterial(); err != nil {
		return nil, err
	}

	if err := d.cursor.Skip(frameHeaderGap); err != nil {
		return nil, fmt.Errorf("skipping frame header: %w", err)
	}
	count := uint64(width) * uint64(height)
	if err := d.cursor.RequireRecords(count, vertexRecordSize); err != nil {
		return nil, fmt.Errorf("reading vertex records: %w", err)
	}

	grid, err := d.readVertices(width, height)
	if err != nil {
		return nil, err
	}
	if h.NumSkins > 0 {
		grid.texCoords = generateTexCoords(width, height)
	}

	mesh := buildFaceList(width, height, grid)
	mesh.MaterialIndex = 0
	d.scene.Meshes = []*scene.Mesh{mesh}
	d.scene.Root = &scene.Node{Name: rootNodeName, Meshes: []int{0}}
	d.scene.Flags |= scene.FlagTerrain
	return d.scene, nil
}

// readMaterial resolves the scene's only material: the first skin when
// the file has skins, the default material otherwise.
func (d *decoder) readMaterial() error {
	if d.header.NumSkins == 0 {
		d.scene.Materials = []*scene.Material{DefaultMaterial()}
		return nil
	}
	return d.readFirstSkin(int(d.header.NumSkins))
}

// readVertices decodes width*height vertex records in row-major order.
// The caller has already checked that they fit in the buffer.
func (d *decoder) readVertices(width, height uint32) (*vertexGrid, error) {
	n := int(width) * int(height)
	grid := &vertexGrid{
		positions: make([]math.Vec3, n),
		normals:   make([]math.Vec3, n),
	}
	triX, triY := d.header.TriSizeX, d.header.TriSizeY

	i := 0
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			rawZ, err := d.cursor.Uint16()
			if err != nil {
				return nil, fmt.Errorf("reading vertex %d: %w", i, err)
			}
			normal, err := d.readNormal()
			if err != nil {
				return nil, fmt.Errorf("reading vertex %d: %w", i, err)
			}
			grid.positions[i] = math.Vec3{
				X: float32(x) * triX,
				Y: float32(y) * triY,
				Z: (float32(rawZ)/0xffff - 0.5) * triX * heightScale,
			}
			grid.normals[i] = normal
			i++
		}
	}
	return grid, nil
}

// readNormal decodes the two normal bytes of a vertex record.
func (d *decoder) readNormal() (math.Vec3, error) {
	switch d.variant {
	case VariantHMP5:
		index, err := d.cursor.Uint8()
		if err != nil {
			return math.Vec3{}, err
		}
		if err := d.cursor.Skip(1); err != nil {
			return math.Vec3{}, err
		}
		return lookupNormal(index, d.opts.log), nil
	default:
		nx, err := d.cursor.Int8()
		if err != nil {
			return math.Vec3{}, err
		}
		ny, err := d.cursor.Int8()
		if err != nil {
			return math.Vec3{}, err
		}
		n := math.Vec3{X: float32(nx) / 128, Y: float32(ny) / 128, Z: 1}
		return n.Normalize(), nil
	}
}
