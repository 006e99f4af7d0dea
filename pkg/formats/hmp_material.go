package formats

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// DefaultMaterial returns the material used for files without skins:
// Gouraud shaded mid gray with a dark ambient term.
func DefaultMaterial() *scene.Material {
	diffuse := scene.Gray(0.6)
	specular := scene.Gray(0.6)
	ambient := scene.Gray(0.05)
	return &scene.Material{
		Name:     scene.DefaultMaterialName,
		Shading:  scene.ShadingGouraud,
		Diffuse:  &diffuse,
		Specular: &specular,
		Ambient:  &ambient,
	}
}

// readFirstSkin decodes the first skin into the scene material and skips
// the remaining numSkins-1 skins.
func (d *decoder) readFirstSkin(numSkins int) error {
	c := d.cursor
	codec := &SkinCodec{
		Palette:    d.opts.palette,
		DecodeName: d.opts.decodeName,
		Log:        d.opts.log,
	}

	typ, err := c.Uint32()
	if err != nil {
		return fmt.Errorf("reading skin type: %w", err)
	}
	// Some files carry 8 more bytes before the real type tag.
	if typ == 0 {
		if err := c.Skip(8); err != nil {
			return fmt.Errorf("reading skin type: %w", err)
		}
		if typ, err = c.Uint32(); err != nil {
			return fmt.Errorf("reading skin type: %w", err)
		}
		if typ == 0 {
			return fmt.Errorf("%w: skin type is zero at offset %d", ErrUnreadableSkinChunk, c.Offset()-4)
		}
	}
	width, err := c.Uint32()
	if err != nil {
		return fmt.Errorf("reading skin width: %w", err)
	}
	height, err := c.Uint32()
	if err != nil {
		return fmt.Errorf("reading skin height: %w", err)
	}

	d.opts.log.Debug("HMP skin",
		zap.Uint32("type", typ),
		zap.Uint32("width", width),
		zap.Uint32("height", height))

	mat, tex, err := codec.Parse(c, typ, width, height)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreadableSkinChunk, err)
	}
	if tex != nil {
		mat.DiffuseTexture = "*" + strconv.Itoa(len(d.scene.Textures))
		d.scene.Textures = append(d.scene.Textures, tex)
	}

	for i := 1; i < numSkins; i++ {
		if err := c.Require(12); err != nil {
			return fmt.Errorf("reading skin %d: %w", i, err)
		}
		typ, _ := c.Uint32()
		width, _ := c.Uint32()
		height, _ := c.Uint32()
		if err := codec.Skip(c, typ, width, height); err != nil {
			return fmt.Errorf("%w: skipping skin %d: %w", ErrUnreadableSkinChunk, i, err)
		}
	}

	d.scene.Materials = []*scene.Material{mat}
	return nil
}
