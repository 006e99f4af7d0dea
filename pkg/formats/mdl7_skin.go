package formats

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// Skin codec errors.
var (
	ErrUnknownSkinType = errors.New("unknown skin texture type")
	ErrMalformedSkin   = errors.New("malformed skin")
)

// Skin type tags. The low nibble selects the payload; the high bits are flags.
const (
	skinTypeMask = 0x0f

	SkinPaletted  = 0x0
	SkinReference = 0x1
	SkinRGB565    = 0x2
	SkinARGB4444  = 0x3
	SkinBGR888    = 0x4
	SkinBGRA8888  = 0x5
	SkinDDS       = 0x6
	SkinExternal  = 0x7

	// skinMipFlag on a color type adds three smaller mip levels.
	skinMipFlag = 0x8

	// SkinFlagMaterial means a material definition follows the texture data.
	SkinFlagMaterial = 0x10
	// SkinFlagEffect means a length-prefixed effect description follows.
	SkinFlagEffect = 0x20
)

const (
	// materialBlockSize is four RGBA colors plus the specular power.
	materialBlockSize = 4*4*4 + 4

	// maxSkinNameLength bounds external texture file names.
	maxSkinNameLength = 1023

	// checkerSize is the edge of the placeholder texture used when a color
	// skin has no dimensions.
	checkerSize = 8

	// maxSkinTexels keeps texture size arithmetic far from overflow.
	maxSkinTexels = 1 << 40
)

// SkinCodec decodes skin lumps shared by the MDL7 and HMP formats.
// A zero SkinCodec uses the grayscale palette and reads names as raw bytes.
type SkinCodec struct {
	Palette    *Palette
	DecodeName func([]byte) string
	Log        *zap.Logger
}

func (sc *SkinCodec) log() *zap.Logger {
	if sc.Log == nil {
		return zap.NewNop()
	}
	return sc.Log
}

// Parse decodes one skin lump whose type, width and height have already
// been read. It returns the material and, for embedded textures that were
// not reduced to a color, the texture the material should reference.
func (sc *SkinCodec) Parse(c *Cursor, typ, width, height uint32) (*scene.Material, *scene.Texture, error) {
	mat := &scene.Material{}
	var tex *scene.Texture
	var texColor *scene.Color4

	masked := typ & skinTypeMask
	switch {
	case masked == SkinReference:
		ref := int(width)
		mat.ReferrerSkin = &ref

	case masked == SkinDDS:
		if height != 1 {
			sc.log().Warn("DDS skin height should be 1", zap.Uint32("height", height))
		}
		if width == 0 {
			sc.log().Error("DDS skin has no data")
			return mat, nil, nil
		}
		data, err := c.Bytes(int(width))
		if err != nil {
			return nil, nil, fmt.Errorf("reading DDS skin: %w", err)
		}
		tex = &scene.Texture{Data: append([]byte(nil), data...), FormatHint: "dds"}

	case masked == SkinExternal:
		if height != 1 {
			sc.log().Warn("external skin name height should be 1", zap.Uint32("height", height))
		}
		name, err := c.CString(maxSkinNameLength)
		if err != nil {
			return nil, nil, fmt.Errorf("reading external skin name: %w", err)
		}
		mat.DiffuseTexture = sc.decodeName(name)

	case masked != 0 || typ == 0 || (width != 0 && height != 0):
		img, err := sc.readColorTexture(c, masked, width, height)
		if err != nil {
			return nil, nil, err
		}
		if clr, ok := uniformColor(img); ok {
			texColor = &clr
		} else {
			tex = &scene.Texture{Image: img}
		}
	}

	if typ&SkinFlagMaterial != 0 {
		if err := readMaterialBlock(c, mat, texColor); err != nil {
			return nil, nil, err
		}
	} else if texColor != nil {
		diffuse, specular := *texColor, *texColor
		mat.Diffuse = &diffuse
		mat.Specular = &specular
	}

	if typ&SkinFlagEffect != 0 {
		if err := skipEffect(c); err != nil {
			return nil, nil, err
		}
	}
	return mat, tex, nil
}

// Skip advances past one skin lump without decoding it.
func (sc *SkinCodec) Skip(c *Cursor, typ, width, height uint32) error {
	masked := typ & skinTypeMask
	switch {
	case masked == SkinReference:
	case masked == SkinDDS:
		if err := c.Skip(int(width)); err != nil {
			return fmt.Errorf("skipping DDS skin: %w", err)
		}
	case masked == SkinExternal:
		if _, err := c.CString(maxSkinNameLength); err != nil {
			return fmt.Errorf("skipping external skin name: %w", err)
		}
	case masked != 0 || typ == 0 || (width != 0 && height != 0):
		if width != 0 && height != 0 {
			size, err := textureDataSize(masked, width, height)
			if err != nil {
				return err
			}
			if err := c.Skip(int(size)); err != nil {
				return fmt.Errorf("skipping skin texture: %w", err)
			}
		}
	}

	if typ&SkinFlagMaterial != 0 {
		if err := c.Skip(materialBlockSize); err != nil {
			return fmt.Errorf("skipping skin material: %w", err)
		}
	}
	if typ&SkinFlagEffect != 0 {
		return skipEffect(c)
	}
	return nil
}

func (sc *SkinCodec) decodeName(b []byte) string {
	if sc.DecodeName == nil {
		return string(b)
	}
	return sc.DecodeName(b)
}

func (sc *SkinCodec) palette() *Palette {
	if sc.Palette == nil {
		return GrayscalePalette()
	}
	return sc.Palette
}

// bytesPerTexel returns the texel size for a color skin type, mip flag included.
func bytesPerTexel(masked uint32) (uint64, error) {
	switch masked &^ skinMipFlag {
	case SkinPaletted:
		if masked&skinMipFlag != 0 {
			break
		}
		return 1, nil
	case SkinRGB565, SkinARGB4444:
		return 2, nil
	case SkinBGR888:
		return 3, nil
	case SkinBGRA8888:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownSkinType, masked)
}

// textureDataSize returns the stored size of a color texture including its
// mip levels.
func textureDataSize(masked, width, height uint32) (uint64, error) {
	bpp, err := bytesPerTexel(masked)
	if err != nil {
		return 0, err
	}
	n := uint64(width) * uint64(height)
	if n > maxSkinTexels {
		return 0, fmt.Errorf("%w: texture %dx%d is too large", ErrMalformedSkin, width, height)
	}
	size := n * bpp
	if masked&skinMipFlag != 0 {
		size += ((n >> 2) + (n >> 4) + (n >> 6)) * bpp
	}
	return size, nil
}

// readColorTexture decodes the top mip level of a color skin and skips the rest.
func (sc *SkinCodec) readColorTexture(c *Cursor, masked, width, height uint32) (*image.NRGBA, error) {
	if width == 0 || height == 0 {
		if _, err := bytesPerTexel(masked); err != nil {
			return nil, err
		}
		sc.log().Warn("color skin without dimensions, using checker texture")
		return checkerTexture(), nil
	}

	size, err := textureDataSize(masked, width, height)
	if err != nil {
		return nil, err
	}
	if err := c.RequireRecords(size, 1); err != nil {
		return nil, fmt.Errorf("reading skin texture: %w", err)
	}
	end := c.off + int(size)

	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	n := int(width) * int(height)
	pal := sc.palette()
	for i := 0; i < n; i++ {
		var clr color.NRGBA
		switch masked &^ skinMipFlag {
		case SkinPaletted:
			v, _ := c.Uint8()
			p := pal[v]
			clr = color.NRGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
		case SkinRGB565:
			v, _ := c.Uint16()
			clr = color.NRGBA{
				R: uint8(v>>11) << 3,
				G: uint8((v>>5)&0x3f) << 2,
				B: uint8(v&0x1f) << 3,
				A: 0xff,
			}
		case SkinARGB4444:
			v, _ := c.Uint16()
			clr = color.NRGBA{
				A: uint8(v>>12) << 4,
				R: uint8((v>>8)&0xf) << 4,
				G: uint8((v>>4)&0xf) << 4,
				B: uint8(v&0xf) << 4,
			}
		case SkinBGR888:
			b, _ := c.Bytes(3)
			clr = color.NRGBA{R: b[2], G: b[1], B: b[0], A: 0xff}
		case SkinBGRA8888:
			b, _ := c.Bytes(4)
			clr = color.NRGBA{R: b[2], G: b[1], B: b[0], A: b[3]}
		}
		img.SetNRGBA(i%int(width), i/int(width), clr)
	}
	c.off = end
	return img, nil
}

// checkerTexture is an 8x8 black and white placeholder.
func checkerTexture() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, checkerSize, checkerSize))
	for y := 0; y < checkerSize; y++ {
		for x := 0; x < checkerSize; x++ {
			var v uint8
			if (x&1) != (y&1) {
				v = 0xff
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return img
}

// uniformColor reports the color of a texture whose texels are all equal.
func uniformColor(img *image.NRGBA) (scene.Color4, bool) {
	if len(img.Pix) < 4 {
		return scene.Color4{}, false
	}
	first := img.Pix[:4]
	for i := 4; i+4 <= len(img.Pix); i += 4 {
		if img.Pix[i] != first[0] || img.Pix[i+1] != first[1] ||
			img.Pix[i+2] != first[2] || img.Pix[i+3] != first[3] {
			return scene.Color4{}, false
		}
	}
	return scene.Color4{
		R: float32(first[0]) / 255,
		G: float32(first[1]) / 255,
		B: float32(first[2]) / 255,
		A: float32(first[3]) / 255,
	}, true
}

// readMaterialBlock reads the diffuse, ambient, specular and emissive colors
// and the specular power. Colors are tinted by texColor when the texture was
// reduced to a single color.
func readMaterialBlock(c *Cursor, mat *scene.Material, texColor *scene.Color4) error {
	if err := c.Require(materialBlockSize); err != nil {
		return fmt.Errorf("reading skin material: %w", err)
	}
	r := fieldReader{c: c}
	readColor := func() scene.Color4 {
		return scene.Color4{R: r.float32(), G: r.float32(), B: r.float32(), A: r.float32()}
	}
	diffuse := readColor()
	ambient := readColor()
	specular := readColor()
	emissive := readColor()
	power := r.float32()
	if r.err != nil {
		return fmt.Errorf("reading skin material: %w", r.err)
	}

	opacity := ambient.A
	if texColor != nil {
		for _, clr := range []*scene.Color4{&diffuse, &ambient, &specular, &emissive} {
			clr.R *= texColor.R
			clr.G *= texColor.G
			clr.B *= texColor.B
		}
		opacity *= texColor.A
	}

	mat.Diffuse = &diffuse
	mat.Ambient = &ambient
	mat.Specular = &specular
	mat.Emissive = &emissive
	mat.Opacity = &opacity
	if power != 0 {
		mat.Shading = scene.ShadingPhong
		mat.Shininess = &power
	} else {
		mat.Shading = scene.ShadingGouraud
	}
	return nil
}

// skipEffect skips a length-prefixed effect description.
func skipEffect(c *Cursor) error {
	n, err := c.Int32()
	if err != nil {
		return fmt.Errorf("reading skin effect length: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("%w: negative effect length %d", ErrMalformedSkin, n)
	}
	if err := c.Skip(int(n)); err != nil {
		return fmt.Errorf("skipping skin effect: %w", err)
	}
	return nil
}
