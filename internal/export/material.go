package export

import (
	"bytes"
	"image"
	"image/png"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/pkg/encoding"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// material converts a scene material to a PBR metallic-roughness material,
// adding it to the document once.
func (b *docBuilder) material(sc *scene.Scene, index int) (uint32, error) {
	if idx, ok := b.materials[index]; ok {
		return idx, nil
	}
	src := sc.Materials[index]

	baseColor := [4]float32{1, 1, 1, 1}
	if src.Diffuse != nil {
		baseColor = [4]float32{src.Diffuse.R, src.Diffuse.G, src.Diffuse.B, 1}
	}
	alphaMode := gltf.AlphaOpaque
	if src.Opacity != nil {
		baseColor[3] = *src.Opacity
		if *src.Opacity < 1 {
			alphaMode = gltf.AlphaBlend
		}
	}

	metallic := float32(0)
	roughness := float32(1)
	if src.Shading == scene.ShadingPhong && src.Shininess != nil && *src.Shininess > 0 {
		roughness = math32.Sqrt(2 / (*src.Shininess + 2))
	}

	gm := &gltf.Material{
		Name:        src.Name,
		DoubleSided: true,
		AlphaMode:   alphaMode,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &baseColor,
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}
	if src.Emissive != nil {
		gm.EmissiveFactor = [3]float32{src.Emissive.R, src.Emissive.G, src.Emissive.B}
	}

	if tex, ok := b.texture(sc, src); ok {
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
	}

	b.doc.Materials = append(b.doc.Materials, gm)
	idx := uint32(len(b.doc.Materials) - 1)
	b.materials[index] = idx
	return idx, nil
}

// texture resolves the material's diffuse texture into a glTF texture.
// Embedded images and loadable external files are stored as PNG in the
// buffer; other external files are referenced by URI.
func (b *docBuilder) texture(sc *scene.Scene, mat *scene.Material) (uint32, bool) {
	ref := mat.DiffuseTexture
	if ref == "" {
		return 0, false
	}

	var img image.Image
	if n, ok := mat.EmbeddedTextureIndex(); ok {
		if n >= len(sc.Textures) {
			b.opts.log().Warn("material references a missing texture", zap.String("ref", ref))
			return 0, false
		}
		tex := sc.Textures[n]
		if tex.Compressed() {
			b.opts.log().Warn("compressed skin texture cannot be embedded in glTF",
				zap.String("format", tex.FormatHint))
			return 0, false
		}
		img = tex.Image
	} else {
		loaded, err := b.opts.loadTexture(ref)
		if err != nil {
			b.opts.log().Debug("external texture not loaded, referencing by URI",
				zap.String("name", ref), zap.Error(err))
			return b.addImage(&gltf.Image{URI: encoding.NormalizePath(ref)}), true
		}
		img = loaded
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		b.opts.log().Warn("encoding texture failed", zap.Error(err))
		return 0, false
	}
	view := b.appendView(buf.Bytes())
	return b.addImage(&gltf.Image{MimeType: "image/png", BufferView: &view}), true
}

func (b *docBuilder) addImage(img *gltf.Image) uint32 {
	b.doc.Images = append(b.doc.Images, img)
	source := uint32(len(b.doc.Images) - 1)

	if len(b.doc.Samplers) == 0 {
		b.doc.Samplers = append(b.doc.Samplers, &gltf.Sampler{WrapS: gltf.WrapRepeat, WrapT: gltf.WrapRepeat})
	}
	sampler := uint32(0)
	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{Sampler: &sampler, Source: &source})
	return uint32(len(b.doc.Textures) - 1)
}
