package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Faultbox/hmp-terrain/pkg/encoding"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// writeMaterialBlock appends diffuse, ambient, specular and emissive colors
// and the specular power.
func writeMaterialBlock(buf *bytes.Buffer, diffuse, ambient, specular, emissive scene.Color4, power float32) {
	for _, c := range []scene.Color4{diffuse, ambient, specular, emissive} {
		binary.Write(buf, binary.LittleEndian, [4]float32{c.R, c.G, c.B, c.A})
	}
	binary.Write(buf, binary.LittleEndian, power)
}

func TestTextureDataSize(t *testing.T) {
	tests := []struct {
		name          string
		typ           uint32
		width, height uint32
		want          uint64
	}{
		{"paletted", SkinPaletted, 4, 4, 16},
		{"rgb565", SkinRGB565, 4, 2, 16},
		{"argb4444", SkinARGB4444, 2, 2, 8},
		{"bgr888", SkinBGR888, 2, 2, 12},
		{"bgra8888", SkinBGRA8888, 2, 2, 16},
		// 64 texels plus 16+4+1 mip texels
		{"bgr888 mips", SkinBGR888 | skinMipFlag, 8, 8, 255},
		{"bgra8888 mips", SkinBGRA8888 | skinMipFlag, 8, 8, 340},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := textureDataSize(tt.typ, tt.width, tt.height)
			if err != nil {
				t.Fatalf("textureDataSize failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestTextureDataSize_UnknownType(t *testing.T) {
	for _, typ := range []uint32{skinMipFlag, 0x9, 0xe, 0xf} {
		if _, err := textureDataSize(typ, 2, 2); !errors.Is(err, ErrUnknownSkinType) {
			t.Errorf("type %#x: expected ErrUnknownSkinType, got %v", typ, err)
		}
	}
}

func TestSkinCodec_RGB565(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, []uint16{0xf800, 0x07e0, 0x001f})

	codec := &SkinCodec{}
	c := NewCursor(buf.Bytes())
	_, tex, err := codec.Parse(c, SkinRGB565, 3, 1)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tex == nil || tex.Image == nil {
		t.Fatal("expected a decoded texture")
	}

	want := [][3]uint8{{248, 0, 0}, {0, 252, 0}, {0, 0, 248}}
	for x, w := range want {
		got := tex.Image.NRGBAAt(x, 0)
		if got.R != w[0] || got.G != w[1] || got.B != w[2] || got.A != 255 {
			t.Errorf("texel %d: expected %v, got %+v", x, w, got)
		}
	}
	if c.Remaining() != 0 {
		t.Errorf("expected all data consumed, %d bytes left", c.Remaining())
	}
}

func TestSkinCodec_ARGB4444(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, []uint16{0xf123, 0x8abc})

	_, tex, err := (&SkinCodec{}).Parse(NewCursor(buf.Bytes()), SkinARGB4444, 2, 1)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := tex.Image.NRGBAAt(0, 0)
	if got.A != 0xf0 || got.R != 0x10 || got.G != 0x20 || got.B != 0x30 {
		t.Errorf("expected A=f0 R=10 G=20 B=30, got %+v", got)
	}
	got = tex.Image.NRGBAAt(1, 0)
	if got.A != 0x80 || got.R != 0xa0 || got.G != 0xb0 || got.B != 0xc0 {
		t.Errorf("expected A=80 R=a0 G=b0 B=c0, got %+v", got)
	}
}

func TestSkinCodec_BGRA8888(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	_, tex, err := (&SkinCodec{}).Parse(NewCursor(data), SkinBGRA8888, 1, 2)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := tex.Image.NRGBAAt(0, 1)
	if got.R != 7 || got.G != 6 || got.B != 5 || got.A != 8 {
		t.Errorf("expected R=7 G=6 B=5 A=8, got %+v", got)
	}
}

func TestSkinCodec_PalettedUsesPalette(t *testing.T) {
	pal := &Palette{}
	pal[1] = [3]uint8{10, 20, 30}
	pal[2] = [3]uint8{40, 50, 60}

	_, tex, err := (&SkinCodec{Palette: pal}).Parse(NewCursor([]byte{1, 2}), SkinPaletted, 2, 1)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := tex.Image.NRGBAAt(1, 0); got.R != 40 || got.G != 50 || got.B != 60 || got.A != 255 {
		t.Errorf("expected palette entry 2, got %+v", got)
	}
}

func TestSkinCodec_MipLevelsSkipped(t *testing.T) {
	// 4x4 BGR888 with 4+1 mip texels after the top level
	data := make([]byte, (16+4+1)*3+2)
	data[len(data)-2] = 0xaa
	data[len(data)-1] = 0xbb

	c := NewCursor(data)
	if _, _, err := (&SkinCodec{}).Parse(c, SkinBGR888|skinMipFlag, 4, 4); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Remaining() != 2 {
		t.Errorf("expected cursor after mip levels, %d bytes left", c.Remaining())
	}
}

func TestSkinCodec_CheckerForMissingDimensions(t *testing.T) {
	_, tex, err := (&SkinCodec{}).Parse(NewCursor(nil), SkinBGR888, 0, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tex == nil || tex.Image.Bounds().Dx() != 8 || tex.Image.Bounds().Dy() != 8 {
		t.Fatalf("expected 8x8 checker texture, got %+v", tex)
	}
	if got := tex.Image.NRGBAAt(0, 0); got.R != 0 {
		t.Errorf("expected black at (0,0), got %+v", got)
	}
	if got := tex.Image.NRGBAAt(1, 0); got.R != 255 {
		t.Errorf("expected white at (1,0), got %+v", got)
	}
	if got := tex.Image.NRGBAAt(1, 1); got.R != 0 {
		t.Errorf("expected black at (1,1), got %+v", got)
	}
}

func TestSkinCodec_Reference(t *testing.T) {
	mat, tex, err := (&SkinCodec{}).Parse(NewCursor(nil), SkinReference, 3, 0)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tex != nil {
		t.Error("expected no texture")
	}
	if mat.ReferrerSkin == nil || *mat.ReferrerSkin != 3 {
		t.Errorf("expected referrer 3, got %v", mat.ReferrerSkin)
	}
}

func TestSkinCodec_DDS(t *testing.T) {
	data := []byte("DDS payload")

	c := NewCursor(data)
	_, tex, err := (&SkinCodec{}).Parse(c, SkinDDS, uint32(len(data)), 1)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tex == nil || !tex.Compressed() || tex.FormatHint != "dds" {
		t.Fatalf("expected compressed dds texture, got %+v", tex)
	}
	if string(tex.Data) != "DDS payload" {
		t.Errorf("expected payload copied, got %q", tex.Data)
	}
	if c.Remaining() != 0 {
		t.Errorf("expected all data consumed, %d bytes left", c.Remaining())
	}
}

func TestSkinCodec_ExternalNameDecoding(t *testing.T) {
	enc, err := encoding.Lookup("windows-1252")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	codec := &SkinCodec{DecodeName: encoding.NameDecoder(enc)}

	mat, _, err := codec.Parse(NewCursor([]byte("caf\xe9.tga\x00rest")), SkinExternal, 0, 1)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if mat.DiffuseTexture != "café.tga" {
		t.Errorf("expected café.tga, got %q", mat.DiffuseTexture)
	}
}

func TestSkinCodec_MaterialBlock(t *testing.T) {
	tests := []struct {
		name      string
		power     float32
		shading   scene.ShadingMode
		shininess bool
	}{
		{"phong", 20, scene.ShadingPhong, true},
		{"gouraud", 0, scene.ShadingGouraud, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			writeMaterialBlock(buf,
				scene.Color4{R: 1, G: 0.5, B: 0.25, A: 1},
				scene.Color4{R: 0.1, G: 0.1, B: 0.1, A: 0.75},
				scene.Color4{R: 1, G: 1, B: 1, A: 1},
				scene.Color4{},
				tt.power)

			mat, _, err := (&SkinCodec{}).Parse(NewCursor(buf.Bytes()), SkinFlagMaterial, 0, 0)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if mat.Shading != tt.shading {
				t.Errorf("expected %s shading, got %s", tt.shading, mat.Shading)
			}
			if (mat.Shininess != nil) != tt.shininess {
				t.Errorf("expected shininess set=%v, got %v", tt.shininess, mat.Shininess)
			}
			if mat.Diffuse == nil || mat.Diffuse.G != 0.5 {
				t.Errorf("expected diffuse green 0.5, got %+v", mat.Diffuse)
			}
			if mat.Opacity == nil || *mat.Opacity != 0.75 {
				t.Errorf("expected opacity from ambient alpha 0.75, got %v", mat.Opacity)
			}
		})
	}
}

func TestSkinCodec_MaterialBlockTintedByTextureColor(t *testing.T) {
	buf := new(bytes.Buffer)
	// 1x1 BGRA texel: uniform, so it becomes a color of (0, 1, 1, 1)
	buf.Write([]byte{255, 255, 0, 255})
	writeMaterialBlock(buf,
		scene.Color4{R: 0.5, G: 0.5, B: 0.5, A: 1},
		scene.Color4{R: 1, G: 1, B: 1, A: 0.5},
		scene.Color4{R: 1, G: 1, B: 1, A: 1},
		scene.Color4{R: 1, G: 1, B: 1, A: 1},
		0)

	mat, tex, err := (&SkinCodec{}).Parse(NewCursor(buf.Bytes()), SkinBGRA8888|SkinFlagMaterial, 1, 1)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tex != nil {
		t.Error("expected uniform texture to be replaced by a color")
	}
	if *mat.Diffuse != (scene.Color4{R: 0, G: 0.5, B: 0.5, A: 1}) {
		t.Errorf("expected tinted diffuse, got %+v", *mat.Diffuse)
	}
	if *mat.Emissive != (scene.Color4{R: 0, G: 1, B: 1, A: 1}) {
		t.Errorf("expected tinted emissive, got %+v", *mat.Emissive)
	}
	if *mat.Opacity != 0.5 {
		t.Errorf("expected opacity 0.5, got %f", *mat.Opacity)
	}
}

func TestSkinCodec_Effect(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, int32(5))
	buf.WriteString("hello")
	buf.WriteString("tail")

	c := NewCursor(buf.Bytes())
	if _, _, err := (&SkinCodec{}).Parse(c, SkinReference|SkinFlagEffect, 0, 0); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Remaining() != 4 {
		t.Errorf("expected 4 bytes left, got %d", c.Remaining())
	}

	buf.Reset()
	binary.Write(buf, binary.LittleEndian, int32(-1))
	_, _, err := (&SkinCodec{}).Parse(NewCursor(buf.Bytes()), SkinReference|SkinFlagEffect, 0, 0)
	if !errors.Is(err, ErrMalformedSkin) {
		t.Errorf("expected ErrMalformedSkin, got %v", err)
	}
}

func TestSkinCodec_UnknownType(t *testing.T) {
	_, _, err := (&SkinCodec{}).Parse(NewCursor(make([]byte, 64)), 0x9, 2, 2)
	if !errors.Is(err, ErrUnknownSkinType) {
		t.Errorf("expected ErrUnknownSkinType, got %v", err)
	}
}

func TestSkinCodec_SkipMatchesParse(t *testing.T) {
	tests := []struct {
		name          string
		typ           uint32
		width, height uint32
		data          []byte
	}{
		{"reference", SkinReference, 2, 0, nil},
		{"dds", SkinDDS, 6, 1, []byte("abcdef")},
		{"external", SkinExternal, 0, 1, []byte("rock.pcx\x00")},
		{"paletted", SkinPaletted, 2, 2, []byte{1, 2, 3, 4}},
		{"rgb565 mips", SkinRGB565 | skinMipFlag, 4, 4, make([]byte, (16+4+1)*2)},
		{"bgr888 material", SkinBGR888 | SkinFlagMaterial, 1, 1, make([]byte, 3+materialBlockSize)},
		{"material only", SkinFlagMaterial, 0, 0, make([]byte, materialBlockSize)},
		{"effect", SkinBGRA8888 | SkinFlagEffect, 1, 1, []byte{1, 2, 3, 4, 2, 0, 0, 0, 'f', 'x'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte(nil), tt.data...), 0xee, 0xee)

			parsed := NewCursor(data)
			if _, _, err := (&SkinCodec{}).Parse(parsed, tt.typ, tt.width, tt.height); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			skipped := NewCursor(data)
			if err := (&SkinCodec{}).Skip(skipped, tt.typ, tt.width, tt.height); err != nil {
				t.Fatalf("Skip failed: %v", err)
			}
			if parsed.Offset() != skipped.Offset() {
				t.Errorf("expected Skip to stop at %d, stopped at %d", parsed.Offset(), skipped.Offset())
			}
			if parsed.Offset() != len(tt.data) {
				t.Errorf("expected Parse to stop at %d, stopped at %d", len(tt.data), parsed.Offset())
			}
		})
	}
}

func TestSkinCodec_SkipTruncated(t *testing.T) {
	err := (&SkinCodec{}).Skip(NewCursor(make([]byte, 10)), SkinBGRA8888, 4, 4)
	if !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData, got %v", err)
	}
}
