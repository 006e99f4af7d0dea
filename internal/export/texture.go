package export

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/Faultbox/hmp-terrain/pkg/encoding"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// Texture output formats.
const (
	TexturePNG  = "png"
	TextureWebP = "webp"
)

// ErrUnsupportedImage is returned for image formats that cannot be read or written.
var ErrUnsupportedImage = errors.New("unsupported image format")

// WriteTexture encodes img as png or webp.
func WriteTexture(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case TexturePNG, "":
		return png.Encode(w, img)
	case TextureWebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
}

// SaveTexture writes an embedded texture to path. Decoded textures are
// encoded by the path's extension; compressed textures are written as-is
// with their own extension appended when path has none.
func SaveTexture(path string, tex *scene.Texture) (string, error) {
	if tex.Compressed() {
		if filepath.Ext(path) == "" && tex.FormatHint != "" {
			path += "." + tex.FormatHint
		}
		if err := os.WriteFile(path, tex.Data, 0644); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		return path, nil
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = TexturePNG
		path += ".png"
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteTexture(f, tex.Image, format); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	return path, f.Close()
}

// LoadExternalTexture reads a texture referenced by name from dir. Names
// stored with backslashes are normalized first.
func LoadExternalTexture(dir, name string) (image.Image, error) {
	rel := encoding.NormalizePath(name)
	path := filepath.Join(dir, filepath.FromSlash(rel))

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decodeImage(f, filepath.Ext(path))
}

func decodeImage(r io.Reader, ext string) (image.Image, error) {
	switch strings.ToLower(ext) {
	case ".tga":
		return tga.Decode(r)
	case ".bmp":
		return bmp.Decode(r)
	case ".png":
		return png.Decode(r)
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".webp":
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, ext)
	}
}
