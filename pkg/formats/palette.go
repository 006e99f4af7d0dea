package formats

import (
	"errors"
	"fmt"
	"os"
)

// PaletteSize is the byte size of a colormap.lmp palette (256 RGB triplets).
const PaletteSize = 256 * 3

// ErrInvalidPalette is returned for palette files shorter than PaletteSize.
var ErrInvalidPalette = errors.New("invalid palette")

// Palette maps 8-bit color indices of paletted skins to RGB.
type Palette [256][3]uint8

// ParsePalette reads a palette from colormap.lmp data. Extra trailing bytes
// (some tools append a colormap) are ignored.
func ParsePalette(data []byte) (*Palette, error) {
	if len(data) < PaletteSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidPalette, len(data), PaletteSize)
	}
	p := &Palette{}
	for i := range p {
		p[i] = [3]uint8{data[i*3], data[i*3+1], data[i*3+2]}
	}
	return p, nil
}

// ParsePaletteFile reads a palette from disk.
func ParsePaletteFile(path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading palette file: %w", err)
	}
	return ParsePalette(data)
}

// GrayscalePalette returns a linear ramp where index i maps to (i, i, i).
// It is the fallback when no colormap.lmp is available.
func GrayscalePalette() *Palette {
	p := &Palette{}
	for i := range p {
		v := uint8(i)
		p[i] = [3]uint8{v, v, v}
	}
	return p
}
