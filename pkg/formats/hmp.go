package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/pkg/encoding"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// HMP format errors.
var (
	ErrOpenFailure         = errors.New("failed to open HMP file")
	ErrTooSmall            = errors.New("HMP file is too small")
	ErrInvalidHeader       = errors.New("invalid HMP header")
	ErrUnsupportedVariant  = errors.New("unsupported HMP variant")
	ErrUnknownMagic        = errors.New("unknown HMP subformat")
	ErrTruncatedData       = errors.New("truncated HMP data")
	ErrUnreadableSkinChunk = errors.New("unable to read HMP skin chunk")
)

// Magic tokens as read little-endian from the first four file bytes.
// Files written on big-endian machines carry the byte-swapped forms.
const (
	MagicHMP4 uint32 = 'H' | 'M'<<8 | 'P'<<16 | '4'<<24
	MagicHMP5 uint32 = 'H' | 'M'<<8 | 'P'<<16 | '5'<<24
	MagicHMP7 uint32 = 'H' | 'M'<<8 | 'P'<<16 | '7'<<24
)

// minFileSize is the smallest file worth looking at; the v5/v7 header check
// later requires headerCheckSize.
const minFileSize = 50

// rootNodeName names the single scene node; HMP files have no node graph.
const rootNodeName = "terrain_root"

// Variant identifies an HMP revision.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantHMP4
	VariantHMP5
	VariantHMP7
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantHMP4:
		return "HMP4"
	case VariantHMP5:
		return "HMP5"
	case VariantHMP7:
		return "HMP7"
	default:
		return "unknown"
	}
}

// Description returns the authoring tool generation that wrote the variant.
func (v Variant) Description() string {
	switch v {
	case VariantHMP4:
		return "3D GameStudio A4"
	case VariantHMP5:
		return "3D GameStudio A5"
	case VariantHMP7:
		return "3D GameStudio A7"
	default:
		return "unknown"
	}
}

// DetectVariant maps a magic token to its variant. Byte-swapped tokens map
// to the same variant as their canonical counterparts.
func DetectVariant(magic uint32) (Variant, bool) {
	switch magic {
	case MagicHMP4, bits.ReverseBytes32(MagicHMP4):
		return VariantHMP4, true
	case MagicHMP5, bits.ReverseBytes32(MagicHMP5):
		return VariantHMP5, true
	case MagicHMP7, bits.ReverseBytes32(MagicHMP7):
		return VariantHMP7, true
	default:
		return VariantUnknown, false
	}
}

// SniffHMP reads the magic token at the start of r once and returns the
// variant when it is one of the canonical HMP tokens. It reads through
// ReadAt, so no stream position is consumed.
func SniffHMP(r io.ReaderAt) (Variant, bool) {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return VariantUnknown, false
	}
	switch v := binary.LittleEndian.Uint32(magic[:]); v {
	case MagicHMP4, MagicHMP5, MagicHMP7:
		return DetectVariant(v)
	default:
		return VariantUnknown, false
	}
}

// CanReadHMP reports whether r starts with one of the canonical HMP magic
// tokens.
func CanReadHMP(r io.ReaderAt) bool {
	_, ok := SniffHMP(r)
	return ok
}

// SniffHMPFile opens path and reports whether it looks like an HMP file,
// and which variant its magic names.
func SniffHMPFile(path string) (Variant, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return VariantUnknown, false, fmt.Errorf("%w: %s: %w", ErrOpenFailure, path, err)
	}
	defer f.Close()
	v, ok := SniffHMP(f)
	return v, ok, nil
}

// Option configures a decode call.
type Option func(*decodeOptions)

type decodeOptions struct {
	palette    *Palette
	log        *zap.Logger
	decodeName func([]byte) string
}

// WithPalette sets the palette used for 8-bit paletted skins.
func WithPalette(p *Palette) Option {
	return func(o *decodeOptions) {
		o.palette = p
	}
}

// WithLogger sets the logger for diagnostics. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *decodeOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithNameDecoder sets how external skin file names are converted to strings.
// The default treats them as Windows-1252.
func WithNameDecoder(fn func([]byte) string) Option {
	return func(o *decodeOptions) {
		if fn != nil {
			o.decodeName = fn
		}
	}
}

func newDecodeOptions(opts []Option) decodeOptions {
	o := decodeOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.palette == nil {
		o.palette = GrayscalePalette()
	}
	if o.decodeName == nil {
		enc, _ := encoding.Lookup(encoding.DefaultCharset)
		o.decodeName = encoding.NameDecoder(enc)
	}
	return o
}

// ParseHMP decodes an HMP file held in memory. On failure no scene is returned.
func ParseHMP(data []byte, opts ...Option) (*scene.Scene, error) {
	o := newDecodeOptions(opts)

	variant, err := identify(data)
	if err != nil {
		return nil, err
	}
	o.log.Debug("HMP subtype: "+variant.Description(), zap.Stringer("magic", variant))

	switch variant {
	case VariantHMP5, VariantHMP7:
		d := &decoder{data: data, variant: variant, opts: o}
		return d.decode()
	default:
		return nil, fmt.Errorf("%w: %s is not supported", ErrUnsupportedVariant, variant)
	}
}

// ParseHMPFile decodes an HMP file from disk.
func ParseHMPFile(path string, opts ...Option) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailure, path, err)
	}
	sc, err := ParseHMP(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseHMPReader reads r to the end and decodes it.
func ParseHMPReader(r io.Reader, opts ...Option) (*scene.Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailure, err)
	}
	return ParseHMP(data, opts...)
}

// ParseHMPHeader identifies and validates the header without decoding the
// terrain. HMP4 headers are not decoded and return ErrUnsupportedVariant.
func ParseHMPHeader(data []byte) (*Header, Variant, error) {
	variant, err := identify(data)
	if err != nil {
		return nil, variant, err
	}
	if variant == VariantHMP4 {
		return nil, variant, fmt.Errorf("%w: %s is not supported", ErrUnsupportedVariant, variant)
	}
	h, err := readHeader(NewCursor(data))
	if err != nil {
		return nil, variant, err
	}
	return h, variant, nil
}

func identify(data []byte) (Variant, error) {
	if len(data) < minFileSize {
		return VariantUnknown, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(data))
	}
	variant, ok := DetectVariant(binary.LittleEndian.Uint32(data))
	if !ok {
		return VariantUnknown, fmt.Errorf("%w: magic word (%s) is not known", ErrUnknownMagic, printable(data[:4]))
	}
	return variant, nil
}

// printable renders raw bytes for diagnostics, replacing anything outside
// printable ASCII with '?'.
func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			c = '?'
		}
		out[i] = c
	}
	return string(out)
}
