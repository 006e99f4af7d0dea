package formats

import (
	"fmt"

	"github.com/Faultbox/hmp-terrain/pkg/math"
)

const (
	// headerSize is where the skin chunk starts. Everything the v5/v7
	// decoders use sits before it.
	headerSize = 84

	// headerCheckSize is the minimum v5/v7 file size: the header plus the
	// first frame header gap.
	headerCheckSize = 120
)

// Header is the fixed v5/v7 file header.
type Header struct {
	Ident          [4]byte
	Version        int32
	Scale          math.Vec3 // unused by the decoder
	ScaleOrigin    math.Vec3 // unused by the decoder
	BoundingRadius float32
	TriSizeX       float32 // world-space quad size in x
	TriSizeY       float32 // world-space quad size in y
	NumVertsX      float32 // grid width, stored as float
	NumSkins       int32
	SkinWidth      int32
	SkinHeight     int32
	NumVerts       int32
	NumTris        int32 // always zero in the files seen so far
	NumFrames      int32 // only the first frame is decoded
	NumSTVerts     int32
	Flags          int32
	Size           int32
}

// Width returns the grid width (truncated NumVertsX).
func (h *Header) Width() uint32 {
	return uint32(h.NumVertsX)
}

// Height returns the grid height (NumVerts / NumVertsX, truncated).
func (h *Header) Height() uint32 {
	return uint32(float32(h.NumVerts) / h.NumVertsX)
}

// FaceCount returns the number of quads the grid produces.
func (h *Header) FaceCount() uint64 {
	w, ht := uint64(h.Width()), uint64(h.Height())
	if w < 2 || ht < 2 {
		return 0
	}
	return (w - 1) * (ht - 1)
}

// Validate checks the numeric sanity of the header. It must pass before
// any field is used as a loop bound or divisor.
func (h *Header) Validate() error {
	if !math.IsFinite(h.TriSizeX) || !math.IsFinite(h.TriSizeY) {
		return fmt.Errorf("%w: triangle size in x or y direction is not finite", ErrInvalidHeader)
	}
	if h.TriSizeX == 0 || h.TriSizeY == 0 {
		return fmt.Errorf("%w: triangle size in x or y direction is zero", ErrInvalidHeader)
	}
	if !math.IsFinite(h.NumVertsX) {
		return fmt.Errorf("%w: number of vertices in x direction is not finite", ErrInvalidHeader)
	}
	if h.NumVertsX < 1 || float32(h.NumVerts)/h.NumVertsX < 1 {
		return fmt.Errorf("%w: grid dimensions are degenerate (%d vertices, %g per row)",
			ErrInvalidHeader, h.NumVerts, h.NumVertsX)
	}
	if h.NumFrames < 1 {
		return fmt.Errorf("%w: no frames, at least one is required", ErrInvalidHeader)
	}
	if h.NumSkins < 0 {
		return fmt.Errorf("%w: negative skin count %d", ErrInvalidHeader, h.NumSkins)
	}
	return nil
}

// readHeader checks the file size, decodes the header field by field and
// validates it. The cursor is left at headerSize.
func readHeader(c *Cursor) (*Header, error) {
	if c.Len() < headerCheckSize {
		return nil, fmt.Errorf("%w: header size is %d bytes, this file has %d",
			ErrTooSmall, headerCheckSize, c.Len())
	}

	r := fieldReader{c: c}
	h := &Header{}
	copy(h.Ident[:], r.bytes(4))
	h.Version = r.int32()
	h.Scale = r.vec3()
	h.ScaleOrigin = r.vec3()
	h.BoundingRadius = r.float32()
	h.TriSizeX = r.float32()
	h.TriSizeY = r.float32()
	h.NumVertsX = r.float32()
	h.NumSkins = r.int32()
	h.SkinWidth = r.int32()
	h.SkinHeight = r.int32()
	h.NumVerts = r.int32()
	h.NumTris = r.int32()
	h.NumFrames = r.int32()
	h.NumSTVerts = r.int32()
	h.Flags = r.int32()
	h.Size = r.int32()
	if r.err != nil {
		return nil, fmt.Errorf("reading header: %w", r.err)
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// fieldReader keeps the first cursor error so a fixed run of fields can be
// read without checking each one.
type fieldReader struct {
	c   *Cursor
	err error
}

func (r *fieldReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	b, err := r.c.Bytes(n)
	r.err = err
	return b
}

func (r *fieldReader) int32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.Int32()
	r.err = err
	return v
}

func (r *fieldReader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.Float32()
	r.err = err
	return v
}

func (r *fieldReader) vec3() math.Vec3 {
	return math.Vec3{X: r.float32(), Y: r.float32(), Z: r.float32()}
}
