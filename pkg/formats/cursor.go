package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Cursor reads little-endian values from a byte slice. Every read is checked
// against the slice length first and fails with ErrTruncatedData instead of
// running past the end.
type Cursor struct {
	data []byte
	off  int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the total buffer length.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Offset returns the current read position.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.off
}

// Require fails unless n more bytes are available.
func (c *Cursor) Require(n int) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedData, n, c.off, c.Remaining())
	}
	return nil
}

// RequireRecords is Require for count records of size bytes each,
// guarding the multiplication against overflow.
func (c *Cursor) RequireRecords(count, size uint64) error {
	if size != 0 && count > uint64(c.Remaining())/size {
		return fmt.Errorf("%w: %d records of %d bytes at offset %d, have %d bytes",
			ErrTruncatedData, count, size, c.off, c.Remaining())
	}
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.Require(n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// Bytes returns the next n bytes and advances past them. The returned slice
// aliases the buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.Require(n); err != nil {
		return nil, err
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Int8 reads one signed byte.
func (c *Cursor) Int8() (int8, error) {
	v, err := c.Uint8()
	return int8(v), err
}

// Uint16 reads a little-endian uint16.
func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 reads a little-endian uint32.
func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int32 reads a little-endian int32.
func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

// Float32 reads a little-endian IEEE 754 float.
func (c *Cursor) Float32() (float32, error) {
	v, err := c.Uint32()
	return math.Float32frombits(v), err
}

// CString reads a NUL-terminated string of at most max bytes (excluding the
// terminator) and advances past the terminator. Longer strings are cut at max
// and the cursor still moves to the byte after the cut, like a bounded strlen.
func (c *Cursor) CString(max int) ([]byte, error) {
	rest := c.data[c.off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated string at offset %d", ErrTruncatedData, c.off)
	}
	if end > max {
		end = max
	}
	s := rest[:end]
	c.off += end + 1
	return s, nil
}
