package formats

import (
	"errors"
	stdmath "math"
	"testing"
)

func TestCursor_Reads(t *testing.T) {
	data := []byte{
		0x7f,       // uint8
		0xfe,       // int8 -2
		0x34, 0x12, // uint16 0x1234
		0x78, 0x56, 0x34, 0x12, // uint32 0x12345678
		0xff, 0xff, 0xff, 0xff, // int32 -1
		0x00, 0x00, 0x80, 0x3f, // float32 1.0
	}
	c := NewCursor(data)

	if v, err := c.Uint8(); err != nil || v != 0x7f {
		t.Errorf("Uint8: expected 0x7f, got %#x (%v)", v, err)
	}
	if v, err := c.Int8(); err != nil || v != -2 {
		t.Errorf("Int8: expected -2, got %d (%v)", v, err)
	}
	if v, err := c.Uint16(); err != nil || v != 0x1234 {
		t.Errorf("Uint16: expected 0x1234, got %#x (%v)", v, err)
	}
	if v, err := c.Uint32(); err != nil || v != 0x12345678 {
		t.Errorf("Uint32: expected 0x12345678, got %#x (%v)", v, err)
	}
	if v, err := c.Int32(); err != nil || v != -1 {
		t.Errorf("Int32: expected -1, got %d (%v)", v, err)
	}
	if v, err := c.Float32(); err != nil || v != 1 {
		t.Errorf("Float32: expected 1, got %f (%v)", v, err)
	}
	if c.Remaining() != 0 || c.Offset() != len(data) {
		t.Errorf("expected cursor at end, offset %d remaining %d", c.Offset(), c.Remaining())
	}
}

func TestCursor_Truncated(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})

	if _, err := c.Uint32(); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData, got %v", err)
	}
	if c.Offset() != 0 {
		t.Errorf("expected failed read to leave offset at 0, got %d", c.Offset())
	}
	if err := c.Skip(4); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData from Skip, got %v", err)
	}
	if err := c.Skip(-1); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData for negative skip, got %v", err)
	}
	if err := c.Skip(3); err != nil {
		t.Errorf("Skip(3) failed: %v", err)
	}
	if _, err := c.Uint8(); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData at end, got %v", err)
	}
}

func TestCursor_RequireRecords(t *testing.T) {
	c := NewCursor(make([]byte, 24))

	if err := c.RequireRecords(6, 4); err != nil {
		t.Errorf("expected 6 records of 4 bytes to fit, got %v", err)
	}
	if err := c.RequireRecords(7, 4); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData, got %v", err)
	}
	if err := c.RequireRecords(stdmath.MaxUint64, 4); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData for overflowing count, got %v", err)
	}
	if err := c.RequireRecords(stdmath.MaxUint64, 0); err != nil {
		t.Errorf("expected zero-size records to fit, got %v", err)
	}
}

func TestCursor_CString(t *testing.T) {
	c := NewCursor([]byte("abc\x00def\x00"))

	s, err := c.CString(16)
	if err != nil || string(s) != "abc" {
		t.Fatalf("expected abc, got %q (%v)", s, err)
	}
	if c.Offset() != 4 {
		t.Errorf("expected offset 4, got %d", c.Offset())
	}

	s, err = c.CString(2)
	if err != nil || string(s) != "de" {
		t.Errorf("expected bounded read de, got %q (%v)", s, err)
	}

	c = NewCursor([]byte("unterminated"))
	if _, err := c.CString(64); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("expected ErrTruncatedData, got %v", err)
	}
}
