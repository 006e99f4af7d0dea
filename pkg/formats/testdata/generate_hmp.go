//go:build ignore

// This program writes a small HMP7 terrain with an embedded skin for trying
// out hmptool by hand.
// Run with: go run generate_hmp.go
package main

import (
	"bytes"
	"encoding/binary"
	stdmath "math"
	"os"
)

func main() {
	const (
		width  = 16
		height = 16
		skin   = 8
	)
	var buf bytes.Buffer

	// Header
	buf.WriteString("HMP7")
	binary.Write(&buf, binary.LittleEndian, int32(7))             // version
	binary.Write(&buf, binary.LittleEndian, [3]float32{1, 1, 1})  // scale
	binary.Write(&buf, binary.LittleEndian, [3]float32{})         // scale origin
	binary.Write(&buf, binary.LittleEndian, float32(0))           // bounding radius
	binary.Write(&buf, binary.LittleEndian, float32(4))           // tri size x
	binary.Write(&buf, binary.LittleEndian, float32(4))           // tri size y
	binary.Write(&buf, binary.LittleEndian, float32(width))       // verts per row
	binary.Write(&buf, binary.LittleEndian, int32(1))             // skins
	binary.Write(&buf, binary.LittleEndian, int32(skin))          // skin width
	binary.Write(&buf, binary.LittleEndian, int32(skin))          // skin height
	binary.Write(&buf, binary.LittleEndian, int32(width*height))  // verts
	binary.Write(&buf, binary.LittleEndian, int32(0))             // tris
	binary.Write(&buf, binary.LittleEndian, int32(1))             // frames
	binary.Write(&buf, binary.LittleEndian, int32(0))             // st verts
	binary.Write(&buf, binary.LittleEndian, int32(0))             // flags
	binary.Write(&buf, binary.LittleEndian, int32(0))             // size

	// Skin: BGR888 gradient
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	binary.Write(&buf, binary.LittleEndian, uint32(skin))
	binary.Write(&buf, binary.LittleEndian, uint32(skin))
	for y := 0; y < skin; y++ {
		for x := 0; x < skin; x++ {
			buf.Write([]byte{byte(y * 32), byte(128 + x*16), 40})
		}
	}

	// Frame header gap
	buf.Write(make([]byte, 36))

	// Vertices: a single smooth hill
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float64(x-width/2) / width
			dy := float64(y-height/2) / height
			h := stdmath.Exp(-8 * (dx*dx + dy*dy))
			binary.Write(&buf, binary.LittleEndian, uint16(h*0xffff))
			buf.WriteByte(byte(int8(-dx * 100)))
			buf.WriteByte(byte(int8(-dy * 100)))
		}
	}

	if err := os.WriteFile("hill.hmp", buf.Bytes(), 0644); err != nil {
		panic(err)
	}
}
