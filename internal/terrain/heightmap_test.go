package terrain

import (
	stdmath "math"
	"testing"

	"github.com/Faultbox/hmp-terrain/pkg/math"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// quadMesh lays out a width x height grid as per-face corner copies with
// cell size 2 x 3 and altitude x + 10*y.
func quadMesh(width, height int) *scene.Mesh {
	m := &scene.Mesh{}
	at := func(x, y int) math.Vec3 {
		return math.Vec3{X: float32(x) * 2, Y: float32(y) * 3, Z: float32(x + 10*y)}
	}
	for y := 0; y < height-1; y++ {
		for x := 0; x < width-1; x++ {
			base := uint32(len(m.Vertices))
			m.Vertices = append(m.Vertices, at(x, y), at(x, y+1), at(x+1, y+1), at(x+1, y))
			m.Faces = append(m.Faces, scene.Face{Indices: []uint32{base, base + 1, base + 2, base + 3}})
		}
	}
	return m
}

func approx(a, b float32) bool {
	return stdmath.Abs(float64(a-b)) < 1e-4
}

func TestBuildHeightmap(t *testing.T) {
	hm, err := BuildHeightmap(quadMesh(4, 3))
	if err != nil {
		t.Fatalf("BuildHeightmap failed: %v", err)
	}
	if hm.Width != 4 || hm.Height != 3 {
		t.Fatalf("expected 4x3 grid, got %dx%d", hm.Width, hm.Height)
	}
	if hm.CellX != 2 || hm.CellY != 3 {
		t.Errorf("expected cell 2x3, got %vx%v", hm.CellX, hm.CellY)
	}
	if hm.Altitudes[3][2] != 23 {
		t.Errorf("expected altitude 23 at (3,2), got %v", hm.Altitudes[3][2])
	}
}

func TestBuildHeightmapRejectsNonGrid(t *testing.T) {
	tests := []struct {
		name string
		mesh *scene.Mesh
	}{
		{"empty", &scene.Mesh{}},
		{"single column", &scene.Mesh{Vertices: []math.Vec3{{X: 0, Y: 0}, {X: 0, Y: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildHeightmap(tt.mesh); err != ErrNotAGrid {
				t.Errorf("expected ErrNotAGrid, got %v", err)
			}
		})
	}
}

func TestHeightAt(t *testing.T) {
	hm, err := BuildHeightmap(quadMesh(4, 3))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		x, y float32
		want float32
	}{
		{"grid point", 2, 3, 11},
		{"cell center", 1, 1.5, 5.5},
		{"edge midpoint", 5, 0, 2.5},
		{"far corner", 6, 6, 23},
		{"clamped below", -10, -10, 0},
		{"clamped above", 100, 100, 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hm.HeightAt(tt.x, tt.y); !approx(got, tt.want) {
				t.Errorf("HeightAt(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	hm, err := BuildHeightmap(quadMesh(3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !hm.Contains(4, 3) || !hm.Contains(0, 0) {
		t.Error("grid corners should be contained")
	}
	if hm.Contains(4.1, 0) || hm.Contains(0, -0.1) {
		t.Error("points off the grid should not be contained")
	}
}
