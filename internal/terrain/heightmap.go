// Package terrain provides height queries over decoded terrain meshes.
package terrain

import (
	"errors"
	"slices"

	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// ErrNotAGrid is returned when mesh vertices do not lie on a regular grid.
var ErrNotAGrid = errors.New("mesh vertices do not form a height grid")

// Heightmap is a regular grid of altitudes.
type Heightmap struct {
	Altitudes [][]float32 // [x][y]
	Width     int         // vertices in x
	Height    int         // vertices in y
	OriginX   float32
	OriginY   float32
	CellX     float32 // world size of one cell in x
	CellY     float32 // world size of one cell in y
}

// BuildHeightmap recovers the altitude grid from a terrain mesh. Vertices
// are matched to grid points by their exact x and y coordinates, so any
// corner shared between faces must carry the same position.
func BuildHeightmap(m *scene.Mesh) (*Heightmap, error) {
	if len(m.Vertices) == 0 {
		return nil, ErrNotAGrid
	}

	xs := make([]float32, 0, len(m.Vertices))
	ys := make([]float32, 0, len(m.Vertices))
	for _, v := range m.Vertices {
		xs = append(xs, v.X)
		ys = append(ys, v.Y)
	}
	slices.Sort(xs)
	slices.Sort(ys)
	xs = slices.Compact(xs)
	ys = slices.Compact(ys)
	if len(xs) < 2 || len(ys) < 2 {
		return nil, ErrNotAGrid
	}

	xIndex := make(map[float32]int, len(xs))
	for i, x := range xs {
		xIndex[x] = i
	}
	yIndex := make(map[float32]int, len(ys))
	for i, y := range ys {
		yIndex[y] = i
	}

	hm := &Heightmap{
		Altitudes: make([][]float32, len(xs)),
		Width:     len(xs),
		Height:    len(ys),
		OriginX:   xs[0],
		OriginY:   ys[0],
		CellX:     (xs[len(xs)-1] - xs[0]) / float32(len(xs)-1),
		CellY:     (ys[len(ys)-1] - ys[0]) / float32(len(ys)-1),
	}
	for x := range hm.Altitudes {
		hm.Altitudes[x] = make([]float32, len(ys))
	}
	for _, v := range m.Vertices {
		hm.Altitudes[xIndex[v.X]][yIndex[v.Y]] = v.Z
	}
	return hm, nil
}

// HeightAt returns the bilinearly interpolated altitude at a world position.
// Positions outside the grid are clamped to its edge.
func (hm *Heightmap) HeightAt(worldX, worldY float32) float32 {
	cellFX := (worldX - hm.OriginX) / hm.CellX
	cellFY := (worldY - hm.OriginY) / hm.CellY

	cellX := int(cellFX)
	cellY := int(cellFY)

	if cellX < 0 {
		cellX = 0
	}
	if cellY < 0 {
		cellY = 0
	}
	if cellX >= hm.Width-1 {
		cellX = hm.Width - 2
	}
	if cellY >= hm.Height-1 {
		cellY = hm.Height - 2
	}

	fracX := clampf(cellFX-float32(cellX), 0, 1)
	fracY := clampf(cellFY-float32(cellY), 0, 1)

	sw := hm.Altitudes[cellX][cellY]
	se := hm.Altitudes[cellX+1][cellY]
	nw := hm.Altitudes[cellX][cellY+1]
	ne := hm.Altitudes[cellX+1][cellY+1]

	south := sw*(1-fracX) + se*fracX
	north := nw*(1-fracX) + ne*fracX
	return south*(1-fracY) + north*fracY
}

// Contains reports whether a world position lies on the grid.
func (hm *Heightmap) Contains(worldX, worldY float32) bool {
	maxX := hm.OriginX + hm.CellX*float32(hm.Width-1)
	maxY := hm.OriginY + hm.CellY*float32(hm.Height-1)
	return worldX >= hm.OriginX && worldX <= maxX && worldY >= hm.OriginY && worldY <= maxY
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
