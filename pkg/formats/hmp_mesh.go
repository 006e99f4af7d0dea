package formats

import (
	"github.com/Faultbox/hmp-terrain/pkg/math"
	"github.com/Faultbox/hmp-terrain/pkg/scene"
)

// vertexGrid holds per-grid-cell attributes in row-major order before they
// are expanded to per-face data.
type vertexGrid struct {
	positions []math.Vec3
	normals   []math.Vec3
	texCoords []math.Vec2 // nil when the file has no skins
}

// generateTexCoords maps grid cell (x, y) to
// (x * (1/w + 1/w²), y * (1/h + 1/h²)). The extra 1/w² term makes the last
// column run slightly past 1; renderers of the format expect that.
func generateTexCoords(width, height uint32) []math.Vec2 {
	if width == 0 || height == 0 {
		return nil
	}
	fw, fh := float32(width), float32(height)
	fx := 1/fw + (1/fw)/fw
	fy := 1/fh + (1/fh)/fh

	uvs := make([]math.Vec2, int(width)*int(height))
	i := 0
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			uvs[i] = math.Vec2{X: fx * float32(x), Y: fy * float32(y)}
			i++
		}
	}
	return uvs
}

// buildFaceList turns the grid into one quad per cell and copies the four
// corner attributes of every face into fresh per-face arrays.
//
// Corners are taken as (x,y), (x,y+1), (x+1,y+1), (x+1,y). A face whose
// right-hand corners fall outside the source range is kept with zero indices
// and no vertex data, leaving the tail of the output arrays zeroed. With
// consistent headers this never happens.
func buildFaceList(width, height uint32, grid *vertexGrid) *scene.Mesh {
	mesh := &scene.Mesh{}
	if width < 2 || height < 2 {
		return mesh
	}

	faceCount := int(width-1) * int(height-1)
	vertexCount := faceCount * 4

	mesh.Faces = make([]scene.Face, faceCount)
	mesh.Vertices = make([]math.Vec3, vertexCount)
	mesh.Normals = make([]math.Vec3, vertexCount)
	hasUV := grid.texCoords != nil
	if hasUV {
		mesh.TexCoords = make([]math.Vec2, vertexCount)
	}

	upper := min(vertexCount, len(grid.positions), len(grid.normals))
	if hasUV {
		upper = min(upper, len(grid.texCoords))
	}

	face := 0
	out := 0
	w := int(width)
	for y := 0; y < int(height)-1; y++ {
		offset0 := y * w
		offset1 := (y + 1) * w
		for x := 0; x < w-1; x, face = x+1, face+1 {
			mesh.Faces[face].Indices = make([]uint32, 4)
			if offset0+x+1 >= upper || offset1+x+1 >= upper {
				continue
			}

			corners := [4]int{offset0 + x, offset1 + x, offset1 + x + 1, offset0 + x + 1}
			for i, src := range corners {
				mesh.Vertices[out] = grid.positions[src]
				mesh.Normals[out] = grid.normals[src]
				if hasUV {
					mesh.TexCoords[out] = grid.texCoords[src]
				}
				mesh.Faces[face].Indices[i] = uint32(out)
				out++
			}
		}
	}
	return mesh
}
