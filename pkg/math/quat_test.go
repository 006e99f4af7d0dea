package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatRotateZUpToYUp(t *testing.T) {
	// -90 degrees about X maps +Z (terrain up) onto +Y.
	q := QuatFromAxisAngle(Vec3{X: 1}, float32(-math.Pi/2))
	got := q.Rotate(Vec3{Z: 1})

	if math.Abs(float64(got.X)) > 1e-5 || math.Abs(float64(got.Y-1)) > 1e-5 || math.Abs(float64(got.Z)) > 1e-5 {
		t.Errorf("Rotate(+Z) = %v, want (0,1,0)", got)
	}
}

func TestQuatMulIdentity(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{Y: 1}, 0.7)
	got := q.Mul(QuatIdentity())
	if got != q {
		t.Errorf("q * identity = %v, want %v", got, q)
	}
}
