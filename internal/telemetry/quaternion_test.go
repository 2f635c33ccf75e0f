package telemetry

import (
	"math"
	"testing"
)

func vecNear(a, b Vector3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestRotate_Identity(t *testing.T) {
	v := Vector3{X: 1, Y: 2, Z: 3}
	got := Identity().Rotate(v)
	if !vecNear(got, v, 1e-12) {
		t.Fatalf("identity rotate = %+v, want %+v", got, v)
	}
}

func TestRotate_QuarterTurnAboutZ(t *testing.T) {
	// 90 degrees about +Z maps X to Y and Y to -X.
	s := math.Sqrt(0.5)
	q := Quaternion{Z: s, W: s}

	if got := q.Rotate(Vector3{X: 1}); !vecNear(got, Vector3{Y: 1}, 1e-9) {
		t.Fatalf("x axis rotated to %+v", got)
	}
	if got := q.Rotate(Vector3{Y: 1}); !vecNear(got, Vector3{X: -1}, 1e-9) {
		t.Fatalf("y axis rotated to %+v", got)
	}
	if got := q.Rotate(Vector3{Z: 1}); !vecNear(got, Vector3{Z: 1}, 1e-9) {
		t.Fatalf("z axis rotated to %+v", got)
	}
}

func TestRotate_HalfTurnAboutX(t *testing.T) {
	q := Quaternion{X: 1}
	if got := q.Rotate(Vector3{Y: 1}); !vecNear(got, Vector3{Y: -1}, 1e-9) {
		t.Fatalf("y axis rotated to %+v", got)
	}
	if got := q.Rotate(Vector3{Z: 1}); !vecNear(got, Vector3{Z: -1}, 1e-9) {
		t.Fatalf("z axis rotated to %+v", got)
	}
}
