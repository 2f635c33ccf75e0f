package telemetry

// Quaternion is an orientation in vector-first (x, y, z, w) component
// order. Wire frames arrive scalar-first; the decoder reorders them.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity returns the no-rotation quaternion (0,0,0,1).
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Vector3 is a point or direction in the vehicle's telemetry frame.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RotationMatrix returns the row-major rotation matrix for q.
//
// q is taken as already unit length; upstream telemetry is not normalized
// anywhere in this process, so a non-unit quaternion yields a scaled,
// non-pure rotation.
func (q Quaternion) RotationMatrix() [3][3]float64 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// Rotate applies the rotation q represents to v.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	m := q.RotationMatrix()
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}
