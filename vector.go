package fieldruntime

// Vector3 is a position in field space.
type Vector3 struct {
	X, Y, Z float32
}

// Vector3i is an integer lattice position, used for block-aligned queries.
type Vector3i struct {
	X, Y, Z int
}

// ToVector3 converts a lattice position to field space.
func (v Vector3i) ToVector3() Vector3 {
	return Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
