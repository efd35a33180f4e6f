package track

import "github.com/go-gl/mathgl/mgl64"

// Pose is the world-space placement of a single point on the track axis.
//
// Direction is the unit tangent toward increasing track position, Up the
// unit normal away from the railhead and Side the unit vector toward the
// right-hand rail. Up is not rotated by cant; superelevation reaches the
// physics only through the scalar CurveCant.
type Pose struct {
	Position  mgl64.Vec3
	Direction mgl64.Vec3
	Up        mgl64.Vec3
	Side      mgl64.Vec3

	// CurveRadius is the signed horizontal radius in meters. Zero means
	// straight, positive curves to the right, negative to the left.
	CurveRadius float64

	// CurveCant is the signed superelevation in meters. Positive cant
	// raises the outer rail of a right-hand curve.
	CurveCant float64
}

// Geometry resolves a track position to a world pose. Implementations
// must be pure and safe for concurrent use.
type Geometry interface {
	Eval(position float64) Pose
}

// CanonicalPose is the fallback placement used when no geometry is
// attached or a car's axles coincide: origin, facing +Z on level ground.
func CanonicalPose() Pose {
	return Pose{
		Direction: mgl64.Vec3{0, 0, 1},
		Up:        mgl64.Vec3{0, 1, 0},
		Side:      mgl64.Vec3{1, 0, 0},
	}
}
