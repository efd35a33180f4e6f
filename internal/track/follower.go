package track

import "github.com/go-gl/mathgl/mgl64"

// Follower is a cursor on the track axis. It caches the world pose at
// its current position so physics can read vectors without re-evaluating
// the geometry. Callers mutate it in place through Advance and Seek.
type Follower struct {
	TrackPosition  float64
	WorldPosition  mgl64.Vec3
	WorldDirection mgl64.Vec3
	WorldUp        mgl64.Vec3
	WorldSide      mgl64.Vec3
	CurveRadius    float64
	CurveCant      float64

	geometry Geometry
}

// NewFollower places a cursor on the given geometry. A nil geometry
// yields the canonical flat straight through the origin.
func NewFollower(geometry Geometry, position float64) Follower {
	f := Follower{geometry: geometry}
	f.Seek(position)
	return f
}

// Advance moves the cursor by delta meters along the track and refreshes
// the cached pose. A zero delta leaves the follower untouched.
func (f *Follower) Advance(delta float64) {
	if delta == 0 {
		return
	}
	f.Seek(f.TrackPosition + delta)
}

// Seek places the cursor at an absolute track position.
func (f *Follower) Seek(position float64) {
	f.TrackPosition = position
	var p Pose
	if f.geometry != nil {
		p = f.geometry.Eval(position)
	} else {
		p = CanonicalPose()
		p.Position = mgl64.Vec3{0, 0, position}
	}
	f.WorldPosition = p.Position
	f.WorldDirection = p.Direction
	f.WorldUp = p.Up
	f.WorldSide = p.Side
	f.CurveRadius = p.CurveRadius
	f.CurveCant = p.CurveCant
}
