// Package track models the one-dimensional track axis and its mapping
// into world space.
//
// All vehicle physics runs on a scalar track position measured in meters
// from the route origin, increasing toward the nominal front. The package
// provides:
//
//   - [Geometry]: pure lookup from track position to world-space [Pose]
//   - [Layout]: piecewise route built from straight and curved [Segment]s
//   - [Follower]: mutable cursor that caches the pose at its position
//
// A [Follower] is embedded once per axle and mutated in place every tick;
// it never reallocates, so pointers into it stay valid for the lifetime
// of the car.
package track
