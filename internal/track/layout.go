package track

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// StandardGauge is the default rail gauge in meters.
const StandardGauge = 1.435

// Segment is one piece of a route, described in the horizontal plane.
// Radius follows [Pose.CurveRadius] sign conventions, Grade is the
// vertical rise per meter of track.
type Segment struct {
	Length float64
	Radius float64
	Cant   float64
	Grade  float64
}

type segmentOrigin struct {
	position mgl64.Vec3
	heading  float64
}

// Layout is a piecewise route geometry. Segments are laid end to end
// starting at the world origin facing +Z; the world pose of every
// segment boundary is precomputed so Eval stays O(log n).
//
// A Layout with no segments degenerates to an infinite flat straight,
// which is the default route used by tests and quick scenarios.
type Layout struct {
	gauge    float64
	segments []Segment
	starts   []float64
	origins  []segmentOrigin
	total    float64
	buffers  []float64
}

// NewLayout builds a route from consecutive segments. Non-positive gauge
// falls back to [StandardGauge]. Buffer positions mark dead ends on the
// track axis and are reported verbatim by Buffers.
func NewLayout(gauge float64, segments []Segment, buffers []float64) *Layout {
	if gauge <= 0 {
		gauge = StandardGauge
	}
	l := &Layout{
		gauge:    gauge,
		segments: append([]Segment(nil), segments...),
		buffers:  append([]float64(nil), buffers...),
	}
	sort.Float64s(l.buffers)

	pos := mgl64.Vec3{}
	heading := 0.0
	start := 0.0
	for _, seg := range l.segments {
		l.starts = append(l.starts, start)
		l.origins = append(l.origins, segmentOrigin{position: pos, heading: heading})
		pos, heading = advance(pos, heading, seg, seg.Length)
		start += seg.Length
	}
	l.total = start
	return l
}

// Gauge returns the rail gauge in meters.
func (l *Layout) Gauge() float64 { return l.gauge }

// Length returns the total route length in meters.
func (l *Layout) Length() float64 { return l.total }

// Buffers returns the dead-end positions in ascending track order. The
// returned slice is shared and must not be modified.
func (l *Layout) Buffers() []float64 { return l.buffers }

// Eval resolves a track position to its world pose. Positions outside
// the route are extrapolated along the nearest end segment.
func (l *Layout) Eval(position float64) Pose {
	if len(l.segments) == 0 {
		p := CanonicalPose()
		p.Position = mgl64.Vec3{0, 0, position}
		return p
	}
	i := sort.SearchFloat64s(l.starts, position)
	if i == len(l.starts) || l.starts[i] > position {
		i--
	}
	if i < 0 {
		i = 0
	}
	seg := l.segments[i]
	org := l.origins[i]
	s := position - l.starts[i]

	slope := math.Atan(seg.Grade)
	cos, sin := math.Cos(slope), math.Sin(slope)
	p, heading := advance(org.position, org.heading, seg, s)

	hx, hz := math.Sin(heading), math.Cos(heading)
	dir := mgl64.Vec3{hx * cos, sin, hz * cos}
	side := mgl64.Vec3{hz, 0, -hx}
	return Pose{
		Position:    p,
		Direction:   dir,
		Up:          dir.Cross(side),
		Side:        side,
		CurveRadius: seg.Radius,
		CurveCant:   seg.Cant,
	}
}

// advance walks distance s into a segment starting at the given world
// position and horizontal heading, returning the end point and heading.
// The formulas hold for any s, so callers may extrapolate past either
// segment boundary.
func advance(p mgl64.Vec3, heading float64, seg Segment, s float64) (mgl64.Vec3, float64) {
	slope := math.Atan(seg.Grade)
	run := s * math.Cos(slope)
	rise := s * math.Sin(slope)

	if seg.Radius == 0 {
		h := mgl64.Vec3{math.Sin(heading), 0, math.Cos(heading)}
		return p.Add(h.Mul(run)).Add(mgl64.Vec3{0, rise, 0}), heading
	}

	r := seg.Radius
	side0 := mgl64.Vec3{math.Cos(heading), 0, -math.Sin(heading)}
	center := p.Add(side0.Mul(r))
	end := heading + run/r
	side1 := mgl64.Vec3{math.Cos(end), 0, -math.Sin(end)}
	return center.Sub(side1.Mul(r)).Add(mgl64.Vec3{0, rise, 0}), end
}
