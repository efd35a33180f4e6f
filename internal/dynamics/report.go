package dynamics

// Impact describes one resolved contact. Car indexes the car that took
// the hit; Severity is the largest speed change absorbed by any car in
// the merged block, in m/s.
type Impact struct {
	Car      int
	Severity float64
}

// Report collects what one solver pass did to a train, so the caller
// can emit notifications after the physics has settled.
type Report struct {
	Impacts      []Impact
	DerailedCars []int
}

// Empty reports whether the pass changed nothing worth notifying.
func (r Report) Empty() bool {
	return len(r.Impacts) == 0 && len(r.DerailedCars) == 0
}

func (r *Report) absorb(other Report) {
	r.Impacts = append(r.Impacts, other.Impacts...)
	r.DerailedCars = append(r.DerailedCars, other.DerailedCars...)
}
