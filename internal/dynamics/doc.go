// Package dynamics resolves the constraints between cars, trains and
// the track: coupler distance bounds, train and buffer collisions, and
// the toppling state machine.
//
// The solvers share one correction primitive: [SolveCouplers] walks
// outward from the train's mass-weighted anchor, collision resolvers
// rerun the identical walk from the struck end car. After positions are
// corrected, every contiguous run of violated couplers merges its car
// speeds inelastically; a per-car speed change beyond half the train's
// critical collision difference derails that car.
//
// Solvers mutate trains directly but never publish notifications.
// Instead each pass returns a [Report] so the caller can emit events
// once the physics has settled.
package dynamics
