// Package physics integrates longitudinal car motion.
//
// [UpdateSpeeds] runs the per-car force balance for one tick: grade
// acceleration from the axle poses, rolling and aerodynamic resistance,
// jerk-limited motor output with wheel-slip and re-adhesion handling,
// brake force with wheel-lock detection, and the perceived-speed chase.
// It returns tentative speeds without committing them, so the coupler
// solver can still reconcile them against the previous tick's values.
//
// All quantities are SI: meters, seconds, kilograms, radians.
package physics
