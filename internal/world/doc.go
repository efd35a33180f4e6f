// Package world owns the simulation context: the train list, the track
// layout, the brake system, and one frame-stepped entry point.
//
// A [World.Step] runs four phases in order:
//
//  1. introduce: pending trains whose start section is free become
//     available.
//  2. integrate: each available train moves by its settled speeds, the
//     brake system is evaluated, the speed integrator and the coupler
//     solver run (sequential; trains are independent here).
//  3. resolve: train pair overlaps are detected in parallel, read-only,
//     partitioned by train index; contacts are then resolved in index
//     order so only one task ever mutates a colliding pair. The player
//     train is additionally tested against dead-end buffers.
//  4. finalize: world poses and roll/toppling state are derived in a
//     parallel fan-out over all non-disposed, non-bogus trains.
//
// Nothing suspends mid-tick: a tick either completes or was never
// started. A non-positive elapsed is a universal no-op; ticks longer
// than half a second are treated as paused frames and skipped by the
// car physics.
//
// Anomalies are state transitions, not errors: wheel slip flags,
// derailment, corrective displacement. After the physics settles,
// collision, coupler and derailment notifications go out on a bounded
// [events.Bus] that never blocks the tick.
package world
