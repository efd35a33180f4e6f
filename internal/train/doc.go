// Package train defines the vehicle data model shared by the physics
// and dynamics packages.
//
//   - [Train]: ordered cars (index 0 is the front) joined by [Coupler]s
//   - [Car]: two [Axle]s on the track plus its [CarSpecs] state block
//   - [Handles]: driver inputs read, never written, by the physics
//   - [AccelerationCurve]: piecewise motor traction model
//   - [ReAdhesionDevice]: wheel-slip recovery timer per motor car
//
// All mutable per-tick state lives in [CarSpecs] and [TrainSpecs] so a
// snapshot of a train is a plain copy of those blocks. Derailment is
// monotonic: once [Car.Derail] has been called nothing resets the flag.
package train
