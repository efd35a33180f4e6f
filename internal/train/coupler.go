package train

// Coupler bounds the free-run gap between two adjacent car faces. The
// gap may drift inside [MinimumDistanceBetweenCars,
// MaximumDistanceBetweenCars] without any coupling force; the constraint
// solver corrects positions only once a bound is violated.
type Coupler struct {
	MinimumDistanceBetweenCars float64
	MaximumDistanceBetweenCars float64
}
