// Package config loads and saves YAML scenario files and builds a
// runnable world from them. Scenarios are a dev and test harness, not
// an interchange format: unknown fields are ignored and defaults fill
// whatever a file leaves out.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/railkit/railsim/internal/brakes"
	"github.com/railkit/railsim/internal/track"
	"github.com/railkit/railsim/internal/train"
	"github.com/railkit/railsim/internal/world"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 60.0
	DefaultGauge    = track.StandardGauge
)

type Scenario struct {
	Name     string        `yaml:"name"`
	Dt       float64       `yaml:"dt"`
	Duration float64       `yaml:"duration"`
	Seed     int64         `yaml:"seed"`
	Track    TrackConfig   `yaml:"track"`
	Brakes   BrakeConfig   `yaml:"brakes"`
	Trains   []TrainConfig `yaml:"trains"`
}

type TrackConfig struct {
	Gauge    float64         `yaml:"gauge"`
	Segments []SegmentConfig `yaml:"segments"`
	Buffers  []float64       `yaml:"buffers"`
}

type SegmentConfig struct {
	Length float64 `yaml:"length"`
	Radius float64 `yaml:"radius"`
	Cant   float64 `yaml:"cant"`
	Grade  float64 `yaml:"grade"`
}

type BrakeConfig struct {
	Notches                 int     `yaml:"notches"`
	FullServiceDeceleration float64 `yaml:"full_service_deceleration"`
	MotorDeceleration       float64 `yaml:"motor_deceleration"`
	EmergencyFactor         float64 `yaml:"emergency_factor"`
	HoldDeceleration        float64 `yaml:"hold_deceleration"`
	ApplyRate               float64 `yaml:"apply_rate"`
	ReleaseRate             float64 `yaml:"release_rate"`
}

type TrainConfig struct {
	Name    string `yaml:"name"`
	Player  bool   `yaml:"player"`
	Pending bool   `yaml:"pending"`
	Section int    `yaml:"section"`

	// Position is the track position of the front car's center; the
	// rest of the rake hangs behind it at the coupler midpoint gap.
	Position float64 `yaml:"position"`
	Speed    float64 `yaml:"speed"`

	Reverser   int  `yaml:"reverser"`
	PowerNotch int  `yaml:"power_notch"`
	BrakeNotch int  `yaml:"brake_notch"`
	HoldBrake  bool `yaml:"hold_brake"`

	Coupler CouplerConfig `yaml:"coupler"`
	Cars    []CarConfig   `yaml:"cars"`

	CriticalCollisionSpeedDifference float64 `yaml:"critical_collision_speed_difference"`
}

type CouplerConfig struct {
	Minimum float64 `yaml:"minimum"`
	Maximum float64 `yaml:"maximum"`
}

type CarConfig struct {
	Length      float64 `yaml:"length"`
	MassEmpty   float64 `yaml:"mass_empty"`
	MassCurrent float64 `yaml:"mass_current"`
	Motor       bool    `yaml:"motor"`

	ExposedFrontalArea    float64 `yaml:"exposed_frontal_area"`
	UnexposedFrontalArea  float64 `yaml:"unexposed_frontal_area"`
	DragCoefficient       float64 `yaml:"drag_coefficient"`
	RollingResistance     float64 `yaml:"rolling_resistance"`
	StaticFriction        float64 `yaml:"static_friction"`
	AdhesionMultiplier    float64 `yaml:"adhesion_multiplier"`
	CenterOfGravityHeight float64 `yaml:"center_of_gravity_height"`
	CriticalTopplingAngle float64 `yaml:"critical_toppling_angle"`

	JerkPowerUp   float64 `yaml:"jerk_power_up"`
	JerkPowerDown float64 `yaml:"jerk_power_down"`
	JerkBrakeUp   float64 `yaml:"jerk_brake_up"`
	JerkBrakeDown float64 `yaml:"jerk_brake_down"`

	CurveMultiplier float64       `yaml:"curve_multiplier"`
	Curves          []CurveConfig `yaml:"curves"`

	ReAdhesion ReAdhesionConfig `yaml:"re_adhesion"`
}

type CurveConfig struct {
	StageZeroAcceleration float64 `yaml:"stage_zero_acceleration"`
	StageOneSpeed         float64 `yaml:"stage_one_speed"`
	StageOneAcceleration  float64 `yaml:"stage_one_acceleration"`
	StageTwoSpeed         float64 `yaml:"stage_two_speed"`
	StageTwoExponent      float64 `yaml:"stage_two_exponent"`
}

type ReAdhesionConfig struct {
	UpdateInterval    float64 `yaml:"update_interval"`
	ApplicationFactor float64 `yaml:"application_factor"`
	ReleaseInterval   float64 `yaml:"release_interval"`
	ReleaseFactor     float64 `yaml:"release_factor"`
}

// DefaultScenario is a single four-car EMU coasting on a kilometre of
// straight, level track.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:     "default",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Seed:     1,
		Track: TrackConfig{
			Gauge:    DefaultGauge,
			Segments: []SegmentConfig{{Length: 1000}},
		},
		Brakes: defaultBrakeConfig(),
		Trains: []TrainConfig{{
			Name:     "local",
			Player:   true,
			Position: 100,
			Speed:    0,
			Coupler:  CouplerConfig{Minimum: 0.3, Maximum: 0.6},
			Cars: []CarConfig{
				DefaultMotorCar(), DefaultTrailerCar(),
				DefaultTrailerCar(), DefaultMotorCar(),
			},
		}},
	}
}

func defaultBrakeConfig() BrakeConfig {
	c := brakes.DefaultConfig()
	return BrakeConfig{
		Notches:                 c.Notches,
		FullServiceDeceleration: c.FullServiceDeceleration,
		MotorDeceleration:       c.MotorDeceleration,
		EmergencyFactor:         c.EmergencyFactor,
		HoldDeceleration:        c.HoldDeceleration,
		ApplyRate:               c.ApplyRate,
		ReleaseRate:             c.ReleaseRate,
	}
}

// DefaultMotorCar is a 20 m, 38 t motor car with a four-notch
// constant-power curve set.
func DefaultMotorCar() CarConfig {
	c := DefaultTrailerCar()
	c.MassEmpty = 38000
	c.MassCurrent = 41000
	c.Motor = true
	c.Curves = make([]CurveConfig, 0, 4)
	for notch := 1; notch <= 4; notch++ {
		frac := float64(notch) / 4
		c.Curves = append(c.Curves, CurveConfig{
			StageZeroAcceleration: 1.0 * frac,
			StageOneSpeed:         8.3,
			StageOneAcceleration:  1.0 * frac,
			StageTwoSpeed:         16.7,
			StageTwoExponent:      2.0,
		})
	}
	c.ReAdhesion = ReAdhesionConfig{
		UpdateInterval:    1.0,
		ApplicationFactor: 0.8,
		ReleaseInterval:   1.0,
		ReleaseFactor:     1.2,
	}
	return c
}

// DefaultTrailerCar is a 20 m, 26 t unpowered car.
func DefaultTrailerCar() CarConfig {
	return CarConfig{
		Length:                20,
		MassEmpty:             26000,
		MassCurrent:           29000,
		ExposedFrontalArea:    9.5,
		UnexposedFrontalArea:  6.0,
		DragCoefficient:       1.1,
		RollingResistance:     0.0025,
		StaticFriction:        0.35,
		AdhesionMultiplier:    1.0,
		CenterOfGravityHeight: 1.6,
		CriticalTopplingAngle: 0.5,
		JerkPowerUp:           2.0,
		JerkPowerDown:         4.0,
		JerkBrakeUp:           2.0,
		JerkBrakeDown:         4.0,
		CurveMultiplier:       1.0,
	}
}

// Load reads a scenario, layering the file over DefaultScenario so a
// sparse file stays runnable.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultScenario()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return s, nil
}

func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so sweeps can vary one field per run
// without touching the base scenario.
func (s *Scenario) Clone() *Scenario {
	out := *s
	out.Track.Segments = append([]SegmentConfig(nil), s.Track.Segments...)
	out.Track.Buffers = append([]float64(nil), s.Track.Buffers...)
	out.Trains = append([]TrainConfig(nil), s.Trains...)
	for i := range out.Trains {
		out.Trains[i].Cars = append([]CarConfig(nil), s.Trains[i].Cars...)
		for j := range out.Trains[i].Cars {
			out.Trains[i].Cars[j].Curves = append([]CurveConfig(nil), s.Trains[i].Cars[j].Curves...)
		}
	}
	return &out
}

// Validate reports the first structural problem with the scenario.
// Physics-level anomalies are not errors; this covers only what would
// make the world unbuildable.
func (s *Scenario) Validate() error {
	if s.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", s.Dt)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %f", s.Duration)
	}
	if len(s.Track.Segments) == 0 {
		return fmt.Errorf("config: track needs at least one segment")
	}
	for i, seg := range s.Track.Segments {
		if seg.Length <= 0 {
			return fmt.Errorf("config: segment %d: non-positive length %f", i, seg.Length)
		}
	}
	for _, tc := range s.Trains {
		if len(tc.Cars) == 0 {
			return fmt.Errorf("config: train %q has no cars", tc.Name)
		}
		if tc.Coupler.Minimum < 0 || tc.Coupler.Maximum < tc.Coupler.Minimum {
			return fmt.Errorf("config: train %q: coupler bounds [%f, %f] invalid",
				tc.Name, tc.Coupler.Minimum, tc.Coupler.Maximum)
		}
		if tc.Reverser < -1 || tc.Reverser > 1 {
			return fmt.Errorf("config: train %q: reverser must be -1, 0 or 1", tc.Name)
		}
		for i, cc := range tc.Cars {
			if cc.Length <= 0 {
				return fmt.Errorf("config: train %q: car %d: non-positive length", tc.Name, i)
			}
			if cc.MassEmpty <= 0 || cc.MassCurrent <= 0 {
				return fmt.Errorf("config: train %q: car %d: non-positive mass", tc.Name, i)
			}
			if cc.Motor && tc.PowerNotch > len(cc.Curves) {
				return fmt.Errorf("config: train %q: car %d: power notch %d exceeds %d curves",
					tc.Name, i, tc.PowerNotch, len(cc.Curves))
			}
		}
	}
	return nil
}

// Steps is the tick count a full run of the scenario takes.
func (s *Scenario) Steps() int {
	if s.Dt <= 0 {
		return 0
	}
	return int(s.Duration / s.Dt)
}

// Build validates the scenario and assembles a ready-to-step world.
func (s *Scenario) Build() (*world.World, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	gauge := s.Track.Gauge
	if gauge <= 0 {
		gauge = DefaultGauge
	}
	segments := make([]track.Segment, len(s.Track.Segments))
	for i, sc := range s.Track.Segments {
		segments[i] = track.Segment{
			Length: sc.Length,
			Radius: sc.Radius,
			Cant:   sc.Cant,
			Grade:  sc.Grade,
		}
	}
	layout := track.NewLayout(gauge, segments, s.Track.Buffers)

	w := world.New(layout, brakes.New(s.brakeConfig()), s.Seed)
	for _, tc := range s.Trains {
		t, err := buildTrain(layout, tc)
		if err != nil {
			return nil, err
		}
		w.AddTrain(t)
	}
	return w, nil
}

func (s *Scenario) brakeConfig() brakes.Config {
	b := s.Brakes
	def := brakes.DefaultConfig()
	if b.Notches < 1 {
		return def
	}
	return brakes.Config{
		Notches:                 b.Notches,
		FullServiceDeceleration: b.FullServiceDeceleration,
		MotorDeceleration:       b.MotorDeceleration,
		EmergencyFactor:         b.EmergencyFactor,
		HoldDeceleration:        b.HoldDeceleration,
		ApplyRate:               b.ApplyRate,
		ReleaseRate:             b.ReleaseRate,
	}
}

func buildTrain(layout *track.Layout, tc TrainConfig) (*train.Train, error) {
	cars := make([]*train.Car, len(tc.Cars))
	couplers := make([]train.Coupler, 0, len(tc.Cars)-1)
	gap := 0.5 * (tc.Coupler.Minimum + tc.Coupler.Maximum)

	center := tc.Position
	for i, cc := range tc.Cars {
		if i > 0 {
			center -= 0.5*tc.Cars[i-1].Length + gap + 0.5*cc.Length
			couplers = append(couplers, train.Coupler{
				MinimumDistanceBetweenCars: tc.Coupler.Minimum,
				MaximumDistanceBetweenCars: tc.Coupler.Maximum,
			})
		}
		cars[i] = buildCar(layout, cc, center, tc.Speed)
	}

	t, err := train.New(tc.Name, cars, couplers)
	if err != nil {
		return nil, fmt.Errorf("config: train %q: %w", tc.Name, err)
	}
	t.IsPlayer = tc.Player
	t.Section = tc.Section
	t.State = train.StateAvailable
	if tc.Pending {
		t.State = train.StatePending
	}
	t.Handles = train.Handles{
		Reverser:   tc.Reverser,
		PowerNotch: tc.PowerNotch,
		BrakeNotch: tc.BrakeNotch,
		HoldBrake:  tc.HoldBrake,
	}
	t.Specs.CriticalCollisionSpeedDifference = tc.CriticalCollisionSpeedDifference
	return t, nil
}

func buildCar(layout *track.Layout, cc CarConfig, center, speed float64) *train.Car {
	c := &train.Car{Length: cc.Length}
	c.FrontAxle.Position = train.DefaultAxlePositionRatio * cc.Length
	c.RearAxle.Position = -train.DefaultAxlePositionRatio * cc.Length

	sp := &c.Specs
	sp.MassEmpty = cc.MassEmpty
	sp.MassCurrent = cc.MassCurrent
	sp.ExposedFrontalArea = cc.ExposedFrontalArea
	sp.UnexposedFrontalArea = cc.UnexposedFrontalArea
	sp.AerodynamicDragCoefficient = cc.DragCoefficient
	sp.CoefficientOfRollingResistance = cc.RollingResistance
	sp.CoefficientOfStaticFriction = cc.StaticFriction
	sp.AdhesionMultiplier = cc.AdhesionMultiplier
	sp.CenterOfGravityHeight = cc.CenterOfGravityHeight
	sp.CriticalTopplingAngle = cc.CriticalTopplingAngle
	sp.JerkPowerUp = cc.JerkPowerUp
	sp.JerkPowerDown = cc.JerkPowerDown
	sp.JerkBrakeUp = cc.JerkBrakeUp
	sp.JerkBrakeDown = cc.JerkBrakeDown
	sp.IsMotorCar = cc.Motor
	sp.AccelerationCurveMultiplier = cc.CurveMultiplier
	sp.CurrentSpeed = speed

	for _, cv := range cc.Curves {
		sp.AccelerationCurves = append(sp.AccelerationCurves, train.AccelerationCurve{
			StageZeroAcceleration: cv.StageZeroAcceleration,
			StageOneSpeed:         cv.StageOneSpeed,
			StageOneAcceleration:  cv.StageOneAcceleration,
			StageTwoSpeed:         cv.StageTwoSpeed,
			StageTwoExponent:      cv.StageTwoExponent,
		})
	}
	if ra := cc.ReAdhesion; ra.UpdateInterval > 0 {
		sp.ReAdhesionDevice = train.NewReAdhesionDevice(
			ra.UpdateInterval, ra.ApplicationFactor, ra.ReleaseInterval, ra.ReleaseFactor)
	}

	c.PlaceAt(layout, center)
	return c
}
