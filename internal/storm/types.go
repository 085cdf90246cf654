package storm

import (
	"errors"
	"math"
)

// hitboxTolerance is the distance below which two hitbox radii are
// considered the same hitbox.
const hitboxTolerance = 1e-9

// ErrNegativeIgnites indicates the ignite count is below zero.
var ErrNegativeIgnites = errors.New("ignites must be non-negative")

// ErrNoHitboxes indicates no hitbox radii were provided.
var ErrNoHitboxes = errors.New("at least one hitbox radius must be provided")

// ErrHitboxNotPositive indicates a hitbox radius that is not a positive
// finite number.
var ErrHitboxNotPositive = errors.New("hitbox radii must be positive and finite")

// ErrDuplicateHitbox indicates two hitbox radii coincide within tolerance.
var ErrDuplicateHitbox = errors.New("hitbox radii must be distinct")

// ErrAreaModTooLow indicates an area modifier that is not finite or sits
// at or below -1, where no real scale factor exists.
var ErrAreaModTooLow = errors.New("area modifier must be a finite value greater than -1")

// ErrNonPositiveDuration indicates a storm duration that is not a positive
// finite number.
var ErrNonPositiveDuration = errors.New("duration must be positive and finite")

// ErrTooFewTrials indicates a trial count too small for a standard error.
var ErrTooFewTrials = errors.New("at least two trials are required")

// ErrNonPositiveRadius indicates a base radius that is not a positive
// finite number.
var ErrNonPositiveRadius = errors.New("storm, bolt and improved radii must be positive and finite")

// ErrNonPositiveFrequency indicates a bolt frequency that is not a positive
// finite number.
var ErrNonPositiveFrequency = errors.New("frequency must be positive and finite")

// ErrNonPositiveSamples indicates an empty coverage integration grid.
var ErrNonPositiveSamples = errors.New("coverage sample count must be positive")

// ErrScheduleTooLarge indicates a duration and frequency whose product
// exceeds the representable bolt count.
var ErrScheduleTooLarge = errors.New("duration times frequency schedules too many bolts")

// Point is a Cartesian position relative to the storm's centre.
type Point struct {
	X float64
	Y float64
}

// Config describes one simulation run. The zero value is not runnable;
// start from DefaultConfig and fill in the run-specific fields.
type Config struct {
	// Ignites is the number of ignites consumed; each schedules up to
	// five improved bolts.
	Ignites int
	// Hitboxes lists the target radii in meters to score hits against.
	// Radii must be positive, finite and distinct; their order is
	// preserved in Result.Hitboxes.
	Hitboxes []float64
	// AreaMod grows or shrinks the storm area by the given fraction
	// (0 leaves it unchanged, -0.5 halves it). Must be finite and
	// strictly above -1.
	AreaMod float64
	// Duration is the storm's length in seconds.
	Duration float64
	// Trials is the number of Monte Carlo repetitions. At least two are
	// required so the standard error of the mean is defined.
	Trials int

	// StormRadius, BoltRadius and ImprovedRadius are the base radii in
	// meters before the area modifier applies.
	StormRadius    float64
	BoltRadius     float64
	ImprovedRadius float64
	// Frequency is the bolt strike rate in strikes per second.
	Frequency float64
	// CoverageSamples is the size of the integration grid backing the
	// coverage estimate.
	CoverageSamples int

	// Seed drives every random draw of the run.
	Seed int64
}

// DefaultConfig returns a Config with the stock storm parameters. Ignites,
// Hitboxes, AreaMod, Duration, Trials and Seed describe a particular run
// and are left for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		StormRadius:     5.6,
		BoltRadius:      1.0,
		ImprovedRadius:  1.8,
		Frequency:       10.0,
		CoverageSamples: 1000,
	}
}

// Validate checks the configuration before any sampling begins and returns
// the first applicable error. NaN and infinite values are rejected with the
// same sentinels as out-of-range ones, so every run that passes works on
// well-defined arithmetic.
func (c Config) Validate() error {
	if c.Ignites < 0 {
		return ErrNegativeIgnites
	}
	if len(c.Hitboxes) == 0 {
		return ErrNoHitboxes
	}
	for i, hitbox := range c.Hitboxes {
		if !positiveFinite(hitbox) {
			return ErrHitboxNotPositive
		}
		for _, earlier := range c.Hitboxes[:i] {
			if math.Abs(hitbox-earlier) <= hitboxTolerance {
				return ErrDuplicateHitbox
			}
		}
	}
	if math.IsNaN(c.AreaMod) || math.IsInf(c.AreaMod, 0) || c.AreaMod <= -1 {
		return ErrAreaModTooLow
	}
	if !positiveFinite(c.Duration) {
		return ErrNonPositiveDuration
	}
	if c.Trials < 2 {
		return ErrTooFewTrials
	}
	if !positiveFinite(c.StormRadius) || !positiveFinite(c.BoltRadius) || !positiveFinite(c.ImprovedRadius) {
		return ErrNonPositiveRadius
	}
	if !positiveFinite(c.Frequency) {
		return ErrNonPositiveFrequency
	}
	if c.CoverageSamples <= 0 {
		return ErrNonPositiveSamples
	}
	// Keeps int(Duration * Frequency) inside the representable range, where
	// the conversion is well-defined.
	if c.Duration*c.Frequency >= float64(math.MaxInt) {
		return ErrScheduleTooLarge
	}
	return nil
}

// positiveFinite reports whether x is a positive real number. NaN and the
// infinities do not qualify; a NaN comparison is always false, so only the
// positive infinity needs an explicit check.
func positiveFinite(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// ScaledRadii holds the storm and blast radii after the area modifier's
// scale factor of sqrt(1 + AreaMod) applies.
type ScaledRadii struct {
	Storm    float64
	Bolt     float64
	Improved float64
}

// Allocation splits the scheduled bolt count between the two classes.
type Allocation struct {
	Improved int
	Ordinary int
}

// Stat is a sample mean together with the standard error of that mean.
type Stat struct {
	Mean float64
	SEM  float64
}

// HitboxStats carries the per-class hit statistics for one hitbox radius.
type HitboxStats struct {
	Radius   float64
	Ordinary Stat
	Improved Stat
}

// Snapshot retains the raw detail of the final trial so a caller can render
// one concrete outcome alongside the aggregate statistics. It is produced
// once per invocation and not mutated afterwards.
type Snapshot struct {
	// Ordinary and Improved are the impact positions of the final trial.
	Ordinary []Point
	Improved []Point
	// Grid is the integration grid shared by every trial.
	Grid []Point
	// CoveredOrdinary and CoveredImproved mark, per grid point, whether
	// any blast of the class reached it in the final trial.
	CoveredOrdinary []bool
	CoveredImproved []bool
}

// Result aggregates a full simulation run.
type Result struct {
	// Hitboxes holds one entry per configured hitbox radius, in
	// Config.Hitboxes order.
	Hitboxes []HitboxStats
	// CoverageOrdinary and CoverageImproved estimate the fraction of the
	// storm area struck by at least one blast of the class.
	CoverageOrdinary Stat
	CoverageImproved Stat
	Radii            ScaledRadii
	Allocation       Allocation
	LastTrial        Snapshot
}
