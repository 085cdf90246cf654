package storm

import (
	"fmt"
	"math"
	"math/rand"
)

// Simulate runs the Monte Carlo bombardment estimate described by cfg.
//
// # Determinism
//
// Simulate is deterministic with respect to the Seed field on Config.
// Given the same Config (including Seed and the order of Hitboxes),
// Simulate will always produce the same Result.
//
// # Sampling
//
// The coverage integration grid is drawn once over the scaled storm disk
// and shared by every trial, so the per-trial coverage fractions rest on a
// stable basis. Each trial then scatters both bolt classes across the full
// storm disk; the blast radii affect only coverage and hit testing, never
// placement.
//
// # Errors
//
//   - Ignites must be non-negative, otherwise ErrNegativeIgnites.
//   - Hitboxes must be non-empty with positive finite, distinct radii,
//     otherwise ErrNoHitboxes, ErrHitboxNotPositive or ErrDuplicateHitbox.
//   - AreaMod must be finite and strictly above -1, otherwise
//     ErrAreaModTooLow.
//   - Duration, Frequency and the base radii must be positive and finite,
//     and CoverageSamples positive, otherwise the matching sentinel error.
//   - Duration times Frequency must stay below the representable bolt
//     count, otherwise ErrScheduleTooLarge.
//   - Trials must be at least 2 so the standard error of the mean is
//     defined, otherwise ErrTooFewTrials.
//
// Validation runs before any sampling begins, so a rejected configuration
// costs no computation.
//
// Example:
//
//	cfg := DefaultConfig()
//	cfg.Ignites = 3
//	cfg.Hitboxes = []float64{0.5, 1.0}
//	cfg.Duration = 6
//	cfg.Trials = 1000
//	cfg.Seed = 1
//	result, err := Simulate(cfg)
func Simulate(cfg Config) (Result, error) {
	return SimulateWithRNG(rand.New(rand.NewSource(cfg.Seed)), cfg)
}

// SimulateWithRNG runs the simulation with a caller-provided random source.
// This is useful when you want to control the RNG directly; cfg.Seed is
// ignored and determinism follows from the state of rng.
func SimulateWithRNG(rng *rand.Rand, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	alloc := Allocate(cfg.Ignites, cfg.Duration, cfg.Frequency)
	if alloc.Improved < 0 || alloc.Ordinary < 0 {
		// Unreachable: both counts derive from validated non-negative inputs.
		panic(fmt.Sprintf("storm: negative bolt allocation %+v", alloc))
	}

	scale := math.Sqrt(1 + cfg.AreaMod)
	radii := ScaledRadii{
		Storm:    cfg.StormRadius * scale,
		Bolt:     cfg.BoltRadius * scale,
		Improved: cfg.ImprovedRadius * scale,
	}

	grid := sampleDisk(rng, cfg.CoverageSamples, radii.Storm)

	hitsOrd := make([][]float64, len(cfg.Hitboxes))
	hitsImp := make([][]float64, len(cfg.Hitboxes))
	for i := range cfg.Hitboxes {
		hitsOrd[i] = make([]float64, cfg.Trials)
		hitsImp[i] = make([]float64, cfg.Trials)
	}
	covOrd := make([]float64, cfg.Trials)
	covImp := make([]float64, cfg.Trials)

	var last Snapshot
	for t := 0; t < cfg.Trials; t++ {
		ordinary := sampleDisk(rng, alloc.Ordinary, radii.Storm)
		improved := sampleDisk(rng, alloc.Improved, radii.Storm)

		maskOrd := blastMask(grid, ordinary, radii.Bolt)
		maskImp := blastMask(grid, improved, radii.Improved)
		covOrd[t] = coveredFraction(maskOrd)
		covImp[t] = coveredFraction(maskImp)

		for i, hitbox := range cfg.Hitboxes {
			hitsOrd[i][t] = float64(countHits(ordinary, hitbox+radii.Bolt))
			hitsImp[i][t] = float64(countHits(improved, hitbox+radii.Improved))
		}

		if t == cfg.Trials-1 {
			last = Snapshot{
				Ordinary:        ordinary,
				Improved:        improved,
				Grid:            grid,
				CoveredOrdinary: maskOrd,
				CoveredImproved: maskImp,
			}
		}
	}

	hitboxes := make([]HitboxStats, len(cfg.Hitboxes))
	for i, hitbox := range cfg.Hitboxes {
		hitboxes[i] = HitboxStats{
			Radius:   hitbox,
			Ordinary: summarize(hitsOrd[i]),
			Improved: summarize(hitsImp[i]),
		}
	}

	return Result{
		Hitboxes:         hitboxes,
		CoverageOrdinary: summarize(covOrd),
		CoverageImproved: summarize(covImp),
		Radii:            radii,
		Allocation:       alloc,
		LastTrial:        last,
	}, nil
}

// Allocate splits the scheduled bolt count between the two classes for
// non-negative inputs. The scheduled total is floor(duration x frequency);
// improved bolts take up to five per ignite and ordinary bolts fill the
// remainder, so the two counts always sum to the scheduled total.
func Allocate(ignites int, duration, frequency float64) Allocation {
	scheduled := int(duration * frequency)
	// Compare against scheduled/5 rather than computing min(5*ignites,
	// scheduled); the multiplication can overflow for extreme ignite counts.
	improved := scheduled
	if ignites <= scheduled/5 {
		improved = 5 * ignites
	}
	return Allocation{Improved: improved, Ordinary: scheduled - improved}
}

// blastMask marks every grid point lying within blast distance of at least
// one impact. With no impacts the mask stays all false.
func blastMask(grid, impacts []Point, blast float64) []bool {
	mask := make([]bool, len(grid))
	for i, p := range grid {
		for _, impact := range impacts {
			if math.Hypot(p.X-impact.X, p.Y-impact.Y) <= blast {
				mask[i] = true
				break
			}
		}
	}
	return mask
}

// coveredFraction returns the share of set entries in the mask.
func coveredFraction(mask []bool) float64 {
	covered := 0
	for _, hit := range mask {
		if hit {
			covered++
		}
	}
	return float64(covered) / float64(len(mask))
}

// countHits counts impacts whose blast footprint overlaps a hitbox centred
// on the origin, i.e. impacts within reach = hitbox radius + blast radius.
func countHits(impacts []Point, reach float64) int {
	hits := 0
	for _, impact := range impacts {
		if math.Hypot(impact.X, impact.Y) <= reach {
			hits++
		}
	}
	return hits
}
