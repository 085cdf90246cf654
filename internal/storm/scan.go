package storm

import (
	"errors"
	"fmt"
)

// ErrTooFewSteps indicates a scan with fewer than two steps.
var ErrTooFewSteps = errors.New("scan requires at least two steps")

// ErrEmptyScanRange indicates coinciding scan endpoints.
var ErrEmptyScanRange = errors.New("scan endpoints must differ")

// ErrUnknownScanVariable indicates an unrecognised scan variable.
var ErrUnknownScanVariable = errors.New("unknown scan variable")

// ScanVariable selects which Config field a Scan sweeps.
type ScanVariable int

const (
	// ScanIgnites sweeps the ignite count; sweep values truncate toward
	// zero before they apply.
	ScanIgnites ScanVariable = iota
	// ScanAreaMod sweeps the area modifier fraction.
	ScanAreaMod
	// ScanDuration sweeps the storm duration in seconds.
	ScanDuration
)

func (v ScanVariable) String() string {
	switch v {
	case ScanIgnites:
		return "ignites"
	case ScanAreaMod:
		return "area-mod"
	case ScanDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// ScanRequest describes a linear sweep of one Config field across an
// inclusive range.
type ScanRequest struct {
	Base     Config
	Variable ScanVariable
	From     float64
	To       float64
	Steps    int
}

// ScanPoint records the hit statistics of one sweep step for the first
// configured hitbox.
type ScanPoint struct {
	Value    float64
	Ordinary Stat
	Improved Stat
}

// Scan sweeps one variable across an inclusive linear range, running the
// full engine at every step and recording mean and standard error of the
// hits on the first hitbox radius for both bolt classes.
//
// Step i takes the value From + i*(To-From)/(Steps-1). Each step's derived
// Config passes the same validation as Simulate; the first invalid step
// aborts the whole scan with its error, so a scan never returns partial
// results.
//
// # Determinism
//
// Step i derives its seed as Base.Seed + i, so a fixed Base.Seed always
// yields an identical scan while keeping the steps' draws independent.
//
// # Errors
//
//   - Steps must be at least 2, otherwise ErrTooFewSteps. A single point
//     is not a sweep; use Simulate instead.
//   - From and To must differ, otherwise ErrEmptyScanRange.
//   - Variable must be one of the ScanVariable constants, otherwise
//     ErrUnknownScanVariable.
//   - Any validation error from a step's configuration, wrapped with the
//     step's index and value.
func Scan(req ScanRequest) ([]ScanPoint, error) {
	if req.Steps < 2 {
		return nil, ErrTooFewSteps
	}
	if req.From == req.To {
		return nil, ErrEmptyScanRange
	}
	switch req.Variable {
	case ScanIgnites, ScanAreaMod, ScanDuration:
	default:
		return nil, ErrUnknownScanVariable
	}

	points := make([]ScanPoint, req.Steps)
	for i := 0; i < req.Steps; i++ {
		value := req.From + float64(i)*(req.To-req.From)/float64(req.Steps-1)

		cfg := req.Base
		cfg.Seed = req.Base.Seed + int64(i)
		switch req.Variable {
		case ScanIgnites:
			cfg.Ignites = int(value)
		case ScanAreaMod:
			cfg.AreaMod = value
		case ScanDuration:
			cfg.Duration = value
		}

		res, err := Simulate(cfg)
		if err != nil {
			return nil, fmt.Errorf("scan step %d (%s = %g): %w", i, req.Variable, value, err)
		}
		points[i] = ScanPoint{
			Value:    value,
			Ordinary: res.Hitboxes[0].Ordinary,
			Improved: res.Hitboxes[0].Improved,
		}
	}
	return points, nil
}
