package storm

import "math"

// summarize reduces one per-trial series to its sample mean and the
// standard error of that mean. The standard deviation uses Bessel's
// correction (divisor n-1), so a single-sample series yields a NaN SEM;
// Config.Validate keeps such series out of the engine by requiring at
// least two trials.
func summarize(samples []float64) Stat {
	n := float64(len(samples))
	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / n

	var acc float64
	for _, v := range samples {
		d := v - mean
		acc += d * d
	}
	return Stat{
		Mean: mean,
		SEM:  math.Sqrt(acc/(n-1)) / math.Sqrt(n),
	}
}
