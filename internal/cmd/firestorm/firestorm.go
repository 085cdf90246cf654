// Package firestorm parses simulator flags and runs a single bombardment
// estimate or a parameter scan, printing the text report.
package firestorm

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	entrypoint "github.com/louisbranch/firestorm/internal/platform/cmd"
	"github.com/louisbranch/firestorm/internal/random"
	"github.com/louisbranch/firestorm/internal/storm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config holds firestorm command configuration.
type Config struct {
	StormRadius     float64 `env:"FIRESTORM_STORM_RADIUS"`
	BoltRadius      float64 `env:"FIRESTORM_BOLT_RADIUS"`
	ImprovedRadius  float64 `env:"FIRESTORM_IMPROVED_RADIUS"`
	Frequency       float64 `env:"FIRESTORM_FREQUENCY"`
	CoverageSamples int     `env:"FIRESTORM_COVERAGE_SAMPLES"`

	Ignites    int
	Hitboxes   []float64
	AreaModPct float64
	Duration   float64
	Trials     int
	Seed       int64

	Scan      string
	ScanFrom  float64
	ScanTo    float64
	ScanSteps int

	Chart string
}

// ParseConfig parses environment and flags into a Config. The base storm
// parameters start from the engine defaults, then environment variables,
// then flags, each layer overriding the previous one.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	defaults := storm.DefaultConfig()
	cfg := Config{
		StormRadius:     defaults.StormRadius,
		BoltRadius:      defaults.BoltRadius,
		ImprovedRadius:  defaults.ImprovedRadius,
		Frequency:       defaults.Frequency,
		CoverageSamples: defaults.CoverageSamples,
	}
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	var hitboxes string
	fs.IntVar(&cfg.Ignites, "ignites", 3, "ignites consumed by the caster")
	fs.StringVar(&hitboxes, "hitboxes", "0.5,1.0", "comma-separated enemy hitbox radii in meters")
	fs.Float64Var(&cfg.AreaModPct, "area-mod", 0, "area modifier in percent")
	fs.Float64Var(&cfg.Duration, "duration", 6, "storm duration in seconds")
	fs.IntVar(&cfg.Trials, "trials", 1000, "number of simulation trials")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed for reproducibility (0 = random)")
	fs.Float64Var(&cfg.StormRadius, "storm-radius", cfg.StormRadius, "base storm radius in meters")
	fs.Float64Var(&cfg.BoltRadius, "bolt-radius", cfg.BoltRadius, "ordinary bolt blast radius in meters")
	fs.Float64Var(&cfg.ImprovedRadius, "improved-radius", cfg.ImprovedRadius, "improved bolt blast radius in meters")
	fs.Float64Var(&cfg.Frequency, "frequency", cfg.Frequency, "bolt strikes per second")
	fs.IntVar(&cfg.CoverageSamples, "coverage-samples", cfg.CoverageSamples, "coverage integration grid size")
	fs.StringVar(&cfg.Scan, "scan", "", "scan variable (ignites, area-mod, duration; empty = single run)")
	fs.Float64Var(&cfg.ScanFrom, "scan-from", 0, "scan range start (0 with -scan-to 0 = variable default range)")
	fs.Float64Var(&cfg.ScanTo, "scan-to", 0, "scan range end")
	fs.IntVar(&cfg.ScanSteps, "scan-steps", 11, "number of scan steps")
	fs.StringVar(&cfg.Chart, "chart", "", "write a PNG chart to this path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	parsed, err := parseHitboxes(hitboxes)
	if err != nil {
		return Config{}, err
	}
	cfg.Hitboxes = parsed
	return cfg, nil
}

func parseHitboxes(list string) ([]float64, error) {
	parts := strings.Split(list, ",")
	radii := make([]float64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		value, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("parse hitbox radius %q: %w", trimmed, err)
		}
		radii = append(radii, value)
	}
	return radii, nil
}

// Run executes the firestorm command. The report goes to out; status
// messages go to errOut so scan output stays machine-readable.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	base, err := engineConfig(cfg)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFirestorm, func(ctx context.Context) error {
		if cfg.Scan == "" {
			return runSingle(ctx, cfg, base, out, errOut)
		}
		return runScan(ctx, cfg, base, out, errOut)
	})
}

// engineConfig maps command configuration onto an engine Config, converting
// the area modifier from percent and drawing a crypto seed when none was
// pinned.
func engineConfig(cfg Config) (storm.Config, error) {
	base := storm.Config{
		Ignites:         cfg.Ignites,
		Hitboxes:        cfg.Hitboxes,
		AreaMod:         cfg.AreaModPct / 100,
		Duration:        cfg.Duration,
		Trials:          cfg.Trials,
		StormRadius:     cfg.StormRadius,
		BoltRadius:      cfg.BoltRadius,
		ImprovedRadius:  cfg.ImprovedRadius,
		Frequency:       cfg.Frequency,
		CoverageSamples: cfg.CoverageSamples,
		Seed:            cfg.Seed,
	}
	if base.Seed == 0 {
		seed, err := random.NewSeed()
		if err != nil {
			return storm.Config{}, err
		}
		base.Seed = seed
	}
	return base, nil
}

func runSingle(ctx context.Context, cfg Config, base storm.Config, out, errOut io.Writer) error {
	_, span := otel.Tracer(entrypoint.ServiceFirestorm).Start(ctx, "storm.simulate",
		trace.WithAttributes(attribute.Int("storm.trials", base.Trials)))
	defer span.End()

	res, err := storm.Simulate(base)
	if err != nil {
		return err
	}
	writeReport(out, base.Seed, res)

	if cfg.Chart == "" {
		return nil
	}
	if err := writeRunChart(cfg.Chart, res); err != nil {
		return err
	}
	fmt.Fprintf(errOut, "chart written to %s\n", cfg.Chart)
	return nil
}

func runScan(ctx context.Context, cfg Config, base storm.Config, out, errOut io.Writer) error {
	variable, err := scanVariable(cfg.Scan)
	if err != nil {
		return err
	}
	from, to := scanRange(variable, cfg.ScanFrom, cfg.ScanTo)

	_, span := otel.Tracer(entrypoint.ServiceFirestorm).Start(ctx, "storm.scan",
		trace.WithAttributes(
			attribute.String("storm.scan_variable", variable.String()),
			attribute.Int("storm.scan_steps", cfg.ScanSteps),
		))
	defer span.End()

	points, err := storm.Scan(storm.ScanRequest{
		Base:     base,
		Variable: variable,
		From:     from,
		To:       to,
		Steps:    cfg.ScanSteps,
	})
	if err != nil {
		return err
	}
	writeScanCSV(out, variable, points)

	if cfg.Chart == "" {
		return nil
	}
	if err := writeScanChart(cfg.Chart, variable, points); err != nil {
		return err
	}
	fmt.Fprintf(errOut, "chart written to %s\n", cfg.Chart)
	return nil
}

func scanVariable(name string) (storm.ScanVariable, error) {
	switch name {
	case "ignites":
		return storm.ScanIgnites, nil
	case "area-mod":
		return storm.ScanAreaMod, nil
	case "duration":
		return storm.ScanDuration, nil
	default:
		return 0, fmt.Errorf("unknown scan variable %q (valid variables: ignites, area-mod, duration)", name)
	}
}

// scanRange resolves the sweep endpoints in engine units. Area modifier
// flags arrive in percent; when both endpoints are zero the variable's
// stock range applies.
func scanRange(variable storm.ScanVariable, from, to float64) (float64, float64) {
	if from == 0 && to == 0 {
		switch variable {
		case storm.ScanIgnites:
			return 0, 12
		case storm.ScanAreaMod:
			return -0.9, 1.0
		case storm.ScanDuration:
			return 1, 12
		}
	}
	if variable == storm.ScanAreaMod {
		return from / 100, to / 100
	}
	return from, to
}

// writeReport prints the run summary: scaled radii, bolt allocation, then
// per-hitbox hit statistics sorted by radius and the coverage estimate.
func writeReport(out io.Writer, seed int64, res storm.Result) {
	fmt.Fprintf(out, "Storm %.2fm, bolts %.2fm ordinary / %.2fm improved (seed %d)\n",
		res.Radii.Storm, res.Radii.Bolt, res.Radii.Improved, seed)
	scheduled := res.Allocation.Improved + res.Allocation.Ordinary
	fmt.Fprintf(out, "%d bolts scheduled: %d improved, %d ordinary\n",
		scheduled, res.Allocation.Improved, res.Allocation.Ordinary)
	for _, hb := range sortedHitboxes(res.Hitboxes) {
		fmt.Fprintf(out, "%.2fm -> Ord %.2f±%.2f, Imp %.2f±%.2f\n",
			hb.Radius, hb.Ordinary.Mean, hb.Ordinary.SEM, hb.Improved.Mean, hb.Improved.SEM)
	}
	fmt.Fprintf(out, "Coverage Ord %.1f±%.1f%%, Imp %.1f±%.1f%%\n",
		res.CoverageOrdinary.Mean*100, res.CoverageOrdinary.SEM*100,
		res.CoverageImproved.Mean*100, res.CoverageImproved.SEM*100)
}

// sortedHitboxes returns the statistics ordered by ascending radius without
// touching the engine's slice.
func sortedHitboxes(stats []storm.HitboxStats) []storm.HitboxStats {
	sorted := append([]storm.HitboxStats(nil), stats...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Radius < sorted[j].Radius })
	return sorted
}

// writeScanCSV prints one row per sweep step. The value column shows the
// area modifier in percent, mirroring the flag units.
func writeScanCSV(out io.Writer, variable storm.ScanVariable, points []storm.ScanPoint) {
	fmt.Fprintln(out, "value,Ord_mean,Ord_err,Imp_mean,Imp_err")
	for _, p := range points {
		value := p.Value
		if variable == storm.ScanAreaMod {
			value *= 100
		}
		fmt.Fprintf(out, "%.3f,%.3f,%.3f,%.3f,%.3f\n",
			value, p.Ordinary.Mean, p.Ordinary.SEM, p.Improved.Mean, p.Improved.SEM)
	}
}
