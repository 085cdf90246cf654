package firestorm

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/louisbranch/firestorm/internal/storm"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("firestorm", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.StormRadius != 5.6 {
		t.Fatalf("expected default storm radius 5.6, got %g", cfg.StormRadius)
	}
	if cfg.Frequency != 10 {
		t.Fatalf("expected default frequency 10, got %g", cfg.Frequency)
	}
	if cfg.CoverageSamples != 1000 {
		t.Fatalf("expected default coverage samples 1000, got %d", cfg.CoverageSamples)
	}
	if cfg.Ignites != 3 {
		t.Fatalf("expected default ignites 3, got %d", cfg.Ignites)
	}
	if !reflect.DeepEqual(cfg.Hitboxes, []float64{0.5, 1.0}) {
		t.Fatalf("expected default hitboxes, got %v", cfg.Hitboxes)
	}
	if cfg.Duration != 6 {
		t.Fatalf("expected default duration 6, got %g", cfg.Duration)
	}
	if cfg.Trials != 1000 {
		t.Fatalf("expected default trials 1000, got %d", cfg.Trials)
	}
	if cfg.ScanSteps != 11 {
		t.Fatalf("expected default scan steps 11, got %d", cfg.ScanSteps)
	}
	if cfg.Scan != "" {
		t.Fatalf("expected single-run mode by default, got scan %q", cfg.Scan)
	}
}

func TestParseConfigEnvAndFlagOverrides(t *testing.T) {
	t.Setenv("FIRESTORM_STORM_RADIUS", "7.5")
	t.Setenv("FIRESTORM_COVERAGE_SAMPLES", "400")

	fs := flag.NewFlagSet("firestorm", flag.ContinueOnError)
	args := []string{"-storm-radius", "9", "-frequency", "12.5"}

	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.StormRadius != 9 {
		t.Fatalf("expected flag storm radius to win over env, got %g", cfg.StormRadius)
	}
	if cfg.CoverageSamples != 400 {
		t.Fatalf("expected env coverage samples, got %d", cfg.CoverageSamples)
	}
	if cfg.Frequency != 12.5 {
		t.Fatalf("expected flag frequency, got %g", cfg.Frequency)
	}
	if cfg.BoltRadius != 1.0 {
		t.Fatalf("expected default bolt radius, got %g", cfg.BoltRadius)
	}
}

func TestParseConfigHitboxList(t *testing.T) {
	fs := flag.NewFlagSet("firestorm", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-hitboxes", " 0.25, 2.5 "})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if !reflect.DeepEqual(cfg.Hitboxes, []float64{0.25, 2.5}) {
		t.Fatalf("expected parsed hitboxes, got %v", cfg.Hitboxes)
	}
}

func TestParseConfigBadHitbox(t *testing.T) {
	fs := flag.NewFlagSet("firestorm", flag.ContinueOnError)

	_, err := ParseConfig(fs, []string{"-hitboxes", "0.5,abc"})
	if err == nil {
		t.Fatal("expected error for malformed hitbox radius")
	}
	if !strings.Contains(err.Error(), `parse hitbox radius "abc"`) {
		t.Fatalf("expected attributable parse error, got %v", err)
	}
}

func TestScanVariableParsing(t *testing.T) {
	tests := []struct {
		name string
		want storm.ScanVariable
	}{
		{"ignites", storm.ScanIgnites},
		{"area-mod", storm.ScanAreaMod},
		{"duration", storm.ScanDuration},
	}
	for _, tc := range tests {
		got, err := scanVariable(tc.name)
		if err != nil {
			t.Fatalf("scanVariable(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("scanVariable(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}

	if _, err := scanVariable("storm"); err == nil {
		t.Fatal("expected error for unknown scan variable")
	}
}

func TestScanRangeDefaults(t *testing.T) {
	tests := []struct {
		variable storm.ScanVariable
		from, to float64
		wantFrom float64
		wantTo   float64
	}{
		{storm.ScanIgnites, 0, 0, 0, 12},
		{storm.ScanAreaMod, 0, 0, -0.9, 1.0},
		{storm.ScanDuration, 0, 0, 1, 12},
		{storm.ScanAreaMod, -50, 50, -0.5, 0.5},
		{storm.ScanDuration, 2, 8, 2, 8},
	}
	for _, tc := range tests {
		gotFrom, gotTo := scanRange(tc.variable, tc.from, tc.to)
		if gotFrom != tc.wantFrom || gotTo != tc.wantTo {
			t.Fatalf("scanRange(%v, %g, %g) = (%g, %g), want (%g, %g)",
				tc.variable, tc.from, tc.to, gotFrom, gotTo, tc.wantFrom, tc.wantTo)
		}
	}
}

func TestEngineConfigMapsFields(t *testing.T) {
	cfg := testCLIConfig()
	cfg.AreaModPct = -50
	cfg.Seed = 7

	base, err := engineConfig(cfg)
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	if base.AreaMod != -0.5 {
		t.Fatalf("expected area mod fraction -0.5, got %g", base.AreaMod)
	}
	if base.Seed != 7 {
		t.Fatalf("expected pinned seed, got %d", base.Seed)
	}
	if base.StormRadius != cfg.StormRadius || base.Trials != cfg.Trials {
		t.Fatalf("expected engine config to mirror command config, got %+v", base)
	}
}

func TestEngineConfigDrawsSeedWhenUnpinned(t *testing.T) {
	cfg := testCLIConfig()
	cfg.Seed = 0

	base, err := engineConfig(cfg)
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	if base.Seed == 0 {
		t.Fatal("expected a drawn seed for seed 0")
	}
}

func TestWriteReportFormat(t *testing.T) {
	res := storm.Result{
		Hitboxes: []storm.HitboxStats{
			{Radius: 1.0, Ordinary: storm.Stat{Mean: 1.234, SEM: 0.04}, Improved: storm.Stat{Mean: 0.56, SEM: 0.02}},
			{Radius: 0.5, Ordinary: storm.Stat{Mean: 2.347, SEM: 0.067}, Improved: storm.Stat{Mean: 0.89, SEM: 0.031}},
		},
		CoverageOrdinary: storm.Stat{Mean: 0.452, SEM: 0.003},
		CoverageImproved: storm.Stat{Mean: 0.331, SEM: 0.002},
		Radii:            storm.ScaledRadii{Storm: 5.6, Bolt: 1.0, Improved: 1.8},
		Allocation:       storm.Allocation{Improved: 15, Ordinary: 45},
	}

	var buf bytes.Buffer
	writeReport(&buf, 42, res)

	want := "Storm 5.60m, bolts 1.00m ordinary / 1.80m improved (seed 42)\n" +
		"60 bolts scheduled: 15 improved, 45 ordinary\n" +
		"0.50m -> Ord 2.35±0.07, Imp 0.89±0.03\n" +
		"1.00m -> Ord 1.23±0.04, Imp 0.56±0.02\n" +
		"Coverage Ord 45.2±0.3%, Imp 33.1±0.2%\n"
	if got := buf.String(); got != want {
		t.Fatalf("report mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if res.Hitboxes[0].Radius != 1.0 {
		t.Fatal("expected report to leave engine hitbox order untouched")
	}
}

func TestWriteScanCSVAreaModInPercent(t *testing.T) {
	points := []storm.ScanPoint{
		{Value: -0.9, Ordinary: storm.Stat{Mean: 0.5, SEM: 0.01}, Improved: storm.Stat{Mean: 0.25, SEM: 0.005}},
		{Value: 0.52, Ordinary: storm.Stat{Mean: 1.5, SEM: 0.02}, Improved: storm.Stat{Mean: 0.75, SEM: 0.015}},
	}

	var buf bytes.Buffer
	writeScanCSV(&buf, storm.ScanAreaMod, points)

	want := "value,Ord_mean,Ord_err,Imp_mean,Imp_err\n" +
		"-90.000,0.500,0.010,0.250,0.005\n" +
		"52.000,1.500,0.020,0.750,0.015\n"
	if got := buf.String(); got != want {
		t.Fatalf("scan csv mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteScanCSVKeepsEngineUnits(t *testing.T) {
	points := []storm.ScanPoint{
		{Value: 2.5, Ordinary: storm.Stat{Mean: 3.0, SEM: 0.1}, Improved: storm.Stat{Mean: 1.0, SEM: 0.05}},
	}

	var buf bytes.Buffer
	writeScanCSV(&buf, storm.ScanDuration, points)

	want := "value,Ord_mean,Ord_err,Imp_mean,Imp_err\n" +
		"2.500,3.000,0.100,1.000,0.050\n"
	if got := buf.String(); got != want {
		t.Fatalf("scan csv mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func testCLIConfig() Config {
	return Config{
		StormRadius:     5.6,
		BoltRadius:      1.0,
		ImprovedRadius:  1.8,
		Frequency:       10,
		CoverageSamples: 100,
		Ignites:         3,
		Hitboxes:        []float64{0.5, 1.0},
		Duration:        6,
		Trials:          20,
		Seed:            11,
		ScanSteps:       3,
	}
}

func TestRunSingleReport(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	var buf bytes.Buffer
	if err := Run(context.Background(), testCLIConfig(), &buf, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 report lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Storm 5.60m, bolts 1.00m ordinary / 1.80m improved (seed 11)" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "60 bolts scheduled: 15 improved, 45 ordinary" {
		t.Fatalf("unexpected allocation line: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "0.50m -> Ord ") {
		t.Fatalf("expected smallest hitbox first, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[4], "Coverage Ord ") {
		t.Fatalf("expected coverage line last, got %q", lines[4])
	}
}

func TestRunSingleDeterministic(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	var first, second bytes.Buffer
	if err := Run(context.Background(), testCLIConfig(), &first, io.Discard); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(context.Background(), testCLIConfig(), &second, io.Discard); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.String() != second.String() {
		t.Fatal("expected identical reports for the same seed")
	}
}

func TestRunScanCSV(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	cfg := testCLIConfig()
	cfg.Scan = "duration"
	cfg.ScanFrom = 2
	cfg.ScanTo = 4
	cfg.ScanSteps = 3

	var buf bytes.Buffer
	if err := Run(context.Background(), cfg, &buf, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "value,Ord_mean,Ord_err,Imp_mean,Imp_err" {
		t.Fatalf("unexpected csv header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2.000,") {
		t.Fatalf("expected first row at duration 2, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "4.000,") {
		t.Fatalf("expected last row at duration 4, got %q", lines[3])
	}
}

func TestRunUnknownScanVariable(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	cfg := testCLIConfig()
	cfg.Scan = "storm"

	err := Run(context.Background(), cfg, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected error for unknown scan variable")
	}
	if !strings.Contains(err.Error(), `unknown scan variable "storm"`) {
		t.Fatalf("expected attributable error, got %v", err)
	}
}

func TestRunSurfacesValidationError(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	cfg := testCLIConfig()
	cfg.Trials = 1

	err := Run(context.Background(), cfg, io.Discard, io.Discard)
	if !errors.Is(err, storm.ErrTooFewTrials) {
		t.Fatalf("expected trial validation error, got %v", err)
	}
}

func TestRunRejectsNonFiniteInput(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	cfg := testCLIConfig()
	cfg.Duration = math.NaN()
	err := Run(context.Background(), cfg, io.Discard, io.Discard)
	if !errors.Is(err, storm.ErrNonPositiveDuration) {
		t.Fatalf("expected duration validation error for NaN, got %v", err)
	}

	cfg = testCLIConfig()
	cfg.AreaModPct = math.NaN()
	err = Run(context.Background(), cfg, io.Discard, io.Discard)
	if !errors.Is(err, storm.ErrAreaModTooLow) {
		t.Fatalf("expected area modifier validation error for NaN, got %v", err)
	}
}

func TestRunNilWriters(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	if err := Run(context.Background(), testCLIConfig(), nil, nil); err != nil {
		t.Fatalf("run with nil writers: %v", err)
	}
}

func TestRunWritesRunChart(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	cfg := testCLIConfig()
	cfg.Chart = filepath.Join(t.TempDir(), "run.png")

	var status bytes.Buffer
	if err := Run(context.Background(), cfg, io.Discard, &status); err != nil {
		t.Fatalf("run: %v", err)
	}

	info, err := os.Stat(cfg.Chart)
	if err != nil {
		t.Fatalf("stat chart: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty chart file")
	}
	if !strings.Contains(status.String(), "chart written to ") {
		t.Fatalf("expected chart status message, got %q", status.String())
	}
}

func TestRunWritesScanChart(t *testing.T) {
	t.Setenv("FIRESTORM_OTEL_ENDPOINT", "")

	cfg := testCLIConfig()
	cfg.Scan = "ignites"
	cfg.ScanFrom = 0
	cfg.ScanTo = 6
	cfg.ScanSteps = 3
	cfg.Chart = filepath.Join(t.TempDir(), "scan.png")

	if err := Run(context.Background(), cfg, io.Discard, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	info, err := os.Stat(cfg.Chart)
	if err != nil {
		t.Fatalf("stat chart: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty chart file")
	}
}
