// Package benchmarks provides interpreter throughput benchmarks for rvemu.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rvemu/emu"
)

// ProgramAddr is where benchmark programs are loaded.
const ProgramAddr = uint64(0x10000)

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Instructions is the number of executed instructions
	Instructions uint64 `json:"instructions"`

	// ExitCode is the program's exit code
	ExitCode int64 `json:"exit_code"`

	// Passed reports whether ExitCode matched the expected value
	Passed bool `json:"passed"`

	// Error is set when the run failed before the program exited
	Error string `json:"error,omitempty"`

	// Decode cache stats (if cache enabled)
	DecodeHits   uint64 `json:"decode_hits,omitempty"`
	DecodeMisses uint64 `json:"decode_misses,omitempty"`

	// WallTime is the actual time taken to run the program
	WallTime time.Duration `json:"wall_time_ns"`
}

// MIPS returns the emulation speed in millions of instructions per second.
func (r BenchmarkResult) MIPS() float64 {
	if r.WallTime <= 0 {
		return 0
	}
	return float64(r.Instructions) / r.WallTime.Seconds() / 1e6
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the emulator state after the program and stack are in
	// place (e.g., initialize registers, memory)
	Setup func(state *emu.State, memory *emu.Memory)

	// Program is the RV64 machine code to execute
	Program []byte

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit int64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// DecodeCacheSets and DecodeCacheWays set the decode cache geometry.
	// Zero sets disable the cache.
	DecodeCacheSets int
	DecodeCacheWays int

	// WindowSize and StackSize size the guest address space.
	WindowSize uint64
	StackSize  uint64

	// MaxInstructions bounds every run
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		DecodeCacheSets: emu.DefaultDecodeCacheSets,
		DecodeCacheWays: emu.DefaultDecodeCacheWays,
		WindowSize:      64 << 20,
		StackSize:       1 << 20,
		MaxInstructions: 10_000_000,
		Output:          os.Stdout,
		Verbose:         false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
	logger     *logrus.Logger
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	logger := logrus.New()
	logger.SetOutput(config.Output)
	logger.SetLevel(logrus.WarnLevel)
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
		logger:     logger,
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark in a fresh emulator.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	e, err := emu.NewEmulator(
		emu.WithStdout(io.Discard),
		emu.WithStderr(io.Discard),
		emu.WithLogger(h.logger),
		emu.WithWindowSize(h.config.WindowSize),
		emu.WithStackSize(h.config.StackSize),
		emu.WithMaxInstructions(h.config.MaxInstructions),
		emu.WithDecodeCache(h.config.DecodeCacheSets, h.config.DecodeCacheWays),
	)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer func() { _ = e.Close() }()

	if err := e.LoadProgram(ProgramAddr, bench.Program); err != nil {
		result.Error = err.Error()
		return result
	}
	if err := e.SetupStack([]string{bench.Name}); err != nil {
		result.Error = err.Error()
		return result
	}
	if bench.Setup != nil {
		bench.Setup(e.State(), e.Memory())
	}

	start := time.Now()
	exitCode, err := e.Run()
	result.WallTime = time.Since(start)

	result.Instructions = e.InstructionCount()
	result.ExitCode = exitCode
	if err != nil {
		result.Error = err.Error()
	}
	result.Passed = err == nil && exitCode == bench.ExpectedExit

	if cache := e.DecodeCache(); cache != nil {
		stats := cache.Stats()
		result.DecodeHits = stats.Hits
		result.DecodeMisses = stats.Misses
	}

	h.logger.WithFields(logrus.Fields{
		"benchmark":    bench.Name,
		"instructions": result.Instructions,
		"exit_code":    exitCode,
	}).Debug("benchmark finished")

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== rvemu Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Exit Code: %d\n", r.ExitCode)
		_, _ = fmt.Fprintf(h.config.Output, "  Passed: %v\n", r.Passed)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions: %d\n", r.Instructions)

		if r.DecodeHits > 0 || r.DecodeMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Decode Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DecodeHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DecodeMisses)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintf(h.config.Output, "  MIPS: %.2f\n", r.MIPS())
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,exit_code,passed,decode_hits,decode_misses,wall_time_ns,mips")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%v,%d,%d,%d,%.3f\n",
			r.Name,
			r.Instructions,
			r.ExitCode,
			r.Passed,
			r.DecodeHits,
			r.DecodeMisses,
			r.WallTime.Nanoseconds(),
			r.MIPS(),
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	DecodeCacheSets int `json:"decode_cache_sets"`
	DecodeCacheWays int `json:"decode_cache_ways"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Passed is the number of benchmarks with the expected exit code
	Passed int `json:"passed"`

	// TotalInstructions is the sum of all executed instructions
	TotalInstructions uint64 `json:"total_instructions"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		summary.TotalInstructions += r.Instructions
		summary.TotalWallTime += r.WallTime
		if r.Passed {
			summary.Passed++
		}
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				DecodeCacheSets: h.config.DecodeCacheSets,
				DecodeCacheWays: h.config.DecodeCacheWays,
			},
		},
		Results: results,
		Summary: summary,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
