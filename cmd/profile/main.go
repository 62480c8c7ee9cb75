// Package main provides a profiling wrapper for rvemu to identify interpreter bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rvemu/emu"
	"github.com/sarchlab/rvemu/loader"
)

var (
	cpuProfile    = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile    = flag.String("memprofile", "", "write memory profile to file")
	duration      = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction   = flag.Uint64("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	noDecodeCache = flag.Bool("no-decode-cache", false, "Disable the decoded instruction cache")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.elf> [args...]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	exitCode, instrCount, stats, err := runProfile(prog, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Emulation stopped: %v\n", err)
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Exit code: %d\n", exitCode)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
	if stats.Lookups > 0 {
		fmt.Printf("Decode cache hit rate: %.2f%%\n", 100*float64(stats.Hits)/float64(stats.Lookups))
	}
}

// runProfile runs the program in the functional emulator.
func runProfile(prog *loader.Program, args []string) (int64, uint64, emu.DecodeCacheStats, error) {
	var stats emu.DecodeCacheStats

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	opts := []emu.EmulatorOption{
		emu.WithLogger(logger),
		emu.WithMaxInstructions(*instruction),
	}
	if *noDecodeCache {
		opts = append(opts, emu.WithDecodeCache(0, 0))
	}

	emulator, err := emu.NewEmulator(opts...)
	if err != nil {
		return -1, 0, stats, err
	}
	defer func() { _ = emulator.Close() }()

	if err := emulator.LoadELF(prog); err != nil {
		return -1, 0, stats, err
	}
	if err := emulator.SetupStack(args); err != nil {
		return -1, 0, stats, err
	}

	exitCode, err := emulator.Run()
	if cache := emulator.DecodeCache(); cache != nil {
		stats = cache.Stats()
	}

	return exitCode, emulator.InstructionCount(), stats, err
}
