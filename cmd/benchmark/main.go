// Command benchmark runs the rvemu interpreter benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv              Output results in CSV format (default: human-readable)
//	-json             Output results as a JSON report
//	-no-decode-cache  Disable the decoded instruction cache
//	-core             Run only the core benchmarks
//
// Example:
//
//	# Compare interpreter speed with and without the decode cache
//	go run ./cmd/benchmark -csv > cached.csv
//	go run ./cmd/benchmark -csv -no-decode-cache > uncached.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rvemu/benchmarks"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	noDecodeCache := flag.Bool("no-decode-cache", false, "Disable the decoded instruction cache")
	core := flag.Bool("core", false, "Run only the core benchmarks")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	if *noDecodeCache {
		config.DecodeCacheSets = 0
	}
	config.Output = os.Stdout
	config.Verbose = *verbose

	harness := benchmarks.NewHarness(config)
	if *core {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("rvemu Benchmark Harness")
		fmt.Println("=======================")
		fmt.Printf("Decode cache: %d sets x %d ways\n", config.DecodeCacheSets, config.DecodeCacheWays)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if !r.Passed {
			os.Exit(1)
		}
	}
}
