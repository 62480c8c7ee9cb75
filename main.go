// Package main provides the entry point for rvemu.
// rvemu is a user-mode RV64GC emulator for statically linked Linux programs.
//
// For the full CLI, use: go run ./cmd/rvemu
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rvemu - RV64GC User-Mode Emulator")
	fmt.Println("")
	fmt.Println("Usage: rvemu [options] <program.elf> [args...]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config           Path to configuration JSON file")
	fmt.Println("  -v                Verbose output")
	fmt.Println("  -trace            Log every executed instruction")
	fmt.Println("  -max-insts        Stop after this many instructions")
	fmt.Println("  -no-decode-cache  Disable the decoded instruction cache")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvemu' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvemu' instead.")
	}
}
