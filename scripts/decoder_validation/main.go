// Validate decoder performance - measures decode throughput and allocations
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/rvemu/insts"
)

func main() {
	decoder := insts.NewDecoder()

	words := []uint32{
		0x02a00513, // addi a0, zero, 42
		0x02b50533, // mul a0, a0, a1
		0xfe051ce3, // bnez a0, -8
		0x00113423, // sd ra, 8(sp)
		0x02b57553, // fadd.d fa0, fa0, fa1
		0x0000451d, // c.li a0, 7
		0x000060a2, // c.ldsp ra, 8(sp)
		0x00008082, // c.jr ra
	}

	// Warm up
	for i := 0; i < 1000; i++ {
		for _, w := range words {
			if _, err := decoder.Decode(w); err != nil {
				fmt.Printf("decode 0x%08x: %v\n", w, err)
				return
			}
		}
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for _, w := range words {
			_, _ = decoder.Decode(w)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))

	if allocations == 0 {
		fmt.Printf("\nSUCCESS: zero allocations on the decode path\n")
	} else {
		fmt.Printf("\nWARNING: decode path allocates\n")
	}
}
