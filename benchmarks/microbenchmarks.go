package benchmarks

import "github.com/sarchlab/rvemu/emu"

// Register numbers used by the benchmark programs.
const (
	zero = uint8(emu.RegZero)
	ra   = uint8(emu.RegRA)
	sp   = uint8(emu.RegSP)
	a0   = uint8(emu.RegA0)
	a1   = uint8(emu.RegA1)
	a2   = uint8(emu.RegA2)
	a3   = uint8(emu.RegA3)
	a4   = uint8(emu.RegA4)
	a5   = uint8(emu.RegA5)
	fa0  = uint8(10)
	fa1  = uint8(11)
)

// exitSetup prepares a7 for the exit system call every program ends with.
func exitSetup(state *emu.State, _ *emu.Memory) {
	state.X[emu.RegA7] = emu.SyscallExit
}

// GetMicrobenchmarks returns the standard set of interpreter microbenchmarks.
// Each benchmark stresses a different part of the dispatch loop.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchLoop(),
		mulDiv(),
		floatingPoint(),
		loopSum(),
	}
}

// GetCoreBenchmarks returns a minimal set of benchmarks for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSum(),
		functionCalls(),
		branchLoop(),
	}
}

// 1. Arithmetic Sequential - independent immediate adds
func arithmeticSequential() Benchmark {
	instrs := make([]uint32, 0, 21)
	for i := 0; i < 4; i++ {
		for _, rd := range []uint8{a0, a1, a2, a3, a4} {
			instrs = append(instrs, EncodeADDI(rd, rd, 1))
		}
	}
	instrs = append(instrs, EncodeECALL())

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDI operations over five registers",
		Setup:        exitSetup,
		Program:      BuildProgram(instrs...),
		ExpectedExit: 4,
	}
}

// 2. Dependency Chain - every add reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIs (a0 = a0 + 1)",
		Setup:        exitSetup,
		Program:      buildDependencyChain(20),
		ExpectedExit: 20,
	}
}

func buildDependencyChain(n int) []byte {
	instrs := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		instrs = append(instrs, EncodeADDI(a0, a0, 1))
	}
	instrs = append(instrs, EncodeECALL())
	return BuildProgram(instrs...)
}

// 3. Memory Sequential - store/load pairs below the stack pointer
func memorySequential() Benchmark {
	instrs := make([]uint32, 0, 21)
	for i := int32(1); i <= 10; i++ {
		instrs = append(instrs, EncodeSD(a0, sp, -8*i), EncodeLD(a0, sp, -8*i))
	}
	instrs = append(instrs, EncodeECALL())

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs to sequential stack slots",
		Setup: func(state *emu.State, memory *emu.Memory) {
			exitSetup(state, memory)
			state.X[emu.RegA0] = 42
		},
		Program:      BuildProgram(instrs...),
		ExpectedExit: 42,
	}
}

// 4. Function Calls - JAL/RET pairs
func functionCalls() Benchmark {
	const calls = 5
	const funcOffset = (calls + 1) * 4

	instrs := make([]uint32, 0, calls+3)
	for i := int32(0); i < calls; i++ {
		instrs = append(instrs, EncodeJAL(ra, funcOffset-4*i))
	}
	instrs = append(instrs,
		EncodeECALL(),
		EncodeADDI(a0, a0, 1), // func:
		EncodeRET(),
	)

	return Benchmark{
		Name:         "function_calls",
		Description:  "5 calls to a leaf function that increments a0",
		Setup:        exitSetup,
		Program:      BuildProgram(instrs...),
		ExpectedExit: calls,
	}
}

// 5. Branch Loop - a counted loop closed by BNE
func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "10 iterations of a counted loop",
		Setup:       exitSetup,
		Program: BuildProgram(
			EncodeADDI(a1, zero, 10),
			EncodeADDI(a0, a0, 1), // loop:
			EncodeADDI(a1, a1, -1),
			EncodeBNE(a1, zero, -8),
			EncodeECALL(),
		),
		ExpectedExit: 10,
	}
}

// 6. Multiply/Divide - M extension throughput
func mulDiv() Benchmark {
	return Benchmark{
		Name:        "mul_div",
		Description: "MUL, DIV and REM on small operands",
		Setup:       exitSetup,
		Program: BuildProgram(
			EncodeADDI(a1, zero, 7),
			EncodeADDI(a2, zero, 6),
			EncodeMUL(a0, a1, a2), // 42
			EncodeADDI(a3, zero, 5),
			EncodeDIV(a4, a0, a3), // 8
			EncodeREM(a5, a0, a3), // 2
			EncodeADD(a0, a4, a5),
			EncodeECALL(),
		),
		ExpectedExit: 10,
	}
}

// 7. Floating Point - D extension arithmetic and conversions
func floatingPoint() Benchmark {
	return Benchmark{
		Name:        "floating_point",
		Description: "FADD.D and FMUL.D with integer conversions",
		Setup:       exitSetup,
		Program: BuildProgram(
			EncodeADDI(a1, zero, 3),
			EncodeFCVTDL(fa1, a1),
			EncodeFADDD(fa0, fa1, fa1), // 6.0
			EncodeFMULD(fa0, fa0, fa1), // 18.0
			EncodeFCVTLD(a0, fa0),
			EncodeECALL(),
		),
		ExpectedExit: 18,
	}
}

// 8. Loop Sum - a long-running loop that keeps the decode cache hot
func loopSum() Benchmark {
	return Benchmark{
		Name:        "loop_sum",
		Description: "sum of 1..1000 in a three-instruction loop",
		Setup:       exitSetup,
		Program: BuildProgram(
			EncodeADDI(a1, zero, 1000),
			EncodeADD(a0, a0, a1), // loop:
			EncodeADDI(a1, a1, -1),
			EncodeBNE(a1, zero, -8),
			EncodeECALL(),
		),
		ExpectedExit: 500500,
	}
}
