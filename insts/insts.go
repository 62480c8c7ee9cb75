// Package insts provides RV64GC instruction definitions and decoding.
//
// This package implements decoding of RISC-V machine code into structured
// instruction representations. It supports:
//   - RV64I base integer instructions, including the W-suffixed 32-bit forms
//   - M extension: multiply, divide and remainder
//   - F and D extensions: single and double precision floating point
//   - Zicsr and Zifencei: CSR access (stubbed by the emulator) and FENCE.I
//   - C extension: every RV64C form is expanded to its base instruction
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x02a00513) // addi a0, zero, 42
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts
