package emu

import (
	"math"

	"github.com/sarchlab/rvemu/insts"
)

func sext32(v uint64) uint64 {
	return uint64(int64(int32(v)))
}

// aluImm builds the semantics of a register-immediate operation.
func aluImm(f func(a uint64, imm int64) uint64) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.X[insn.Rd] = f(s.X[insn.Rs1], int64(insn.Imm))
	}
}

// aluImmW is aluImm with the result sign-extended from 32 bits.
func aluImmW(f func(a uint64, imm int64) uint64) execFunc {
	return aluImm(func(a uint64, imm int64) uint64 { return sext32(f(a, imm)) })
}

// aluReg builds the semantics of a register-register operation.
func aluReg(f func(a, b uint64) uint64) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.X[insn.Rd] = f(s.X[insn.Rs1], s.X[insn.Rs2])
	}
}

// aluRegW is aluReg with the result sign-extended from 32 bits.
func aluRegW(f func(a, b uint64) uint64) execFunc {
	return aluReg(func(a, b uint64) uint64 { return sext32(f(a, b)) })
}

func boolToReg(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func execLUI(e *Emulator, insn *insts.Instruction) {
	e.state.X[insn.Rd] = uint64(int64(insn.Imm))
}

func execAUIPC(e *Emulator, insn *insts.Instruction) {
	e.state.X[insn.Rd] = e.state.PC + uint64(int64(insn.Imm))
}

// mulhu returns the upper 64 bits of the 128-bit product a*b, built from
// 32-bit partial products.
func mulhu(a, b uint64) uint64 {
	a0, a1 := a&0xffffffff, a>>32
	b0, b1 := b&0xffffffff, b>>32

	t := a1*b0 + (a0*b0)>>32
	lo, hi := t&0xffffffff, t>>32
	t = a0*b1 + lo

	return a1*b1 + hi + t>>32
}

func abs64(v int64) uint64 {
	if v < 0 {
		return -uint64(v)
	}
	return uint64(v)
}

// negHigh negates a 128-bit magnitude given its upper half and whether its
// lower half is zero, returning the new upper half.
func negHigh(hi uint64, loZero bool) uint64 {
	if loZero {
		return ^hi + 1
	}
	return ^hi
}

func mulh(a, b int64) uint64 {
	hi := mulhu(abs64(a), abs64(b))
	if (a < 0) != (b < 0) {
		return negHigh(hi, uint64(a)*uint64(b) == 0)
	}
	return hi
}

func mulhsu(a int64, b uint64) uint64 {
	hi := mulhu(abs64(a), b)
	if a < 0 {
		return negHigh(hi, uint64(a)*b == 0)
	}
	return hi
}

func div64(a, b int64) int64 {
	switch {
	case b == 0:
		return -1
	case a == math.MinInt64 && b == -1:
		return a
	}
	return a / b
}

func divu64(a, b uint64) uint64 {
	if b == 0 {
		return math.MaxUint64
	}
	return a / b
}

func rem64(a, b int64) int64 {
	switch {
	case b == 0:
		return a
	case a == math.MinInt64 && b == -1:
		return 0
	}
	return a % b
}

func remu64(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func div32(a, b int32) int32 {
	switch {
	case b == 0:
		return -1
	case a == math.MinInt32 && b == -1:
		return a
	}
	return a / b
}

func divu32(a, b uint32) uint32 {
	if b == 0 {
		return math.MaxUint32
	}
	return a / b
}

func rem32(a, b int32) int32 {
	switch {
	case b == 0:
		return a
	case a == math.MinInt32 && b == -1:
		return 0
	}
	return a % b
}

func remu32(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

var (
	execADDI  = aluImm(func(a uint64, imm int64) uint64 { return a + uint64(imm) })
	execSLTI  = aluImm(func(a uint64, imm int64) uint64 { return boolToReg(int64(a) < imm) })
	execSLTIU = aluImm(func(a uint64, imm int64) uint64 { return boolToReg(a < uint64(imm)) })
	execXORI  = aluImm(func(a uint64, imm int64) uint64 { return a ^ uint64(imm) })
	execORI   = aluImm(func(a uint64, imm int64) uint64 { return a | uint64(imm) })
	execANDI  = aluImm(func(a uint64, imm int64) uint64 { return a & uint64(imm) })
	execSLLI  = aluImm(func(a uint64, imm int64) uint64 { return a << (imm & 0x3f) })
	execSRLI  = aluImm(func(a uint64, imm int64) uint64 { return a >> (imm & 0x3f) })
	execSRAI  = aluImm(func(a uint64, imm int64) uint64 { return uint64(int64(a) >> (imm & 0x3f)) })

	execADDIW = aluImmW(func(a uint64, imm int64) uint64 { return a + uint64(imm) })
	execSLLIW = aluImmW(func(a uint64, imm int64) uint64 { return a << (imm & 0x1f) })
	execSRLIW = aluImmW(func(a uint64, imm int64) uint64 { return uint64(uint32(a) >> (imm & 0x1f)) })
	execSRAIW = aluImmW(func(a uint64, imm int64) uint64 { return uint64(int32(a) >> (imm & 0x1f)) })

	execADD  = aluReg(func(a, b uint64) uint64 { return a + b })
	execSUB  = aluReg(func(a, b uint64) uint64 { return a - b })
	execSLL  = aluReg(func(a, b uint64) uint64 { return a << (b & 0x3f) })
	execSLT  = aluReg(func(a, b uint64) uint64 { return boolToReg(int64(a) < int64(b)) })
	execSLTU = aluReg(func(a, b uint64) uint64 { return boolToReg(a < b) })
	execXOR  = aluReg(func(a, b uint64) uint64 { return a ^ b })
	execSRL  = aluReg(func(a, b uint64) uint64 { return a >> (b & 0x3f) })
	execSRA  = aluReg(func(a, b uint64) uint64 { return uint64(int64(a) >> (b & 0x3f)) })
	execOR   = aluReg(func(a, b uint64) uint64 { return a | b })
	execAND  = aluReg(func(a, b uint64) uint64 { return a & b })

	execMUL    = aluReg(func(a, b uint64) uint64 { return a * b })
	execMULH   = aluReg(func(a, b uint64) uint64 { return mulh(int64(a), int64(b)) })
	execMULHSU = aluReg(func(a, b uint64) uint64 { return mulhsu(int64(a), b) })
	execMULHU  = aluReg(mulhu)
	execDIV    = aluReg(func(a, b uint64) uint64 { return uint64(div64(int64(a), int64(b))) })
	execDIVU   = aluReg(divu64)
	execREM    = aluReg(func(a, b uint64) uint64 { return uint64(rem64(int64(a), int64(b))) })
	execREMU   = aluReg(remu64)

	execADDW  = aluRegW(func(a, b uint64) uint64 { return a + b })
	execSUBW  = aluRegW(func(a, b uint64) uint64 { return a - b })
	execSLLW  = aluRegW(func(a, b uint64) uint64 { return a << (b & 0x1f) })
	execSRLW  = aluRegW(func(a, b uint64) uint64 { return uint64(uint32(a) >> (b & 0x1f)) })
	execSRAW  = aluRegW(func(a, b uint64) uint64 { return uint64(int32(a) >> (b & 0x1f)) })
	execMULW  = aluRegW(func(a, b uint64) uint64 { return a * b })
	execDIVW  = aluRegW(func(a, b uint64) uint64 { return uint64(div32(int32(a), int32(b))) })
	execDIVUW = aluRegW(func(a, b uint64) uint64 { return uint64(divu32(uint32(a), uint32(b))) })
	execREMW  = aluRegW(func(a, b uint64) uint64 { return uint64(rem32(int32(a), int32(b))) })
	execREMUW = aluRegW(func(a, b uint64) uint64 { return uint64(remu32(uint32(a), uint32(b))) })
)
