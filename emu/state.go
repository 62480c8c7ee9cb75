// Package emu provides functional RV64GC user-mode emulation.
package emu

import "math"

// Integer register indices by ABI name.
const (
	RegZero int8 = iota
	RegRA
	RegSP
	RegGP
	RegTP
	RegT0
	RegT1
	RegT2
	RegS0
	RegS1
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegS8
	RegS9
	RegS10
	RegS11
	RegT3
	RegT4
	RegT5
	RegT6
)

// ExitReason records why straight-line execution of a block stopped.
type ExitReason uint8

// Exit reasons.
const (
	ExitNone ExitReason = iota
	ExitDirectBranch
	ExitIndirectBranch
	ExitSystemCall
)

func (r ExitReason) String() string {
	switch r {
	case ExitNone:
		return "none"
	case ExitDirectBranch:
		return "direct-branch"
	case ExitIndirectBranch:
		return "indirect-branch"
	case ExitSystemCall:
		return "system-call"
	default:
		return "invalid"
	}
}

// nanBoxMask fills the upper half of a float register holding a single.
const nanBoxMask = uint64(0xffffffff) << 32

// State is the architectural state of the single emulated hart.
type State struct {
	// X holds integer registers x0-x31. x0 is cleared after every
	// instruction by the interpreter loop, so writes to it are discarded.
	X [32]uint64

	// F holds the raw bits of floating-point registers f0-f31. Single
	// precision values are NaN-boxed in the low half.
	F [32]uint64

	// PC is the address of the instruction being executed.
	PC uint64

	// ReenterPC is where execution continues after a control transfer.
	ReenterPC uint64

	// ExitReason is set by control-transfer instructions.
	ExitReason ExitReason
}

// ReadReg reads an integer register.
func (s *State) ReadReg(reg int8) uint64 {
	return s.X[reg]
}

// WriteReg writes an integer register.
func (s *State) WriteReg(reg int8, value uint64) {
	s.X[reg] = value
}

// ReadF32 reads the single-precision value in the low half of a float register.
func (s *State) ReadF32(reg int8) float32 {
	return math.Float32frombits(uint32(s.F[reg]))
}

// WriteF32 writes a single-precision value, NaN-boxing it.
func (s *State) WriteF32(reg int8, value float32) {
	s.writeF32Bits(reg, math.Float32bits(value))
}

func (s *State) writeF32Bits(reg int8, bits uint32) {
	s.F[reg] = nanBoxMask | uint64(bits)
}

// ReadF64 reads a double-precision register.
func (s *State) ReadF64(reg int8) float64 {
	return math.Float64frombits(s.F[reg])
}

// WriteF64 writes a double-precision register.
func (s *State) WriteF64(reg int8, value float64) {
	s.F[reg] = math.Float64bits(value)
}
