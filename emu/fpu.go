package emu

import (
	"math"

	"github.com/sarchlab/rvemu/insts"
)

// Canonical quiet NaNs.
const (
	canonicalNaN32 = uint32(0x7fc00000)
	canonicalNaN64 = uint64(0x7ff8000000000000)
)

// Rounding modes of the rm field. Dynamic rounding reads frm, which is
// always zero here.
const (
	rmRNE = 0
	rmRTZ = 1
	rmRDN = 2
	rmRUP = 3
	rmRMM = 4
)

func (s *State) setF32(reg int8, v float32) {
	if math.IsNaN(float64(v)) {
		s.writeF32Bits(reg, canonicalNaN32)
		return
	}
	s.WriteF32(reg, v)
}

func (s *State) setF64(reg int8, v float64) {
	if math.IsNaN(v) {
		s.F[reg] = canonicalNaN64
		return
	}
	s.WriteF64(reg, v)
}

// FCLASS result bits.
const (
	classNegInf = 1 << iota
	classNegNormal
	classNegSubnormal
	classNegZero
	classPosZero
	classPosSubnormal
	classPosNormal
	classPosInf
	classSignalingNaN
	classQuietNaN
)

func classify(negative bool, exp, expMax, frac, quietBit uint64) uint64 {
	switch {
	case exp == expMax && frac == 0:
		if negative {
			return classNegInf
		}
		return classPosInf
	case exp == expMax:
		if frac&quietBit != 0 {
			return classQuietNaN
		}
		return classSignalingNaN
	case exp == 0 && frac == 0:
		if negative {
			return classNegZero
		}
		return classPosZero
	case exp == 0:
		if negative {
			return classNegSubnormal
		}
		return classPosSubnormal
	case negative:
		return classNegNormal
	default:
		return classPosNormal
	}
}

func classify32(bits uint32) uint64 {
	return classify(bits>>31 != 0, uint64(bits>>23)&0xff, 0xff,
		uint64(bits)&0x7fffff, 1<<22)
}

func classify64(bits uint64) uint64 {
	return classify(bits>>63 != 0, (bits>>52)&0x7ff, 0x7ff,
		bits&(1<<52-1), 1<<51)
}

// fsgnj combines the magnitude of a with a sign taken from b, from the
// inverse of b, or from the xor of both signs.
func fsgnj(a, b, signBit uint64, negate, xor bool) uint64 {
	sign := b & signBit
	switch {
	case negate:
		sign ^= signBit
	case xor:
		sign ^= a & signBit
	}
	return a&^signBit | sign
}

// fminmax implements FMIN and FMAX: a single NaN operand yields the other
// operand, and -0 orders below +0.
func fminmax(a, b float64, isMax bool) (float64, bool) {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0, false
	case aNaN:
		return b, true
	case bNaN:
		return a, true
	case a == 0 && b == 0:
		if math.Signbit(a) == isMax {
			return b, true
		}
		return a, true
	case isMax:
		return math.Max(a, b), true
	default:
		return math.Min(a, b), true
	}
}

func round(v float64, rm uint8) float64 {
	switch rm {
	case rmRTZ:
		return math.Trunc(v)
	case rmRDN:
		return math.Floor(v)
	case rmRUP:
		return math.Ceil(v)
	case rmRMM:
		return math.Round(v)
	default:
		return math.RoundToEven(v)
	}
}

const (
	two63 = float64(1 << 63)
	two64 = 2 * two63
)

// Float to integer conversions saturate, and NaN converts to the largest
// representable value.

func toInt64(v float64, rm uint8) int64 {
	if math.IsNaN(v) {
		return math.MaxInt64
	}
	r := round(v, rm)
	switch {
	case r >= two63:
		return math.MaxInt64
	case r < -two63:
		return math.MinInt64
	}
	return int64(r)
}

func toUint64(v float64, rm uint8) uint64 {
	if math.IsNaN(v) {
		return math.MaxUint64
	}
	r := round(v, rm)
	switch {
	case r >= two64:
		return math.MaxUint64
	case r <= 0:
		return 0
	}
	return uint64(r)
}

func toInt32(v float64, rm uint8) int32 {
	if math.IsNaN(v) {
		return math.MaxInt32
	}
	r := round(v, rm)
	switch {
	case r > math.MaxInt32:
		return math.MaxInt32
	case r < math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}

func toUint32(v float64, rm uint8) uint32 {
	if math.IsNaN(v) {
		return math.MaxUint32
	}
	r := round(v, rm)
	switch {
	case r > math.MaxUint32:
		return math.MaxUint32
	case r <= 0:
		return 0
	}
	return uint32(r)
}

func fpuS2(f func(a, b float32) float32) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.setF32(insn.Rd, f(s.ReadF32(insn.Rs1), s.ReadF32(insn.Rs2)))
	}
}

func fpuD2(f func(a, b float64) float64) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.setF64(insn.Rd, f(s.ReadF64(insn.Rs1), s.ReadF64(insn.Rs2)))
	}
}

// fpuS3 evaluates a single-precision fused op in float64 and rounds the
// result to float32. The product of two singles is exact in float64, but
// the sum is rounded twice, so the last bit can differ from a true
// single-precision FMA.
func fpuS3(f func(a, b, c float64) float64) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		a := float64(s.ReadF32(insn.Rs1))
		b := float64(s.ReadF32(insn.Rs2))
		c := float64(s.ReadF32(insn.Rs3))
		s.setF32(insn.Rd, float32(f(a, b, c)))
	}
}

func fpuD3(f func(a, b, c float64) float64) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.setF64(insn.Rd, f(s.ReadF64(insn.Rs1), s.ReadF64(insn.Rs2), s.ReadF64(insn.Rs3)))
	}
}

func fmadd(a, b, c float64) float64  { return math.FMA(a, b, c) }
func fmsub(a, b, c float64) float64  { return math.FMA(a, b, -c) }
func fnmsub(a, b, c float64) float64 { return math.FMA(-a, b, c) }
func fnmadd(a, b, c float64) float64 { return math.FMA(-a, b, -c) }

// Comparisons involving NaN write zero.
func fcmpS(f func(a, b float32) bool) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.X[insn.Rd] = boolToReg(f(s.ReadF32(insn.Rs1), s.ReadF32(insn.Rs2)))
	}
}

func fcmpD(f func(a, b float64) bool) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.X[insn.Rd] = boolToReg(f(s.ReadF64(insn.Rs1), s.ReadF64(insn.Rs2)))
	}
}

func fsgnjS(negate, xor bool) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		bits := fsgnj(s.F[insn.Rs1]&0xffffffff, s.F[insn.Rs2]&0xffffffff, 1<<31, negate, xor)
		s.writeF32Bits(insn.Rd, uint32(bits))
	}
}

func fsgnjD(negate, xor bool) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.F[insn.Rd] = fsgnj(s.F[insn.Rs1], s.F[insn.Rs2], 1<<63, negate, xor)
	}
}

func fminmaxS(isMax bool) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		v, ok := fminmax(float64(s.ReadF32(insn.Rs1)), float64(s.ReadF32(insn.Rs2)), isMax)
		if !ok {
			s.writeF32Bits(insn.Rd, canonicalNaN32)
			return
		}
		s.WriteF32(insn.Rd, float32(v))
	}
}

func fminmaxD(isMax bool) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		v, ok := fminmax(s.ReadF64(insn.Rs1), s.ReadF64(insn.Rs2), isMax)
		if !ok {
			s.F[insn.Rd] = canonicalNaN64
			return
		}
		s.WriteF64(insn.Rd, v)
	}
}

// fcvtToInt builds the float-to-integer conversions. read widens the source
// register to float64; conv produces the 64-bit register value.
func fcvtToInt(read func(s *State, reg int8) float64, conv func(v float64, rm uint8) uint64) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		s.X[insn.Rd] = conv(read(s, insn.Rs1), insn.Rm)
	}
}

func readS(s *State, reg int8) float64 { return float64(s.ReadF32(reg)) }
func readD(s *State, reg int8) float64 { return s.ReadF64(reg) }

func convW(v float64, rm uint8) uint64  { return uint64(int64(toInt32(v, rm))) }
func convWU(v float64, rm uint8) uint64 { return sext32(uint64(toUint32(v, rm))) }
func convL(v float64, rm uint8) uint64  { return uint64(toInt64(v, rm)) }
func convLU(v float64, rm uint8) uint64 { return toUint64(v, rm) }

func fcvtSFromInt(conv func(x uint64) float32) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		e.state.WriteF32(insn.Rd, conv(e.state.X[insn.Rs1]))
	}
}

func fcvtDFromInt(conv func(x uint64) float64) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		e.state.WriteF64(insn.Rd, conv(e.state.X[insn.Rs1]))
	}
}

func execFSQRTS(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.setF32(insn.Rd, float32(math.Sqrt(float64(s.ReadF32(insn.Rs1)))))
}

func execFSQRTD(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.setF64(insn.Rd, math.Sqrt(s.ReadF64(insn.Rs1)))
}

func execFCVTSD(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.setF32(insn.Rd, float32(s.ReadF64(insn.Rs1)))
}

func execFCVTDS(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.setF64(insn.Rd, float64(s.ReadF32(insn.Rs1)))
}

func execFMVXW(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.X[insn.Rd] = sext32(s.F[insn.Rs1])
}

func execFMVWX(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.writeF32Bits(insn.Rd, uint32(s.X[insn.Rs1]))
}

func execFMVXD(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.X[insn.Rd] = s.F[insn.Rs1]
}

func execFMVDX(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.F[insn.Rd] = s.X[insn.Rs1]
}

func execFCLASSS(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.X[insn.Rd] = classify32(uint32(s.F[insn.Rs1]))
}

func execFCLASSD(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.X[insn.Rd] = classify64(s.F[insn.Rs1])
}

var (
	execFADDS = fpuS2(func(a, b float32) float32 { return a + b })
	execFSUBS = fpuS2(func(a, b float32) float32 { return a - b })
	execFMULS = fpuS2(func(a, b float32) float32 { return a * b })
	execFDIVS = fpuS2(func(a, b float32) float32 { return a / b })
	execFADDD = fpuD2(func(a, b float64) float64 { return a + b })
	execFSUBD = fpuD2(func(a, b float64) float64 { return a - b })
	execFMULD = fpuD2(func(a, b float64) float64 { return a * b })
	execFDIVD = fpuD2(func(a, b float64) float64 { return a / b })

	execFMADDS  = fpuS3(fmadd)
	execFMSUBS  = fpuS3(fmsub)
	execFNMSUBS = fpuS3(fnmsub)
	execFNMADDS = fpuS3(fnmadd)
	execFMADDD  = fpuD3(fmadd)
	execFMSUBD  = fpuD3(fmsub)
	execFNMSUBD = fpuD3(fnmsub)
	execFNMADDD = fpuD3(fnmadd)

	execFSGNJS  = fsgnjS(false, false)
	execFSGNJNS = fsgnjS(true, false)
	execFSGNJXS = fsgnjS(false, true)
	execFSGNJD  = fsgnjD(false, false)
	execFSGNJND = fsgnjD(true, false)
	execFSGNJXD = fsgnjD(false, true)

	execFMINS = fminmaxS(false)
	execFMAXS = fminmaxS(true)
	execFMIND = fminmaxD(false)
	execFMAXD = fminmaxD(true)

	execFEQS = fcmpS(func(a, b float32) bool { return a == b })
	execFLTS = fcmpS(func(a, b float32) bool { return a < b })
	execFLES = fcmpS(func(a, b float32) bool { return a <= b })
	execFEQD = fcmpD(func(a, b float64) bool { return a == b })
	execFLTD = fcmpD(func(a, b float64) bool { return a < b })
	execFLED = fcmpD(func(a, b float64) bool { return a <= b })

	execFCVTWS  = fcvtToInt(readS, convW)
	execFCVTWUS = fcvtToInt(readS, convWU)
	execFCVTLS  = fcvtToInt(readS, convL)
	execFCVTLUS = fcvtToInt(readS, convLU)
	execFCVTWD  = fcvtToInt(readD, convW)
	execFCVTWUD = fcvtToInt(readD, convWU)
	execFCVTLD  = fcvtToInt(readD, convL)
	execFCVTLUD = fcvtToInt(readD, convLU)

	execFCVTSW  = fcvtSFromInt(func(x uint64) float32 { return float32(int32(x)) })
	execFCVTSWU = fcvtSFromInt(func(x uint64) float32 { return float32(uint32(x)) })
	execFCVTSL  = fcvtSFromInt(func(x uint64) float32 { return float32(int64(x)) })
	execFCVTSLU = fcvtSFromInt(func(x uint64) float32 { return float32(x) })
	execFCVTDW  = fcvtDFromInt(func(x uint64) float64 { return float64(int32(x)) })
	execFCVTDWU = fcvtDFromInt(func(x uint64) float64 { return float64(uint32(x)) })
	execFCVTDL  = fcvtDFromInt(func(x uint64) float64 { return float64(int64(x)) })
	execFCVTDLU = fcvtDFromInt(func(x uint64) float64 { return float64(x) })
)
