package insts

import "fmt"

// Major opcodes of the standard 32-bit encoding space, bits [6:2].
const (
	opcodeLoad    = 0x00
	opcodeLoadFP  = 0x01
	opcodeMiscMem = 0x03
	opcodeOpImm   = 0x04
	opcodeAUIPC   = 0x05
	opcodeOpImm32 = 0x06
	opcodeStore   = 0x08
	opcodeStoreFP = 0x09
	opcodeOp      = 0x0c
	opcodeLUI     = 0x0d
	opcodeOp32    = 0x0e
	opcodeMAdd    = 0x10
	opcodeMSub    = 0x11
	opcodeNMSub   = 0x12
	opcodeNMAdd   = 0x13
	opcodeOpFP    = 0x14
	opcodeBranch  = 0x18
	opcodeJALR    = 0x19
	opcodeJAL     = 0x1b
	opcodeSystem  = 0x1c
	wordECALL     = 0x00000073
	wordEBREAK    = 0x00100073
)

// Instruction represents a decoded RISC-V instruction.
type Instruction struct {
	Op Op // Operation

	// Operand registers. Rs1, Rs2 and Rs3 index the floating-point file for
	// F/D operations that read float sources; Rd does so for float results.
	Rd  int8
	Rs1 int8
	Rs2 int8
	Rs3 int8

	Imm int32 // Sign-extended immediate
	Csr int16 // CSR index, CSR instructions only
	Rm  uint8 // Rounding mode field of floating-point instructions

	IsCompressed      bool // Encoded in 16 bits; the PC advances by 2
	IsControlTransfer bool // Straight-line execution stops after this instruction
}

// Size returns the encoded length of the instruction in bytes.
func (i *Instruction) Size() uint64 {
	if i.IsCompressed {
		return 2
	}
	return 4
}

// DecodeError reports a bit pattern outside the supported encodings, or one
// that violates an encoding rule of the ISA.
type DecodeError struct {
	Word   uint32
	Reason string
}

func (e *DecodeError) Error() string {
	if Quadrant(e.Word) != 0x3 {
		return fmt.Sprintf("cannot decode compressed instruction 0x%04x: %s", uint16(e.Word), e.Reason)
	}
	return fmt.Sprintf("cannot decode instruction 0x%08x: %s", e.Word, e.Reason)
}

func decodeErr(word uint32, format string, args ...interface{}) error {
	return &DecodeError{Word: word, Reason: fmt.Sprintf(format, args...)}
}

// Decoder decodes RISC-V machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV64GC instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes an instruction word. A compressed instruction occupies the
// low 16 bits; the upper half is ignored.
func (d *Decoder) Decode(word uint32) (Instruction, error) {
	if Quadrant(word) != 0x3 {
		return d.decodeCompressed(uint16(word))
	}
	return d.decodeStandard(word)
}

func (d *Decoder) decodeStandard(word uint32) (Instruction, error) {
	switch Opcode(word) {
	case opcodeLoad:
		return d.decodeLoad(word)
	case opcodeLoadFP:
		return d.decodeLoadFP(word)
	case opcodeMiscMem:
		return d.decodeMiscMem(word)
	case opcodeOpImm:
		return d.decodeOpImm(word)
	case opcodeAUIPC:
		return Instruction{Op: OpAUIPC, Rd: Rd(word), Imm: ImmU(word)}, nil
	case opcodeOpImm32:
		return d.decodeOpImm32(word)
	case opcodeStore:
		return d.decodeStore(word)
	case opcodeStoreFP:
		return d.decodeStoreFP(word)
	case opcodeOp:
		return d.decodeOp(word)
	case opcodeLUI:
		return Instruction{Op: OpLUI, Rd: Rd(word), Imm: ImmU(word)}, nil
	case opcodeOp32:
		return d.decodeOp32(word)
	case opcodeMAdd, opcodeMSub, opcodeNMSub, opcodeNMAdd:
		return d.decodeFused(word)
	case opcodeOpFP:
		return d.decodeOpFP(word)
	case opcodeBranch:
		return d.decodeBranch(word)
	case opcodeJALR:
		if Funct3(word) != 0 {
			return Instruction{}, decodeErr(word, "jalr funct3 %d", Funct3(word))
		}
		return Instruction{
			Op: OpJALR, Rd: Rd(word), Rs1: Rs1(word), Imm: ImmI(word),
			IsControlTransfer: true,
		}, nil
	case opcodeJAL:
		return Instruction{
			Op: OpJAL, Rd: Rd(word), Imm: ImmJ(word),
			IsControlTransfer: true,
		}, nil
	case opcodeSystem:
		return d.decodeSystem(word)
	default:
		return Instruction{}, decodeErr(word, "unsupported major opcode 0x%02x", Opcode(word))
	}
}

// iType builds the common I-type record.
func iType(op Op, word uint32) Instruction {
	return Instruction{Op: op, Rd: Rd(word), Rs1: Rs1(word), Imm: ImmI(word)}
}

// sType builds the common S-type record.
func sType(op Op, word uint32) Instruction {
	return Instruction{Op: op, Rs1: Rs1(word), Rs2: Rs2(word), Imm: ImmS(word)}
}

// rType builds the common R-type record.
func rType(op Op, word uint32) Instruction {
	return Instruction{
		Op: op, Rd: Rd(word), Rs1: Rs1(word), Rs2: Rs2(word),
		Rm: uint8(Funct3(word)),
	}
}

var loadOps = [8]Op{OpLB, OpLH, OpLW, OpLD, OpLBU, OpLHU, OpLWU}

func (d *Decoder) decodeLoad(word uint32) (Instruction, error) {
	funct3 := Funct3(word)
	if funct3 == 0x7 {
		return Instruction{}, decodeErr(word, "load funct3 %d", funct3)
	}
	return iType(loadOps[funct3], word), nil
}

func (d *Decoder) decodeLoadFP(word uint32) (Instruction, error) {
	switch Funct3(word) {
	case 0x2:
		return iType(OpFLW, word), nil
	case 0x3:
		return iType(OpFLD, word), nil
	default:
		return Instruction{}, decodeErr(word, "floating-point load width %d", Funct3(word))
	}
}

func (d *Decoder) decodeMiscMem(word uint32) (Instruction, error) {
	switch Funct3(word) {
	case 0x0:
		return Instruction{Op: OpFENCE}, nil
	case 0x1:
		return Instruction{Op: OpFENCEI}, nil
	default:
		return Instruction{}, decodeErr(word, "misc-mem funct3 %d", Funct3(word))
	}
}

func (d *Decoder) decodeOpImm(word uint32) (Instruction, error) {
	inst := iType(OpADDI, word)

	switch Funct3(word) {
	case 0x0:
		inst.Op = OpADDI
	case 0x1:
		if inst.Imm>>6 != 0 {
			return Instruction{}, decodeErr(word, "slli with imm[11:6]=0x%x", inst.Imm>>6)
		}
		inst.Op = OpSLLI
	case 0x2:
		inst.Op = OpSLTI
	case 0x3:
		inst.Op = OpSLTIU
	case 0x4:
		inst.Op = OpXORI
	case 0x5:
		switch inst.Imm >> 6 {
		case 0x00:
			inst.Op = OpSRLI
		case 0x10:
			inst.Op = OpSRAI
		default:
			return Instruction{}, decodeErr(word, "shift-right with imm[11:6]=0x%x", inst.Imm>>6)
		}
		inst.Imm &= 0x3f
	case 0x6:
		inst.Op = OpORI
	case 0x7:
		inst.Op = OpANDI
	}

	return inst, nil
}

func (d *Decoder) decodeOpImm32(word uint32) (Instruction, error) {
	inst := iType(OpADDIW, word)

	switch Funct3(word) {
	case 0x0:
		return inst, nil
	case 0x1:
		if Funct7(word) != 0 {
			return Instruction{}, decodeErr(word, "slliw funct7 0x%x", Funct7(word))
		}
		inst.Op = OpSLLIW
	case 0x5:
		switch Funct7(word) {
		case 0x00:
			inst.Op = OpSRLIW
		case 0x20:
			inst.Op = OpSRAIW
		default:
			return Instruction{}, decodeErr(word, "shift-right-word funct7 0x%x", Funct7(word))
		}
	default:
		return Instruction{}, decodeErr(word, "op-imm-32 funct3 %d", Funct3(word))
	}

	inst.Imm &= 0x1f
	return inst, nil
}

var storeOps = [4]Op{OpSB, OpSH, OpSW, OpSD}

func (d *Decoder) decodeStore(word uint32) (Instruction, error) {
	funct3 := Funct3(word)
	if funct3 > 0x3 {
		return Instruction{}, decodeErr(word, "store funct3 %d", funct3)
	}
	return sType(storeOps[funct3], word), nil
}

func (d *Decoder) decodeStoreFP(word uint32) (Instruction, error) {
	switch Funct3(word) {
	case 0x2:
		return sType(OpFSW, word), nil
	case 0x3:
		return sType(OpFSD, word), nil
	default:
		return Instruction{}, decodeErr(word, "floating-point store width %d", Funct3(word))
	}
}

// Register-register operations indexed by funct3, per funct7 group.
var (
	opBase   = [8]Op{OpADD, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpOR, OpAND}
	opMulDiv = [8]Op{OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU}
)

func (d *Decoder) decodeOp(word uint32) (Instruction, error) {
	inst := rType(OpADD, word)
	inst.Rm = 0
	funct3 := Funct3(word)

	switch Funct7(word) {
	case 0x00:
		inst.Op = opBase[funct3]
	case 0x01:
		inst.Op = opMulDiv[funct3]
	case 0x20:
		switch funct3 {
		case 0x0:
			inst.Op = OpSUB
		case 0x5:
			inst.Op = OpSRA
		default:
			return Instruction{}, decodeErr(word, "op funct7 0x20 funct3 %d", funct3)
		}
	default:
		return Instruction{}, decodeErr(word, "op funct7 0x%x", Funct7(word))
	}

	return inst, nil
}

func (d *Decoder) decodeOp32(word uint32) (Instruction, error) {
	inst := rType(OpADDW, word)
	inst.Rm = 0
	funct3 := Funct3(word)

	switch Funct7(word)<<3 | funct3 {
	case 0x00<<3 | 0x0:
		inst.Op = OpADDW
	case 0x00<<3 | 0x1:
		inst.Op = OpSLLW
	case 0x00<<3 | 0x5:
		inst.Op = OpSRLW
	case 0x01<<3 | 0x0:
		inst.Op = OpMULW
	case 0x01<<3 | 0x4:
		inst.Op = OpDIVW
	case 0x01<<3 | 0x5:
		inst.Op = OpDIVUW
	case 0x01<<3 | 0x6:
		inst.Op = OpREMW
	case 0x01<<3 | 0x7:
		inst.Op = OpREMUW
	case 0x20<<3 | 0x0:
		inst.Op = OpSUBW
	case 0x20<<3 | 0x5:
		inst.Op = OpSRAW
	default:
		return Instruction{}, decodeErr(word, "op-32 funct7 0x%x funct3 %d", Funct7(word), funct3)
	}

	return inst, nil
}

var branchOps = [8]Op{OpBEQ, OpBNE, 0, 0, OpBLT, OpBGE, OpBLTU, OpBGEU}

func (d *Decoder) decodeBranch(word uint32) (Instruction, error) {
	funct3 := Funct3(word)
	if funct3 == 0x2 || funct3 == 0x3 {
		return Instruction{}, decodeErr(word, "branch funct3 %d", funct3)
	}
	return Instruction{
		Op: branchOps[funct3], Rs1: Rs1(word), Rs2: Rs2(word), Imm: ImmB(word),
	}, nil
}

var csrOps = [8]Op{0, OpCSRRW, OpCSRRS, OpCSRRC, 0, OpCSRRWI, OpCSRRSI, OpCSRRCI}

func (d *Decoder) decodeSystem(word uint32) (Instruction, error) {
	funct3 := Funct3(word)

	switch funct3 {
	case 0x0:
		switch word {
		case wordECALL:
			return Instruction{Op: OpECALL, IsControlTransfer: true}, nil
		case wordEBREAK:
			return Instruction{Op: OpEBREAK, IsControlTransfer: true}, nil
		default:
			return Instruction{}, decodeErr(word, "privileged system instruction")
		}
	case 0x4:
		return Instruction{}, decodeErr(word, "system funct3 %d", funct3)
	}

	return Instruction{
		Op: csrOps[funct3], Rd: Rd(word), Rs1: Rs1(word), Csr: Csr(word),
	}, nil
}

var fusedOps = [4][2]Op{
	{OpFMADDS, OpFMADDD},
	{OpFMSUBS, OpFMSUBD},
	{OpFNMSUBS, OpFNMSUBD},
	{OpFNMADDS, OpFNMADDD},
}

func (d *Decoder) decodeFused(word uint32) (Instruction, error) {
	format := Funct2(word)
	if format > 1 {
		return Instruction{}, decodeErr(word, "fused multiply-add format %d", format)
	}

	inst := rType(fusedOps[Opcode(word)-opcodeMAdd][format], word)
	inst.Rs3 = Rs3(word)
	return inst, nil
}

// opFPPair pairs a single-precision Op with its double-precision twin;
// OP-FP funct7 values differ only in bit 0 between the two formats.
type opFPPair [2]Op

var (
	fpArith = map[uint32]opFPPair{
		0x00: {OpFADDS, OpFADDD},
		0x04: {OpFSUBS, OpFSUBD},
		0x08: {OpFMULS, OpFMULD},
		0x0c: {OpFDIVS, OpFDIVD},
	}
	fpSignInject = [3]opFPPair{
		{OpFSGNJS, OpFSGNJD},
		{OpFSGNJNS, OpFSGNJND},
		{OpFSGNJXS, OpFSGNJXD},
	}
	fpMinMax  = [2]opFPPair{{OpFMINS, OpFMIND}, {OpFMAXS, OpFMAXD}}
	fpCompare = [3]opFPPair{{OpFLES, OpFLED}, {OpFLTS, OpFLTD}, {OpFEQS, OpFEQD}}
	fpToInt   = [4]opFPPair{
		{OpFCVTWS, OpFCVTWD},
		{OpFCVTWUS, OpFCVTWUD},
		{OpFCVTLS, OpFCVTLD},
		{OpFCVTLUS, OpFCVTLUD},
	}
	fpFromInt = [4]opFPPair{
		{OpFCVTSW, OpFCVTDW},
		{OpFCVTSWU, OpFCVTDWU},
		{OpFCVTSL, OpFCVTDL},
		{OpFCVTSLU, OpFCVTDLU},
	}
)

func (d *Decoder) decodeOpFP(word uint32) (Instruction, error) {
	inst := rType(0, word)
	funct7 := Funct7(word)
	format := funct7 & 0x1
	funct3 := Funct3(word)
	rs2 := uint32(inst.Rs2)

	switch group := funct7 &^ 0x1; group {
	case 0x00, 0x04, 0x08, 0x0c:
		inst.Op = fpArith[group][format]
	case 0x2c:
		if rs2 != 0 {
			return Instruction{}, decodeErr(word, "fsqrt rs2 %d", rs2)
		}
		inst.Op = [2]Op{OpFSQRTS, OpFSQRTD}[format]
	case 0x10:
		if funct3 > 2 {
			return Instruction{}, decodeErr(word, "sign-injection funct3 %d", funct3)
		}
		inst.Op = fpSignInject[funct3][format]
	case 0x14:
		if funct3 > 1 {
			return Instruction{}, decodeErr(word, "min/max funct3 %d", funct3)
		}
		inst.Op = fpMinMax[funct3][format]
	case 0x20:
		switch {
		case funct7 == 0x20 && rs2 == 1:
			inst.Op = OpFCVTSD
		case funct7 == 0x21 && rs2 == 0:
			inst.Op = OpFCVTDS
		default:
			return Instruction{}, decodeErr(word, "float-float conversion rs2 %d", rs2)
		}
	case 0x50:
		if funct3 > 2 {
			return Instruction{}, decodeErr(word, "compare funct3 %d", funct3)
		}
		inst.Op = fpCompare[funct3][format]
	case 0x60:
		if rs2 > 3 {
			return Instruction{}, decodeErr(word, "float-to-int conversion rs2 %d", rs2)
		}
		inst.Op = fpToInt[rs2][format]
	case 0x68:
		if rs2 > 3 {
			return Instruction{}, decodeErr(word, "int-to-float conversion rs2 %d", rs2)
		}
		inst.Op = fpFromInt[rs2][format]
	case 0x70:
		switch {
		case rs2 == 0 && funct3 == 0:
			inst.Op = [2]Op{OpFMVXW, OpFMVXD}[format]
		case rs2 == 0 && funct3 == 1:
			inst.Op = [2]Op{OpFCLASSS, OpFCLASSD}[format]
		default:
			return Instruction{}, decodeErr(word, "move/classify funct3 %d rs2 %d", funct3, rs2)
		}
	case 0x78:
		if rs2 != 0 || funct3 != 0 {
			return Instruction{}, decodeErr(word, "move-to-float funct3 %d rs2 %d", funct3, rs2)
		}
		inst.Op = [2]Op{OpFMVWX, OpFMVDX}[format]
	default:
		return Instruction{}, decodeErr(word, "op-fp funct7 0x%x", funct7)
	}

	return inst, nil
}
