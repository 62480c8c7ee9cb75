package insts

// ABI registers that compressed encodings name implicitly.
const (
	regZero = 0
	regRA   = 1
	regSP   = 2
)

// decodeCompressed decodes a 16-bit RV64C instruction into the base
// instruction it expands to.
func (d *Decoder) decodeCompressed(c uint16) (Instruction, error) {
	var (
		inst Instruction
		err  error
	)

	switch Quadrant(uint32(c)) {
	case 0x0:
		inst, err = d.decodeQuadrant0(c)
	case 0x1:
		inst, err = d.decodeQuadrant1(c)
	case 0x2:
		inst, err = d.decodeQuadrant2(c)
	default:
		return Instruction{}, decodeErr(uint32(c), "not a compressed instruction")
	}
	if err != nil {
		return Instruction{}, err
	}

	inst.IsCompressed = true
	return inst, nil
}

func cErr(c uint16, format string, args ...interface{}) error {
	return decodeErr(uint32(c), format, args...)
}

func (d *Decoder) decodeQuadrant0(c uint16) (Instruction, error) {
	switch CFunct3(c) {
	case 0x0: // C.ADDI4SPN
		imm := CImmADDI4SPN(c)
		if imm == 0 {
			return Instruction{}, cErr(c, "c.addi4spn with zero immediate")
		}
		return Instruction{Op: OpADDI, Rd: CRdp(c), Rs1: regSP, Imm: imm}, nil
	case 0x1: // C.FLD
		return Instruction{Op: OpFLD, Rd: CRdp(c), Rs1: CRs1p(c), Imm: CImmLD(c)}, nil
	case 0x2: // C.LW
		return Instruction{Op: OpLW, Rd: CRdp(c), Rs1: CRs1p(c), Imm: CImmLW(c)}, nil
	case 0x3: // C.LD
		return Instruction{Op: OpLD, Rd: CRdp(c), Rs1: CRs1p(c), Imm: CImmLD(c)}, nil
	case 0x5: // C.FSD
		return Instruction{Op: OpFSD, Rs1: CRs1p(c), Rs2: CRdp(c), Imm: CImmLD(c)}, nil
	case 0x6: // C.SW
		return Instruction{Op: OpSW, Rs1: CRs1p(c), Rs2: CRdp(c), Imm: CImmLW(c)}, nil
	case 0x7: // C.SD
		return Instruction{Op: OpSD, Rs1: CRs1p(c), Rs2: CRdp(c), Imm: CImmLD(c)}, nil
	default:
		return Instruction{}, cErr(c, "reserved quadrant 0 funct3 %d", CFunct3(c))
	}
}

func (d *Decoder) decodeQuadrant1(c uint16) (Instruction, error) {
	switch CFunct3(c) {
	case 0x0: // C.ADDI, C.NOP
		rd := CRd(c)
		return Instruction{Op: OpADDI, Rd: rd, Rs1: rd, Imm: CImmCI(c)}, nil
	case 0x1: // C.ADDIW
		rd := CRd(c)
		if rd == regZero {
			return Instruction{}, cErr(c, "c.addiw with rd=x0")
		}
		return Instruction{Op: OpADDIW, Rd: rd, Rs1: rd, Imm: CImmCI(c)}, nil
	case 0x2: // C.LI
		return Instruction{Op: OpADDI, Rd: CRd(c), Rs1: regZero, Imm: CImmCI(c)}, nil
	case 0x3:
		rd := CRd(c)
		if rd == regSP { // C.ADDI16SP
			imm := CImmADDI16SP(c)
			if imm == 0 {
				return Instruction{}, cErr(c, "c.addi16sp with zero immediate")
			}
			return Instruction{Op: OpADDI, Rd: regSP, Rs1: regSP, Imm: imm}, nil
		}
		// C.LUI
		imm := CImmLUI(c)
		if imm == 0 {
			return Instruction{}, cErr(c, "c.lui with zero immediate")
		}
		return Instruction{Op: OpLUI, Rd: rd, Imm: imm}, nil
	case 0x4:
		return d.decodeCompressedArith(c)
	case 0x5: // C.J
		return Instruction{
			Op: OpJAL, Rd: regZero, Imm: CImmJ(c),
			IsControlTransfer: true,
		}, nil
	case 0x6: // C.BEQZ
		return Instruction{Op: OpBEQ, Rs1: CRs1p(c), Rs2: regZero, Imm: CImmB(c)}, nil
	default: // C.BNEZ
		return Instruction{Op: OpBNE, Rs1: CRs1p(c), Rs2: regZero, Imm: CImmB(c)}, nil
	}
}

// decodeCompressedArith decodes the CB/CA arithmetic group of quadrant 1.
func (d *Decoder) decodeCompressedArith(c uint16) (Instruction, error) {
	rd := CRs1p(c)
	inst := Instruction{Rd: rd, Rs1: rd}

	switch bits(c, 11, 10) {
	case 0x0: // C.SRLI
		inst.Op = OpSRLI
		inst.Imm = CShamt(c)
	case 0x1: // C.SRAI
		inst.Op = OpSRAI
		inst.Imm = CShamt(c)
	case 0x2: // C.ANDI
		inst.Op = OpANDI
		inst.Imm = CImmCI(c)
	default:
		inst.Rs2 = CRdp(c)
		sub := bits(c, 6, 5)
		if bit(c, 12) == 0 {
			inst.Op = [4]Op{OpSUB, OpXOR, OpOR, OpAND}[sub]
			break
		}
		switch sub {
		case 0x0:
			inst.Op = OpSUBW
		case 0x1:
			inst.Op = OpADDW
		default:
			return Instruction{}, cErr(c, "reserved c.arith word form %d", sub)
		}
	}

	return inst, nil
}

func (d *Decoder) decodeQuadrant2(c uint16) (Instruction, error) {
	rd := CRd(c)
	rs2 := CRs2(c)

	switch CFunct3(c) {
	case 0x0: // C.SLLI
		return Instruction{Op: OpSLLI, Rd: rd, Rs1: rd, Imm: CShamt(c)}, nil
	case 0x1: // C.FLDSP
		return Instruction{Op: OpFLD, Rd: rd, Rs1: regSP, Imm: CImmLDSP(c)}, nil
	case 0x2: // C.LWSP
		if rd == regZero {
			return Instruction{}, cErr(c, "c.lwsp with rd=x0")
		}
		return Instruction{Op: OpLW, Rd: rd, Rs1: regSP, Imm: CImmLWSP(c)}, nil
	case 0x3: // C.LDSP
		if rd == regZero {
			return Instruction{}, cErr(c, "c.ldsp with rd=x0")
		}
		return Instruction{Op: OpLD, Rd: rd, Rs1: regSP, Imm: CImmLDSP(c)}, nil
	case 0x4:
		return d.decodeCompressedJumpMove(c, rd, rs2)
	case 0x5: // C.FSDSP
		return Instruction{Op: OpFSD, Rs1: regSP, Rs2: rs2, Imm: CImmSDSP(c)}, nil
	case 0x6: // C.SWSP
		return Instruction{Op: OpSW, Rs1: regSP, Rs2: rs2, Imm: CImmSWSP(c)}, nil
	default: // C.SDSP
		return Instruction{Op: OpSD, Rs1: regSP, Rs2: rs2, Imm: CImmSDSP(c)}, nil
	}
}

// decodeCompressedJumpMove resolves C.JR, C.MV, C.EBREAK, C.JALR and C.ADD,
// which share funct3 and differ by bit 12 and whether rd and rs2 are zero.
func (d *Decoder) decodeCompressedJumpMove(c uint16, rd, rs2 int8) (Instruction, error) {
	if bit(c, 12) == 0 {
		if rs2 == regZero { // C.JR
			if rd == regZero {
				return Instruction{}, cErr(c, "c.jr with rs1=x0")
			}
			return Instruction{
				Op: OpJALR, Rd: regZero, Rs1: rd,
				IsControlTransfer: true,
			}, nil
		}
		// C.MV
		return Instruction{Op: OpADD, Rd: rd, Rs1: regZero, Rs2: rs2}, nil
	}

	switch {
	case rd == regZero && rs2 == regZero: // C.EBREAK
		return Instruction{Op: OpEBREAK, IsControlTransfer: true}, nil
	case rs2 == regZero: // C.JALR
		return Instruction{
			Op: OpJALR, Rd: regRA, Rs1: rd,
			IsControlTransfer: true,
		}, nil
	default: // C.ADD
		return Instruction{Op: OpADD, Rd: rd, Rs1: rd, Rs2: rs2}, nil
	}
}
