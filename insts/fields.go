package insts

// Bit-field extractors for the standard 32-bit formats.

// Quadrant returns bits [1:0]; quadrants 0-2 are compressed encodings.
func Quadrant(word uint32) uint32 { return word & 0x3 }

// Opcode returns the 5-bit major opcode, bits [6:2].
func Opcode(word uint32) uint32 { return (word >> 2) & 0x1f }

// Rd returns bits [11:7].
func Rd(word uint32) int8 { return int8((word >> 7) & 0x1f) }

// Rs1 returns bits [19:15].
func Rs1(word uint32) int8 { return int8((word >> 15) & 0x1f) }

// Rs2 returns bits [24:20].
func Rs2(word uint32) int8 { return int8((word >> 20) & 0x1f) }

// Rs3 returns bits [31:27].
func Rs3(word uint32) int8 { return int8((word >> 27) & 0x1f) }

// Funct2 returns bits [26:25], the floating-point format of R4-type instructions.
func Funct2(word uint32) uint32 { return (word >> 25) & 0x3 }

// Funct3 returns bits [14:12].
func Funct3(word uint32) uint32 { return (word >> 12) & 0x7 }

// Funct7 returns bits [31:25].
func Funct7(word uint32) uint32 { return (word >> 25) & 0x7f }

// Csr returns the 12-bit CSR index, bits [31:20].
func Csr(word uint32) int16 { return int16(word >> 20) }

// ImmI returns imm[11:0] = bits [31:20], sign-extended from bit 11.
func ImmI(word uint32) int32 { return int32(word) >> 20 }

// ImmS returns imm[11:5|4:0] = bits [31:25|11:7], sign-extended from bit 11.
func ImmS(word uint32) int32 {
	return (int32(word)>>25)<<5 | int32((word>>7)&0x1f)
}

// ImmB returns imm[12|10:5|4:1|11] = bits [31|30:25|11:8|7] with bit 0 clear,
// sign-extended from bit 12.
func ImmB(word uint32) int32 {
	imm := (int32(word)>>31)<<12 |
		int32((word>>7)&0x1)<<11 |
		int32((word>>25)&0x3f)<<5 |
		int32((word>>8)&0xf)<<1
	return imm
}

// ImmU returns imm[31:12] in place, low 12 bits clear.
func ImmU(word uint32) int32 { return int32(word & 0xfffff000) }

// ImmJ returns imm[20|10:1|11|19:12] = bits [31|30:21|20|19:12] with bit 0
// clear, sign-extended from bit 20.
func ImmJ(word uint32) int32 {
	imm := (int32(word)>>31)<<20 |
		int32((word>>12)&0xff)<<12 |
		int32((word>>20)&0x1)<<11 |
		int32((word>>21)&0x3ff)<<1
	return imm
}

// Bit-field extractors for the compressed formats. Register fields of three
// bits address the popular registers x8-x15 (or f8-f15).

const popularRegBase = 8

func bit(c uint16, n uint) int32 { return int32((c >> n) & 0x1) }

func bits(c uint16, hi, lo uint) int32 {
	return int32((c >> lo) & (1<<(hi-lo+1) - 1))
}

// signExtend sign-extends the low n bits of v.
func signExtend(v int32, n uint) int32 {
	shift := 32 - n
	return (v << shift) >> shift
}

// CFunct3 returns bits [15:13] of a compressed word.
func CFunct3(c uint16) uint32 { return uint32(c>>13) & 0x7 }

// CRd returns the full rd/rs1 field, bits [11:7] (CR, CI formats).
func CRd(c uint16) int8 { return int8((c >> 7) & 0x1f) }

// CRs2 returns the full rs2 field, bits [6:2] (CR, CSS formats).
func CRs2(c uint16) int8 { return int8((c >> 2) & 0x1f) }

// CRdp returns rd' (or rs2'), bits [4:2] biased by 8 (CIW, CL, CS formats).
func CRdp(c uint16) int8 { return int8((c>>2)&0x7) + popularRegBase }

// CRs1p returns rs1' (or rd'), bits [9:7] biased by 8 (CL, CS, CA, CB formats).
func CRs1p(c uint16) int8 { return int8((c>>7)&0x7) + popularRegBase }

// CImmADDI4SPN returns nzuimm[5:4|9:6|2|3] = bits [12:11|10:7|6|5] (CIW).
func CImmADDI4SPN(c uint16) int32 {
	return bits(c, 12, 11)<<4 | bits(c, 10, 7)<<6 | bit(c, 6)<<2 | bit(c, 5)<<3
}

// CImmLW returns uimm[5:3|2|6] = bits [12:10|6|5] (CL/CS word access).
func CImmLW(c uint16) int32 {
	return bits(c, 12, 10)<<3 | bit(c, 6)<<2 | bit(c, 5)<<6
}

// CImmLD returns uimm[5:3|7:6] = bits [12:10|6:5] (CL/CS double access).
func CImmLD(c uint16) int32 {
	return bits(c, 12, 10)<<3 | bits(c, 6, 5)<<6
}

// CImmCI returns imm[5|4:0] = bits [12|6:2], sign-extended from bit 5.
func CImmCI(c uint16) int32 {
	return signExtend(bit(c, 12)<<5|bits(c, 6, 2), 6)
}

// CShamt returns shamt[5|4:0] = bits [12|6:2], zero-extended.
func CShamt(c uint16) int32 {
	return bit(c, 12)<<5 | bits(c, 6, 2)
}

// CImmADDI16SP returns nzimm[9|4|6|8:7|5] = bits [12|6|5|4:3|2], sign-extended
// from bit 9.
func CImmADDI16SP(c uint16) int32 {
	imm := bit(c, 12)<<9 | bit(c, 6)<<4 | bit(c, 5)<<6 | bits(c, 4, 3)<<7 | bit(c, 2)<<5
	return signExtend(imm, 10)
}

// CImmLUI returns nzimm[17|16:12] = bits [12|6:2], sign-extended from bit 17.
func CImmLUI(c uint16) int32 {
	return signExtend(bit(c, 12)<<17|bits(c, 6, 2)<<12, 18)
}

// CImmLWSP returns uimm[5|4:2|7:6] = bits [12|6:4|3:2] (CI stack word load).
func CImmLWSP(c uint16) int32 {
	return bit(c, 12)<<5 | bits(c, 6, 4)<<2 | bits(c, 3, 2)<<6
}

// CImmLDSP returns uimm[5|4:3|8:6] = bits [12|6:5|4:2] (CI stack double load).
func CImmLDSP(c uint16) int32 {
	return bit(c, 12)<<5 | bits(c, 6, 5)<<3 | bits(c, 4, 2)<<6
}

// CImmSWSP returns uimm[5:2|7:6] = bits [12:9|8:7] (CSS stack word store).
func CImmSWSP(c uint16) int32 {
	return bits(c, 12, 9)<<2 | bits(c, 8, 7)<<6
}

// CImmSDSP returns uimm[5:3|8:6] = bits [12:10|9:7] (CSS stack double store).
func CImmSDSP(c uint16) int32 {
	return bits(c, 12, 10)<<3 | bits(c, 9, 7)<<6
}

// CImmJ returns offset[11|4|9:8|10|6|7|3:1|5] = bits [12|11|10:9|8|7|6|5:3|2],
// sign-extended from bit 11 (CJ).
func CImmJ(c uint16) int32 {
	imm := bit(c, 12)<<11 |
		bit(c, 11)<<4 |
		bits(c, 10, 9)<<8 |
		bit(c, 8)<<10 |
		bit(c, 7)<<6 |
		bit(c, 6)<<7 |
		bits(c, 5, 3)<<1 |
		bit(c, 2)<<5
	return signExtend(imm, 12)
}

// CImmB returns offset[8|4:3|7:6|2:1|5] = bits [12|11:10|6:5|4:3|2],
// sign-extended from bit 8 (CB branch).
func CImmB(c uint16) int32 {
	imm := bit(c, 12)<<8 |
		bits(c, 11, 10)<<3 |
		bits(c, 6, 5)<<6 |
		bits(c, 4, 3)<<1 |
		bit(c, 2)<<5
	return signExtend(imm, 9)
}
