package benchmarks

import "encoding/binary"

// Helper functions for building RV64 programs

// BuildProgram assembles instruction words into a byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, 0, len(instrs)*4)
	for _, inst := range instrs {
		program = binary.LittleEndian.AppendUint32(program, inst)
	}
	return program
}

// Major opcodes used by the encoders.
const (
	opcodeLoad   = 0x03
	opcodeOpImm  = 0x13
	opcodeStore  = 0x23
	opcodeOp     = 0x33
	opcodeOpFP   = 0x53
	opcodeBranch = 0x63
	opcodeJALR   = 0x67
	opcodeJAL    = 0x6f
	opcodeSystem = 0x73
)

// EncodeR encodes an R-type instruction.
func EncodeR(opcode, funct3, funct7 uint32, rd, rs1, rs2 uint8) uint32 {
	return funct7<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		funct3<<12 | uint32(rd&0x1f)<<7 | opcode
}

// EncodeI encodes an I-type instruction with a 12-bit immediate.
func EncodeI(opcode, funct3 uint32, rd, rs1 uint8, imm int32) uint32 {
	return uint32(imm&0xfff)<<20 | uint32(rs1&0x1f)<<15 |
		funct3<<12 | uint32(rd&0x1f)<<7 | opcode
}

// EncodeS encodes an S-type instruction with a 12-bit immediate.
func EncodeS(opcode, funct3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7f)<<25 | uint32(rs2&0x1f)<<20 | uint32(rs1&0x1f)<<15 |
		funct3<<12 | (u&0x1f)<<7 | opcode
}

// EncodeB encodes a conditional branch with a byte offset.
func EncodeB(funct3 uint32, rs1, rs2 uint8, offset int32) uint32 {
	u := uint32(offset)
	return (u>>12&0x1)<<31 | (u>>5&0x3f)<<25 | uint32(rs2&0x1f)<<20 |
		uint32(rs1&0x1f)<<15 | funct3<<12 | (u>>1&0xf)<<8 | (u>>11&0x1)<<7 |
		opcodeBranch
}

// EncodeADDI encodes ADDI: rd = rs1 + imm
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(opcodeOpImm, 0, rd, rs1, imm)
}

// EncodeADD encodes ADD: rd = rs1 + rs2
func EncodeADD(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(opcodeOp, 0, 0, rd, rs1, rs2)
}

// EncodeMUL encodes MUL: rd = rs1 * rs2
func EncodeMUL(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(opcodeOp, 0, 1, rd, rs1, rs2)
}

// EncodeDIV encodes DIV: rd = rs1 / rs2 (signed)
func EncodeDIV(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(opcodeOp, 4, 1, rd, rs1, rs2)
}

// EncodeREM encodes REM: rd = rs1 % rs2 (signed)
func EncodeREM(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(opcodeOp, 6, 1, rd, rs1, rs2)
}

// EncodeLD encodes LD: rd = mem64[rs1 + imm]
func EncodeLD(rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(opcodeLoad, 3, rd, rs1, imm)
}

// EncodeSD encodes SD: mem64[rs1 + imm] = rs2
func EncodeSD(rs2, rs1 uint8, imm int32) uint32 {
	return EncodeS(opcodeStore, 3, rs1, rs2, imm)
}

// EncodeBNE encodes BNE rs1, rs2, offset
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(1, rs1, rs2, offset)
}

// EncodeJAL encodes JAL rd, offset
func EncodeJAL(rd uint8, offset int32) uint32 {
	u := uint32(offset)
	return (u>>20&0x1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&0x1)<<20 |
		(u>>12&0xff)<<12 | uint32(rd&0x1f)<<7 | opcodeJAL
}

// EncodeRET encodes return: JALR zero, 0(ra)
func EncodeRET() uint32 {
	return EncodeI(opcodeJALR, 0, 0, 1, 0)
}

// EncodeECALL encodes ECALL.
func EncodeECALL() uint32 {
	return opcodeSystem
}

// EncodeFADDD encodes FADD.D rd, rs1, rs2 with dynamic rounding.
func EncodeFADDD(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(opcodeOpFP, 7, 0x01, rd, rs1, rs2)
}

// EncodeFMULD encodes FMUL.D rd, rs1, rs2 with dynamic rounding.
func EncodeFMULD(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(opcodeOpFP, 7, 0x09, rd, rs1, rs2)
}

// EncodeFCVTDL encodes FCVT.D.L rd, rs1.
func EncodeFCVTDL(rd, rs1 uint8) uint32 {
	return EncodeR(opcodeOpFP, 7, 0x69, rd, rs1, 2)
}

// EncodeFCVTLD encodes FCVT.L.D rd, rs1 rounding toward zero.
func EncodeFCVTLD(rd, rs1 uint8) uint32 {
	return EncodeR(opcodeOpFP, 1, 0x61, rd, rs1, 2)
}
