package insts

// Op represents a RISC-V operation. Compressed encodings decode to the Op of
// the base instruction they expand to.
type Op uint8

// RV64GC operations.
const (
	// RV64I loads
	OpLB Op = iota
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU

	// Memory ordering
	OpFENCE
	OpFENCEI

	// Integer register-immediate
	OpADDI
	OpSLLI
	OpSLTI
	OpSLTIU
	OpXORI
	OpSRLI
	OpSRAI
	OpORI
	OpANDI
	OpAUIPC
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW

	// Stores
	OpSB
	OpSH
	OpSW
	OpSD

	// Integer register-register, including M extension
	OpADD
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpOR
	OpAND
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpSUB
	OpSRA
	OpLUI

	// 32-bit register-register
	OpADDW
	OpSLLW
	OpSRLW
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW
	OpSUBW
	OpSRAW

	// Control transfer
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpJALR
	OpJAL
	OpECALL
	OpEBREAK

	// Zicsr
	OpCSRRC
	OpCSRRCI
	OpCSRRS
	OpCSRRSI
	OpCSRRW
	OpCSRRWI

	// Single precision
	OpFLW
	OpFSW
	OpFMADDS
	OpFMSUBS
	OpFNMSUBS
	OpFNMADDS
	OpFADDS
	OpFSUBS
	OpFMULS
	OpFDIVS
	OpFSQRTS
	OpFSGNJS
	OpFSGNJNS
	OpFSGNJXS
	OpFMINS
	OpFMAXS
	OpFCVTWS
	OpFCVTWUS
	OpFMVXW
	OpFEQS
	OpFLTS
	OpFLES
	OpFCLASSS
	OpFCVTSW
	OpFCVTSWU
	OpFMVWX
	OpFCVTLS
	OpFCVTLUS
	OpFCVTSL
	OpFCVTSLU

	// Double precision
	OpFLD
	OpFSD
	OpFMADDD
	OpFMSUBD
	OpFNMSUBD
	OpFNMADDD
	OpFADDD
	OpFSUBD
	OpFMULD
	OpFDIVD
	OpFSQRTD
	OpFSGNJD
	OpFSGNJND
	OpFSGNJXD
	OpFMIND
	OpFMAXD
	OpFCVTSD
	OpFCVTDS
	OpFEQD
	OpFLTD
	OpFLED
	OpFCLASSD
	OpFCVTWD
	OpFCVTWUD
	OpFCVTDW
	OpFCVTDWU
	OpFCVTLD
	OpFCVTLUD
	OpFMVXD
	OpFCVTDL
	OpFCVTDLU
	OpFMVDX

	// NumOps is the number of operations; it sizes dispatch tables.
	NumOps
)

var opNames = [NumOps]string{
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLD: "ld",
	OpLBU: "lbu", OpLHU: "lhu", OpLWU: "lwu",
	OpFENCE: "fence", OpFENCEI: "fence.i",
	OpADDI: "addi", OpSLLI: "slli", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpXORI: "xori", OpSRLI: "srli", OpSRAI: "srai", OpORI: "ori", OpANDI: "andi",
	OpAUIPC: "auipc",
	OpADDIW: "addiw", OpSLLIW: "slliw", OpSRLIW: "srliw", OpSRAIW: "sraiw",
	OpSB: "sb", OpSH: "sh", OpSW: "sw", OpSD: "sd",
	OpADD: "add", OpSLL: "sll", OpSLT: "slt", OpSLTU: "sltu", OpXOR: "xor",
	OpSRL: "srl", OpOR: "or", OpAND: "and",
	OpMUL: "mul", OpMULH: "mulh", OpMULHSU: "mulhsu", OpMULHU: "mulhu",
	OpDIV: "div", OpDIVU: "divu", OpREM: "rem", OpREMU: "remu",
	OpSUB: "sub", OpSRA: "sra", OpLUI: "lui",
	OpADDW: "addw", OpSLLW: "sllw", OpSRLW: "srlw", OpMULW: "mulw",
	OpDIVW: "divw", OpDIVUW: "divuw", OpREMW: "remw", OpREMUW: "remuw",
	OpSUBW: "subw", OpSRAW: "sraw",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpJALR: "jalr", OpJAL: "jal", OpECALL: "ecall", OpEBREAK: "ebreak",
	OpCSRRC: "csrrc", OpCSRRCI: "csrrci", OpCSRRS: "csrrs", OpCSRRSI: "csrrsi",
	OpCSRRW: "csrrw", OpCSRRWI: "csrrwi",
	OpFLW: "flw", OpFSW: "fsw",
	OpFMADDS: "fmadd.s", OpFMSUBS: "fmsub.s", OpFNMSUBS: "fnmsub.s", OpFNMADDS: "fnmadd.s",
	OpFADDS: "fadd.s", OpFSUBS: "fsub.s", OpFMULS: "fmul.s", OpFDIVS: "fdiv.s", OpFSQRTS: "fsqrt.s",
	OpFSGNJS: "fsgnj.s", OpFSGNJNS: "fsgnjn.s", OpFSGNJXS: "fsgnjx.s",
	OpFMINS: "fmin.s", OpFMAXS: "fmax.s",
	OpFCVTWS: "fcvt.w.s", OpFCVTWUS: "fcvt.wu.s", OpFMVXW: "fmv.x.w",
	OpFEQS: "feq.s", OpFLTS: "flt.s", OpFLES: "fle.s", OpFCLASSS: "fclass.s",
	OpFCVTSW: "fcvt.s.w", OpFCVTSWU: "fcvt.s.wu", OpFMVWX: "fmv.w.x",
	OpFCVTLS: "fcvt.l.s", OpFCVTLUS: "fcvt.lu.s", OpFCVTSL: "fcvt.s.l", OpFCVTSLU: "fcvt.s.lu",
	OpFLD: "fld", OpFSD: "fsd",
	OpFMADDD: "fmadd.d", OpFMSUBD: "fmsub.d", OpFNMSUBD: "fnmsub.d", OpFNMADDD: "fnmadd.d",
	OpFADDD: "fadd.d", OpFSUBD: "fsub.d", OpFMULD: "fmul.d", OpFDIVD: "fdiv.d", OpFSQRTD: "fsqrt.d",
	OpFSGNJD: "fsgnj.d", OpFSGNJND: "fsgnjn.d", OpFSGNJXD: "fsgnjx.d",
	OpFMIND: "fmin.d", OpFMAXD: "fmax.d",
	OpFCVTSD: "fcvt.s.d", OpFCVTDS: "fcvt.d.s",
	OpFEQD: "feq.d", OpFLTD: "flt.d", OpFLED: "fle.d", OpFCLASSD: "fclass.d",
	OpFCVTWD: "fcvt.w.d", OpFCVTWUD: "fcvt.wu.d", OpFCVTDW: "fcvt.d.w", OpFCVTDWU: "fcvt.d.wu",
	OpFCVTLD: "fcvt.l.d", OpFCVTLUD: "fcvt.lu.d", OpFMVXD: "fmv.x.d",
	OpFCVTDL: "fcvt.d.l", OpFCVTDLU: "fcvt.d.lu", OpFMVDX: "fmv.d.x",
}

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if op >= NumOps {
		return "unknown"
	}
	return opNames[op]
}
