package emu

import "github.com/sarchlab/rvemu/insts"

// execFunc applies one decoded instruction to the emulator state. Control
// transfers set ExitReason and ReenterPC; the interpreter loop advances PC
// for everything else.
type execFunc func(e *Emulator, insn *insts.Instruction)

// execTable maps each operation to its semantics.
var execTable = [insts.NumOps]execFunc{
	insts.OpLB:      execLB,
	insts.OpLH:      execLH,
	insts.OpLW:      execLW,
	insts.OpLD:      execLD,
	insts.OpLBU:     execLBU,
	insts.OpLHU:     execLHU,
	insts.OpLWU:     execLWU,
	insts.OpFENCE:   execFENCE,
	insts.OpFENCEI:  execFENCEI,
	insts.OpADDI:    execADDI,
	insts.OpSLLI:    execSLLI,
	insts.OpSLTI:    execSLTI,
	insts.OpSLTIU:   execSLTIU,
	insts.OpXORI:    execXORI,
	insts.OpSRLI:    execSRLI,
	insts.OpSRAI:    execSRAI,
	insts.OpORI:     execORI,
	insts.OpANDI:    execANDI,
	insts.OpAUIPC:   execAUIPC,
	insts.OpADDIW:   execADDIW,
	insts.OpSLLIW:   execSLLIW,
	insts.OpSRLIW:   execSRLIW,
	insts.OpSRAIW:   execSRAIW,
	insts.OpSB:      execSB,
	insts.OpSH:      execSH,
	insts.OpSW:      execSW,
	insts.OpSD:      execSD,
	insts.OpADD:     execADD,
	insts.OpSLL:     execSLL,
	insts.OpSLT:     execSLT,
	insts.OpSLTU:    execSLTU,
	insts.OpXOR:     execXOR,
	insts.OpSRL:     execSRL,
	insts.OpOR:      execOR,
	insts.OpAND:     execAND,
	insts.OpMUL:     execMUL,
	insts.OpMULH:    execMULH,
	insts.OpMULHSU:  execMULHSU,
	insts.OpMULHU:   execMULHU,
	insts.OpDIV:     execDIV,
	insts.OpDIVU:    execDIVU,
	insts.OpREM:     execREM,
	insts.OpREMU:    execREMU,
	insts.OpSUB:     execSUB,
	insts.OpSRA:     execSRA,
	insts.OpLUI:     execLUI,
	insts.OpADDW:    execADDW,
	insts.OpSLLW:    execSLLW,
	insts.OpSRLW:    execSRLW,
	insts.OpMULW:    execMULW,
	insts.OpDIVW:    execDIVW,
	insts.OpDIVUW:   execDIVUW,
	insts.OpREMW:    execREMW,
	insts.OpREMUW:   execREMUW,
	insts.OpSUBW:    execSUBW,
	insts.OpSRAW:    execSRAW,
	insts.OpBEQ:     execBEQ,
	insts.OpBNE:     execBNE,
	insts.OpBLT:     execBLT,
	insts.OpBGE:     execBGE,
	insts.OpBLTU:    execBLTU,
	insts.OpBGEU:    execBGEU,
	insts.OpJALR:    execJALR,
	insts.OpJAL:     execJAL,
	insts.OpECALL:   execECALL,
	insts.OpEBREAK:  execEBREAK,
	insts.OpCSRRC:   execCSR,
	insts.OpCSRRCI:  execCSR,
	insts.OpCSRRS:   execCSR,
	insts.OpCSRRSI:  execCSR,
	insts.OpCSRRW:   execCSR,
	insts.OpCSRRWI:  execCSR,
	insts.OpFLW:     execFLW,
	insts.OpFSW:     execFSW,
	insts.OpFMADDS:  execFMADDS,
	insts.OpFMSUBS:  execFMSUBS,
	insts.OpFNMSUBS: execFNMSUBS,
	insts.OpFNMADDS: execFNMADDS,
	insts.OpFADDS:   execFADDS,
	insts.OpFSUBS:   execFSUBS,
	insts.OpFMULS:   execFMULS,
	insts.OpFDIVS:   execFDIVS,
	insts.OpFSQRTS:  execFSQRTS,
	insts.OpFSGNJS:  execFSGNJS,
	insts.OpFSGNJNS: execFSGNJNS,
	insts.OpFSGNJXS: execFSGNJXS,
	insts.OpFMINS:   execFMINS,
	insts.OpFMAXS:   execFMAXS,
	insts.OpFCVTWS:  execFCVTWS,
	insts.OpFCVTWUS: execFCVTWUS,
	insts.OpFMVXW:   execFMVXW,
	insts.OpFEQS:    execFEQS,
	insts.OpFLTS:    execFLTS,
	insts.OpFLES:    execFLES,
	insts.OpFCLASSS: execFCLASSS,
	insts.OpFCVTSW:  execFCVTSW,
	insts.OpFCVTSWU: execFCVTSWU,
	insts.OpFMVWX:   execFMVWX,
	insts.OpFCVTLS:  execFCVTLS,
	insts.OpFCVTLUS: execFCVTLUS,
	insts.OpFCVTSL:  execFCVTSL,
	insts.OpFCVTSLU: execFCVTSLU,
	insts.OpFLD:     execFLD,
	insts.OpFSD:     execFSD,
	insts.OpFMADDD:  execFMADDD,
	insts.OpFMSUBD:  execFMSUBD,
	insts.OpFNMSUBD: execFNMSUBD,
	insts.OpFNMADDD: execFNMADDD,
	insts.OpFADDD:   execFADDD,
	insts.OpFSUBD:   execFSUBD,
	insts.OpFMULD:   execFMULD,
	insts.OpFDIVD:   execFDIVD,
	insts.OpFSQRTD:  execFSQRTD,
	insts.OpFSGNJD:  execFSGNJD,
	insts.OpFSGNJND: execFSGNJND,
	insts.OpFSGNJXD: execFSGNJXD,
	insts.OpFMIND:   execFMIND,
	insts.OpFMAXD:   execFMAXD,
	insts.OpFCVTSD:  execFCVTSD,
	insts.OpFCVTDS:  execFCVTDS,
	insts.OpFEQD:    execFEQD,
	insts.OpFLTD:    execFLTD,
	insts.OpFLED:    execFLED,
	insts.OpFCLASSD: execFCLASSD,
	insts.OpFCVTWD:  execFCVTWD,
	insts.OpFCVTWUD: execFCVTWUD,
	insts.OpFCVTDW:  execFCVTDW,
	insts.OpFCVTDWU: execFCVTDWU,
	insts.OpFCVTLD:  execFCVTLD,
	insts.OpFCVTLUD: execFCVTLUD,
	insts.OpFMVXD:   execFMVXD,
	insts.OpFCVTDL:  execFCVTDL,
	insts.OpFCVTDLU: execFCVTDLU,
	insts.OpFMVDX:   execFMVDX,
}
