package emu

import "github.com/sarchlab/rvemu/insts"

// effectiveAddress returns rs1 + imm with wraparound.
func effectiveAddress(s *State, insn *insts.Instruction) uint64 {
	return s.X[insn.Rs1] + uint64(int64(insn.Imm))
}

func execLB(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.X[insn.Rd] = uint64(int8(e.memory.Read8(addr)))
}

func execLH(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.X[insn.Rd] = uint64(int16(e.memory.Read16(addr)))
}

func execLW(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.X[insn.Rd] = uint64(int32(e.memory.Read32(addr)))
}

func execLD(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.X[insn.Rd] = e.memory.Read64(addr)
}

func execLBU(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.X[insn.Rd] = uint64(e.memory.Read8(addr))
}

func execLHU(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.X[insn.Rd] = uint64(e.memory.Read16(addr))
}

func execLWU(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.X[insn.Rd] = uint64(e.memory.Read32(addr))
}

func execSB(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.memory.Write8(addr, uint8(e.state.X[insn.Rs2]))
}

func execSH(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.memory.Write16(addr, uint16(e.state.X[insn.Rs2]))
}

func execSW(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.memory.Write32(addr, uint32(e.state.X[insn.Rs2]))
}

func execSD(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.memory.Write64(addr, e.state.X[insn.Rs2])
}

func execFLW(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.writeF32Bits(insn.Rd, e.memory.Read32(addr))
}

func execFLD(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.state.F[insn.Rd] = e.memory.Read64(addr)
}

func execFSW(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.memory.Write32(addr, uint32(e.state.F[insn.Rs2]))
}

func execFSD(e *Emulator, insn *insts.Instruction) {
	addr := effectiveAddress(e.state, insn)
	e.memory.Write64(addr, e.state.F[insn.Rs2])
}
