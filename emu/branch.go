package emu

import "github.com/sarchlab/rvemu/insts"

// branch builds the semantics of a conditional branch. A taken branch ends
// the block with a direct transfer to pc+imm.
func branch(cond func(a, b uint64) bool) execFunc {
	return func(e *Emulator, insn *insts.Instruction) {
		s := e.state
		if !cond(s.X[insn.Rs1], s.X[insn.Rs2]) {
			return
		}
		s.ReenterPC = s.PC + uint64(int64(insn.Imm))
		s.ExitReason = ExitDirectBranch
		insn.IsControlTransfer = true
	}
}

var (
	execBEQ  = branch(func(a, b uint64) bool { return a == b })
	execBNE  = branch(func(a, b uint64) bool { return a != b })
	execBLT  = branch(func(a, b uint64) bool { return int64(a) < int64(b) })
	execBGE  = branch(func(a, b uint64) bool { return int64(a) >= int64(b) })
	execBLTU = branch(func(a, b uint64) bool { return a < b })
	execBGEU = branch(func(a, b uint64) bool { return a >= b })
)

func execJAL(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.X[insn.Rd] = s.PC + insn.Size()
	s.ReenterPC = s.PC + uint64(int64(insn.Imm))
	s.ExitReason = ExitDirectBranch
}

// execJALR reads rs1 before writing rd so that rd == rs1 works.
func execJALR(e *Emulator, insn *insts.Instruction) {
	s := e.state
	target := (s.X[insn.Rs1] + uint64(int64(insn.Imm))) &^ 1
	s.X[insn.Rd] = s.PC + insn.Size()
	s.ReenterPC = target
	s.ExitReason = ExitIndirectBranch
}

func execECALL(e *Emulator, insn *insts.Instruction) {
	s := e.state
	s.ReenterPC = s.PC + insn.Size()
	s.ExitReason = ExitSystemCall
}

func execEBREAK(e *Emulator, insn *insts.Instruction) {
	e.raise(insn, &BreakpointError{PC: e.state.PC})
}

func execFENCE(*Emulator, *insts.Instruction) {}

// execFENCEI drops cached decodes so that code written by the guest is
// decoded afresh.
func execFENCEI(e *Emulator, _ *insts.Instruction) {
	e.flushDecodeCache()
}
