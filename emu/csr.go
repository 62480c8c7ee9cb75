package emu

import (
	"fmt"

	"github.com/sarchlab/rvemu/insts"
)

// Floating-point CSRs. They read as zero and writes are dropped, so the
// dynamic rounding mode is always round-to-nearest-even.
const (
	csrFFlags = 0x001
	csrFRM    = 0x002
	csrFCSR   = 0x003
)

// execCSR accepts the floating-point CSRs and index 0, and raises for
// anything else.
func execCSR(e *Emulator, insn *insts.Instruction) {
	switch insn.Csr {
	case 0, csrFFlags, csrFRM, csrFCSR:
		e.state.X[insn.Rd] = 0
	default:
		e.raise(insn, &UnimplementedError{
			PC:      e.state.PC,
			Feature: fmt.Sprintf("csr 0x%03x", uint16(insn.Csr)),
		})
	}
}
