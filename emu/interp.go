package emu

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rvemu/insts"
)

// raise aborts the current block with a fatal error.
func (e *Emulator) raise(insn *insts.Instruction, err error) {
	e.trap = err
	insn.IsControlTransfer = true
}

// fetch decodes the instruction at pc. The low halfword decides whether a
// second halfword is read, so a compressed instruction at the end of
// accessible memory does not fault.
func (e *Emulator) fetch(pc uint64) (insts.Instruction, error) {
	if e.decodeCache != nil {
		if insn, ok := e.decodeCache.Lookup(pc); ok {
			return insn, nil
		}
	}

	word := uint32(e.memory.Read16(pc))
	if insts.Quadrant(word) == 0x3 {
		word |= uint32(e.memory.Read16(pc+2)) << 16
	}

	insn, err := e.decoder.Decode(word)
	if err != nil {
		return insn, fmt.Errorf("pc 0x%x: %w", pc, err)
	}

	if e.decodeCache != nil {
		e.decodeCache.Insert(pc, insn)
	}
	return insn, nil
}

// catchFault turns a runtime fault raised while touching guest memory into
// a *MemoryFaultError. It must be deferred directly, with panic-on-fault
// enabled for the current goroutine.
func (e *Emulator) catchFault(err *error) {
	r := recover()
	if r == nil {
		return
	}
	cause, ok := r.(runtime.Error)
	if !ok {
		panic(r)
	}
	*err = &MemoryFaultError{PC: e.state.PC, Cause: cause}
}

// ExecBlock interprets instructions from the current PC. Branches and jumps
// are followed in place; the call returns when an ECALL is reached, with PC
// at the ECALL and ReenterPC just after it. Decode errors, memory faults and
// other fatal conditions are returned as errors.
func (e *Emulator) ExecBlock() (err error) {
	s := e.state
	tracing := e.logger.IsLevelEnabled(logrus.TraceLevel)

	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer e.catchFault(&err)

	s.ExitReason = ExitNone
	for {
		if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
			return ErrInstructionLimit
		}

		insn, err := e.fetch(s.PC)
		if err != nil {
			return err
		}

		execTable[insn.Op](e, &insn)
		s.X[RegZero] = 0
		e.instructionCount++

		if tracing {
			e.logger.WithFields(logrus.Fields{
				"pc": fmt.Sprintf("0x%x", s.PC),
				"op": insn.Op,
			}).Trace("retire")
		}

		if !insn.IsControlTransfer {
			s.PC += insn.Size()
			continue
		}

		if e.trap != nil {
			err := e.trap
			e.trap = nil
			return err
		}

		switch s.ExitReason {
		case ExitDirectBranch, ExitIndirectBranch:
			s.PC = s.ReenterPC
		case ExitSystemCall:
			return nil
		default:
			return fmt.Errorf("control transfer at pc 0x%x without exit reason", s.PC)
		}
	}
}
