package emu

import (
	"errors"
	"fmt"
)

// ErrInstructionLimit is returned once the configured instruction budget is
// spent.
var ErrInstructionLimit = errors.New("instruction limit reached")

// UnimplementedError reports guest use of a feature the emulator does not
// provide, such as an unknown system call or CSR.
type UnimplementedError struct {
	PC      uint64
	Feature string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("unimplemented %s at pc 0x%x", e.Feature, e.PC)
}

// BreakpointError is raised by EBREAK.
type BreakpointError struct {
	PC uint64
}

func (e *BreakpointError) Error() string {
	return fmt.Sprintf("breakpoint at pc 0x%x", e.PC)
}

// MemoryFaultError reports a guest access outside accessible memory.
type MemoryFaultError struct {
	PC    uint64
	Cause error
}

func (e *MemoryFaultError) Error() string {
	return fmt.Sprintf("memory fault at pc 0x%x: %v", e.PC, e.Cause)
}

func (e *MemoryFaultError) Unwrap() error {
	return e.Cause
}
