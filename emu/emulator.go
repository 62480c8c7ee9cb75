package emu

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/sarchlab/rvemu/insts"
	"github.com/sarchlab/rvemu/loader"
)

// DefaultStackSize is the size of the guest stack allocated by SetupStack.
const DefaultStackSize = uint64(32) << 20

// StepResult represents the result of running up to the next system call.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes RV64GC user-mode programs functionally.
type Emulator struct {
	state          *State
	memory         *Memory
	decoder        *insts.Decoder
	decodeCache    *DecodeCache
	syscallHandler SyscallHandler
	logger         *logrus.Logger

	// I/O
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	windowSize uint64
	stackSize  uint64
	cacheSets  int
	cacheWays  int

	// trap is the fatal error raised by the instruction being executed.
	trap error

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdin sets the reader behind guest fd 0.
func WithStdin(r io.Reader) EmulatorOption {
	return func(e *Emulator) {
		e.stdin = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithLogger sets the logger used for tracing and diagnostics.
func WithLogger(logger *logrus.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithWindowSize sets the size of the reserved guest address window.
func WithWindowSize(size uint64) EmulatorOption {
	return func(e *Emulator) {
		e.windowSize = size
	}
}

// WithStackSize sets the size of the guest stack.
func WithStackSize(size uint64) EmulatorOption {
	return func(e *Emulator) {
		e.stackSize = size
	}
}

// WithDecodeCache sets the decode cache geometry. Zero sets disable the
// cache.
func WithDecodeCache(sets, ways int) EmulatorOption {
	return func(e *Emulator) {
		e.cacheSets = sets
		e.cacheWays = ways
	}
}

// NewEmulator creates a new RV64GC emulator with an empty address space.
func NewEmulator(opts ...EmulatorOption) (*Emulator, error) {
	e := &Emulator{
		state:      &State{},
		decoder:    insts.NewDecoder(),
		logger:     logrus.StandardLogger(),
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		windowSize: DefaultWindowSize,
		stackSize:  DefaultStackSize,
		cacheSets:  DefaultDecodeCacheSets,
		cacheWays:  DefaultDecodeCacheWays,
	}

	for _, opt := range opts {
		opt(e)
	}

	memory, err := NewMemory(e.windowSize)
	if err != nil {
		return nil, err
	}
	e.memory = memory

	if e.cacheSets > 0 && e.cacheWays > 0 {
		e.decodeCache = NewDecodeCache(e.cacheSets, e.cacheWays)
	}

	// If no syscall handler was provided, create a default one
	if e.syscallHandler == nil {
		handler := NewDefaultSyscallHandler(e.state, e.memory, e.stdout, e.stderr)
		handler.SetStdin(e.stdin)
		e.syscallHandler = handler
	}

	return e, nil
}

// Close releases the guest address space and any files the guest left
// open.
func (e *Emulator) Close() error {
	var errs []error
	if h, ok := e.syscallHandler.(*DefaultSyscallHandler); ok {
		errs = append(errs, h.FDTable().CloseAll())
	}
	errs = append(errs, e.memory.Close())
	return errors.Join(errs...)
}

// State returns the architectural state.
func (e *Emulator) State() *State {
	return e.state
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// DecodeCache returns the decode cache, or nil when disabled.
func (e *Emulator) DecodeCache() *DecodeCache {
	return e.decodeCache
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram maps raw code readable and writable at entry and points the
// PC at it.
func (e *Emulator) LoadProgram(entry uint64, program []byte) error {
	err := e.memory.MapSegment(entry, program, uint64(len(program)),
		unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return err
	}
	e.state.PC = entry
	e.flushDecodeCache()
	return nil
}

// LoadELF maps every loadable segment of prog and points the PC at its
// entry.
func (e *Emulator) LoadELF(prog *loader.Program) error {
	for _, seg := range prog.Segments {
		err := e.memory.MapSegment(seg.VirtAddr, seg.Data, seg.MemSize, segmentProt(seg.Flags))
		if err != nil {
			return fmt.Errorf("load segment at 0x%x: %w", seg.VirtAddr, err)
		}
	}

	e.state.PC = prog.EntryPoint
	e.flushDecodeCache()
	e.logger.WithFields(logrus.Fields{
		"entry":    fmt.Sprintf("0x%x", prog.EntryPoint),
		"segments": len(prog.Segments),
		"base":     fmt.Sprintf("0x%x", e.memory.Base()),
	}).Debug("program loaded")
	return nil
}

func (e *Emulator) flushDecodeCache() {
	if e.decodeCache != nil {
		e.decodeCache.Flush()
	}
}

func segmentProt(flags loader.SegmentFlags) int {
	prot := unix.PROT_NONE
	if flags&loader.SegmentFlagRead != 0 {
		prot |= unix.PROT_READ
	}
	if flags&loader.SegmentFlagWrite != 0 {
		prot |= unix.PROT_WRITE
	}
	if flags&loader.SegmentFlagExecute != 0 {
		prot |= unix.PROT_EXEC
	}
	return prot
}

// Step runs until the next system call, services it and resumes the PC
// after the ECALL.
func (e *Emulator) Step() StepResult {
	if err := e.ExecBlock(); err != nil {
		return StepResult{Err: err}
	}

	if e.logger.IsLevelEnabled(logrus.DebugLevel) {
		e.logger.WithFields(logrus.Fields{
			"pc":     fmt.Sprintf("0x%x", e.state.PC),
			"number": e.state.X[RegA7],
		}).Debug("syscall")
	}

	result := e.handleSyscall()
	if result.Err != nil {
		return StepResult{Err: fmt.Errorf("system call at pc 0x%x: %w", e.state.PC, result.Err)}
	}
	if result.Exited {
		return StepResult{Exited: true, ExitCode: result.ExitCode}
	}

	e.state.PC = e.state.ReenterPC
	return StepResult{}
}

func (e *Emulator) handleSyscall() (result SyscallResult) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer e.catchFault(&result.Err)
	return e.syscallHandler.Handle()
}

// Run executes the program until it exits or fails, returning the guest
// exit status.
func (e *Emulator) Run() (int64, error) {
	for {
		result := e.Step()
		if result.Err != nil {
			return -1, result.Err
		}
		if result.Exited {
			return result.ExitCode, nil
		}
	}
}
