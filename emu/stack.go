package emu

import "fmt"

// SetupStack allocates the guest stack from the bump allocator and lays
// out the initial process image at its top:
//
//	sp -> argc
//	      argv[0] ... argv[argc-1], NULL
//	      NULL (empty envp)
//	      AT_NULL, 0 (empty auxv)
//
// Argument strings are allocated above the stack. The final sp is 16-byte
// aligned, and the cursor after the strings becomes the initial program
// break.
func (e *Emulator) SetupStack(args []string) error {
	stack, err := e.memory.Alloc(int64(e.stackSize))
	if err != nil {
		return fmt.Errorf("allocate stack: %w", err)
	}

	argv := make([]uint64, len(args))
	for i, arg := range args {
		addr, err := e.memory.Alloc(int64(len(arg) + 1))
		if err != nil {
			return fmt.Errorf("allocate argument %d: %w", i, err)
		}
		copy(e.memory.Bytes(addr, uint64(len(arg))), arg)
		e.memory.Write8(addr+uint64(len(arg)), 0)
		argv[i] = addr
	}

	// argc, argv, argv terminator, envp terminator, auxv pair
	words := 1 + len(args) + 1 + 1 + 2
	sp := (stack + e.stackSize - uint64(words)*8) &^ 0xf
	if sp < stack {
		return fmt.Errorf("%d arguments do not fit the stack", len(args))
	}

	w := sp
	push := func(v uint64) {
		e.memory.Write64(w, v)
		w += 8
	}
	push(uint64(len(args)))
	for _, addr := range argv {
		push(addr)
	}
	push(0)
	push(0)
	push(0)
	push(0)

	e.state.X[RegSP] = sp
	if h, ok := e.syscallHandler.(*DefaultSyscallHandler); ok {
		h.SetBreakFloor(e.memory.Cursor())
	}
	return nil
}
