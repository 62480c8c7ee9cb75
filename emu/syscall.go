package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sys/unix"
)

// RISC-V Linux syscall numbers.
const (
	SyscallOpenat       uint64 = 56  // openat(dirfd, path, flags, mode)
	SyscallClose        uint64 = 57  // close(fd)
	SyscallLseek        uint64 = 62  // lseek(fd, offset, whence)
	SyscallRead         uint64 = 63  // read(fd, buf, count)
	SyscallWrite        uint64 = 64  // write(fd, buf, count)
	SyscallWritev       uint64 = 66  // writev(fd, iov, iovcnt)
	SyscallFstat        uint64 = 80  // fstat(fd, statbuf)
	SyscallExit         uint64 = 93  // exit(status)
	SyscallExitGroup    uint64 = 94  // exit_group(status)
	SyscallClockGettime uint64 = 113 // clock_gettime(clockid, tp)
	SyscallGettimeofday uint64 = 169 // gettimeofday(tv, tz)
	SyscallGetpid       uint64 = 172 // getpid()
	SyscallGetuid       uint64 = 174 // getuid()
	SyscallGeteuid      uint64 = 175 // geteuid()
	SyscallGetgid       uint64 = 176 // getgid()
	SyscallGetegid      uint64 = 177 // getegid()
	SyscallBrk          uint64 = 214 // brk(addr)
)

// Guest open flags, as defined by the generic Linux ABI.
const (
	guestOWronly = 0o1
	guestORdwr   = 0o2
	guestOCreat  = 0o100
	guestOExcl   = 0o200
	guestOTrunc  = 0o1000
	guestOAppend = 0o2000
)

const (
	atFDCWD  = -100
	statSize = 128
	pathMax  = 4096
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if the syscall cannot be emulated.
	Err error
}

// SyscallHandler is the interface for handling guest syscalls.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register state.
	// RISC-V Linux syscall convention:
	//   - Syscall number in a7
	//   - Arguments in a0-a5
	//   - Return value in a0, negative errno on failure
	Handle() SyscallResult
}

// DefaultSyscallHandler emulates the Linux syscalls a statically linked
// C runtime needs.
type DefaultSyscallHandler struct {
	state   *State
	memory  *Memory
	fdTable *FDTable
	stdout  io.Writer
	stderr  io.Writer
	start   time.Time

	// breakFloor is the lowest address brk may move to. Zero means it is
	// taken from the cursor on the first brk.
	breakFloor uint64
}

// NewDefaultSyscallHandler creates a default syscall handler. Guest stdin
// reads end of file until SetStdin is called.
func NewDefaultSyscallHandler(state *State, memory *Memory, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		state:   state,
		memory:  memory,
		fdTable: NewFDTable(nil, stdout, stderr),
		stdout:  stdout,
		stderr:  stderr,
		start:   time.Now(),
	}
}

// SetStdin sets the stdin reader for the syscall handler. It resets the
// descriptor table, so it must be called before the guest runs.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.fdTable = NewFDTable(stdin, h.stdout, h.stderr)
}

// SetBreakFloor sets the initial program break. brk never moves below it,
// so memory allocated before the guest starts, such as the stack, stays
// mapped.
func (h *DefaultSyscallHandler) SetBreakFloor(addr uint64) {
	h.breakFloor = addr
}

// FDTable returns the guest descriptor table.
func (h *DefaultSyscallHandler) FDTable() *FDTable {
	return h.fdTable
}

func (h *DefaultSyscallHandler) arg(i int8) uint64 {
	return h.state.X[RegA0+i]
}

func (h *DefaultSyscallHandler) ret(v uint64) SyscallResult {
	h.state.X[RegA0] = v
	return SyscallResult{}
}

// fail stores -errno in a0. Errors that carry no errno report EIO.
func (h *DefaultSyscallHandler) fail(err error) SyscallResult {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		errno = unix.EIO
	}
	return h.ret(uint64(-int64(errno)))
}

// guestBuffer returns guest memory [addr, addr+n) or EFAULT when the range
// leaves the window.
func (h *DefaultSyscallHandler) guestBuffer(addr, n uint64) ([]byte, error) {
	if addr > h.memory.Size() || n > h.memory.Size()-addr {
		return nil, unix.EFAULT
	}
	return h.memory.Bytes(addr, n), nil
}

// guestString reads a NUL-terminated path of at most pathMax bytes. Paths
// that leave the window or touch an unmapped page give EFAULT.
func (h *DefaultSyscallHandler) guestString(addr uint64) (s string, err error) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(runtime.Error); !ok {
			panic(r)
		}
		s, err = "", unix.EFAULT
	}()

	if addr >= h.memory.Size() {
		return "", unix.EFAULT
	}
	buf, err := h.guestBuffer(addr, min(pathMax, h.memory.Size()-addr))
	if err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	if len(buf) < pathMax {
		return "", unix.EFAULT
	}
	return "", unix.ENAMETOOLONG
}

// Handle executes the syscall indicated by the register state.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	switch num := h.state.X[RegA7]; num {
	case SyscallExit, SyscallExitGroup:
		return SyscallResult{Exited: true, ExitCode: int64(h.arg(0))}
	case SyscallRead:
		return h.handleRead()
	case SyscallWrite:
		return h.handleWrite()
	case SyscallWritev:
		return h.handleWritev()
	case SyscallOpenat:
		return h.handleOpenat()
	case SyscallClose:
		if err := h.fdTable.Close(h.arg(0)); err != nil {
			return h.fail(err)
		}
		return h.ret(0)
	case SyscallLseek:
		return h.handleLseek()
	case SyscallFstat:
		return h.handleFstat()
	case SyscallBrk:
		return h.handleBrk()
	case SyscallGettimeofday:
		return h.handleGettimeofday()
	case SyscallClockGettime:
		return h.handleClockGettime()
	case SyscallGetpid:
		return h.ret(uint64(os.Getpid()))
	case SyscallGetuid:
		return h.ret(uint64(os.Getuid()))
	case SyscallGeteuid:
		return h.ret(uint64(os.Geteuid()))
	case SyscallGetgid:
		return h.ret(uint64(os.Getgid()))
	case SyscallGetegid:
		return h.ret(uint64(os.Getegid()))
	default:
		return SyscallResult{Err: &UnimplementedError{
			PC:      h.state.PC,
			Feature: fmt.Sprintf("syscall %d", num),
		}}
	}
}

func (h *DefaultSyscallHandler) handleRead() SyscallResult {
	buf, err := h.guestBuffer(h.arg(1), h.arg(2))
	if err != nil {
		return h.fail(err)
	}

	n, err := h.fdTable.Read(h.arg(0), buf)
	if err != nil && n == 0 {
		return h.fail(err)
	}
	return h.ret(uint64(n))
}

func (h *DefaultSyscallHandler) handleWrite() SyscallResult {
	buf, err := h.guestBuffer(h.arg(1), h.arg(2))
	if err != nil {
		return h.fail(err)
	}

	n, err := h.fdTable.Write(h.arg(0), buf)
	if err != nil && n == 0 {
		return h.fail(err)
	}
	return h.ret(uint64(n))
}

// handleWritev writes each iovec in turn and stops at the first short or
// failed write.
func (h *DefaultSyscallHandler) handleWritev() SyscallResult {
	fd, iov, count := h.arg(0), h.arg(1), h.arg(2)
	if count > h.memory.Size()/16 {
		return h.fail(unix.EINVAL)
	}

	iovecs, err := h.guestBuffer(iov, count*16)
	if err != nil {
		return h.fail(err)
	}

	total := uint64(0)
	for i := uint64(0); i < count; i++ {
		base := binary.LittleEndian.Uint64(iovecs[i*16:])
		length := binary.LittleEndian.Uint64(iovecs[i*16+8:])

		buf, err := h.guestBuffer(base, length)
		if err != nil {
			return h.fail(err)
		}
		n, err := h.fdTable.Write(fd, buf)
		total += uint64(n)
		if err != nil {
			if total == 0 {
				return h.fail(err)
			}
			break
		}
		if uint64(n) < length {
			break
		}
	}
	return h.ret(total)
}

func hostOpenFlags(guest uint64) int {
	var flags int
	switch guest & 0o3 {
	case guestOWronly:
		flags = os.O_WRONLY
	case guestORdwr:
		flags = os.O_RDWR
	default:
		flags = os.O_RDONLY
	}

	if guest&guestOCreat != 0 {
		flags |= os.O_CREATE
	}
	if guest&guestOExcl != 0 {
		flags |= os.O_EXCL
	}
	if guest&guestOTrunc != 0 {
		flags |= os.O_TRUNC
	}
	if guest&guestOAppend != 0 {
		flags |= os.O_APPEND
	}
	return flags
}

func (h *DefaultSyscallHandler) handleOpenat() SyscallResult {
	dirfd := int64(h.arg(0))
	path, err := h.guestString(h.arg(1))
	if err != nil {
		return h.fail(err)
	}
	flags := hostOpenFlags(h.arg(2))
	mode := os.FileMode(h.arg(3) & 0o777)

	if !filepath.IsAbs(path) && dirfd != atFDCWD {
		dir, ok := h.fdTable.Get(uint64(dirfd))
		if !ok {
			return h.fail(unix.EBADF)
		}
		path = filepath.Join(dir.Path, path)
	}

	fd, err := h.fdTable.Open(path, flags, mode)
	if err != nil {
		return h.fail(err)
	}
	return h.ret(fd)
}

func (h *DefaultSyscallHandler) handleLseek() SyscallResult {
	off, err := h.fdTable.Seek(h.arg(0), int64(h.arg(1)), int(h.arg(2)))
	if err != nil {
		return h.fail(err)
	}
	return h.ret(uint64(off))
}

// handleFstat writes the host status in the riscv64 struct stat layout.
func (h *DefaultSyscallHandler) handleFstat() SyscallResult {
	st, err := h.fdTable.Stat(h.arg(0))
	if err != nil {
		return h.fail(err)
	}

	buf, err := h.guestBuffer(h.arg(1), statSize)
	if err != nil {
		return h.fail(err)
	}

	le := binary.LittleEndian
	clear(buf)
	le.PutUint64(buf[0:], uint64(st.Dev))
	le.PutUint64(buf[8:], uint64(st.Ino))
	le.PutUint32(buf[16:], uint32(st.Mode))
	le.PutUint32(buf[20:], uint32(st.Nlink))
	le.PutUint32(buf[24:], st.Uid)
	le.PutUint32(buf[28:], st.Gid)
	le.PutUint64(buf[32:], uint64(st.Rdev))
	le.PutUint64(buf[48:], uint64(st.Size))
	le.PutUint32(buf[56:], uint32(st.Blksize))
	le.PutUint64(buf[64:], uint64(st.Blocks))
	le.PutUint64(buf[72:], uint64(st.Atim.Sec))
	le.PutUint64(buf[80:], uint64(st.Atim.Nsec))
	le.PutUint64(buf[88:], uint64(st.Mtim.Sec))
	le.PutUint64(buf[96:], uint64(st.Mtim.Nsec))
	le.PutUint64(buf[104:], uint64(st.Ctim.Sec))
	le.PutUint64(buf[112:], uint64(st.Ctim.Nsec))
	return h.ret(0)
}

// handleBrk moves the program break through the bump allocator. A failed
// move, or one below the initial break, leaves the break unchanged, which
// the guest sees as failure.
func (h *DefaultSyscallHandler) handleBrk() SyscallResult {
	addr, cur := h.arg(0), h.memory.Cursor()
	if h.breakFloor == 0 {
		h.breakFloor = cur
	}
	if addr == 0 || addr == cur || addr < h.breakFloor {
		return h.ret(cur)
	}

	if _, err := h.memory.Alloc(int64(addr - cur)); err != nil {
		return h.ret(cur)
	}
	return h.ret(h.memory.Cursor())
}

func (h *DefaultSyscallHandler) handleGettimeofday() SyscallResult {
	if tv := h.arg(0); tv != 0 {
		buf, err := h.guestBuffer(tv, 16)
		if err != nil {
			return h.fail(err)
		}
		now := time.Now()
		binary.LittleEndian.PutUint64(buf[0:], uint64(now.Unix()))
		binary.LittleEndian.PutUint64(buf[8:], uint64(now.Nanosecond()/1000))
	}
	return h.ret(0)
}

// handleClockGettime serves CLOCK_REALTIME from the wall clock and every
// other clock from a monotonic reading taken since the handler started.
func (h *DefaultSyscallHandler) handleClockGettime() SyscallResult {
	buf, err := h.guestBuffer(h.arg(1), 16)
	if err != nil {
		return h.fail(err)
	}

	var sec, nsec int64
	if h.arg(0) == unix.CLOCK_REALTIME {
		now := time.Now()
		sec, nsec = now.Unix(), int64(now.Nanosecond())
	} else {
		elapsed := time.Since(h.start)
		sec, nsec = int64(elapsed/time.Second), int64(elapsed%time.Second)
	}

	binary.LittleEndian.PutUint64(buf[0:], uint64(sec))
	binary.LittleEndian.PutUint64(buf[8:], uint64(nsec))
	return h.ret(0)
}
