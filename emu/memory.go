package emu

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultWindowSize is the size of the reserved guest address window.
const DefaultWindowSize = uint64(4) << 30

// Memory is the guest address space. A single host mapping is reserved up
// front and guest address A lives at window offset A. Pages start
// inaccessible and are opened by MapSegment and Alloc, so stray guest
// accesses fault on the host.
type Memory struct {
	window   []byte
	pageSize uint64

	// mapped is the page-aligned end of the accessible region.
	mapped uint64
	// lastProt is the protection of the page ending at mapped.
	lastProt int

	base  uint64
	alloc uint64
}

// NewMemory reserves a guest window of the given size.
func NewMemory(windowSize uint64) (*Memory, error) {
	pageSize := uint64(unix.Getpagesize())
	if windowSize == 0 || windowSize%pageSize != 0 {
		return nil, fmt.Errorf("window size 0x%x is not a positive multiple of the page size", windowSize)
	}

	window, err := unix.Mmap(-1, 0, int(windowSize), unix.PROT_NONE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("reserve guest window: %w", err)
	}

	return &Memory{window: window, pageSize: pageSize}, nil
}

// Close releases the host mapping.
func (m *Memory) Close() error {
	if m.window == nil {
		return nil
	}
	err := unix.Munmap(m.window)
	m.window = nil
	return err
}

// Size returns the size of the guest window.
func (m *Memory) Size() uint64 {
	return uint64(len(m.window))
}

// Translate converts a guest address to the host address backing it.
func (m *Memory) Translate(addr uint64) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(m.window))) + uintptr(addr)
}

// Base returns the lowest address Alloc may hand out or shrink to.
func (m *Memory) Base() uint64 {
	return m.base
}

// Cursor returns the next address Alloc will hand out.
func (m *Memory) Cursor() uint64 {
	return m.alloc
}

func (m *Memory) pageDown(addr uint64) uint64 {
	return addr &^ (m.pageSize - 1)
}

func (m *Memory) pageUp(addr uint64) uint64 {
	return (addr + m.pageSize - 1) &^ (m.pageSize - 1)
}

// MapSegment copies data to vaddr, zero-fills up to memSize and applies
// the host protection prot. Execute permission is never granted on the
// host; guest code is only ever read. When the segment starts in the last
// page of the previous mapping, that page keeps the union of both
// protections.
func (m *Memory) MapSegment(vaddr uint64, data []byte, memSize uint64, prot int) error {
	if uint64(len(data)) > memSize {
		return fmt.Errorf("segment at 0x%x: file size 0x%x exceeds memory size 0x%x",
			vaddr, len(data), memSize)
	}
	end := vaddr + memSize
	if end < vaddr || end > m.Size() {
		return fmt.Errorf("segment 0x%x-0x%x outside guest window", vaddr, end)
	}
	if memSize == 0 {
		return nil
	}

	start, stop := m.pageDown(vaddr), m.pageUp(end)
	if err := unix.Mprotect(m.window[start:stop], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return fmt.Errorf("open segment pages: %w", err)
	}

	copy(m.window[vaddr:], data)
	clear(m.window[vaddr+uint64(len(data)) : end])

	prot = (prot | unix.PROT_READ) &^ unix.PROT_EXEC
	if err := unix.Mprotect(m.window[start:stop], prot); err != nil {
		return fmt.Errorf("protect segment pages: %w", err)
	}
	if m.mapped > 0 && start == m.mapped-m.pageSize {
		shared := m.window[start : start+m.pageSize]
		if err := unix.Mprotect(shared, prot|m.lastProt); err != nil {
			return fmt.Errorf("protect shared page: %w", err)
		}
	}

	if stop >= m.mapped {
		m.mapped = stop
		m.lastProt = prot
	}
	m.base = max(m.base, m.mapped)
	m.alloc = max(m.alloc, m.mapped)
	return nil
}

// Alloc moves the allocation cursor by size bytes and returns the previous
// cursor. Growth opens pages read-write; shrinking releases whole pages
// back to the host. The cursor never drops below Base.
func (m *Memory) Alloc(size int64) (uint64, error) {
	prev := m.alloc

	if size < 0 {
		if uint64(-size) > m.alloc-m.base {
			return prev, fmt.Errorf("shrink by 0x%x below base 0x%x", -size, m.base)
		}
	} else if uint64(size) > m.Size()-m.alloc {
		return prev, fmt.Errorf("allocation of 0x%x exceeds guest window", size)
	}

	next := m.alloc + uint64(size)
	top := m.pageUp(next)

	switch {
	case top > m.mapped:
		if err := unix.Mprotect(m.window[m.mapped:top], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return prev, fmt.Errorf("grow allocation: %w", err)
		}
		m.mapped = top
		m.lastProt = unix.PROT_READ | unix.PROT_WRITE
	case top < m.mapped:
		released := m.window[top:m.mapped]
		if err := unix.Madvise(released, unix.MADV_DONTNEED); err != nil {
			return prev, fmt.Errorf("release pages: %w", err)
		}
		if err := unix.Mprotect(released, unix.PROT_NONE); err != nil {
			return prev, fmt.Errorf("release pages: %w", err)
		}
		m.mapped = top
	}

	m.alloc = next
	return prev, nil
}

// Bytes returns the n bytes at addr as a slice of the window.
func (m *Memory) Bytes(addr, n uint64) []byte {
	return m.window[addr : addr+n : addr+n]
}

// CString reads a NUL-terminated string starting at addr.
func (m *Memory) CString(addr uint64) string {
	end := addr
	for m.window[end] != 0 {
		end++
	}
	return string(m.window[addr:end])
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint64) uint8 {
	return m.window[addr]
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint64) uint16 {
	return binary.LittleEndian.Uint16(m.window[addr:])
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint64) uint32 {
	return binary.LittleEndian.Uint32(m.window[addr:])
}

// Read64 reads a little-endian doubleword.
func (m *Memory) Read64(addr uint64) uint64 {
	return binary.LittleEndian.Uint64(m.window[addr:])
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	m.window[addr] = value
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint64, value uint16) {
	binary.LittleEndian.PutUint16(m.window[addr:], value)
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint64, value uint32) {
	binary.LittleEndian.PutUint32(m.window[addr:], value)
}

// Write64 writes a little-endian doubleword.
func (m *Memory) Write64(addr uint64, value uint64) {
	binary.LittleEndian.PutUint64(m.window[addr:], value)
}
