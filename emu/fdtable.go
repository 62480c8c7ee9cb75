package emu

import (
	"bytes"
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// FileDescriptor represents an open guest file descriptor.
type FileDescriptor struct {
	HostFile *os.File // Host file handle (nil for streams without one)
	Reader   io.Reader
	Writer   io.Writer
	Path     string // Original path (stdin/stdout/stderr for standard streams)
	Flags    int    // Host open flags
	IsOpen   bool   // Whether the FD is currently open
}

// FDTable maps guest file descriptors to host files and streams.
type FDTable struct {
	fds map[uint64]*FileDescriptor
}

// NewFDTable creates a file descriptor table with fds 0, 1 and 2 bound to
// the given streams. A nil stdin reads as end of file.
func NewFDTable(stdin io.Reader, stdout, stderr io.Writer) *FDTable {
	if stdin == nil {
		stdin = bytes.NewReader(nil)
	}

	t := &FDTable{fds: make(map[uint64]*FileDescriptor)}

	t.fds[0] = &FileDescriptor{Path: "stdin", Reader: stdin, IsOpen: true}
	t.fds[1] = &FileDescriptor{Path: "stdout", Writer: stdout, IsOpen: true}
	t.fds[2] = &FileDescriptor{Path: "stderr", Writer: stderr, IsOpen: true}
	for _, entry := range t.fds {
		if f, ok := entry.Reader.(*os.File); ok {
			entry.HostFile = f
		}
		if f, ok := entry.Writer.(*os.File); ok {
			entry.HostFile = f
		}
	}

	return t
}

// Open opens a host file on the lowest free descriptor.
func (t *FDTable) Open(path string, flags int, mode os.FileMode) (uint64, error) {
	hostFile, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return 0, err
	}

	fd := uint64(0)
	for t.IsOpen(fd) {
		fd++
	}

	t.fds[fd] = &FileDescriptor{
		HostFile: hostFile,
		Reader:   hostFile,
		Writer:   hostFile,
		Path:     path,
		Flags:    flags,
		IsOpen:   true,
	}

	return fd, nil
}

// Close closes a file descriptor. Standard streams are only marked closed;
// the host streams stay open.
func (t *FDTable) Close(fd uint64) error {
	entry, ok := t.Get(fd)
	if !ok {
		return unix.EBADF
	}

	entry.IsOpen = false
	if fd <= 2 || entry.HostFile == nil {
		return nil
	}

	err := entry.HostFile.Close()
	entry.HostFile = nil
	return err
}

// CloseAll closes every descriptor above the standard streams.
func (t *FDTable) CloseAll() error {
	var errs []error
	for fd := range t.fds {
		if fd > 2 && t.IsOpen(fd) {
			errs = append(errs, t.Close(fd))
		}
	}
	return errors.Join(errs...)
}

// Get returns the file descriptor entry if it exists and is open.
func (t *FDTable) Get(fd uint64) (*FileDescriptor, bool) {
	entry, exists := t.fds[fd]
	if !exists || !entry.IsOpen {
		return nil, false
	}

	return entry, true
}

// IsOpen checks if a file descriptor is open.
func (t *FDTable) IsOpen(fd uint64) bool {
	_, ok := t.Get(fd)
	return ok
}

// Read reads from a file descriptor into a buffer. End of file reads zero
// bytes without error.
func (t *FDTable) Read(fd uint64, buf []byte) (int, error) {
	entry, ok := t.Get(fd)
	if !ok || entry.Reader == nil {
		return 0, unix.EBADF
	}

	n, err := entry.Reader.Read(buf)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// Write writes a buffer to a file descriptor.
func (t *FDTable) Write(fd uint64, buf []byte) (int, error) {
	entry, ok := t.Get(fd)
	if !ok || entry.Writer == nil {
		return 0, unix.EBADF
	}

	return entry.Writer.Write(buf)
}

// Seek sets the file position for the given file descriptor.
func (t *FDTable) Seek(fd uint64, offset int64, whence int) (int64, error) {
	entry, ok := t.Get(fd)
	if !ok {
		return 0, unix.EBADF
	}
	if entry.HostFile == nil {
		return 0, unix.ESPIPE
	}

	return entry.HostFile.Seek(offset, whence)
}

// Stat returns host file status for a descriptor. Streams without a host
// file are reported as character devices.
func (t *FDTable) Stat(fd uint64) (unix.Stat_t, error) {
	var st unix.Stat_t

	entry, ok := t.Get(fd)
	if !ok {
		return st, unix.EBADF
	}
	if entry.HostFile == nil {
		st.Mode = unix.S_IFCHR | 0620
		st.Blksize = 1024
		return st, nil
	}

	err := unix.Fstat(int(entry.HostFile.Fd()), &st)
	return st, err
}
