//go:build linux

package engine

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

func pipeSupported() error { return nil }

// openPipe returns a non-blocking read descriptor for the event loop and the
// matching write end wrapped for the worker goroutine.
func openPipe() (int, *os.File, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return -1, nil, err
	}
	return fds[0], os.NewFile(uintptr(fds[1]), "murl-transfer"), nil
}

// readPipe reads what is available on fd. It returns errWouldBlock when the
// pipe is empty and io.EOF once the writer is gone.
func readPipe(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, errWouldBlock
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func closePipe(fd int) error {
	return unix.Close(fd)
}
