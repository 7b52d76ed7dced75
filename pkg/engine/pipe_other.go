//go:build !linux

package engine

import "os"

func pipeSupported() error { return ErrUnsupportedPlatform }

func openPipe() (int, *os.File, error) {
	return -1, nil, ErrUnsupportedPlatform
}

func readPipe(fd int, p []byte) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func closePipe(fd int) error { return nil }
