package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxStdinBytes bounds how much ReadFromStdin accepts
const MaxStdinBytes = 1 << 20

// ReadFromStdin reads all piped content from standard input.
// A terminal or an empty file yields "" without blocking.
func ReadFromStdin() (string, error) {
	return readPiped(os.Stdin)
}

func readPiped(f *os.File) (string, error) {
	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", nil
	}
	if stat.Mode().IsRegular() && stat.Size() == 0 {
		return "", nil
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxStdinBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxStdinBytes {
		return "", fmt.Errorf("standard input exceeds %d bytes", MaxStdinBytes)
	}
	return strings.TrimSpace(string(data)), nil
}
