package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseTrace reads one virtual address per line. The first field of a line
// is the address, written in Go integer syntax (0x for hexadecimal). Blank
// lines and lines starting with # are skipped.
func parseTrace(r io.Reader) ([]uint64, error) {
	var addrs []uint64

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		field := strings.Fields(line)[0]

		addr, err := strconv.ParseUint(field, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid address %q: %w",
				lineNo, field, err)
		}

		addrs = append(addrs, addr)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return addrs, nil
}
