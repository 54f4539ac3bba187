//go:build darwin

package uart

import (
	"context"
	"path/filepath"
	"strings"
)

// platformPorts lists /dev/cu.* call-out devices. The matching tty.* nodes
// block on carrier detect and are skipped.
func platformPorts(_ context.Context) ([]serialPort, error) {
	matches, err := filepath.Glob("/dev/cu.*")
	if err != nil {
		return nil, err
	}

	var ports []serialPort
	for _, path := range matches {
		name := filepath.Base(path)
		if isMacSystemPort(name) {
			continue
		}
		ports = append(ports, serialPort{Path: path, Name: name})
	}
	return ports, nil
}

func isMacSystemPort(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range []string{"bluetooth", "debug-console", "wlan", "airpods"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
